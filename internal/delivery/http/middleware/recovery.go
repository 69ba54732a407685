package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/pkg/logger"
)

// RecoveryMiddleware восстанавливается после panic и возвращает 500 ошибку.
// Нарушение инварианта агрегата логируется отдельно: это ошибка в коде, а не во входных данных.
func RecoveryMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				fields := map[string]interface{}{
					"error":       rec,
					"stack":       string(debug.Stack()),
					"method":      r.Method,
					"path":        r.URL.Path,
					"remote_addr": r.RemoteAddr,
				}
				code := "INTERNAL_ERROR"
				if err, ok := rec.(error); ok && errors.Is(err, domain.ErrInvariantViolated) {
					code = "INVARIANT_VIOLATED"
					log.Error("Aggregate invariant violated", fields)
				} else {
					log.Error("Panic recovered", fields)
				}

				respondError(w, http.StatusInternalServerError, code, "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
