package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/pkg/jwt"
	"github.com/frontandrew/flighthub/internal/pkg/logger"
	"github.com/frontandrew/flighthub/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	tokens := jwt.NewTokenService("secret", time.Minute)
	userID := uuid.New()
	valid, _, err := tokens.GenerateToken(userID)
	require.NoError(t, err)
	expired, _, err := jwt.NewTokenService("secret", -time.Minute).GenerateToken(userID)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{name: "валидный токен", header: "Bearer " + valid, wantStatus: http.StatusOK},
		{name: "нет заголовка", header: "", wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "неверный формат", header: "Token " + valid, wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "истекший токен", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized, wantCode: "TOKEN_EXPIRED"},
		{name: "мусор", header: "Bearer abc", wantStatus: http.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen uuid.UUID
			handler := AuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode == "" {
				assert.Equal(t, userID, seen)
				return
			}
			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, tt.wantCode, resp["code"])
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		panicVal interface{}
		wantCode string
	}{
		{name: "нарушение инварианта", panicVal: &domain.InvariantError{Message: "custom flight without ticket"}, wantCode: "INVARIANT_VIOLATED"},
		{name: "произвольная panic", panicVal: "boom", wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RecoveryMiddleware(logger.NewNoop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				panic(tt.panicVal)
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp["code"])
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	reg := metrics.New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(reg))
	r.Use(LoggingMiddleware(logger.NewNoop()))
	r.Get("/flights/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/flights/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("/flights/{id}", http.MethodGet, "404")))
}
