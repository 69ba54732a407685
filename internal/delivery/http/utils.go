package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/frontandrew/flighthub/internal/delivery/http/middleware"
	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/pkg/logger"
	"github.com/frontandrew/flighthub/internal/pkg/validation"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// errorResponse - тело ответа с ошибкой
type errorResponse struct {
	Success bool                     `json:"success"`
	Error   string                   `json:"error"`
	Code    string                   `json:"code"`
	Details []*validation.FieldError `json:"details,omitempty"`
}

// respondJSON отправляет JSON ответ
func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"Failed to marshal response","code":"INTERNAL_ERROR"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondData отправляет успешный ответ в конверте {"success":true,"data":...}
func respondData(w http.ResponseWriter, code int, data interface{}) {
	respondJSON(w, code, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// respondError отправляет JSON ответ с ошибкой
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// respondServiceError переводит доменную ошибку в HTTP статус и код
func respondServiceError(w http.ResponseWriter, log logger.Logger, err error, message string) {
	switch {
	// неполный рейс может нести детали валидации, поэтому проверяется раньше
	case errors.Is(err, domain.ErrIncompleteFlight):
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Flight data is incomplete",
			Code:    "INCOMPLETE_FLIGHT",
			Details: validation.Details(err),
		})
	case errors.Is(err, domain.ErrValidationFailed):
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Validation failed",
			Code:    "VALIDATION_FAILED",
			Details: validation.Details(err),
		})
	case errors.Is(err, domain.ErrFlightNotFound):
		respondError(w, http.StatusBadRequest, "FLIGHT_NOT_FOUND", "Flight not found in source")
	case errors.Is(err, domain.ErrSeveralFlightsFound):
		respondError(w, http.StatusBadRequest, "SEVERAL_FLIGHTS_FOUND", "Several flights found, refine the request")
	case errors.Is(err, domain.ErrSourceUnavailable):
		log.Warn(message, map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusServiceUnavailable, "SOURCE_UNAVAILABLE", "Flight source unavailable")
	case errors.Is(err, domain.ErrFlightRecordNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Flight not found")
	case errors.Is(err, domain.ErrTicketNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Ticket not found")
	case errors.Is(err, domain.ErrAircraftNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Aircraft not found")
	case errors.Is(err, domain.ErrAirlineNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Airline not found")
	case errors.Is(err, domain.ErrAirportNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Airport not found")
	case errors.Is(err, domain.ErrForbidden):
		respondError(w, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, domain.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
	case errors.Is(err, domain.ErrAlreadyExists):
		respondError(w, http.StatusConflict, "CONFLICT", "Already exists")
	default:
		log.Error(message, map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", message)
	}
}

// decodeJSON читает тело запроса; false если ответ с ошибкой уже отправлен
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return false
	}
	return true
}

// pathID извлекает UUID из параметра пути chi
func pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

// currentUser извлекает ID пользователя из контекста
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// queryInt читает неотрицательное целое из query; пустое значение - 0
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, validation.Collect(
			validation.Field(name, raw, validation.Must("isInt", "must be a non-negative integer", func(interface{}) bool { return false })),
		)
	}
	return n, nil
}

// referenceFilter собирает фильтр справочника из query параметров
func referenceFilter(r *http.Request) (domain.ReferenceFilter, error) {
	q := r.URL.Query()
	filter := domain.ReferenceFilter{
		Search:  q.Get("search"),
		Country: q.Get("country"),
	}

	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		return filter, err
	}

	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, validation.Collect(
				validation.Field("active", raw, validation.Must("isBoolean", "must be true or false", func(interface{}) bool { return false })),
			)
		}
		filter.Active = &active
	}
	return filter, nil
}

// flightFilter собирает фильтр рейсов пользователя из query параметров
func flightFilter(r *http.Request) (domain.FlightFilter, error) {
	filter := domain.FlightFilter{Type: domain.FlightType(r.URL.Query().Get("type"))}

	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}
