package http

import (
	"context"
	"net/http"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/pkg/logger"
	"github.com/frontandrew/flighthub/internal/usecase/flight"
	"github.com/google/uuid"
)

// FlightService определяет интерфейс для сервиса рейсов
type FlightService interface {
	Create(ctx context.Context, userID uuid.UUID, req flight.CreateFlightRequest) (*flight.FlightView, error)
	Update(ctx context.Context, userID, id uuid.UUID, req flight.UpdateFlightRequest) (*flight.FlightView, error)
	Destroy(ctx context.Context, userID, id uuid.UUID) error
	Get(ctx context.Context, userID, id uuid.UUID) (*flight.FlightView, error)
	List(ctx context.Context, userID uuid.UUID, filter domain.FlightFilter) (*domain.Page[*flight.FlightView], error)
}

// LookupService определяет интерфейс поиска общего рейса
type LookupService interface {
	LookupFlight(ctx context.Context, userID uuid.UUID, req flight.LookupRequest) (*flight.FlightView, error)
}

// FlightHandler обрабатывает запросы связанные с рейсами
type FlightHandler struct {
	flightService FlightService
	lookupService LookupService
	logger        logger.Logger
}

// NewFlightHandler создает новый handler
func NewFlightHandler(flightService FlightService, lookupService LookupService, logger logger.Logger) *FlightHandler {
	return &FlightHandler{
		flightService: flightService,
		lookupService: lookupService,
		logger:        logger,
	}
}

// LookupFlight ищет общий рейс по номеру и дате
// POST /api/v1/flights/lookup
func (h *FlightHandler) LookupFlight(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req flight.LookupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.lookupService.LookupFlight(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to lookup flight")
		return
	}
	respondData(w, http.StatusOK, view)
}

// ListFlights возвращает рейсы текущего пользователя
// GET /api/v1/flights
func (h *FlightHandler) ListFlights(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	filter, err := flightFilter(r)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list flights")
		return
	}

	page, err := h.flightService.List(r.Context(), userID, filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list flights")
		return
	}
	respondData(w, http.StatusOK, page)
}

// CreateFlight создает пользовательский рейс или присоединяет к общему
// POST /api/v1/flights
func (h *FlightHandler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req flight.CreateFlightRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.flightService.Create(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create flight")
		return
	}
	respondData(w, http.StatusCreated, view)
}

// GetFlight возвращает рейс по ID
// GET /api/v1/flights/{id}
func (h *FlightHandler) GetFlight(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.flightService.Get(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get flight")
		return
	}
	respondData(w, http.StatusOK, view)
}

// UpdateFlight частично обновляет рейс
// PUT|PATCH /api/v1/flights/{id}
func (h *FlightHandler) UpdateFlight(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req flight.UpdateFlightRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.flightService.Update(r.Context(), userID, id, req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update flight")
		return
	}
	respondData(w, http.StatusOK, view)
}

// DeleteFlight удаляет пользовательский рейс или билет пользователя на общем
// DELETE /api/v1/flights/{id}
func (h *FlightHandler) DeleteFlight(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.flightService.Destroy(r.Context(), userID, id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete flight")
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"id": id})
}
