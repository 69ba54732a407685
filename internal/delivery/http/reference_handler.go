package http

import (
	"context"
	"net/http"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/pkg/logger"
	"github.com/frontandrew/flighthub/internal/pkg/validation"
	"github.com/google/uuid"
)

// ReferenceService определяет интерфейс для сервиса справочников
type ReferenceService interface {
	ListAircrafts(ctx context.Context, filter domain.ReferenceFilter) (*domain.Page[*domain.Aircraft], error)
	ListAirlines(ctx context.Context, filter domain.ReferenceFilter) (*domain.Page[*domain.Airline], error)
	ListAirports(ctx context.Context, filter domain.ReferenceFilter) (*domain.Page[*domain.Airport], error)
	GetAircraft(ctx context.Context, id uuid.UUID) (*domain.Aircraft, error)
	GetAirline(ctx context.Context, id uuid.UUID) (*domain.Airline, error)
	GetAirport(ctx context.Context, id uuid.UUID) (*domain.Airport, error)
	SetAirlineActive(ctx context.Context, id uuid.UUID, active bool) (*domain.Airline, error)
}

// ReferenceHandler обрабатывает запросы к справочникам
type ReferenceHandler struct {
	referenceService ReferenceService
	logger           logger.Logger
}

// NewReferenceHandler создает новый handler
func NewReferenceHandler(referenceService ReferenceService, logger logger.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		referenceService: referenceService,
		logger:           logger,
	}
}

// UpdateAirlineRequest - тело PATCH /airlines/{id}
type UpdateAirlineRequest struct {
	IsActive *bool `json:"isActive"`
}

// ListAircrafts возвращает страницу типов воздушных судов
// GET /api/v1/aircrafts
func (h *ReferenceHandler) ListAircrafts(w http.ResponseWriter, r *http.Request) {
	filter, err := referenceFilter(r)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list aircrafts")
		return
	}
	filter.Country, filter.Active = "", nil

	page, err := h.referenceService.ListAircrafts(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list aircrafts")
		return
	}
	respondData(w, http.StatusOK, page)
}

// GetAircraft возвращает тип воздушного судна по ID
// GET /api/v1/aircrafts/{id}
func (h *ReferenceHandler) GetAircraft(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	aircraft, err := h.referenceService.GetAircraft(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get aircraft")
		return
	}
	respondData(w, http.StatusOK, aircraft)
}

// ListAirlines возвращает страницу авиакомпаний
// GET /api/v1/airlines
func (h *ReferenceHandler) ListAirlines(w http.ResponseWriter, r *http.Request) {
	filter, err := referenceFilter(r)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list airlines")
		return
	}

	page, err := h.referenceService.ListAirlines(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list airlines")
		return
	}
	respondData(w, http.StatusOK, page)
}

// GetAirline возвращает авиакомпанию по ID
// GET /api/v1/airlines/{id}
func (h *ReferenceHandler) GetAirline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	airline, err := h.referenceService.GetAirline(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get airline")
		return
	}
	respondData(w, http.StatusOK, airline)
}

// UpdateAirline включает или выключает авиакомпанию
// PATCH /api/v1/airlines/{id}
func (h *ReferenceHandler) UpdateAirline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateAirlineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		respondServiceError(w, h.logger, validation.Collect(
			validation.Field("isActive", nil, validation.Required()),
		), "Failed to update airline")
		return
	}

	airline, err := h.referenceService.SetAirlineActive(r.Context(), id, *req.IsActive)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update airline")
		return
	}
	respondData(w, http.StatusOK, airline)
}

// ListAirports возвращает страницу аэропортов
// GET /api/v1/airports
func (h *ReferenceHandler) ListAirports(w http.ResponseWriter, r *http.Request) {
	filter, err := referenceFilter(r)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list airports")
		return
	}
	filter.Active = nil

	page, err := h.referenceService.ListAirports(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list airports")
		return
	}
	respondData(w, http.StatusOK, page)
}

// GetAirport возвращает аэропорт по ID
// GET /api/v1/airports/{id}
func (h *ReferenceHandler) GetAirport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	airport, err := h.referenceService.GetAirport(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get airport")
		return
	}
	respondData(w, http.StatusOK, airport)
}
