package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/pkg/logger"
	"github.com/frontandrew/flighthub/internal/pkg/validation"
	"github.com/frontandrew/flighthub/internal/usecase/flight"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockFlightService - мок сервиса рейсов
type MockFlightService struct {
	mock.Mock
}

func (m *MockFlightService) Create(ctx context.Context, userID uuid.UUID, req flight.CreateFlightRequest) (*flight.FlightView, error) {
	args := m.Called(ctx, userID, req)
	view, _ := args.Get(0).(*flight.FlightView)
	return view, args.Error(1)
}

func (m *MockFlightService) Update(ctx context.Context, userID, id uuid.UUID, req flight.UpdateFlightRequest) (*flight.FlightView, error) {
	args := m.Called(ctx, userID, id, req)
	view, _ := args.Get(0).(*flight.FlightView)
	return view, args.Error(1)
}

func (m *MockFlightService) Destroy(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockFlightService) Get(ctx context.Context, userID, id uuid.UUID) (*flight.FlightView, error) {
	args := m.Called(ctx, userID, id)
	view, _ := args.Get(0).(*flight.FlightView)
	return view, args.Error(1)
}

func (m *MockFlightService) List(ctx context.Context, userID uuid.UUID, filter domain.FlightFilter) (*domain.Page[*flight.FlightView], error) {
	args := m.Called(ctx, userID, filter)
	page, _ := args.Get(0).(*domain.Page[*flight.FlightView])
	return page, args.Error(1)
}

// MockLookupService - мок поиска рейсов
type MockLookupService struct {
	mock.Mock
}

func (m *MockLookupService) LookupFlight(ctx context.Context, userID uuid.UUID, req flight.LookupRequest) (*flight.FlightView, error) {
	args := m.Called(ctx, userID, req)
	view, _ := args.Get(0).(*flight.FlightView)
	return view, args.Error(1)
}

func newFlightRequest(t *testing.T, method, target string, userID uuid.UUID, body interface{}, params map[string]string) *http.Request {
	t.Helper()

	var raw []byte
	switch b := body.(type) {
	case nil:
	case string:
		raw = []byte(b)
	default:
		raw, _ = json.Marshal(b)
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	ctx := CreateAuthContext(t, userID)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// TestFlightHandler_LookupFlight тестирует поиск рейса и перевод ошибок в статусы
func TestFlightHandler_LookupFlight(t *testing.T) {
	userID := uuid.New()
	view := &flight.FlightView{ID: uuid.New(), Type: domain.FlightTypeGeneral, Number: "LH400", Status: domain.FlightStatusArrived}
	incomplete := fmt.Errorf("%w: %w", domain.ErrIncompleteFlight,
		validation.Collect(validation.Field("departure.actualTimeUtc", "", validation.Required())))

	tests := []struct {
		name           string
		body           interface{}
		serviceErr     error
		expectedStatus int
		expectedCode   string
	}{
		{name: "успешный поиск", body: flight.LookupRequest{FlightNumber: "LH400", DateLocal: "2024-01-01"}, expectedStatus: http.StatusOK},
		{name: "невалидный JSON", body: "invalid", expectedStatus: http.StatusBadRequest, expectedCode: "INVALID_BODY"},
		{name: "ошибка валидации", body: flight.LookupRequest{}, serviceErr: validation.Collect(validation.Field("flightNumber", "", validation.Required())), expectedStatus: http.StatusBadRequest, expectedCode: "VALIDATION_FAILED"},
		{name: "рейс не найден", body: flight.LookupRequest{FlightNumber: "XX1", DateLocal: "2024-01-01"}, serviceErr: domain.ErrFlightNotFound, expectedStatus: http.StatusBadRequest, expectedCode: "FLIGHT_NOT_FOUND"},
		{name: "несколько рейсов", body: flight.LookupRequest{FlightNumber: "XX2", DateLocal: "2024-01-01"}, serviceErr: domain.ErrSeveralFlightsFound, expectedStatus: http.StatusBadRequest, expectedCode: "SEVERAL_FLIGHTS_FOUND"},
		{name: "неполный рейс", body: flight.LookupRequest{FlightNumber: "XX3", DateLocal: "2024-01-01"}, serviceErr: incomplete, expectedStatus: http.StatusBadRequest, expectedCode: "INCOMPLETE_FLIGHT"},
		{name: "источник недоступен", body: flight.LookupRequest{FlightNumber: "XX4", DateLocal: "2024-01-01"}, serviceErr: fmt.Errorf("%w: timeout", domain.ErrSourceUnavailable), expectedStatus: http.StatusServiceUnavailable, expectedCode: "SOURCE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookups := new(MockLookupService)
			if req, ok := tt.body.(flight.LookupRequest); ok {
				if tt.serviceErr != nil {
					lookups.On("LookupFlight", mock.Anything, userID, req).Return(nil, tt.serviceErr)
				} else {
					lookups.On("LookupFlight", mock.Anything, userID, req).Return(view, nil)
				}
			}
			handler := NewFlightHandler(new(MockFlightService), lookups, logger.NewNoop())

			w := httptest.NewRecorder()
			handler.LookupFlight(w, newFlightRequest(t, http.MethodPost, "/api/v1/flights/lookup", userID, tt.body, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			resp := decodeResponse(t, w.Body.Bytes())
			if tt.expectedCode == "" {
				AssertSuccess(t, resp)
				data, _ := resp["data"].(map[string]interface{})
				assert.Equal(t, "LH400", data["number"])
			} else {
				AssertError(t, resp, tt.expectedCode)
			}
			lookups.AssertExpectations(t)
		})
	}
}

func TestFlightHandler_IncompleteFlightCarriesDetails(t *testing.T) {
	userID := uuid.New()
	req := flight.LookupRequest{FlightNumber: "LH400", DateLocal: "2024-01-01"}
	lookups := new(MockLookupService)
	lookups.On("LookupFlight", mock.Anything, userID, req).Return(nil, fmt.Errorf("%w: %w", domain.ErrIncompleteFlight,
		validation.Collect(validation.Field("departure.actualTimeUtc", "", validation.Required()))))
	handler := NewFlightHandler(new(MockFlightService), lookups, logger.NewNoop())

	w := httptest.NewRecorder()
	handler.LookupFlight(w, newFlightRequest(t, http.MethodPost, "/api/v1/flights/lookup", userID, req, nil))

	resp := decodeResponse(t, w.Body.Bytes())
	details, _ := resp["details"].([]interface{})
	if assert.Len(t, details, 1) {
		field, _ := details[0].(map[string]interface{})
		assert.Equal(t, "departure.actualTimeUtc", field["field"])
	}
}

// TestFlightHandler_CreateFlight тестирует создание рейса
func TestFlightHandler_CreateFlight(t *testing.T) {
	userID := uuid.New()
	parentID := uuid.New()
	joinReq := flight.CreateFlightRequest{Type: domain.FlightTypeGeneral, ParentID: &parentID, Seat: "1A"}

	tests := []struct {
		name           string
		serviceErr     error
		expectedStatus int
		expectedCode   string
	}{
		{name: "присоединение к рейсу", expectedStatus: http.StatusCreated},
		{name: "родитель не найден", serviceErr: domain.ErrFlightRecordNotFound, expectedStatus: http.StatusNotFound, expectedCode: "NOT_FOUND"},
		{name: "ошибка хранилища", serviceErr: fmt.Errorf("connection reset"), expectedStatus: http.StatusInternalServerError, expectedCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flights := new(MockFlightService)
			if tt.serviceErr != nil {
				flights.On("Create", mock.Anything, userID, joinReq).Return(nil, tt.serviceErr)
			} else {
				flights.On("Create", mock.Anything, userID, joinReq).
					Return(&flight.FlightView{ID: parentID, Ticket: &flight.TicketView{Seat: "1A"}}, nil)
			}
			handler := NewFlightHandler(flights, new(MockLookupService), logger.NewNoop())

			w := httptest.NewRecorder()
			handler.CreateFlight(w, newFlightRequest(t, http.MethodPost, "/api/v1/flights", userID, joinReq, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			resp := decodeResponse(t, w.Body.Bytes())
			if tt.expectedCode != "" {
				AssertError(t, resp, tt.expectedCode)
			} else {
				AssertSuccess(t, resp)
			}
			flights.AssertExpectations(t)
		})
	}
}

// TestFlightHandler_ByID тестирует операции над рейсом по ID
func TestFlightHandler_ByID(t *testing.T) {
	userID := uuid.New()
	flightID := uuid.New()
	seat := "2B"

	t.Run("чужой рейс", func(t *testing.T) {
		flights := new(MockFlightService)
		flights.On("Get", mock.Anything, userID, flightID).Return(nil, domain.ErrForbidden)
		handler := NewFlightHandler(flights, new(MockLookupService), logger.NewNoop())

		w := httptest.NewRecorder()
		handler.GetFlight(w, newFlightRequest(t, http.MethodGet, "/api/v1/flights/"+flightID.String(), userID, nil, map[string]string{"id": flightID.String()}))

		assert.Equal(t, http.StatusForbidden, w.Code)
		AssertError(t, decodeResponse(t, w.Body.Bytes()), "FORBIDDEN")
	})

	t.Run("невалидный ID", func(t *testing.T) {
		handler := NewFlightHandler(new(MockFlightService), new(MockLookupService), logger.NewNoop())

		w := httptest.NewRecorder()
		handler.GetFlight(w, newFlightRequest(t, http.MethodGet, "/api/v1/flights/abc", userID, nil, map[string]string{"id": "abc"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		AssertError(t, decodeResponse(t, w.Body.Bytes()), "INVALID_ID")
	})

	t.Run("обновление места", func(t *testing.T) {
		req := flight.UpdateFlightRequest{Seat: &seat}
		flights := new(MockFlightService)
		flights.On("Update", mock.Anything, userID, flightID, req).
			Return(&flight.FlightView{ID: flightID, Ticket: &flight.TicketView{Seat: seat}}, nil)
		handler := NewFlightHandler(flights, new(MockLookupService), logger.NewNoop())

		w := httptest.NewRecorder()
		handler.UpdateFlight(w, newFlightRequest(t, http.MethodPatch, "/api/v1/flights/"+flightID.String(), userID, req, map[string]string{"id": flightID.String()}))

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w.Body.Bytes())
		AssertSuccess(t, resp)
		data, _ := resp["data"].(map[string]interface{})
		ticket, _ := data["ticket"].(map[string]interface{})
		assert.Equal(t, seat, ticket["seat"])
	})

	t.Run("удаление без билета", func(t *testing.T) {
		flights := new(MockFlightService)
		flights.On("Destroy", mock.Anything, userID, flightID).Return(domain.ErrTicketNotFound)
		handler := NewFlightHandler(flights, new(MockLookupService), logger.NewNoop())

		w := httptest.NewRecorder()
		handler.DeleteFlight(w, newFlightRequest(t, http.MethodDelete, "/api/v1/flights/"+flightID.String(), userID, nil, map[string]string{"id": flightID.String()}))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("успешное удаление", func(t *testing.T) {
		flights := new(MockFlightService)
		flights.On("Destroy", mock.Anything, userID, flightID).Return(nil)
		handler := NewFlightHandler(flights, new(MockLookupService), logger.NewNoop())

		w := httptest.NewRecorder()
		handler.DeleteFlight(w, newFlightRequest(t, http.MethodDelete, "/api/v1/flights/"+flightID.String(), userID, nil, map[string]string{"id": flightID.String()}))

		assert.Equal(t, http.StatusOK, w.Code)
		flights.AssertExpectations(t)
	})
}

// TestFlightHandler_ListFlights тестирует список рейсов пользователя
func TestFlightHandler_ListFlights(t *testing.T) {
	userID := uuid.New()

	t.Run("фильтр из query", func(t *testing.T) {
		filter := domain.FlightFilter{Type: domain.FlightTypeCustom, Limit: 5, Offset: 10}
		flights := new(MockFlightService)
		flights.On("List", mock.Anything, userID, filter).
			Return(domain.NewPage([]*flight.FlightView{{ID: uuid.New()}}, 11, 5, 10), nil)
		handler := NewFlightHandler(flights, new(MockLookupService), logger.NewNoop())

		w := httptest.NewRecorder()
		handler.ListFlights(w, newFlightRequest(t, http.MethodGet, "/api/v1/flights?type=custom&limit=5&offset=10", userID, nil, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w.Body.Bytes())
		data, _ := resp["data"].(map[string]interface{})
		assert.Equal(t, float64(11), data["total"])
		flights.AssertExpectations(t)
	})

	t.Run("невалидный limit", func(t *testing.T) {
		handler := NewFlightHandler(new(MockFlightService), new(MockLookupService), logger.NewNoop())

		w := httptest.NewRecorder()
		handler.ListFlights(w, newFlightRequest(t, http.MethodGet, "/api/v1/flights?limit=-1", userID, nil, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		AssertError(t, decodeResponse(t, w.Body.Bytes()), "VALIDATION_FAILED")
	})

	t.Run("без авторизации", func(t *testing.T) {
		handler := NewFlightHandler(new(MockFlightService), new(MockLookupService), logger.NewNoop())

		w := httptest.NewRecorder()
		handler.ListFlights(w, httptest.NewRequest(http.MethodGet, "/api/v1/flights", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
