package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/pkg/config"
	"github.com/frontandrew/flighthub/internal/pkg/jwt"
	"github.com/frontandrew/flighthub/internal/pkg/logger"
	"github.com/frontandrew/flighthub/internal/pkg/metrics"
	"github.com/frontandrew/flighthub/internal/usecase/flight"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(flights *MockFlightService) (http.Handler, *jwt.TokenService) {
	tokens := jwt.NewTokenService("test-secret", time.Minute)
	log := logger.NewNoop()
	router := NewRouter(
		NewReferenceHandler(new(MockReferenceService), log),
		NewFlightHandler(flights, new(MockLookupService), log),
		tokens,
		metrics.New(prometheus.NewRegistry()),
		config.CORSConfig{AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET"}},
		log,
	)
	return router.Setup(), tokens
}

func TestRouter_PublicEndpoints(t *testing.T) {
	handler, _ := newTestRouter(new(MockFlightService))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "flighthub_http_requests_total"))
}

func TestRouter_RequiresToken(t *testing.T) {
	handler, _ := newTestRouter(new(MockFlightService))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/flights", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_AuthenticatedFlightRoute(t *testing.T) {
	userID := uuid.New()
	flightID := uuid.New()
	flights := new(MockFlightService)
	flights.On("Get", mock.Anything, userID, flightID).Return(&flight.FlightView{ID: flightID, Type: domain.FlightTypeGeneral}, nil)
	handler, tokens := newTestRouter(flights)

	token, _, err := tokens.GenerateToken(userID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/flights/"+flightID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	AssertSuccess(t, decodeResponse(t, w.Body.Bytes()))
	flights.AssertExpectations(t)
}
