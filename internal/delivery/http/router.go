package http

import (
	"net/http"

	"github.com/frontandrew/flighthub/internal/delivery/http/middleware"
	"github.com/frontandrew/flighthub/internal/pkg/config"
	"github.com/frontandrew/flighthub/internal/pkg/logger"
	"github.com/frontandrew/flighthub/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Router содержит все зависимости для HTTP роутера
type Router struct {
	referenceHandler *ReferenceHandler
	flightHandler    *FlightHandler
	tokens           middleware.TokenValidator
	metrics          *metrics.Registry
	cors             config.CORSConfig
	logger           logger.Logger
}

// NewRouter создает новый HTTP router
func NewRouter(
	referenceHandler *ReferenceHandler,
	flightHandler *FlightHandler,
	tokens middleware.TokenValidator,
	m *metrics.Registry,
	corsConfig config.CORSConfig,
	logger logger.Logger,
) *Router {
	return &Router{
		referenceHandler: referenceHandler,
		flightHandler:    flightHandler,
		tokens:           tokens,
		metrics:          m,
		cors:             corsConfig,
		logger:           logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.MetricsMiddleware(rt.metrics))
	r.Use(middleware.LoggingMiddleware(rt.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cors.AllowedOrigins,
		AllowedMethods: rt.cors.AllowedMethods,
		AllowedHeaders: rt.cors.AllowedHeaders,
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	// Публичные endpoints
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})
	r.Handle("/metrics", rt.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(rt.tokens))

		r.Route("/aircrafts", func(r chi.Router) {
			r.Get("/", rt.referenceHandler.ListAircrafts)
			r.Get("/{id}", rt.referenceHandler.GetAircraft)
		})

		r.Route("/airlines", func(r chi.Router) {
			r.Get("/", rt.referenceHandler.ListAirlines)
			r.Get("/{id}", rt.referenceHandler.GetAirline)
			r.Patch("/{id}", rt.referenceHandler.UpdateAirline)
		})

		r.Route("/airports", func(r chi.Router) {
			r.Get("/", rt.referenceHandler.ListAirports)
			r.Get("/{id}", rt.referenceHandler.GetAirport)
		})

		r.Route("/flights", func(r chi.Router) {
			r.Get("/", rt.flightHandler.ListFlights)
			r.Post("/", rt.flightHandler.CreateFlight)
			r.Post("/lookup", rt.flightHandler.LookupFlight)
			r.Get("/{id}", rt.flightHandler.GetFlight)
			r.Put("/{id}", rt.flightHandler.UpdateFlight)
			r.Patch("/{id}", rt.flightHandler.UpdateFlight)
			r.Delete("/{id}", rt.flightHandler.DeleteFlight)
		})
	})

	return r
}
