package flight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/infrastructure/flightsource"
	"github.com/frontandrew/flighthub/internal/pkg/logger"
	"github.com/frontandrew/flighthub/internal/pkg/metrics"
	"github.com/frontandrew/flighthub/internal/pkg/validation"
	"github.com/frontandrew/flighthub/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Результаты поиска для метрики lookups_total
const (
	resultCacheHit    = "cache_hit"
	resultFetched     = "fetched"
	resultNotFound    = "not_found"
	resultSeveral     = "several"
	resultIncomplete  = "incomplete"
	resultUnavailable = "source_unavailable"
	resultInvalid     = "invalid"
	resultError       = "error"
)

// FlightSource - поиск рейсов во внешнем источнике
type FlightSource interface {
	GetFlights(ctx context.Context, number, dateLocal string) ([]flightsource.FlightRecord, error)
}

// Locker - межпроцессная блокировка поиска (redis.Locker)
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// LookupRequest - запрос поиска рейса
type LookupRequest struct {
	FlightNumber string `json:"flightNumber"`
	DateLocal    string `json:"dateLocal"`
}

// Validate проверяет запрос поиска
func (r LookupRequest) Validate() error {
	return validation.Collect(
		validation.Field("flightNumber", r.FlightNumber, validation.Required(), validation.Text(), validation.Length(1, 255)),
		validation.Field("dateLocal", r.DateLocal, validation.Required(),
			validation.Must("isDate", "must be a date in YYYY-MM-DD format", func(v interface{}) bool {
				s, _ := v.(string)
				return domain.IsDate(s)
			}),
		),
	)
}

// LookupService ищет общий рейс: сначала в хранилище, затем во внешнем источнике
type LookupService struct {
	flightRepo repository.FlightRepository
	resolver   *Resolver
	txManager  repository.TxManager
	source     FlightSource
	locker     Locker
	group      singleflight.Group
	timeout    time.Duration
	metrics    *metrics.Registry
	logger     logger.Logger
}

// NewLookupService создает новый экземпляр сервиса поиска. locker и m могут быть nil.
func NewLookupService(
	flightRepo repository.FlightRepository,
	resolver *Resolver,
	txManager repository.TxManager,
	source FlightSource,
	locker Locker,
	timeout time.Duration,
	m *metrics.Registry,
	logger logger.Logger,
) *LookupService {
	return &LookupService{
		flightRepo: flightRepo,
		resolver:   resolver,
		txManager:  txManager,
		source:     source,
		locker:     locker,
		timeout:    timeout,
		metrics:    m,
		logger:     logger,
	}
}

// LookupFlight возвращает рейс по номеру и дате с точки зрения пользователя userID
func (s *LookupService) LookupFlight(ctx context.Context, userID uuid.UUID, req LookupRequest) (*FlightView, error) {
	if err := req.Validate(); err != nil {
		s.observe(resultInvalid)
		return nil, err
	}

	number := domain.NormalizeFlightNumber(req.FlightNumber)
	dateLocal := req.DateLocal

	flight, err := s.flightRepo.FindGeneral(ctx, number, dateLocal)
	if err == nil {
		s.observe(resultCacheHit)
		return NewFlightView(flight, userID), nil
	}
	if !errors.Is(err, domain.ErrFlightRecordNotFound) {
		s.observe(resultError)
		return nil, fmt.Errorf("failed to find flight: %w", err)
	}

	key := fmt.Sprintf("lookup:%s:%s", number, dateLocal)
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.fetchGuarded(context.WithoutCancel(ctx), key, number, dateLocal)
	})
	if err != nil {
		s.observe(lookupResult(err))
		return nil, err
	}
	if shared {
		s.logger.Debug("Lookup result shared", map[string]interface{}{"key": key})
	}

	return NewFlightView(v.(*domain.Flight), userID), nil
}

// fetchGuarded берет межпроцессную блокировку, перепроверяет хранилище и только потом идет в источник
func (s *LookupService) fetchGuarded(ctx context.Context, key, number, dateLocal string) (*domain.Flight, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, key)
		if err != nil {
			s.logger.Warn("Lookup lock not acquired, continuing without it", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		} else {
			defer release()
		}
	}

	flight, err := s.flightRepo.FindGeneral(ctx, number, dateLocal)
	if err == nil {
		s.observe(resultCacheHit)
		return flight, nil
	}
	if !errors.Is(err, domain.ErrFlightRecordNotFound) {
		return nil, fmt.Errorf("failed to find flight: %w", err)
	}

	records, err := s.fetch(ctx, number, dateLocal)
	if err != nil {
		return nil, err
	}

	switch {
	case len(records) == 0:
		return nil, fmt.Errorf("%w: %s on %s", domain.ErrFlightNotFound, number, dateLocal)
	case len(records) > 1:
		return nil, fmt.Errorf("%w: %d flights %s on %s", domain.ErrSeveralFlightsFound, len(records), number, dateLocal)
	}

	flight, err = s.build(ctx, records[0], number, dateLocal)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.flightRepo.Create(ctx, flight)
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		// рейс сохранил другой процесс
		flight, err = s.flightRepo.FindGeneral(ctx, number, dateLocal)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save flight: %w", err)
	}

	s.observe(resultFetched)
	s.logger.Info("Flight fetched from source", map[string]interface{}{
		"flight_id":  flight.ID(),
		"number":     number,
		"date_local": dateLocal,
	})
	return flight, nil
}

func (s *LookupService) fetch(ctx context.Context, number, dateLocal string) ([]flightsource.FlightRecord, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	records, err := s.source.GetFlights(ctx, number, dateLocal)
	if err != nil {
		s.logger.Error("Flight source request failed", map[string]interface{}{
			"number":     number,
			"date_local": dateLocal,
			"error":      err,
		})
		return nil, sourceError(err)
	}
	return records, nil
}

// build сопоставляет справочники и собирает общий рейс из записи источника.
// Рейс сохраняется под запрошенным номером: источник может вернуть номер оператора или код-шеринга.
func (s *LookupService) build(ctx context.Context, rec flightsource.FlightRecord, number, dateLocal string) (*domain.Flight, error) {
	aircraftID, err := s.resolver.Aircraft(ctx, rec.Aircraft)
	if err != nil {
		return nil, err
	}
	airlineID, err := s.resolver.Airline(ctx, rec.Airline)
	if err != nil {
		return nil, err
	}

	from, err := s.resolver.Airport(ctx, rec.Departure.Airport)
	if err != nil {
		return nil, incompleteOrErr(err)
	}
	to, err := s.resolver.Airport(ctx, rec.Arrival.Airport)
	if err != nil {
		return nil, incompleteOrErr(err)
	}

	departure, err := s.resolver.Movement(rec.Departure, from)
	if err != nil {
		return nil, incomplete(validation.Collect(validation.Merge("departure", err)...))
	}
	arrival, err := s.resolver.Movement(rec.Arrival, to)
	if err != nil {
		return nil, incomplete(validation.Collect(validation.Merge("arrival", err)...))
	}

	var distance domain.Distance
	if rec.GreatCircleDistance != nil {
		distance, err = DistanceFromRecord(rec.GreatCircleDistance)
	} else {
		distance, err = s.resolver.Distance(ctx, from, to)
	}
	if err != nil {
		if errors.Is(err, domain.ErrSourceUnavailable) {
			return nil, err
		}
		return nil, incomplete(err)
	}

	var aircraftReg string
	if rec.Aircraft != nil {
		aircraftReg = rec.Aircraft.Reg
	}

	flight, err := domain.CreateGeneral(domain.GeneralFlightParams{
		AircraftID:  aircraftID,
		AircraftReg: aircraftReg,
		AirlineID:   airlineID,
		Departure:   departure,
		Arrival:     arrival,
		Distance:    distance,
		Number:      number,
		CallSign:    rec.CallSign,
		Status:      domain.ParseFlightStatus(rec.Status),
		DateLocal:   dateLocal,
	})
	if err != nil {
		return nil, incomplete(err)
	}
	return flight, nil
}

func (s *LookupService) observe(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.LookupsTotal.WithLabelValues(result).Inc()
}

// incompleteOrErr: не найденный аэропорт делает рейс неполным, прочие ошибки хранилища пробрасываются
func incompleteOrErr(err error) error {
	if errors.Is(err, domain.ErrAirportNotFound) {
		return incomplete(err)
	}
	return err
}

func lookupResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrFlightNotFound):
		return resultNotFound
	case errors.Is(err, domain.ErrSeveralFlightsFound):
		return resultSeveral
	case errors.Is(err, domain.ErrIncompleteFlight):
		return resultIncomplete
	case errors.Is(err, domain.ErrSourceUnavailable):
		return resultUnavailable
	}
	return resultError
}
