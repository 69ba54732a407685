package flight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/infrastructure/flightsource"
	"github.com/frontandrew/flighthub/internal/repository"
	"github.com/google/uuid"
)

// DistanceSource - расчет расстояния между аэропортами во внешнем источнике
type DistanceSource interface {
	GetFlightDistance(ctx context.Context, from, to string, codeType domain.CodeType) (*flightsource.DistanceRecord, error)
}

// Resolver сопоставляет ссылки из источника со справочниками и собирает value objects рейса
type Resolver struct {
	aircraftRepo repository.AircraftRepository
	airlineRepo  repository.AirlineRepository
	airportRepo  repository.AirportRepository
	source       DistanceSource
	timeout      time.Duration
}

// NewResolver создает новый экземпляр Resolver
func NewResolver(
	aircraftRepo repository.AircraftRepository,
	airlineRepo repository.AirlineRepository,
	airportRepo repository.AirportRepository,
	source DistanceSource,
	timeout time.Duration,
) *Resolver {
	return &Resolver{
		aircraftRepo: aircraftRepo,
		airlineRepo:  airlineRepo,
		airportRepo:  airportRepo,
		source:       source,
		timeout:      timeout,
	}
}

// Aircraft возвращает ID типа судна по модели или nil, если сопоставить не удалось
func (r *Resolver) Aircraft(ctx context.Context, info *flightsource.AircraftInfo) (*uuid.UUID, error) {
	if info == nil || info.Model == "" {
		return nil, nil
	}
	aircraft, err := r.aircraftRepo.FindMatch(ctx, domain.ReferenceQuery{Name: info.Model})
	if errors.Is(err, domain.ErrAircraftNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to match aircraft: %w", err)
	}
	return &aircraft.ID, nil
}

// Airline возвращает ID авиакомпании или nil, если сопоставить не удалось
func (r *Resolver) Airline(ctx context.Context, info *flightsource.AirlineInfo) (*uuid.UUID, error) {
	if info == nil {
		return nil, nil
	}
	airline, err := r.airlineRepo.FindMatch(ctx, domain.ReferenceQuery{IATA: info.IATA, ICAO: info.ICAO, Name: info.Name})
	if errors.Is(err, domain.ErrAirlineNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to match airline: %w", err)
	}
	return &airline.ID, nil
}

// Airport сопоставляет аэропорт; domain.ErrAirportNotFound, если не найден
func (r *Resolver) Airport(ctx context.Context, info flightsource.AirportInfo) (*domain.Airport, error) {
	airport, err := r.airportRepo.FindMatch(ctx, domain.ReferenceQuery{IATA: info.IATA, ICAO: info.ICAO, Name: info.Name})
	if err != nil {
		if errors.Is(err, domain.ErrAirportNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to match airport: %w", err)
	}
	return airport, nil
}

// AirportByID загружает аэропорт, указанный пользователем
func (r *Resolver) AirportByID(ctx context.Context, id uuid.UUID) (*domain.Airport, error) {
	return r.airportRepo.GetByID(ctx, id)
}

// Movement собирает движение из записи источника и сопоставленного аэропорта
func (r *Resolver) Movement(rec flightsource.MovementRecord, airport *domain.Airport) (domain.Movement, error) {
	return domain.NewMovement(domain.Movement{
		AirportID:          airport.ID,
		ScheduledTimeLocal: rec.ScheduledTimeLocal,
		ScheduledTimeUTC:   rec.ScheduledTimeUTC,
		ActualTimeLocal:    rec.ActualTimeLocal,
		ActualTimeUTC:      rec.ActualTimeUTC,
	})
}

// Distance запрашивает расстояние между аэропортами: по ICAO, если коды есть у обоих, иначе по IATA
func (r *Resolver) Distance(ctx context.Context, from, to *domain.Airport) (domain.Distance, error) {
	var (
		fromCode, toCode string
		codeType         domain.CodeType
	)
	switch {
	case from.ICAO != "" && to.ICAO != "":
		fromCode, toCode, codeType = from.ICAO, to.ICAO, domain.CodeTypeICAO
	case from.IATA != "" && to.IATA != "":
		fromCode, toCode, codeType = from.IATA, to.IATA, domain.CodeTypeIATA
	default:
		return domain.Distance{}, fmt.Errorf("%w: airports %s and %s have no common code type",
			domain.ErrIncompleteFlight, from.ID, to.ID)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	rec, err := r.source.GetFlightDistance(ctx, fromCode, toCode, codeType)
	if err != nil {
		return domain.Distance{}, sourceError(err)
	}
	return DistanceFromRecord(rec)
}

// DistanceFromRecord проверяет расстояние из ответа источника
func DistanceFromRecord(rec *flightsource.DistanceRecord) (domain.Distance, error) {
	if rec == nil {
		return domain.Distance{}, fmt.Errorf("%w: distance is missing", domain.ErrIncompleteFlight)
	}
	return domain.NewDistance(domain.Distance{
		Feet:  rec.Feet,
		Km:    rec.Km,
		Meter: rec.Meter,
		Mile:  rec.Mile,
		NM:    rec.NM,
	})
}

// sourceError гарантирует, что любая ошибка источника распознается как ErrSourceUnavailable
func sourceError(err error) error {
	if errors.Is(err, domain.ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
}

// incomplete оборачивает ошибку сборки рейса, сохраняя детали валидации
func incomplete(err error) error {
	if errors.Is(err, domain.ErrIncompleteFlight) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrIncompleteFlight, err)
}
