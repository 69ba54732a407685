package reference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/infrastructure/flightsource"
	"github.com/frontandrew/flighthub/internal/pkg/logger"
	"github.com/frontandrew/flighthub/internal/pkg/metrics"
	"github.com/frontandrew/flighthub/internal/repository"
	"github.com/google/uuid"
)

// Имена справочников в логах, метриках и CLI
const (
	EntityAircrafts = "aircrafts"
	EntityAirlines  = "airlines"
	EntityAirports  = "airports"
)

// Source - наборы справочных данных внешнего источника
type Source interface {
	GetAircrafts(ctx context.Context) ([]flightsource.AircraftRecord, error)
	GetAirlines(ctx context.Context) ([]flightsource.AirlineRecord, error)
	GetAirports(ctx context.Context) ([]flightsource.AirportRecord, error)
}

// CacheFlusher сбрасывает кэш сопоставления справочников
type CacheFlusher interface {
	Flush()
}

// SyncReport - итог синхронизации одного справочника
type SyncReport struct {
	Entity   string        `json:"entity"`
	Total    int           `json:"total"`
	Saved    int           `json:"saved"`
	Invalid  int           `json:"invalid"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

type outcome int

const (
	outcomeSaved outcome = iota
	outcomeInvalid
	outcomeSkipped
)

// Service содержит синхронизацию и чтение справочников
type Service struct {
	aircraftRepo repository.AircraftRepository
	airlineRepo  repository.AirlineRepository
	airportRepo  repository.AirportRepository
	txManager    repository.TxManager
	source       Source
	cache        CacheFlusher
	metrics      *metrics.Registry
	logger       logger.Logger
}

// NewService создает новый экземпляр сервиса справочников. cache и m могут быть nil.
func NewService(
	aircraftRepo repository.AircraftRepository,
	airlineRepo repository.AirlineRepository,
	airportRepo repository.AirportRepository,
	txManager repository.TxManager,
	source Source,
	cache CacheFlusher,
	m *metrics.Registry,
	logger logger.Logger,
) *Service {
	return &Service{
		aircraftRepo: aircraftRepo,
		airlineRepo:  airlineRepo,
		airportRepo:  airportRepo,
		txManager:    txManager,
		source:       source,
		cache:        cache,
		metrics:      m,
		logger:       logger,
	}
}

// Sync запускает синхронизацию справочника по имени
func (s *Service) Sync(ctx context.Context, entity string) (*SyncReport, error) {
	switch entity {
	case EntityAircrafts:
		return s.SyncAircrafts(ctx)
	case EntityAirlines:
		return s.SyncAirlines(ctx)
	case EntityAirports:
		return s.SyncAirports(ctx)
	}
	return nil, fmt.Errorf("unknown reference entity %q", entity)
}

// SyncAircrafts загружает типы воздушных судов из источника
func (s *Service) SyncAircrafts(ctx context.Context) (*SyncReport, error) {
	return runSync(ctx, s, EntityAircrafts, s.source.GetAircrafts,
		func(ctx context.Context, rec flightsource.AircraftRecord) (outcome, error) {
			key := domain.NewReferenceKey(rec.Name, rec.IATA, rec.ICAO)
			return syncRecord(ctx, s, EntityAircrafts, key, s.aircraftRepo.FindByKey,
				func() (*domain.Aircraft, error) {
					return domain.NewAircraft(domain.AircraftParams{Name: rec.Name, IATA: rec.IATA, ICAO: rec.ICAO})
				},
				s.aircraftRepo.Create,
				domain.ErrAircraftNotFound,
			)
		})
}

// SyncAirlines загружает авиакомпании из источника
func (s *Service) SyncAirlines(ctx context.Context) (*SyncReport, error) {
	return runSync(ctx, s, EntityAirlines, s.source.GetAirlines,
		func(ctx context.Context, rec flightsource.AirlineRecord) (outcome, error) {
			key := domain.NewReferenceKey(rec.Name, rec.IATA, rec.ICAO)
			return syncRecord(ctx, s, EntityAirlines, key, s.airlineRepo.FindByKey,
				func() (*domain.Airline, error) {
					return domain.NewAirline(domain.AirlineParams{
						Name:     rec.Name,
						IATA:     rec.IATA,
						ICAO:     rec.ICAO,
						Callsign: rec.Callsign,
						Country:  rec.Country,
						Active:   rec.Active,
					})
				},
				s.airlineRepo.Create,
				domain.ErrAirlineNotFound,
			)
		})
}

// SyncAirports загружает аэропорты из источника
func (s *Service) SyncAirports(ctx context.Context) (*SyncReport, error) {
	return runSync(ctx, s, EntityAirports, s.source.GetAirports,
		func(ctx context.Context, rec flightsource.AirportRecord) (outcome, error) {
			key := domain.NewReferenceKey(rec.Name, rec.IATA, rec.ICAO)
			return syncRecord(ctx, s, EntityAirports, key, s.airportRepo.FindByKey,
				func() (*domain.Airport, error) {
					return domain.NewAirport(domain.AirportParams{
						Name:      rec.Name,
						IATA:      rec.IATA,
						ICAO:      rec.ICAO,
						City:      rec.City,
						Country:   rec.Country,
						Latitude:  rec.Latitude,
						Longitude: rec.Longitude,
						UTCOffset: rec.UTCOffset,
					})
				},
				s.airportRepo.Create,
				domain.ErrAirportNotFound,
			)
		})
}

// runSync загружает записи и обрабатывает их в одной транзакции.
// Недоступность источника прерывает синхронизацию до первой записи в БД.
func runSync[R any](
	ctx context.Context,
	s *Service,
	entity string,
	fetch func(context.Context) ([]R, error),
	process func(context.Context, R) (outcome, error),
) (*SyncReport, error) {
	start := time.Now()
	log := s.logger.With("entity", entity)
	log.Info("Reference sync started")

	records, err := fetch(ctx)
	if err != nil {
		log.Error("Failed to fetch reference records", map[string]interface{}{"error": err})
		if !errors.Is(err, domain.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
		}
		return nil, err
	}

	report := &SyncReport{Entity: entity, Total: len(records)}
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		report.Saved, report.Invalid, report.Skipped = 0, 0, 0
		for _, rec := range records {
			result, err := process(ctx, rec)
			if err != nil {
				return err
			}
			switch result {
			case outcomeSaved:
				report.Saved++
			case outcomeInvalid:
				report.Invalid++
			case outcomeSkipped:
				report.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Reference sync rolled back", map[string]interface{}{"error": err})
		return nil, fmt.Errorf("sync %s: %w", entity, err)
	}
	report.Duration = time.Since(start)

	if s.cache != nil {
		s.cache.Flush()
	}
	s.observe(report)

	log.Info("Reference sync completed", map[string]interface{}{
		"total":       report.Total,
		"saved":       report.Saved,
		"invalid":     report.Invalid,
		"skipped":     report.Skipped,
		"duration_ms": report.Duration.Milliseconds(),
	})
	return report, nil
}

// syncRecord: существующая тройка - пропуск, ошибка фабрики - invalid, иначе вставка
func syncRecord[E any](
	ctx context.Context,
	s *Service,
	entity string,
	key domain.ReferenceKey,
	find func(context.Context, domain.ReferenceKey) (*E, error),
	build func() (*E, error),
	create func(context.Context, *E) error,
	notFound error,
) (outcome, error) {
	// Запись проверяется фабрикой до обращения к хранилищу
	item, err := build()
	if err != nil {
		s.logger.Debug("Invalid reference record", map[string]interface{}{
			"entity": entity,
			"name":   key.Name,
			"iata":   key.IATA,
			"icao":   key.ICAO,
			"error":  err,
		})
		return outcomeInvalid, nil
	}

	_, err = find(ctx, key)
	if err == nil {
		return outcomeSkipped, nil
	}
	if !errors.Is(err, notFound) {
		return 0, fmt.Errorf("find %s by key: %w", entity, err)
	}

	if err := create(ctx, item); err != nil {
		return 0, fmt.Errorf("create %s: %w", entity, err)
	}
	return outcomeSaved, nil
}

func (s *Service) observe(report *SyncReport) {
	if s.metrics == nil {
		return
	}
	s.metrics.SyncRecordsTotal.WithLabelValues(report.Entity, "saved").Add(float64(report.Saved))
	s.metrics.SyncRecordsTotal.WithLabelValues(report.Entity, "invalid").Add(float64(report.Invalid))
	s.metrics.SyncRecordsTotal.WithLabelValues(report.Entity, "skipped").Add(float64(report.Skipped))
	s.metrics.SyncDuration.WithLabelValues(report.Entity).Observe(report.Duration.Seconds())
}

// ListAircrafts возвращает страницу типов воздушных судов
func (s *Service) ListAircrafts(ctx context.Context, filter domain.ReferenceFilter) (*domain.Page[*domain.Aircraft], error) {
	filter = filter.Normalize()
	items, total, err := s.aircraftRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list aircrafts: %w", err)
	}
	return domain.NewPage(items, total, filter.Limit, filter.Offset), nil
}

// ListAirlines возвращает страницу авиакомпаний
func (s *Service) ListAirlines(ctx context.Context, filter domain.ReferenceFilter) (*domain.Page[*domain.Airline], error) {
	filter = filter.Normalize()
	items, total, err := s.airlineRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list airlines: %w", err)
	}
	return domain.NewPage(items, total, filter.Limit, filter.Offset), nil
}

// ListAirports возвращает страницу аэропортов
func (s *Service) ListAirports(ctx context.Context, filter domain.ReferenceFilter) (*domain.Page[*domain.Airport], error) {
	filter = filter.Normalize()
	items, total, err := s.airportRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list airports: %w", err)
	}
	return domain.NewPage(items, total, filter.Limit, filter.Offset), nil
}

func (s *Service) GetAircraft(ctx context.Context, id uuid.UUID) (*domain.Aircraft, error) {
	return s.aircraftRepo.GetByID(ctx, id)
}

func (s *Service) GetAirline(ctx context.Context, id uuid.UUID) (*domain.Airline, error) {
	return s.airlineRepo.GetByID(ctx, id)
}

func (s *Service) GetAirport(ctx context.Context, id uuid.UUID) (*domain.Airport, error) {
	return s.airportRepo.GetByID(ctx, id)
}

// SetAirlineActive включает или выключает авиакомпанию
func (s *Service) SetAirlineActive(ctx context.Context, id uuid.UUID, active bool) (*domain.Airline, error) {
	airline, err := s.airlineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if active {
		airline.Activate()
	} else {
		airline.Deactivate()
	}

	if err := s.airlineRepo.Update(ctx, airline); err != nil {
		return nil, fmt.Errorf("failed to update airline: %w", err)
	}

	s.logger.Info("Airline activity changed", map[string]interface{}{
		"airline_id": id,
		"is_active":  active,
	})
	return airline, nil
}
