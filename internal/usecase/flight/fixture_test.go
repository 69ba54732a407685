package flight

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/infrastructure/flightsource"
	"github.com/frontandrew/flighthub/internal/pkg/logger"
	"github.com/frontandrew/flighthub/internal/pkg/metrics"
	"github.com/frontandrew/flighthub/internal/repository"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
)

// MockSource - мок внешнего источника рейсов и расстояний
type MockSource struct {
	mock.Mock
}

func (m *MockSource) GetFlights(ctx context.Context, number, dateLocal string) ([]flightsource.FlightRecord, error) {
	args := m.Called(ctx, number, dateLocal)
	records, _ := args.Get(0).([]flightsource.FlightRecord)
	return records, args.Error(1)
}

func (m *MockSource) GetFlightDistance(ctx context.Context, from, to string, codeType domain.CodeType) (*flightsource.DistanceRecord, error) {
	args := m.Called(ctx, from, to, codeType)
	record, _ := args.Get(0).(*flightsource.DistanceRecord)
	return record, args.Error(1)
}

// memoryFlights - хранилище рейсов в памяти; хранит снимки, чтобы изменения вне Update не протекали
type memoryFlights struct {
	mu          sync.Mutex
	flights     map[uuid.UUID]domain.FlightSnapshot
	rows        map[uuid.UUID]*sync.Mutex
	creates     int
	lockedReads int
}

func newMemoryFlights() *memoryFlights {
	return &memoryFlights{
		flights: map[uuid.UUID]domain.FlightSnapshot{},
		rows:    map[uuid.UUID]*sync.Mutex{},
	}
}

func (r *memoryFlights) Create(_ context.Context, f *domain.Flight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.IsGeneral() {
		for _, s := range r.flights {
			if s.Type == domain.FlightTypeGeneral && s.Number == f.Number() && s.DateLocal == f.DateLocal() {
				return domain.ErrAlreadyExists
			}
		}
	}
	r.creates++
	r.flights[f.ID()] = f.Snapshot()
	return nil
}

func (r *memoryFlights) Update(_ context.Context, f *domain.Flight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flights[f.ID()]; !ok {
		return domain.ErrFlightRecordNotFound
	}
	r.flights[f.ID()] = f.Snapshot()
	return nil
}

func (r *memoryFlights) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flights[id]; !ok {
		return domain.ErrFlightRecordNotFound
	}
	delete(r.flights, id)
	return nil
}

func (r *memoryFlights) GetByID(_ context.Context, id uuid.UUID) (*domain.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.flights[id]
	if !ok {
		return nil, domain.ErrFlightRecordNotFound
	}
	return domain.RestoreFlight(s), nil
}

// GetByIDForUpdate внутри rowLockTx держит блокировку строки до конца транзакции
func (r *memoryFlights) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Flight, error) {
	r.mu.Lock()
	r.lockedReads++
	row, ok := r.rows[id]
	if !ok {
		row = &sync.Mutex{}
		r.rows[id] = row
	}
	r.mu.Unlock()

	if held, ok := ctx.Value(heldRowsKey{}).(*heldRows); ok {
		row.Lock()
		held.rows = append(held.rows, row)
	}
	return r.GetByID(ctx, id)
}

func (r *memoryFlights) FindGeneral(_ context.Context, number, dateLocal string) (*domain.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.flights {
		if s.Type == domain.FlightTypeGeneral && s.Number == domain.NormalizeFlightNumber(number) && s.DateLocal == dateLocal {
			return domain.RestoreFlight(s), nil
		}
	}
	return nil, domain.ErrFlightRecordNotFound
}

func (r *memoryFlights) ListByPassenger(_ context.Context, passengerID uuid.UUID, filter domain.FlightFilter) ([]*domain.Flight, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*domain.Flight
	for _, s := range r.flights {
		f := domain.RestoreFlight(s)
		if _, ok := f.FindTicketByPassengerID(passengerID); !ok {
			continue
		}
		if filter.Type != "" && f.Type() != filter.Type {
			continue
		}
		result = append(result, f)
	}
	return result, len(result), nil
}

func (r *memoryFlights) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flights)
}

// passTx выполняет функцию без транзакции
type passTx struct{}

func (passTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type heldRowsKey struct{}

type heldRows struct {
	rows []*sync.Mutex
}

// rowLockTx снимает блокировки строк, взятые в транзакции, после ее завершения
type rowLockTx struct{}

func (rowLockTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	held := &heldRows{}
	defer func() {
		for _, row := range held.rows {
			row.Unlock()
		}
	}()
	return fn(context.WithValue(ctx, heldRowsKey{}, held))
}

// airportStore - справочник аэропортов в памяти с тем же приоритетом сопоставления, что и в БД
type airportStore struct {
	items []*domain.Airport
}

func (s *airportStore) Create(_ context.Context, a *domain.Airport) error {
	a.ID = uuid.New()
	s.items = append(s.items, a)
	return nil
}

func (s *airportStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Airport, error) {
	for _, a := range s.items {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, domain.ErrAirportNotFound
}

func (s *airportStore) FindByKey(context.Context, domain.ReferenceKey) (*domain.Airport, error) {
	return nil, domain.ErrAirportNotFound
}

func (s *airportStore) FindMatch(_ context.Context, q domain.ReferenceQuery) (*domain.Airport, error) {
	q = q.Normalize()
	for _, a := range s.items {
		if q.IATA != "" && a.IATA == q.IATA {
			return a, nil
		}
	}
	for _, a := range s.items {
		if q.ICAO != "" && a.ICAO == q.ICAO {
			return a, nil
		}
	}
	for _, a := range s.items {
		if q.Name != "" && strings.Contains(strings.ToLower(a.Name), strings.ToLower(q.Name)) {
			return a, nil
		}
	}
	return nil, domain.ErrAirportNotFound
}

func (s *airportStore) List(context.Context, domain.ReferenceFilter) ([]*domain.Airport, int, error) {
	return s.items, len(s.items), nil
}

type aircraftStore struct {
	repository.AircraftRepository
	match *domain.Aircraft
}

func (s aircraftStore) FindMatch(context.Context, domain.ReferenceQuery) (*domain.Aircraft, error) {
	if s.match == nil {
		return nil, domain.ErrAircraftNotFound
	}
	return s.match, nil
}

type airlineStore struct {
	repository.AirlineRepository
	match *domain.Airline
}

func (s airlineStore) FindMatch(_ context.Context, q domain.ReferenceQuery) (*domain.Airline, error) {
	if s.match == nil || q.Normalize().IATA != s.match.IATA {
		return nil, domain.ErrAirlineNotFound
	}
	return s.match, nil
}

// recordingLocker запоминает ключи блокировок
type recordingLocker struct {
	mu       sync.Mutex
	keys     []string
	released int
	err      error
}

func (l *recordingLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, l.err
	}
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
	}, nil
}

type fixture struct {
	source   *MockSource
	flights  *memoryFlights
	airports *airportStore
	locker   *recordingLocker
	metrics  *metrics.Registry
	fra      *domain.Airport
	jfk      *domain.Airport
	muc      *domain.Airport
	lookup   *LookupService
	service  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		source:   &MockSource{},
		flights:  newMemoryFlights(),
		airports: &airportStore{},
		locker:   &recordingLocker{},
		metrics:  metrics.New(prometheus.NewRegistry()),
	}

	ctx := context.Background()
	for _, p := range []struct {
		target **domain.Airport
		params domain.AirportParams
	}{
		{&f.fra, domain.AirportParams{Name: "Frankfurt am Main Airport", IATA: "FRA", ICAO: "EDDF", Latitude: 50.03, Longitude: 8.57}},
		{&f.jfk, domain.AirportParams{Name: "John F Kennedy International Airport", IATA: "JFK", ICAO: "KJFK", Latitude: 40.64, Longitude: -73.78}},
		{&f.muc, domain.AirportParams{Name: "Munich Airport", IATA: "MUC", Latitude: 48.35, Longitude: 11.79}},
	} {
		a, err := domain.NewAirport(p.params)
		if err != nil {
			t.Fatalf("airport fixture: %v", err)
		}
		_ = f.airports.Create(ctx, a)
		*p.target = a
	}

	boeing, err := domain.NewAircraft(domain.AircraftParams{Name: "Boeing 747-8", IATA: "74H", ICAO: "B748"})
	if err != nil {
		t.Fatalf("aircraft fixture: %v", err)
	}
	boeing.ID = uuid.New()
	lufthansa, err := domain.NewAirline(domain.AirlineParams{Name: "Lufthansa", IATA: "LH", ICAO: "DLH", Active: true})
	if err != nil {
		t.Fatalf("airline fixture: %v", err)
	}
	lufthansa.ID = uuid.New()

	resolver := NewResolver(aircraftStore{match: boeing}, airlineStore{match: lufthansa}, f.airports, f.source, time.Second)
	log := logger.NewNoop()
	f.lookup = NewLookupService(f.flights, resolver, passTx{}, f.source, f.locker, time.Second, f.metrics, log)
	f.service = NewService(f.flights, resolver, passTx{}, log)
	return f
}

func flightRecord(number string) flightsource.FlightRecord {
	return flightsource.FlightRecord{
		Departure: flightsource.MovementRecord{
			Airport:            flightsource.AirportInfo{ICAO: "EDDF", IATA: "FRA", Name: "Frankfurt-am-Main"},
			ScheduledTimeLocal: "2024-01-01 10:00+01:00",
			ScheduledTimeUTC:   "2024-01-01 09:00Z",
			ActualTimeLocal:    "2024-01-01 10:12+01:00",
			ActualTimeUTC:      "2024-01-01 09:12Z",
		},
		Arrival: flightsource.MovementRecord{
			Airport:            flightsource.AirportInfo{ICAO: "KJFK", IATA: "JFK", Name: "New York"},
			ScheduledTimeLocal: "2024-01-01 13:00-05:00",
			ScheduledTimeUTC:   "2024-01-01 18:00Z",
			ActualTimeLocal:    "2024-01-01 12:50-05:00",
			ActualTimeUTC:      "2024-01-01 17:50Z",
		},
		Number:   number,
		CallSign: "DLH400",
		Status:   "Arrived",
		Aircraft: &flightsource.AircraftInfo{Reg: "D-ABYA", Model: "Boeing 747-8"},
		Airline:  &flightsource.AirlineInfo{Name: "Lufthansa", IATA: "LH", ICAO: "DLH"},
		GreatCircleDistance: &flightsource.DistanceRecord{
			Meter: 6199000, Km: 6199, Mile: 3851.8, NM: 3347.2, Feet: 20337927,
		},
	}
}

func distanceRecord() *flightsource.DistanceRecord {
	return &flightsource.DistanceRecord{Meter: 1000, Km: 1, Mile: 0.62, NM: 0.54, Feet: 3280.8}
}

func movement(airportID uuid.UUID, local string) domain.Movement {
	return domain.Movement{
		AirportID:          airportID,
		ScheduledTimeLocal: local,
		ScheduledTimeUTC:   local,
		ActualTimeLocal:    local,
		ActualTimeUTC:      local,
	}
}
