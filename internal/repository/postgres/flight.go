package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/pkg/database"
	"github.com/frontandrew/flighthub/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const flightColumns = `
	f.id, f.type, f.aircraft_id, f.aircraft_reg, f.airline_id,
	f.departure_airport_id, f.departure_scheduled_time_local, f.departure_scheduled_time_utc,
	f.departure_actual_time_local, f.departure_actual_time_utc,
	f.arrival_airport_id, f.arrival_scheduled_time_local, f.arrival_scheduled_time_utc,
	f.arrival_actual_time_local, f.arrival_actual_time_utc,
	f.distance_feet, f.distance_km, f.distance_meter, f.distance_mile, f.distance_nm,
	f.number, f.call_sign, f.status, f.date_local, f.created_at, f.updated_at
`

// Билеты читаются после блокировки строки рейса и видят изменения уже закоммиченных транзакций
const selectFlightForUpdate = `SELECT ` + flightColumns + ` FROM flights f WHERE f.id = $1 FOR UPDATE`

type flightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) repository.FlightRepository {
	return &flightRepository{db: db}
}

func (r *flightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	query := `
		INSERT INTO flights (
			id, type, aircraft_id, aircraft_reg, airline_id,
			departure_airport_id, departure_scheduled_time_local, departure_scheduled_time_utc,
			departure_actual_time_local, departure_actual_time_utc,
			arrival_airport_id, arrival_scheduled_time_local, arrival_scheduled_time_utc,
			arrival_actual_time_local, arrival_actual_time_utc,
			distance_feet, distance_km, distance_meter, distance_mile, distance_nm,
			number, call_sign, status, date_local, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`

	s := flight.Snapshot()
	date, err := time.Parse(domain.DateLayout, s.DateLocal)
	if err != nil {
		return fmt.Errorf("parse flight date: %w", err)
	}

	db := database.Executor(ctx, r.db)
	_, err = db.Exec(ctx, query,
		s.ID, string(s.Type), s.AircraftID, nullable(s.AircraftReg), s.AirlineID,
		s.Departure.AirportID, s.Departure.ScheduledTimeLocal, s.Departure.ScheduledTimeUTC,
		s.Departure.ActualTimeLocal, s.Departure.ActualTimeUTC,
		s.Arrival.AirportID, s.Arrival.ScheduledTimeLocal, s.Arrival.ScheduledTimeUTC,
		s.Arrival.ActualTimeLocal, s.Arrival.ActualTimeUTC,
		s.Distance.Feet, s.Distance.Km, s.Distance.Meter, s.Distance.Mile, s.Distance.NM,
		s.Number, nullable(s.CallSign), string(s.Status), date, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}

	return r.insertTickets(ctx, db, s.ID, s.Tickets)
}

func (r *flightRepository) Update(ctx context.Context, flight *domain.Flight) error {
	query := `
		UPDATE flights SET
			aircraft_id = $2, aircraft_reg = $3, airline_id = $4,
			departure_airport_id = $5, departure_scheduled_time_local = $6, departure_scheduled_time_utc = $7,
			departure_actual_time_local = $8, departure_actual_time_utc = $9,
			arrival_airport_id = $10, arrival_scheduled_time_local = $11, arrival_scheduled_time_utc = $12,
			arrival_actual_time_local = $13, arrival_actual_time_utc = $14,
			distance_feet = $15, distance_km = $16, distance_meter = $17, distance_mile = $18, distance_nm = $19,
			number = $20, call_sign = $21, status = $22, date_local = $23, updated_at = $24
		WHERE id = $1
	`

	s := flight.Snapshot()
	date, err := time.Parse(domain.DateLayout, s.DateLocal)
	if err != nil {
		return fmt.Errorf("parse flight date: %w", err)
	}

	db := database.Executor(ctx, r.db)
	result, err := db.Exec(ctx, query,
		s.ID, s.AircraftID, nullable(s.AircraftReg), s.AirlineID,
		s.Departure.AirportID, s.Departure.ScheduledTimeLocal, s.Departure.ScheduledTimeUTC,
		s.Departure.ActualTimeLocal, s.Departure.ActualTimeUTC,
		s.Arrival.AirportID, s.Arrival.ScheduledTimeLocal, s.Arrival.ScheduledTimeUTC,
		s.Arrival.ActualTimeLocal, s.Arrival.ActualTimeUTC,
		s.Distance.Feet, s.Distance.Km, s.Distance.Meter, s.Distance.Mile, s.Distance.NM,
		s.Number, nullable(s.CallSign), string(s.Status), date, s.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrFlightRecordNotFound
	}

	// Билеты принадлежат агрегату и заменяются целиком
	if _, err := db.Exec(ctx, `DELETE FROM flight_tickets WHERE flight_id = $1`, s.ID); err != nil {
		return err
	}
	return r.insertTickets(ctx, db, s.ID, s.Tickets)
}

func (r *flightRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := database.Executor(ctx, r.db).Exec(ctx, `DELETE FROM flights WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrFlightRecordNotFound
	}

	return nil
}

func (r *flightRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights f WHERE f.id = $1`
	return r.getOne(ctx, query, id)
}

func (r *flightRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Flight, error) {
	return r.getOne(ctx, selectFlightForUpdate, id)
}

func (r *flightRepository) FindGeneral(ctx context.Context, number, dateLocal string) (*domain.Flight, error) {
	date, err := time.Parse(domain.DateLayout, dateLocal)
	if err != nil {
		return nil, fmt.Errorf("parse flight date: %w", err)
	}

	query := `
		SELECT ` + flightColumns + `
		FROM flights f
		WHERE f.type = 'general' AND f.number = $1 AND f.date_local = $2
		ORDER BY f.created_at
		LIMIT 1
	`
	return r.getOne(ctx, query, domain.NormalizeFlightNumber(number), date)
}

func (r *flightRepository) ListByPassenger(ctx context.Context, passengerID uuid.UUID, filter domain.FlightFilter) ([]*domain.Flight, int, error) {
	db := database.Executor(ctx, r.db)

	where := `WHERE t.passenger_id = $1 AND ($2::text = '' OR f.type = $2::text)`
	args := []any{passengerID, string(filter.Type)}

	var total int
	countQuery := `SELECT COUNT(*) FROM flights f JOIN flight_tickets t ON t.flight_id = f.id ` + where
	if err := db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count flights: %w", err)
	}

	query := `
		SELECT ` + flightColumns + `
		FROM flights f
		JOIN flight_tickets t ON t.flight_id = f.id
		` + where + `
		ORDER BY f.date_local DESC, f.id
		LIMIT $3 OFFSET $4
	`
	rows, err := db.Query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}

	var snapshots []*domain.FlightSnapshot
	for rows.Next() {
		s, err := scanFlight(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		snapshots = append(snapshots, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.loadTickets(ctx, db, snapshots...); err != nil {
		return nil, 0, err
	}

	flights := make([]*domain.Flight, 0, len(snapshots))
	for _, s := range snapshots {
		flights = append(flights, domain.RestoreFlight(*s))
	}
	return flights, total, nil
}

func (r *flightRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Flight, error) {
	db := database.Executor(ctx, r.db)

	s, err := scanFlight(db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	if err := r.loadTickets(ctx, db, s); err != nil {
		return nil, err
	}
	return domain.RestoreFlight(*s), nil
}

func (r *flightRepository) insertTickets(ctx context.Context, db database.DBTX, flightID uuid.UUID, tickets []domain.Ticket) error {
	query := `
		INSERT INTO flight_tickets (flight_id, passenger_id, seat, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, t := range tickets {
		createdAt := t.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := db.Exec(ctx, query, flightID, t.PassengerID, nullable(t.Seat), nullable(t.Note), createdAt); err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}
	}
	return nil
}

func (r *flightRepository) loadTickets(ctx context.Context, db database.DBTX, snapshots ...*domain.FlightSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.FlightSnapshot, len(snapshots))
	ids := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		byID[s.ID] = s
		ids = append(ids, s.ID.String())
	}

	rows, err := db.Query(ctx, `
		SELECT flight_id, passenger_id, seat, note, created_at
		FROM flight_tickets
		WHERE flight_id = ANY($1::uuid[])
		ORDER BY created_at, passenger_id
	`, ids)
	if err != nil {
		return fmt.Errorf("load tickets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			flightID   uuid.UUID
			t          domain.Ticket
			seat, note *string
		)
		if err := rows.Scan(&flightID, &t.PassengerID, &seat, &note, &t.CreatedAt); err != nil {
			return err
		}
		t.Seat = deref(seat)
		t.Note = deref(note)
		if s, ok := byID[flightID]; ok {
			s.Tickets = append(s.Tickets, t)
		}
	}

	return rows.Err()
}

func scanFlight(row pgx.Row) (*domain.FlightSnapshot, error) {
	var (
		s                     domain.FlightSnapshot
		flightType, status    string
		aircraftReg, callSign *string
		date                  time.Time
	)
	err := row.Scan(
		&s.ID, &flightType, &s.AircraftID, &aircraftReg, &s.AirlineID,
		&s.Departure.AirportID, &s.Departure.ScheduledTimeLocal, &s.Departure.ScheduledTimeUTC,
		&s.Departure.ActualTimeLocal, &s.Departure.ActualTimeUTC,
		&s.Arrival.AirportID, &s.Arrival.ScheduledTimeLocal, &s.Arrival.ScheduledTimeUTC,
		&s.Arrival.ActualTimeLocal, &s.Arrival.ActualTimeUTC,
		&s.Distance.Feet, &s.Distance.Km, &s.Distance.Meter, &s.Distance.Mile, &s.Distance.NM,
		&s.Number, &callSign, &status, &date, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlightRecordNotFound
		}
		return nil, err
	}

	s.Type = domain.FlightType(flightType)
	s.Status = domain.FlightStatus(status)
	s.AircraftReg = deref(aircraftReg)
	s.CallSign = deref(callSign)
	s.DateLocal = date.Format(domain.DateLayout)
	return &s, nil
}
