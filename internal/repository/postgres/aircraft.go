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

const aircraftColumns = `id, name, iata, icao, created_at, updated_at`

type aircraftRepository struct {
	db *pgxpool.Pool
}

func NewAircraftRepository(db *pgxpool.Pool) repository.AircraftRepository {
	return &aircraftRepository{db: db}
}

func (r *aircraftRepository) Create(ctx context.Context, aircraft *domain.Aircraft) error {
	query := `
		INSERT INTO aircrafts (id, name, iata, icao, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	aircraft.ID = uuid.New()
	aircraft.CreatedAt = time.Now()
	aircraft.UpdatedAt = aircraft.CreatedAt

	_, err := database.Executor(ctx, r.db).Exec(ctx, query,
		aircraft.ID,
		aircraft.Name,
		nullable(aircraft.IATA),
		nullable(aircraft.ICAO),
		aircraft.CreatedAt,
		aircraft.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}

	return nil
}

func (r *aircraftRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Aircraft, error) {
	query := `SELECT ` + aircraftColumns + ` FROM aircrafts WHERE id = $1`
	return r.scanOne(database.Executor(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *aircraftRepository) FindByKey(ctx context.Context, key domain.ReferenceKey) (*domain.Aircraft, error) {
	query := `SELECT ` + aircraftColumns + ` FROM aircrafts` + keyClause
	return r.scanOne(database.Executor(ctx, r.db).QueryRow(ctx, query, key.Name, key.IATA, key.ICAO))
}

func (r *aircraftRepository) FindMatch(ctx context.Context, q domain.ReferenceQuery) (*domain.Aircraft, error) {
	if q.IsEmpty() {
		return nil, domain.ErrAircraftNotFound
	}
	query := `SELECT ` + aircraftColumns + ` FROM aircrafts` + matchClause
	return r.scanOne(database.Executor(ctx, r.db).QueryRow(ctx, query, matchArgs(q)...))
}

func (r *aircraftRepository) List(ctx context.Context, filter domain.ReferenceFilter) ([]*domain.Aircraft, int, error) {
	db := database.Executor(ctx, r.db)
	where, args := listConditions(filter, false, false)

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM aircrafts `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count aircrafts: %w", err)
	}

	page, args := pageClause(filter, args)
	rows, err := db.Query(ctx, `SELECT `+aircraftColumns+` FROM aircrafts `+where+` `+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var aircrafts []*domain.Aircraft
	for rows.Next() {
		aircraft, err := r.scanOne(rows)
		if err != nil {
			return nil, 0, err
		}
		aircrafts = append(aircrafts, aircraft)
	}

	return aircrafts, total, rows.Err()
}

func (r *aircraftRepository) scanOne(row pgx.Row) (*domain.Aircraft, error) {
	var (
		aircraft   domain.Aircraft
		iata, icao *string
	)
	err := row.Scan(
		&aircraft.ID,
		&aircraft.Name,
		&iata,
		&icao,
		&aircraft.CreatedAt,
		&aircraft.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAircraftNotFound
		}
		return nil, err
	}

	aircraft.IATA = deref(iata)
	aircraft.ICAO = deref(icao)
	return &aircraft, nil
}
