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

const airlineColumns = `id, name, iata, icao, callsign, country, is_active, created_at, updated_at`

type airlineRepository struct {
	db *pgxpool.Pool
}

func NewAirlineRepository(db *pgxpool.Pool) repository.AirlineRepository {
	return &airlineRepository{db: db}
}

func (r *airlineRepository) Create(ctx context.Context, airline *domain.Airline) error {
	query := `
		INSERT INTO airlines (id, name, iata, icao, callsign, country, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	airline.ID = uuid.New()
	airline.CreatedAt = time.Now()
	airline.UpdatedAt = airline.CreatedAt

	_, err := database.Executor(ctx, r.db).Exec(ctx, query,
		airline.ID,
		airline.Name,
		nullable(airline.IATA),
		nullable(airline.ICAO),
		nullable(airline.Callsign),
		nullable(airline.Country),
		airline.IsActive,
		airline.CreatedAt,
		airline.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}

	return nil
}

func (r *airlineRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Airline, error) {
	query := `SELECT ` + airlineColumns + ` FROM airlines WHERE id = $1`
	return r.scanOne(database.Executor(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *airlineRepository) FindByKey(ctx context.Context, key domain.ReferenceKey) (*domain.Airline, error) {
	query := `SELECT ` + airlineColumns + ` FROM airlines` + keyClause
	return r.scanOne(database.Executor(ctx, r.db).QueryRow(ctx, query, key.Name, key.IATA, key.ICAO))
}

func (r *airlineRepository) FindMatch(ctx context.Context, q domain.ReferenceQuery) (*domain.Airline, error) {
	if q.IsEmpty() {
		return nil, domain.ErrAirlineNotFound
	}
	query := `SELECT ` + airlineColumns + ` FROM airlines` + matchClause
	return r.scanOne(database.Executor(ctx, r.db).QueryRow(ctx, query, matchArgs(q)...))
}

func (r *airlineRepository) List(ctx context.Context, filter domain.ReferenceFilter) ([]*domain.Airline, int, error) {
	db := database.Executor(ctx, r.db)
	where, args := listConditions(filter, true, true)

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM airlines `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count airlines: %w", err)
	}

	page, args := pageClause(filter, args)
	rows, err := db.Query(ctx, `SELECT `+airlineColumns+` FROM airlines `+where+` `+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var airlines []*domain.Airline
	for rows.Next() {
		airline, err := r.scanOne(rows)
		if err != nil {
			return nil, 0, err
		}
		airlines = append(airlines, airline)
	}

	return airlines, total, rows.Err()
}

func (r *airlineRepository) Update(ctx context.Context, airline *domain.Airline) error {
	query := `
		UPDATE airlines
		SET is_active = $2, updated_at = $3
		WHERE id = $1
	`

	airline.UpdatedAt = time.Now()

	result, err := database.Executor(ctx, r.db).Exec(ctx, query, airline.ID, airline.IsActive, airline.UpdatedAt)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrAirlineNotFound
	}

	return nil
}

func (r *airlineRepository) scanOne(row pgx.Row) (*domain.Airline, error) {
	var (
		airline                       domain.Airline
		iata, icao, callsign, country *string
	)
	err := row.Scan(
		&airline.ID,
		&airline.Name,
		&iata,
		&icao,
		&callsign,
		&country,
		&airline.IsActive,
		&airline.CreatedAt,
		&airline.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAirlineNotFound
		}
		return nil, err
	}

	airline.IATA = deref(iata)
	airline.ICAO = deref(icao)
	airline.Callsign = deref(callsign)
	airline.Country = deref(country)
	return &airline, nil
}
