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

const airportColumns = `id, name, iata, icao, city, country, latitude, longitude, utc_offset, created_at, updated_at`

type airportRepository struct {
	db *pgxpool.Pool
}

func NewAirportRepository(db *pgxpool.Pool) repository.AirportRepository {
	return &airportRepository{db: db}
}

func (r *airportRepository) Create(ctx context.Context, airport *domain.Airport) error {
	query := `
		INSERT INTO airports (id, name, iata, icao, city, country, latitude, longitude, utc_offset, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	airport.ID = uuid.New()
	airport.CreatedAt = time.Now()
	airport.UpdatedAt = airport.CreatedAt

	_, err := database.Executor(ctx, r.db).Exec(ctx, query,
		airport.ID,
		airport.Name,
		nullable(airport.IATA),
		nullable(airport.ICAO),
		nullable(airport.City),
		nullable(airport.Country),
		airport.Latitude,
		airport.Longitude,
		airport.UTCOffset,
		airport.CreatedAt,
		airport.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}

	return nil
}

func (r *airportRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Airport, error) {
	query := `SELECT ` + airportColumns + ` FROM airports WHERE id = $1`
	return r.scanOne(database.Executor(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *airportRepository) FindByKey(ctx context.Context, key domain.ReferenceKey) (*domain.Airport, error) {
	query := `SELECT ` + airportColumns + ` FROM airports` + keyClause
	return r.scanOne(database.Executor(ctx, r.db).QueryRow(ctx, query, key.Name, key.IATA, key.ICAO))
}

func (r *airportRepository) FindMatch(ctx context.Context, q domain.ReferenceQuery) (*domain.Airport, error) {
	if q.IsEmpty() {
		return nil, domain.ErrAirportNotFound
	}
	query := `SELECT ` + airportColumns + ` FROM airports` + matchClause
	return r.scanOne(database.Executor(ctx, r.db).QueryRow(ctx, query, matchArgs(q)...))
}

func (r *airportRepository) List(ctx context.Context, filter domain.ReferenceFilter) ([]*domain.Airport, int, error) {
	db := database.Executor(ctx, r.db)
	where, args := listConditions(filter, true, false)

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM airports `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count airports: %w", err)
	}

	page, args := pageClause(filter, args)
	rows, err := db.Query(ctx, `SELECT `+airportColumns+` FROM airports `+where+` `+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var airports []*domain.Airport
	for rows.Next() {
		airport, err := r.scanOne(rows)
		if err != nil {
			return nil, 0, err
		}
		airports = append(airports, airport)
	}

	return airports, total, rows.Err()
}

func (r *airportRepository) scanOne(row pgx.Row) (*domain.Airport, error) {
	var (
		airport                   domain.Airport
		iata, icao, city, country *string
	)
	err := row.Scan(
		&airport.ID,
		&airport.Name,
		&iata,
		&icao,
		&city,
		&country,
		&airport.Latitude,
		&airport.Longitude,
		&airport.UTCOffset,
		&airport.CreatedAt,
		&airport.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAirportNotFound
		}
		return nil, err
	}

	airport.IATA = deref(iata)
	airport.ICAO = deref(icao)
	airport.City = deref(city)
	airport.Country = deref(country)
	return &airport, nil
}
