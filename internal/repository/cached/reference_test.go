package cached

import (
	"context"
	"testing"
	"time"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAirportRepository struct {
	repository.AirportRepository
	mock.Mock
}

func (m *mockAirportRepository) FindMatch(ctx context.Context, q domain.ReferenceQuery) (*domain.Airport, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Airport), args.Error(1)
}

type mockAirlineRepository struct {
	repository.AirlineRepository
	mock.Mock
}

func (m *mockAirlineRepository) FindMatch(ctx context.Context, q domain.ReferenceQuery) (*domain.Airline, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Airline), args.Error(1)
}

func (m *mockAirlineRepository) Update(ctx context.Context, airline *domain.Airline) error {
	return m.Called(ctx, airline).Error(0)
}

func TestAirportRepository_FindMatchIsCached(t *testing.T) {
	ctx := context.Background()
	inner := &mockAirportRepository{}
	airport := &domain.Airport{ID: uuid.New(), Name: "Frankfurt am Main Airport", IATA: "FRA", ICAO: "EDDF"}
	query := domain.ReferenceQuery{IATA: "fra"}

	inner.On("FindMatch", ctx, query).Return(airport, nil).Once()

	cache := NewMatchCache(time.Minute, time.Minute)
	repo := NewAirportRepository(inner, cache)

	first, err := repo.FindMatch(ctx, query)
	require.NoError(t, err)
	second, err := repo.FindMatch(ctx, domain.ReferenceQuery{IATA: " FRA "})
	require.NoError(t, err)

	assert.Equal(t, airport.ID, first.ID)
	assert.Equal(t, airport.ID, second.ID)
	assert.NotSame(t, first, second)
	assert.Equal(t, 1, cache.ItemCount())
	inner.AssertExpectations(t)
}

func TestAirportRepository_NotFoundIsNotCached(t *testing.T) {
	ctx := context.Background()
	inner := &mockAirportRepository{}
	query := domain.ReferenceQuery{ICAO: "ZZZZ"}

	inner.On("FindMatch", ctx, query).Return(nil, domain.ErrAirportNotFound).Twice()

	repo := NewAirportRepository(inner, NewMatchCache(time.Minute, time.Minute))

	_, err := repo.FindMatch(ctx, query)
	assert.ErrorIs(t, err, domain.ErrAirportNotFound)
	_, err = repo.FindMatch(ctx, query)
	assert.ErrorIs(t, err, domain.ErrAirportNotFound)

	inner.AssertExpectations(t)
}

func TestMatchCache_Flush(t *testing.T) {
	ctx := context.Background()
	inner := &mockAirlineRepository{}
	airline := &domain.Airline{ID: uuid.New(), Name: "Lufthansa", IATA: "LH", IsActive: true}
	query := domain.ReferenceQuery{IATA: "LH"}

	inner.On("FindMatch", ctx, query).Return(airline, nil).Twice()
	inner.On("Update", ctx, mock.AnythingOfType("*domain.Airline")).Return(nil).Once()

	cache := NewMatchCache(time.Minute, time.Minute)
	repo := NewAirlineRepository(inner, cache)

	_, err := repo.FindMatch(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.ItemCount())

	require.NoError(t, repo.Update(ctx, airline))
	assert.Equal(t, 0, cache.ItemCount())

	_, err = repo.FindMatch(ctx, query)
	require.NoError(t, err)

	inner.AssertExpectations(t)
}
