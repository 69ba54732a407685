package cached

import (
	"context"
	"strings"
	"time"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/repository"
	gocache "github.com/patrickmn/go-cache"
)

const (
	aircraftMatchPrefix = "aircraft:"
	airlineMatchPrefix  = "airline:"
	airportMatchPrefix  = "airport:"
)

// MatchCache - in-memory кэш результатов нечеткого сопоставления справочников.
// Сбрасывается целиком после синхронизации справочников.
type MatchCache struct {
	cache *gocache.Cache
}

// NewMatchCache создает кэш с заданным временем жизни записей
func NewMatchCache(ttl, cleanupInterval time.Duration) *MatchCache {
	return &MatchCache{cache: gocache.New(ttl, cleanupInterval)}
}

// Flush удаляет все записи
func (c *MatchCache) Flush() {
	c.cache.Flush()
}

// ItemCount возвращает число записей (включая истекшие, но еще не вычищенные)
func (c *MatchCache) ItemCount() int {
	return c.cache.ItemCount()
}

func matchKey(prefix string, q domain.ReferenceQuery) string {
	q = q.Normalize()
	return prefix + q.IATA + "|" + q.ICAO + "|" + strings.ToLower(q.Name)
}

// matchOrLoad хранит значения, а не указатели: вызывающий получает свою копию
func matchOrLoad[T any](c *MatchCache, key string, load func() (*T, error)) (*T, error) {
	if v, found := c.cache.Get(key); found {
		item := v.(T)
		return &item, nil
	}

	item, err := load()
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, *item, gocache.DefaultExpiration)
	result := *item
	return &result, nil
}

// AircraftRepository добавляет кэширование FindMatch
type AircraftRepository struct {
	repository.AircraftRepository
	cache *MatchCache
}

// NewAircraftRepository создает кэшируемый репозиторий типов воздушных судов
func NewAircraftRepository(repo repository.AircraftRepository, cache *MatchCache) *AircraftRepository {
	return &AircraftRepository{AircraftRepository: repo, cache: cache}
}

// FindMatch ищет запись сначала в кэше, затем в БД
func (r *AircraftRepository) FindMatch(ctx context.Context, q domain.ReferenceQuery) (*domain.Aircraft, error) {
	return matchOrLoad(r.cache, matchKey(aircraftMatchPrefix, q), func() (*domain.Aircraft, error) {
		return r.AircraftRepository.FindMatch(ctx, q)
	})
}

// AirlineRepository добавляет кэширование FindMatch
type AirlineRepository struct {
	repository.AirlineRepository
	cache *MatchCache
}

// NewAirlineRepository создает кэшируемый репозиторий авиакомпаний
func NewAirlineRepository(repo repository.AirlineRepository, cache *MatchCache) *AirlineRepository {
	return &AirlineRepository{AirlineRepository: repo, cache: cache}
}

// FindMatch ищет запись сначала в кэше, затем в БД
func (r *AirlineRepository) FindMatch(ctx context.Context, q domain.ReferenceQuery) (*domain.Airline, error) {
	return matchOrLoad(r.cache, matchKey(airlineMatchPrefix, q), func() (*domain.Airline, error) {
		return r.AirlineRepository.FindMatch(ctx, q)
	})
}

// Update обновляет запись и сбрасывает кэш: в нем могут лежать устаревшие копии
func (r *AirlineRepository) Update(ctx context.Context, airline *domain.Airline) error {
	if err := r.AirlineRepository.Update(ctx, airline); err != nil {
		return err
	}
	r.cache.Flush()
	return nil
}

// AirportRepository добавляет кэширование FindMatch
type AirportRepository struct {
	repository.AirportRepository
	cache *MatchCache
}

// NewAirportRepository создает кэшируемый репозиторий аэропортов
func NewAirportRepository(repo repository.AirportRepository, cache *MatchCache) *AirportRepository {
	return &AirportRepository{AirportRepository: repo, cache: cache}
}

// FindMatch ищет запись сначала в кэше, затем в БД
func (r *AirportRepository) FindMatch(ctx context.Context, q domain.ReferenceQuery) (*domain.Airport, error) {
	return matchOrLoad(r.cache, matchKey(airportMatchPrefix, q), func() (*domain.Airport, error) {
		return r.AirportRepository.FindMatch(ctx, q)
	})
}
