package repository

import (
	"context"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/google/uuid"
)

// AircraftRepository определяет методы для работы с типами воздушных судов
type AircraftRepository interface {
	// Create сохраняет новую запись, назначая ID и временные метки
	Create(ctx context.Context, aircraft *domain.Aircraft) error

	// GetByID возвращает запись по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Aircraft, error)

	// FindByKey ищет запись по точной тройке (name, iata, icao)
	FindByKey(ctx context.Context, key domain.ReferenceKey) (*domain.Aircraft, error)

	// FindMatch ищет запись по приоритету: IATA, ICAO, вхождение в имя
	FindMatch(ctx context.Context, query domain.ReferenceQuery) (*domain.Aircraft, error)

	// List возвращает страницу записей и общее количество
	List(ctx context.Context, filter domain.ReferenceFilter) ([]*domain.Aircraft, int, error)
}

// AirlineRepository определяет методы для работы с авиакомпаниями
type AirlineRepository interface {
	Create(ctx context.Context, airline *domain.Airline) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Airline, error)
	FindByKey(ctx context.Context, key domain.ReferenceKey) (*domain.Airline, error)
	FindMatch(ctx context.Context, query domain.ReferenceQuery) (*domain.Airline, error)
	List(ctx context.Context, filter domain.ReferenceFilter) ([]*domain.Airline, int, error)

	// Update обновляет изменяемые поля (is_active)
	Update(ctx context.Context, airline *domain.Airline) error
}

// AirportRepository определяет методы для работы с аэропортами
type AirportRepository interface {
	Create(ctx context.Context, airport *domain.Airport) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Airport, error)
	FindByKey(ctx context.Context, key domain.ReferenceKey) (*domain.Airport, error)
	FindMatch(ctx context.Context, query domain.ReferenceQuery) (*domain.Airport, error)
	List(ctx context.Context, filter domain.ReferenceFilter) ([]*domain.Airport, int, error)
}

// FlightRepository определяет методы для работы с агрегатом рейса
type FlightRepository interface {
	// Create сохраняет рейс вместе с билетами
	Create(ctx context.Context, flight *domain.Flight) error

	// Update сохраняет рейс; набор билетов заменяется целиком, поэтому рейс читают через GetByIDForUpdate
	Update(ctx context.Context, flight *domain.Flight) error

	// Delete удаляет рейс и его билеты
	Delete(ctx context.Context, id uuid.UUID) error

	// GetByID возвращает рейс с билетами
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Flight, error)

	// GetByIDForUpdate возвращает рейс с билетами и блокирует строку рейса до конца транзакции
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Flight, error)

	// FindGeneral ищет общий рейс по номеру и локальной дате
	FindGeneral(ctx context.Context, number, dateLocal string) (*domain.Flight, error)

	// ListByPassenger возвращает рейсы, на которые у пассажира есть билет
	ListByPassenger(ctx context.Context, passengerID uuid.UUID, filter domain.FlightFilter) ([]*domain.Flight, int, error)
}

// TxManager выполняет функцию в одной транзакции хранилища
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
