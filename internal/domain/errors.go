package domain

import (
	"errors"
	"fmt"

	"github.com/frontandrew/flighthub/internal/pkg/validation"
)

// Доменные ошибки - используются во всех слоях приложения

// Validation
var (
	// ErrValidationFailed - одно или несколько полей нарушают правила (детали в *validation.Errors)
	ErrValidationFailed = validation.ErrFailed
)

// Source errors
var (
	ErrSourceUnavailable = errors.New("flight source unavailable")
)

// Lookup errors
var (
	ErrFlightNotFound      = errors.New("flight not found in source")
	ErrSeveralFlightsFound = errors.New("several flights found")
	ErrIncompleteFlight    = errors.New("incomplete flight")
)

// Storage errors
var (
	ErrAircraftNotFound     = errors.New("aircraft not found")
	ErrAirlineNotFound      = errors.New("airline not found")
	ErrAirportNotFound      = errors.New("airport not found")
	ErrFlightRecordNotFound = errors.New("flight record not found")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrAlreadyExists        = errors.New("already exists")
)

// Authorization errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// ErrInvariantViolated - нарушен инвариант агрегата (ошибка программиста, не пользовательского ввода)
var ErrInvariantViolated = errors.New("aggregate invariant violated")

// InvariantError передается через panic из закрытого конструктора Flight
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvariantViolated, e.Message)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolated
}

// Recover превращает panic с *InvariantError в ошибку; прочие panic пробрасываются дальше.
// Использование: defer domain.Recover(&err)
func Recover(err *error) {
	if r := recover(); r != nil {
		if ie, ok := r.(*InvariantError); ok {
			*err = ie
			return
		}
		panic(r)
	}
}
