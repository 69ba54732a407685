package domain

import (
	"strings"
	"time"

	"github.com/frontandrew/flighthub/internal/pkg/validation"
	"github.com/google/uuid"
)

// DateLayout - формат локальной даты рейса
const DateLayout = "2006-01-02"

// Movement - вылет или прилет рейса. Принадлежит только агрегату Flight.
type Movement struct {
	AirportID          uuid.UUID `json:"airportId"`
	ScheduledTimeLocal string    `json:"scheduledTimeLocal"`
	ScheduledTimeUTC   string    `json:"scheduledTimeUtc"`
	ActualTimeLocal    string    `json:"actualTimeLocal"`
	ActualTimeUTC      string    `json:"actualTimeUtc"`
}

// NewMovement проверяет поля и создает движение
func NewMovement(m Movement) (Movement, error) {
	m.ScheduledTimeLocal = strings.TrimSpace(m.ScheduledTimeLocal)
	m.ScheduledTimeUTC = strings.TrimSpace(m.ScheduledTimeUTC)
	m.ActualTimeLocal = strings.TrimSpace(m.ActualTimeLocal)
	m.ActualTimeUTC = strings.TrimSpace(m.ActualTimeUTC)

	if err := m.Validate(); err != nil {
		return Movement{}, err
	}
	return m, nil
}

// Validate проверяет корректность движения
func (m Movement) Validate() error {
	return validation.Collect(
		validation.Field("airportId", m.AirportID, validation.Required()),
		validation.Field("scheduledTimeLocal", m.ScheduledTimeLocal, validation.Required(), validation.Text(), validation.Length(1, 64)),
		validation.Field("scheduledTimeUtc", m.ScheduledTimeUTC, validation.Required(), validation.Text(), validation.Length(1, 64)),
		validation.Field("actualTimeLocal", m.ActualTimeLocal, validation.Required(), validation.Text(), validation.Length(1, 64)),
		validation.Field("actualTimeUtc", m.ActualTimeUTC, validation.Required(), validation.Text(), validation.Length(1, 64)),
	)
}

// Date возвращает локальную дату запланированного времени (YYYY-MM-DD) или пустую строку
func (m Movement) Date() string {
	if len(m.ScheduledTimeLocal) < len(DateLayout) {
		return ""
	}
	date := m.ScheduledTimeLocal[:len(DateLayout)]
	if !IsDate(date) {
		return ""
	}
	return date
}

// Distance - расстояние рейса в разных единицах. Принадлежит только агрегату Flight.
type Distance struct {
	Feet  float64 `json:"feet"`
	Km    float64 `json:"km"`
	Meter float64 `json:"meter"`
	Mile  float64 `json:"mile"`
	NM    float64 `json:"nm"`
}

// NewDistance проверяет поля и создает расстояние
func NewDistance(d Distance) (Distance, error) {
	if err := d.Validate(); err != nil {
		return Distance{}, err
	}
	return d, nil
}

// Validate проверяет корректность расстояния
func (d Distance) Validate() error {
	return validation.Collect(
		validation.Field("feet", d.Feet, validation.Finite()),
		validation.Field("km", d.Km, validation.Finite()),
		validation.Field("meter", d.Meter, validation.Finite()),
		validation.Field("mile", d.Mile, validation.Finite()),
		validation.Field("nm", d.NM, validation.Finite()),
	)
}

// Ticket - билет пассажира на рейс. Идентичность - PassengerID.
type Ticket struct {
	PassengerID uuid.UUID `json:"passengerId"`
	Seat        string    `json:"seat,omitempty"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewTicket проверяет поля и создает билет
func NewTicket(passengerID uuid.UUID, seat, note string) (Ticket, error) {
	t := Ticket{
		PassengerID: passengerID,
		Seat:        strings.TrimSpace(seat),
		Note:        strings.TrimSpace(note),
		CreatedAt:   time.Now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return Ticket{}, err
	}
	return t, nil
}

// Validate проверяет корректность билета
func (t Ticket) Validate() error {
	return validation.Collect(
		validation.Field("passengerId", t.PassengerID, validation.Required()),
		validation.Field("seat", t.Seat, validation.Optional(validation.Text(), validation.Length(1, 10))),
		validation.Field("note", t.Note, validation.Optional(validation.Text(), validation.Length(1, 1000))),
	)
}

// IsDate проверяет формат YYYY-MM-DD
func IsDate(value string) bool {
	_, err := time.Parse(DateLayout, value)
	return err == nil
}

func isDateValue(value interface{}) bool {
	s, _ := value.(string)
	return IsDate(s)
}

// FlightFilter - фильтр и пагинация списка рейсов пользователя
type FlightFilter struct {
	Type   FlightType // пусто - все типы
	Limit  int
	Offset int
}

// Normalize ограничивает limit/offset допустимыми значениями
func (f FlightFilter) Normalize() FlightFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
