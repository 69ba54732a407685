package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/frontandrew/flighthub/internal/pkg/validation"
	"github.com/google/uuid"
)

// FlightType - вариант рейса, задается при создании и не меняется
type FlightType string

const (
	// FlightTypeGeneral - рейс из внешнего источника, общий для пассажиров
	FlightTypeGeneral FlightType = "general"
	// FlightTypeCustom - рейс, заведенный пользователем, с единственным билетом
	FlightTypeCustom FlightType = "custom"
)

// IsValid проверяет тип рейса
func (t FlightType) IsValid() bool {
	return t == FlightTypeGeneral || t == FlightTypeCustom
}

// Flight - агрегат рейса. Владеет движениями, расстоянием и билетами.
// Поля закрыты: изменение только через Change*/AddTicket/RemoveTicket.
type Flight struct {
	id          uuid.UUID
	flightType  FlightType
	aircraftID  *uuid.UUID
	aircraftReg string
	airlineID   *uuid.UUID
	departure   Movement
	arrival     Movement
	distance    Distance
	number      string
	callSign    string
	status      FlightStatus
	dateLocal   string
	tickets     []Ticket
	createdAt   time.Time
	updatedAt   time.Time
}

// GeneralFlightParams - входные данные CreateGeneral
type GeneralFlightParams struct {
	AircraftID  *uuid.UUID
	AircraftReg string
	AirlineID   *uuid.UUID
	Departure   Movement
	Arrival     Movement
	Distance    Distance
	Number      string
	CallSign    string
	Status      FlightStatus
	DateLocal   string
}

// CustomFlightParams - входные данные CreateCustom
type CustomFlightParams struct {
	AircraftID  *uuid.UUID
	AircraftReg string
	AirlineID   *uuid.UUID
	Departure   Movement
	Arrival     Movement
	Distance    Distance
	Number      string
	CallSign    string
	DateLocal   string // если пусто - дата запланированного вылета
	Tickets     []Ticket
}

// NormalizeFlightNumber приводит номер рейса к виду "LH400"
func NormalizeFlightNumber(number string) string {
	return strings.ToUpper(strings.Join(strings.Fields(number), ""))
}

// CreateGeneral создает рейс из внешнего источника. Билеты не требуются.
func CreateGeneral(p GeneralFlightParams) (*Flight, error) {
	f := &Flight{
		flightType:  FlightTypeGeneral,
		aircraftID:  p.AircraftID,
		aircraftReg: strings.TrimSpace(p.AircraftReg),
		airlineID:   p.AirlineID,
		departure:   p.Departure,
		arrival:     p.Arrival,
		distance:    p.Distance,
		number:      NormalizeFlightNumber(p.Number),
		callSign:    strings.TrimSpace(p.CallSign),
		status:      p.Status,
		dateLocal:   strings.TrimSpace(p.DateLocal),
	}
	if f.dateLocal == "" {
		f.dateLocal = f.departure.Date()
	}

	if err := f.validate(); err != nil {
		return nil, err
	}
	return newFlight(f), nil
}

// CreateCustom создает пользовательский рейс. Статус всегда unknown, билет ровно один.
func CreateCustom(p CustomFlightParams) (*Flight, error) {
	f := &Flight{
		flightType:  FlightTypeCustom,
		aircraftID:  p.AircraftID,
		aircraftReg: strings.TrimSpace(p.AircraftReg),
		airlineID:   p.AirlineID,
		departure:   p.Departure,
		arrival:     p.Arrival,
		distance:    p.Distance,
		number:      strings.TrimSpace(p.Number),
		callSign:    strings.TrimSpace(p.CallSign),
		status:      FlightStatusUnknown,
		dateLocal:   strings.TrimSpace(p.DateLocal),
		tickets:     append([]Ticket(nil), p.Tickets...),
	}
	if f.dateLocal == "" {
		f.dateLocal = f.departure.Date()
	}

	if err := f.validate(); err != nil {
		return nil, err
	}
	return newFlight(f), nil
}

// newFlight - единственная точка создания агрегата.
// Нарушение инвариантов здесь означает ошибку в вызывающем коде: panic с *InvariantError.
func newFlight(f *Flight) *Flight {
	if err := f.validate(); err != nil {
		panic(&InvariantError{Message: err.Error()})
	}

	switch f.flightType {
	case FlightTypeGeneral:
		if len(f.tickets) != 0 {
			panic(&InvariantError{Message: "general flight is created without tickets"})
		}
	case FlightTypeCustom:
		if len(f.tickets) != 1 {
			panic(&InvariantError{Message: fmt.Sprintf("custom flight requires exactly one ticket, got %d", len(f.tickets))})
		}
		if f.status != FlightStatusUnknown {
			panic(&InvariantError{Message: "custom flight status must be unknown"})
		}
	default:
		panic(&InvariantError{Message: fmt.Sprintf("unknown flight type %q", f.flightType)})
	}

	now := time.Now().UTC()
	f.id = uuid.New()
	f.createdAt = now
	f.updatedAt = now
	return f
}

func (f *Flight) validate() error {
	fields := []*validation.FieldError{
		validation.Field("type", f.flightType, validation.OneOf(FlightTypeGeneral, FlightTypeCustom)),
		validation.Field("number", f.number, validation.Required(), validation.Text(), validation.Length(1, 255)),
		validation.Field("callSign", f.callSign, validation.Optional(validation.Text(), validation.Length(1, 255))),
		validation.Field("aircraftReg", f.aircraftReg, validation.Optional(validation.Text(), validation.Length(1, 255))),
		referenceField("aircraftId", f.aircraftID),
		referenceField("airlineId", f.airlineID),
		validation.Field("status", f.status, validation.OneOf(FlightStatuses...)),
		validation.Field("dateLocal", f.dateLocal, validation.Required(),
			validation.Must("isDate", "must be a date in YYYY-MM-DD format", isDateValue)),
	}
	fields = append(fields, validation.Merge("departure", f.departure.Validate())...)
	fields = append(fields, validation.Merge("arrival", f.arrival.Validate())...)
	fields = append(fields, validation.Merge("distance", f.distance.Validate())...)

	if f.flightType == FlightTypeCustom {
		fields = append(fields, validation.Field("tickets", len(f.tickets),
			validation.Must("length", "custom flight must have exactly one ticket", func(v interface{}) bool {
				return v.(int) == 1
			})))
	}
	for i, t := range f.tickets {
		fields = append(fields, validation.Merge(fmt.Sprintf("tickets[%d]", i), t.Validate())...)
	}

	return validation.Collect(fields...)
}

func referenceField(name string, id *uuid.UUID) *validation.FieldError {
	return validation.Field(name, id, validation.Must("isUUID", "must be a non-empty id", func(v interface{}) bool {
		ref := v.(*uuid.UUID)
		return ref == nil || *ref != uuid.Nil
	}))
}

// Getters

func (f *Flight) ID() uuid.UUID { return f.id }
func (f *Flight) Type() FlightType { return f.flightType }
func (f *Flight) AircraftID() *uuid.UUID { return f.aircraftID }
func (f *Flight) AircraftReg() string { return f.aircraftReg }
func (f *Flight) AirlineID() *uuid.UUID { return f.airlineID }
func (f *Flight) Departure() Movement { return f.departure }
func (f *Flight) Arrival() Movement { return f.arrival }
func (f *Flight) Distance() Distance { return f.distance }
func (f *Flight) Number() string { return f.number }
func (f *Flight) CallSign() string { return f.callSign }
func (f *Flight) Status() FlightStatus { return f.status }
func (f *Flight) DateLocal() string { return f.dateLocal }
func (f *Flight) CreatedAt() time.Time { return f.createdAt }
func (f *Flight) UpdatedAt() time.Time { return f.updatedAt }
func (f *Flight) IsCustom() bool { return f.flightType == FlightTypeCustom }
func (f *Flight) IsGeneral() bool { return f.flightType == FlightTypeGeneral }
func (f *Flight) Tickets() []Ticket { return append([]Ticket(nil), f.tickets...) }
func (f *Flight) TicketCount() int { return len(f.tickets) }

// Owner возвращает владельца пользовательского рейса (пассажира его билета)
func (f *Flight) Owner() (uuid.UUID, bool) {
	if !f.IsCustom() || len(f.tickets) == 0 {
		return uuid.Nil, false
	}
	return f.tickets[0].PassengerID, true
}

// IsOwnedBy - пользовательский рейс принадлежит userID
func (f *Flight) IsOwnedBy(userID uuid.UUID) bool {
	owner, ok := f.Owner()
	return ok && owner == userID
}

// IsVisibleTo - общий рейс виден всем, пользовательский только владельцу
func (f *Flight) IsVisibleTo(userID uuid.UUID) bool {
	return f.IsGeneral() || f.IsOwnedBy(userID)
}

// FindTicketByPassengerID ищет билет пассажира
func (f *Flight) FindTicketByPassengerID(passengerID uuid.UUID) (Ticket, bool) {
	for _, t := range f.tickets {
		if t.PassengerID == passengerID {
			return t, true
		}
	}
	return Ticket{}, false
}

// Mutators

func (f *Flight) touch() {
	f.updatedAt = time.Now().UTC()
}

// ChangeAircraft меняет тип воздушного судна (nil - не определен)
func (f *Flight) ChangeAircraft(id *uuid.UUID) error {
	if err := validation.Collect(referenceField("aircraftId", id)); err != nil {
		return err
	}
	f.aircraftID = id
	f.touch()
	return nil
}

// ChangeAircraftReg меняет регистрационный номер борта
func (f *Flight) ChangeAircraftReg(reg string) error {
	reg = strings.TrimSpace(reg)
	if err := validation.Collect(
		validation.Field("aircraftReg", reg, validation.Optional(validation.Text(), validation.Length(1, 255))),
	); err != nil {
		return err
	}
	f.aircraftReg = reg
	f.touch()
	return nil
}

// ChangeAirline меняет авиакомпанию (nil - не определена)
func (f *Flight) ChangeAirline(id *uuid.UUID) error {
	if err := validation.Collect(referenceField("airlineId", id)); err != nil {
		return err
	}
	f.airlineID = id
	f.touch()
	return nil
}

// ChangeDeparture меняет вылет. Если сменилась дата запланированного вылета, dateLocal следует за ней.
func (f *Flight) ChangeDeparture(m Movement) error {
	m, err := NewMovement(m)
	if err != nil {
		return validation.Collect(validation.Merge("departure", err)...)
	}
	if date := m.Date(); date != "" && date != f.departure.Date() {
		f.dateLocal = date
	}
	f.departure = m
	f.touch()
	return nil
}

// ChangeArrival меняет прилет
func (f *Flight) ChangeArrival(m Movement) error {
	m, err := NewMovement(m)
	if err != nil {
		return validation.Collect(validation.Merge("arrival", err)...)
	}
	f.arrival = m
	f.touch()
	return nil
}

// ChangeDistance меняет расстояние
func (f *Flight) ChangeDistance(d Distance) error {
	d, err := NewDistance(d)
	if err != nil {
		return validation.Collect(validation.Merge("distance", err)...)
	}
	f.distance = d
	f.touch()
	return nil
}

// ChangeNumber меняет номер рейса
func (f *Flight) ChangeNumber(number string) error {
	number = strings.TrimSpace(number)
	if f.IsGeneral() {
		number = NormalizeFlightNumber(number)
	}
	if err := validation.Collect(
		validation.Field("number", number, validation.Required(), validation.Text(), validation.Length(1, 255)),
	); err != nil {
		return err
	}
	f.number = number
	f.touch()
	return nil
}

// ChangeCallSign меняет позывной
func (f *Flight) ChangeCallSign(callSign string) error {
	callSign = strings.TrimSpace(callSign)
	if err := validation.Collect(
		validation.Field("callSign", callSign, validation.Optional(validation.Text(), validation.Length(1, 255))),
	); err != nil {
		return err
	}
	f.callSign = callSign
	f.touch()
	return nil
}

// ChangeStatus меняет статус общего рейса. Для пользовательского рейса ничего не делает.
func (f *Flight) ChangeStatus(status FlightStatus) error {
	if f.IsCustom() {
		return nil
	}
	if err := validation.Collect(
		validation.Field("status", status, validation.OneOf(FlightStatuses...)),
	); err != nil {
		return err
	}
	f.status = status
	f.touch()
	return nil
}

// AddTicket добавляет билет на общий рейс; билет того же пассажира заменяется.
// Для пользовательского рейса ничего не делает.
func (f *Flight) AddTicket(t Ticket) error {
	if f.IsCustom() {
		return nil
	}
	if err := t.Validate(); err != nil {
		return err
	}
	for i := range f.tickets {
		if f.tickets[i].PassengerID == t.PassengerID {
			f.tickets[i] = t
			f.touch()
			return nil
		}
	}
	f.tickets = append(f.tickets, t)
	f.touch()
	return nil
}

// ChangeTicket заменяет существующий билет пассажира на общем рейсе
func (f *Flight) ChangeTicket(t Ticket) error {
	if f.IsCustom() {
		return nil
	}
	if err := t.Validate(); err != nil {
		return err
	}
	for i := range f.tickets {
		if f.tickets[i].PassengerID == t.PassengerID {
			if t.CreatedAt.IsZero() {
				t.CreatedAt = f.tickets[i].CreatedAt
			}
			f.tickets[i] = t
			f.touch()
			return nil
		}
	}
	return ErrTicketNotFound
}

// RemoveTicket удаляет билет пассажира с общего рейса
func (f *Flight) RemoveTicket(passengerID uuid.UUID) error {
	if f.IsCustom() {
		return nil
	}
	for i := range f.tickets {
		if f.tickets[i].PassengerID == passengerID {
			f.tickets = append(f.tickets[:i], f.tickets[i+1:]...)
			f.touch()
			return nil
		}
	}
	return ErrTicketNotFound
}

// FlightSnapshot - плоское представление агрегата для хранилища
type FlightSnapshot struct {
	ID          uuid.UUID
	Type        FlightType
	AircraftID  *uuid.UUID
	AircraftReg string
	AirlineID   *uuid.UUID
	Departure   Movement
	Arrival     Movement
	Distance    Distance
	Number      string
	CallSign    string
	Status      FlightStatus
	DateLocal   string
	Tickets     []Ticket
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Snapshot возвращает копию состояния агрегата
func (f *Flight) Snapshot() FlightSnapshot {
	return FlightSnapshot{
		ID:          f.id,
		Type:        f.flightType,
		AircraftID:  f.aircraftID,
		AircraftReg: f.aircraftReg,
		AirlineID:   f.airlineID,
		Departure:   f.departure,
		Arrival:     f.arrival,
		Distance:    f.distance,
		Number:      f.number,
		CallSign:    f.callSign,
		Status:      f.status,
		DateLocal:   f.dateLocal,
		Tickets:     f.Tickets(),
		CreatedAt:   f.createdAt,
		UpdatedAt:   f.updatedAt,
	}
}

// RestoreFlight восстанавливает агрегат из хранилища без повторной проверки
func RestoreFlight(s FlightSnapshot) *Flight {
	return &Flight{
		id:          s.ID,
		flightType:  s.Type,
		aircraftID:  s.AircraftID,
		aircraftReg: s.AircraftReg,
		airlineID:   s.AirlineID,
		departure:   s.Departure,
		arrival:     s.Arrival,
		distance:    s.Distance,
		number:      s.Number,
		callSign:    s.CallSign,
		status:      s.Status,
		dateLocal:   s.DateLocal,
		tickets:     append([]Ticket(nil), s.Tickets...),
		createdAt:   s.CreatedAt,
		updatedAt:   s.UpdatedAt,
	}
}
