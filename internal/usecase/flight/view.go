package flight

import (
	"time"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/google/uuid"
)

// FlightView - рейс глазами конкретного пользователя
type FlightView struct {
	ID          uuid.UUID           `json:"id"`
	Type        domain.FlightType   `json:"type"`
	Number      string              `json:"number"`
	CallSign    string              `json:"callSign,omitempty"`
	Status      domain.FlightStatus `json:"status"`
	DateLocal   string              `json:"dateLocal"`
	AircraftID  *uuid.UUID          `json:"aircraftId"`
	AircraftReg string              `json:"aircraftReg,omitempty"`
	AirlineID   *uuid.UUID          `json:"airlineId"`
	Departure   domain.Movement     `json:"departure"`
	Arrival     domain.Movement     `json:"arrival"`
	Distance    domain.Distance     `json:"distance"`
	// Ticket есть только если у пользователя есть билет на рейс
	Ticket    *TicketView `json:"ticket,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// TicketView - билет пользователя
type TicketView struct {
	Seat      string    `json:"seat,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewFlightView строит представление рейса для userID
func NewFlightView(f *domain.Flight, userID uuid.UUID) *FlightView {
	view := &FlightView{
		ID:          f.ID(),
		Type:        f.Type(),
		Number:      f.Number(),
		CallSign:    f.CallSign(),
		Status:      f.Status(),
		DateLocal:   f.DateLocal(),
		AircraftID:  f.AircraftID(),
		AircraftReg: f.AircraftReg(),
		AirlineID:   f.AirlineID(),
		Departure:   f.Departure(),
		Arrival:     f.Arrival(),
		Distance:    f.Distance(),
		CreatedAt:   f.CreatedAt(),
		UpdatedAt:   f.UpdatedAt(),
	}

	if ticket, ok := f.FindTicketByPassengerID(userID); ok {
		view.Ticket = &TicketView{Seat: ticket.Seat, Note: ticket.Note, CreatedAt: ticket.CreatedAt}
	}
	return view
}
