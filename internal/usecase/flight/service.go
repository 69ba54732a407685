package flight

import (
	"context"
	"errors"
	"fmt"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/pkg/logger"
	"github.com/frontandrew/flighthub/internal/pkg/validation"
	"github.com/frontandrew/flighthub/internal/repository"
	"github.com/google/uuid"
)

// CreateFlightRequest - запрос на создание рейса.
// type=general: присоединение к общему рейсу ParentID (нужны только ParentID, Seat, Note).
// type=custom: новый пользовательский рейс.
type CreateFlightRequest struct {
	Type        domain.FlightType `json:"type"`
	ParentID    *uuid.UUID        `json:"parentId,omitempty"`
	Number      string            `json:"number"`
	CallSign    string            `json:"callSign"`
	AircraftID  *uuid.UUID        `json:"aircraftId,omitempty"`
	AircraftReg string            `json:"aircraftReg"`
	AirlineID   *uuid.UUID        `json:"airlineId,omitempty"`
	DateLocal   string            `json:"dateLocal"`
	Departure   domain.Movement   `json:"departure"`
	Arrival     domain.Movement   `json:"arrival"`
	Seat        string            `json:"seat"`
	Note        string            `json:"note"`
}

// UpdateFlightRequest - частичное обновление; nil означает "не менять"
type UpdateFlightRequest struct {
	Number      *string          `json:"number,omitempty"`
	CallSign    *string          `json:"callSign,omitempty"`
	AircraftID  *uuid.UUID       `json:"aircraftId,omitempty"`
	AircraftReg *string          `json:"aircraftReg,omitempty"`
	AirlineID   *uuid.UUID       `json:"airlineId,omitempty"`
	Departure   *domain.Movement `json:"departure,omitempty"`
	Arrival     *domain.Movement `json:"arrival,omitempty"`
	Seat        *string          `json:"seat,omitempty"`
	Note        *string          `json:"note,omitempty"`
}

// touchesFlight - меняет ли запрос поля самого рейса, а не только билет
func (r UpdateFlightRequest) touchesFlight() bool {
	return r.Number != nil || r.CallSign != nil || r.AircraftID != nil || r.AircraftReg != nil ||
		r.AirlineID != nil || r.Departure != nil || r.Arrival != nil
}

// Service содержит бизнес-логику пользовательских рейсов и билетов
type Service struct {
	flightRepo repository.FlightRepository
	resolver   *Resolver
	txManager  repository.TxManager
	logger     logger.Logger
}

// NewService создает новый экземпляр сервиса рейсов
func NewService(
	flightRepo repository.FlightRepository,
	resolver *Resolver,
	txManager repository.TxManager,
	logger logger.Logger,
) *Service {
	return &Service{
		flightRepo: flightRepo,
		resolver:   resolver,
		txManager:  txManager,
		logger:     logger,
	}
}

// Create создает пользовательский рейс или присоединяет пользователя к общему
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateFlightRequest) (*FlightView, error) {
	switch req.Type {
	case domain.FlightTypeGeneral:
		return s.join(ctx, userID, req)
	case domain.FlightTypeCustom:
		return s.createCustom(ctx, userID, req)
	}
	return nil, validation.Collect(
		validation.Field("type", req.Type, validation.Required(),
			validation.OneOf(domain.FlightTypeGeneral, domain.FlightTypeCustom)),
	)
}

// join добавляет билет пользователя на общий рейс
func (s *Service) join(ctx context.Context, userID uuid.UUID, req CreateFlightRequest) (*FlightView, error) {
	if req.ParentID == nil {
		return nil, validation.Collect(
			validation.Field("parentId", "", validation.Required()),
		)
	}

	ticket, err := domain.NewTicket(userID, req.Seat, req.Note)
	if err != nil {
		return nil, err
	}

	var flight *domain.Flight
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		flight, err = s.flightRepo.GetByIDForUpdate(ctx, *req.ParentID)
		if err != nil {
			return err
		}
		if !flight.IsGeneral() {
			return fmt.Errorf("%w: parent flight %s is not general", domain.ErrFlightRecordNotFound, flight.ID())
		}
		if err := flight.AddTicket(ticket); err != nil {
			return err
		}
		return s.flightRepo.Update(ctx, flight)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Passenger joined flight", map[string]interface{}{
		"flight_id": flight.ID(),
		"user_id":   userID,
	})
	return NewFlightView(flight, userID), nil
}

func (s *Service) createCustom(ctx context.Context, userID uuid.UUID, req CreateFlightRequest) (*FlightView, error) {
	ticket, err := domain.NewTicket(userID, req.Seat, req.Note)
	if err != nil {
		return nil, err
	}

	from, err := s.airport(ctx, req.Departure.AirportID, "departure")
	if err != nil {
		return nil, err
	}
	to, err := s.airport(ctx, req.Arrival.AirportID, "arrival")
	if err != nil {
		return nil, err
	}

	distance, err := s.resolver.Distance(ctx, from, to)
	if err != nil {
		return nil, err
	}

	flight, err := domain.CreateCustom(domain.CustomFlightParams{
		AircraftID:  req.AircraftID,
		AircraftReg: req.AircraftReg,
		AirlineID:   req.AirlineID,
		Departure:   req.Departure,
		Arrival:     req.Arrival,
		Distance:    distance,
		Number:      req.Number,
		CallSign:    req.CallSign,
		DateLocal:   req.DateLocal,
		Tickets:     []domain.Ticket{ticket},
	})
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.flightRepo.Create(ctx, flight)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create flight: %w", err)
	}

	s.logger.Info("Custom flight created", map[string]interface{}{
		"flight_id": flight.ID(),
		"user_id":   userID,
	})
	return NewFlightView(flight, userID), nil
}

// airport загружает аэропорт движения; отсутствующий аэропорт делает рейс неполным
func (s *Service) airport(ctx context.Context, id uuid.UUID, field string) (*domain.Airport, error) {
	if id == uuid.Nil {
		return nil, validation.Collect(
			validation.Field(field+".airportId", "", validation.Required()),
		)
	}
	airport, err := s.resolver.AirportByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAirportNotFound) {
			return nil, fmt.Errorf("%w: %s airport %s: %w", domain.ErrIncompleteFlight, field, id, err)
		}
		return nil, err
	}
	return airport, nil
}

// Get возвращает рейс, если он виден пользователю
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*FlightView, error) {
	flight, err := s.flightRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !flight.IsVisibleTo(userID) {
		return nil, domain.ErrForbidden
	}
	return NewFlightView(flight, userID), nil
}

// List возвращает рейсы, на которые у пользователя есть билет
func (s *Service) List(ctx context.Context, userID uuid.UUID, filter domain.FlightFilter) (*domain.Page[*FlightView], error) {
	filter = filter.Normalize()
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, validation.Collect(
			validation.Field("type", filter.Type, validation.OneOf(domain.FlightTypeGeneral, domain.FlightTypeCustom)),
		)
	}

	flights, total, err := s.flightRepo.ListByPassenger(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}

	views := make([]*FlightView, 0, len(flights))
	for _, f := range flights {
		views = append(views, NewFlightView(f, userID))
	}
	return domain.NewPage(views, total, filter.Limit, filter.Offset), nil
}

// Update частично обновляет рейс.
// Пользовательский рейс редактирует только владелец; на общем рейсе пользователь меняет лишь свой билет.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, req UpdateFlightRequest) (*FlightView, error) {
	var flight *domain.Flight
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		flight, err = s.flightRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if flight.IsGeneral() {
			err = s.updateTicket(flight, userID, req)
		} else {
			err = s.updateCustom(ctx, flight, userID, req)
		}
		if err != nil {
			return err
		}
		return s.flightRepo.Update(ctx, flight)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Flight updated", map[string]interface{}{
		"flight_id": id,
		"user_id":   userID,
	})
	return NewFlightView(flight, userID), nil
}

func (s *Service) updateTicket(flight *domain.Flight, userID uuid.UUID, req UpdateFlightRequest) error {
	if req.touchesFlight() {
		return fmt.Errorf("%w: general flight fields are read-only", domain.ErrForbidden)
	}
	ticket, ok := flight.FindTicketByPassengerID(userID)
	if !ok {
		return fmt.Errorf("%w: no ticket on flight %s", domain.ErrForbidden, flight.ID())
	}

	if req.Seat != nil {
		ticket.Seat = *req.Seat
	}
	if req.Note != nil {
		ticket.Note = *req.Note
	}
	return flight.ChangeTicket(ticket)
}

// updateCustom применяет поля запроса через методы агрегата.
// Билет пользовательского рейса фиксирован при создании, seat и note игнорируются.
func (s *Service) updateCustom(ctx context.Context, flight *domain.Flight, userID uuid.UUID, req UpdateFlightRequest) error {
	if !flight.IsOwnedBy(userID) {
		return domain.ErrForbidden
	}

	if req.Number != nil {
		if err := flight.ChangeNumber(*req.Number); err != nil {
			return err
		}
	}
	if req.CallSign != nil {
		if err := flight.ChangeCallSign(*req.CallSign); err != nil {
			return err
		}
	}
	if req.AircraftID != nil {
		if err := flight.ChangeAircraft(req.AircraftID); err != nil {
			return err
		}
	}
	if req.AircraftReg != nil {
		if err := flight.ChangeAircraftReg(*req.AircraftReg); err != nil {
			return err
		}
	}
	if req.AirlineID != nil {
		if err := flight.ChangeAirline(req.AirlineID); err != nil {
			return err
		}
	}

	departureMoved := req.Departure != nil && req.Departure.AirportID != flight.Departure().AirportID
	arrivalMoved := req.Arrival != nil && req.Arrival.AirportID != flight.Arrival().AirportID

	var from, to *domain.Airport
	if departureMoved {
		airport, err := s.airport(ctx, req.Departure.AirportID, "departure")
		if err != nil {
			return err
		}
		from = airport
	}
	if arrivalMoved {
		airport, err := s.airport(ctx, req.Arrival.AirportID, "arrival")
		if err != nil {
			return err
		}
		to = airport
	}

	if departureMoved && arrivalMoved {
		distance, err := s.resolver.Distance(ctx, from, to)
		if err != nil {
			return err
		}
		if err := flight.ChangeDistance(distance); err != nil {
			return err
		}
	}

	if req.Departure != nil {
		if err := flight.ChangeDeparture(*req.Departure); err != nil {
			return err
		}
	}
	if req.Arrival != nil {
		if err := flight.ChangeArrival(*req.Arrival); err != nil {
			return err
		}
	}
	return nil
}

// Destroy удаляет пользовательский рейс целиком; с общего рейса снимает только билет пользователя
func (s *Service) Destroy(ctx context.Context, userID, id uuid.UUID) error {
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		flight, err := s.flightRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if flight.IsCustom() {
			if !flight.IsOwnedBy(userID) {
				return domain.ErrForbidden
			}
			return s.flightRepo.Delete(ctx, id)
		}

		if err := flight.RemoveTicket(userID); err != nil {
			return err
		}
		return s.flightRepo.Update(ctx, flight)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Flight destroyed for user", map[string]interface{}{
		"flight_id": id,
		"user_id":   userID,
	})
	return nil
}
