package domain

import (
	"strings"
	"time"

	"github.com/frontandrew/flighthub/internal/pkg/validation"
	"github.com/google/uuid"
)

// Airline - авиакомпания из справочника
type Airline struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IATA      string    `json:"iata,omitempty"` // 2 символа
	ICAO      string    `json:"icao,omitempty"` // 3 символа
	Callsign  string    `json:"callsign,omitempty"`
	Country   string    `json:"country,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AirlineParams - входные данные фабрики
type AirlineParams struct {
	Name     string
	IATA     string
	ICAO     string
	Callsign string
	Country  string
	Active   bool
}

// NewAirline проверяет поля и создает авиакомпанию
func NewAirline(p AirlineParams) (*Airline, error) {
	name := strings.TrimSpace(p.Name)
	iata := NormalizeCode(p.IATA)
	icao := NormalizeCode(p.ICAO)
	callsign := strings.TrimSpace(p.Callsign)
	country := strings.TrimSpace(p.Country)

	return validation.Build(func() *Airline {
		return &Airline{
			Name:     name,
			IATA:     iata,
			ICAO:     icao,
			Callsign: callsign,
			Country:  country,
			IsActive: p.Active,
		}
	},
		nameField(name),
		codeField("iata", iata, 2),
		codeField("icao", icao, 3),
		optionalText("callsign", callsign, 255),
		optionalText("country", country, 255),
	)
}

// Activate помечает авиакомпанию действующей
func (a *Airline) Activate() {
	a.IsActive = true
}

// Deactivate помечает авиакомпанию недействующей
func (a *Airline) Deactivate() {
	a.IsActive = false
}

// Key возвращает уникальную тройку записи
func (a *Airline) Key() ReferenceKey {
	return ReferenceKey{Name: a.Name, IATA: a.IATA, ICAO: a.ICAO}
}
