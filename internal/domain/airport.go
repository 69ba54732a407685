package domain

import (
	"strings"
	"time"

	"github.com/frontandrew/flighthub/internal/pkg/validation"
	"github.com/google/uuid"
)

// Airport - аэропорт из справочника
type Airport struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IATA      string    `json:"iata,omitempty"` // 3 символа
	ICAO      string    `json:"icao,omitempty"` // 4 символа
	City      string    `json:"city,omitempty"`
	Country   string    `json:"country,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UTCOffset float64   `json:"utcOffset"` // смещение от UTC в часах, бывает дробным (5.5)
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AirportParams - входные данные фабрики
type AirportParams struct {
	Name      string
	IATA      string
	ICAO      string
	City      string
	Country   string
	Latitude  float64
	Longitude float64
	UTCOffset float64
}

// NewAirport проверяет поля и создает аэропорт
func NewAirport(p AirportParams) (*Airport, error) {
	name := strings.TrimSpace(p.Name)
	iata := NormalizeCode(p.IATA)
	icao := NormalizeCode(p.ICAO)
	city := strings.TrimSpace(p.City)
	country := strings.TrimSpace(p.Country)

	return validation.Build(func() *Airport {
		return &Airport{
			Name:      name,
			IATA:      iata,
			ICAO:      icao,
			City:      city,
			Country:   country,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			UTCOffset: p.UTCOffset,
		}
	},
		nameField(name),
		codeField("iata", iata, 3),
		codeField("icao", icao, 4),
		optionalText("city", city, 255),
		optionalText("country", country, 255),
		validation.Field("latitude", p.Latitude, validation.Range(-90, 90)),
		validation.Field("longitude", p.Longitude, validation.Range(-180, 180)),
		validation.Field("utcOffset", p.UTCOffset, validation.Range(-12, 14)),
	)
}

// Key возвращает уникальную тройку записи
func (a *Airport) Key() ReferenceKey {
	return ReferenceKey{Name: a.Name, IATA: a.IATA, ICAO: a.ICAO}
}

// Code возвращает код для запроса расстояния: ICAO, если есть, иначе IATA
func (a *Airport) Code() (string, CodeType) {
	if a.ICAO != "" {
		return a.ICAO, CodeTypeICAO
	}
	return a.IATA, CodeTypeIATA
}

// CodeType - тип кода аэропорта во внешнем источнике
type CodeType string

const (
	CodeTypeIATA CodeType = "iata"
	CodeTypeICAO CodeType = "icao"
)
