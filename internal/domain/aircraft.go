package domain

import (
	"strings"
	"time"

	"github.com/frontandrew/flighthub/internal/pkg/validation"
	"github.com/google/uuid"
)

// Aircraft - тип воздушного судна из справочника
type Aircraft struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IATA      string    `json:"iata,omitempty"` // 3 символа
	ICAO      string    `json:"icao,omitempty"` // 4 символа
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AircraftParams - входные данные фабрики
type AircraftParams struct {
	Name string
	IATA string
	ICAO string
}

// NewAircraft проверяет поля и создает тип воздушного судна
func NewAircraft(p AircraftParams) (*Aircraft, error) {
	name := strings.TrimSpace(p.Name)
	iata := NormalizeCode(p.IATA)
	icao := NormalizeCode(p.ICAO)

	return validation.Build(func() *Aircraft {
		return &Aircraft{Name: name, IATA: iata, ICAO: icao}
	},
		nameField(name),
		codeField("iata", iata, 3),
		codeField("icao", icao, 4),
	)
}

// Key возвращает уникальную тройку записи
func (a *Aircraft) Key() ReferenceKey {
	return ReferenceKey{Name: a.Name, IATA: a.IATA, ICAO: a.ICAO}
}
