package domain

import (
	"strings"
	"unicode"
)

// FlightStatus - статус рейса
type FlightStatus string

const (
	FlightStatusUnknown           FlightStatus = "unknown"
	FlightStatusExpected          FlightStatus = "expected"
	FlightStatusEnRoute           FlightStatus = "en_route"
	FlightStatusCheckIn           FlightStatus = "check_in"
	FlightStatusBoarding          FlightStatus = "boarding"
	FlightStatusGateClosed        FlightStatus = "gate_closed"
	FlightStatusDeparted          FlightStatus = "departed"
	FlightStatusDelayed           FlightStatus = "delayed"
	FlightStatusApproaching       FlightStatus = "approaching"
	FlightStatusArrived           FlightStatus = "arrived"
	FlightStatusCanceled          FlightStatus = "canceled"
	FlightStatusDiverted          FlightStatus = "diverted"
	FlightStatusCanceledUncertain FlightStatus = "canceled_uncertain"
)

// FlightStatuses - все допустимые статусы
var FlightStatuses = []FlightStatus{
	FlightStatusUnknown,
	FlightStatusExpected,
	FlightStatusEnRoute,
	FlightStatusCheckIn,
	FlightStatusBoarding,
	FlightStatusGateClosed,
	FlightStatusDeparted,
	FlightStatusDelayed,
	FlightStatusApproaching,
	FlightStatusArrived,
	FlightStatusCanceled,
	FlightStatusDiverted,
	FlightStatusCanceledUncertain,
}

// IsValid проверяет, что статус входит в перечисление
func (s FlightStatus) IsValid() bool {
	for _, known := range FlightStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseFlightStatus сопоставляет строку источника ("EnRoute", "GateClosed", "en_route") со статусом.
// Нераспознанные значения дают FlightStatusUnknown.
func ParseFlightStatus(raw string) FlightStatus {
	key := squash(raw)
	for _, known := range FlightStatuses {
		if squash(string(known)) == key {
			return known
		}
	}
	return FlightStatusUnknown
}

func squash(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
