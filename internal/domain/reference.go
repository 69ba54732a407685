package domain

import (
	"strings"

	"github.com/frontandrew/flighthub/internal/pkg/validation"
)

// ReferenceKey - уникальная тройка справочной записи (name, iata, icao)
type ReferenceKey struct {
	Name string
	IATA string
	ICAO string
}

// NewReferenceKey нормализует тройку так же, как фабрики справочников
func NewReferenceKey(name, iata, icao string) ReferenceKey {
	return ReferenceKey{
		Name: strings.TrimSpace(name),
		IATA: NormalizeCode(iata),
		ICAO: NormalizeCode(icao),
	}
}

// ReferenceQuery - параметры нечеткого сопоставления со справочником.
// Приоритет: точный IATA, затем точный ICAO, затем вхождение подстроки в имя.
type ReferenceQuery struct {
	IATA string
	ICAO string
	Name string
}

// IsEmpty - нечего сопоставлять
func (q ReferenceQuery) IsEmpty() bool {
	return q.IATA == "" && q.ICAO == "" && q.Name == ""
}

// Normalize приводит коды к верхнему регистру и обрезает пробелы
func (q ReferenceQuery) Normalize() ReferenceQuery {
	return ReferenceQuery{
		IATA: NormalizeCode(q.IATA),
		ICAO: NormalizeCode(q.ICAO),
		Name: cleanText(q.Name),
	}
}

// cleanText убирает из строки поиска байты, которые хранилище не примет
func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToValidUTF8(s, ""), "\x00", ""))
}

// ReferenceFilter - фильтр и пагинация списков справочников
type ReferenceFilter struct {
	Search  string
	Country string
	Active  *bool // только для авиакомпаний
	Limit   int
	Offset  int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize ограничивает limit/offset допустимыми значениями
func (f ReferenceFilter) Normalize() ReferenceFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Search = cleanText(f.Search)
	f.Country = cleanText(f.Country)
	return f
}

// NormalizeCode нормализует IATA/ICAO код.
// "\N" и "-" в наборах данных означают отсутствие кода.
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == `\N` || code == "-" || code == "N/A" {
		return ""
	}
	return code
}

func nameField(name string) *validation.FieldError {
	return validation.Field("name", name, validation.Required(), validation.Text(), validation.Length(1, 255))
}

func codeField(field, code string, length int) *validation.FieldError {
	return validation.Field(field, code, validation.Optional(
		validation.ExactLength(length),
		validation.Must("isAlphanumeric", "must contain only letters and digits", isAlphanumeric),
	))
}

func optionalText(field, value string, max int) *validation.FieldError {
	return validation.Field(field, value, validation.Optional(validation.Text(), validation.Length(1, max)))
}

func isAlphanumeric(value interface{}) bool {
	s, _ := value.(string)
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
