package postgres

import (
	"fmt"
	"strings"

	"github.com/frontandrew/flighthub/internal/domain"
)

// matchClause - условие и порядок нечеткого сопоставления.
// $1 - iata, $2 - icao, $3 - подстрока имени (уже экранированная для LIKE).
const matchClause = `
	WHERE ($1::text <> '' AND iata = $1::text)
	   OR ($2::text <> '' AND icao = $2::text)
	   OR ($3::text <> '' AND name ILIKE '%' || $3::text || '%')
	ORDER BY
		CASE
			WHEN $1::text <> '' AND iata = $1::text THEN 1
			WHEN $2::text <> '' AND icao = $2::text THEN 2
			ELSE 3
		END,
		name, id
	LIMIT 1
`

// keyClause - точное совпадение тройки (name, iata, icao), NULL-коды равны пустой строке
const keyClause = `
	WHERE name = $1 AND COALESCE(iata, '') = $2 AND COALESCE(icao, '') = $3
`

func matchArgs(q domain.ReferenceQuery) []any {
	q = q.Normalize()
	return []any{q.IATA, q.ICAO, escapeLike(q.Name)}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// listConditions собирает WHERE для списков справочников.
// withCountry/withActive - есть ли у таблицы колонки country и is_active.
func listConditions(filter domain.ReferenceFilter, withCountry, withActive bool) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR iata ILIKE $%d OR icao ILIKE $%d)", n, n, n))
	}
	if withCountry && filter.Country != "" {
		args = append(args, filter.Country)
		conditions = append(conditions, fmt.Sprintf("country ILIKE $%d", len(args)))
	}
	if withActive && filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// pageClause добавляет LIMIT/OFFSET к аргументам
func pageClause(filter domain.ReferenceFilter, args []any) (string, []any) {
	args = append(args, filter.Limit, filter.Offset)
	return fmt.Sprintf("ORDER BY name, id LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
