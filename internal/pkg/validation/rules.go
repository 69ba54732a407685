package validation

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Rule проверяет значение и возвращает отказавшие ограничения (имя -> сообщение)
type Rule func(value interface{}) map[string]string

func fail(name, message string) map[string]string {
	return map[string]string{name: message}
}

// isEmpty: пустая строка, nil, nil-указатель, uuid.Nil
func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case *string:
		return v == nil || strings.TrimSpace(*v) == ""
	case uuid.UUID:
		return v == uuid.Nil
	case *uuid.UUID:
		return v == nil || *v == uuid.Nil
	}
	return false
}

// Required - значение не пустое
func Required() Rule {
	return func(value interface{}) map[string]string {
		if isEmpty(value) {
			return fail("isNotEmpty", "should not be empty")
		}
		return nil
	}
}

// Length - длина строки в символах в пределах [min, max]
func Length(min, max int) Rule {
	return func(value interface{}) map[string]string {
		s, ok := asString(value)
		if !ok {
			return fail("isString", "must be a string")
		}
		n := utf8.RuneCountInString(s)
		if n < min || n > max {
			return fail("length", fmt.Sprintf("length must be between %d and %d characters", min, max))
		}
		return nil
	}
}

// ExactLength - длина строки ровно n символов
func ExactLength(n int) Rule {
	return func(value interface{}) map[string]string {
		s, ok := asString(value)
		if !ok {
			return fail("isString", "must be a string")
		}
		if utf8.RuneCountInString(s) != n {
			return fail("length", fmt.Sprintf("length must be exactly %d characters", n))
		}
		return nil
	}
}

// Text - корректная UTF-8 строка без NUL-символов
func Text() Rule {
	return func(value interface{}) map[string]string {
		s, ok := asString(value)
		if !ok {
			return fail("isString", "must be a string")
		}
		if !utf8.ValidString(s) || strings.ContainsRune(s, 0) {
			return fail("isText", "must be valid UTF-8 text without NUL characters")
		}
		return nil
	}
}

// Range - число в пределах [min, max]
func Range(min, max float64) Rule {
	return func(value interface{}) map[string]string {
		f, ok := asFloat(value)
		if !ok {
			return fail("isNumber", "must be a number")
		}
		if math.IsNaN(f) || f < min || f > max {
			return fail("range", fmt.Sprintf("must be between %v and %v", min, max))
		}
		return nil
	}
}

// Finite - конечное неотрицательное число
func Finite() Rule {
	return func(value interface{}) map[string]string {
		f, ok := asFloat(value)
		if !ok {
			return fail("isNumber", "must be a number")
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fail("isFinite", "must be a finite number")
		}
		if f < 0 {
			return fail("min", "must not be negative")
		}
		return nil
	}
}

// OneOf - значение входит в допустимый набор
func OneOf[T comparable](allowed ...T) Rule {
	return func(value interface{}) map[string]string {
		v, ok := value.(T)
		if ok {
			for _, a := range allowed {
				if v == a {
					return nil
				}
			}
		}
		return fail("isIn", fmt.Sprintf("must be one of %v", allowed))
	}
}

// Must - произвольный предикат с именем и сообщением
func Must(name, message string, pred func(value interface{}) bool) Rule {
	return func(value interface{}) map[string]string {
		if !pred(value) {
			return fail(name, message)
		}
		return nil
	}
}

// Optional применяет правила только к непустому значению
func Optional(rules ...Rule) Rule {
	return func(value interface{}) map[string]string {
		if isEmpty(value) {
			return nil
		}
		var result map[string]string
		for _, rule := range rules {
			for k, v := range rule(value) {
				if result == nil {
					result = make(map[string]string)
				}
				result[k] = v
			}
		}
		return result
	}
}

func asString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", true
		}
		return *v, true
	}
	return "", false
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case *float64:
		if v == nil {
			return 0, false
		}
		return *v, true
	}
	return 0, false
}
