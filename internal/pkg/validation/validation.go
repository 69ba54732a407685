// Package validation - небольшое ядро декларативной валидации полей.
//
// Каждое поле проверяется цепочкой правил; результат - либо nil, либо FieldError
// с отказавшими правилами. Collect объединяет ошибки нескольких полей в одну Errors,
// Build вызывает конструктор только если все поля прошли проверку.
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrFailed - признак ошибки валидации, проверяется через errors.Is
var ErrFailed = errors.New("validation failed")

// FieldError - ошибка одного поля
type FieldError struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
	// Constraints - имя отказавшего правила -> сообщение
	Constraints map[string]string `json:"constraints"`
}

func (e *FieldError) Error() string {
	names := make([]string, 0, len(e.Constraints))
	for name := range e.Constraints {
		names = append(names, name)
	}
	sort.Strings(names)

	messages := make([]string, 0, len(names))
	for _, name := range names {
		messages = append(messages, e.Constraints[name])
	}
	return fmt.Sprintf("%s: %s", e.Field, strings.Join(messages, "; "))
}

func (e *FieldError) Is(target error) bool {
	return target == ErrFailed
}

// Errors - контейнер ошибок всех отказавших полей
type Errors struct {
	Fields []*FieldError `json:"fields"`
}

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("%s: %s", ErrFailed, strings.Join(parts, ", "))
}

func (e *Errors) Is(target error) bool {
	return target == ErrFailed
}

// Field проверяет значение цепочкой правил; nil если все правила выполнены
func Field(name string, value interface{}, rules ...Rule) *FieldError {
	var constraints map[string]string
	for _, rule := range rules {
		for ruleName, message := range rule(value) {
			if constraints == nil {
				constraints = make(map[string]string)
			}
			constraints[ruleName] = message
		}
	}
	if constraints == nil {
		return nil
	}
	return &FieldError{Field: name, Value: value, Constraints: constraints}
}

// Collect объединяет результаты проверки полей; nil если ошибок нет
func Collect(fields ...*FieldError) error {
	var failed []*FieldError
	for _, f := range fields {
		if f != nil {
			failed = append(failed, f)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &Errors{Fields: failed}
}

// Build вызывает construct только если все поля валидны
func Build[T any](construct func() T, fields ...*FieldError) (T, error) {
	if err := Collect(fields...); err != nil {
		var zero T
		return zero, err
	}
	return construct(), nil
}

// Merge объединяет несколько ошибок валидации в одну, сохраняя порядок полей.
// Поля вложенных объектов получают префикс (например "departure.airportId").
func Merge(prefix string, err error) []*FieldError {
	if err == nil {
		return nil
	}

	var errs *Errors
	if !errors.As(err, &errs) {
		var single *FieldError
		if errors.As(err, &single) {
			errs = &Errors{Fields: []*FieldError{single}}
		} else {
			return []*FieldError{{Field: prefix, Constraints: map[string]string{"valid": err.Error()}}}
		}
	}

	result := make([]*FieldError, 0, len(errs.Fields))
	for _, f := range errs.Fields {
		name := f.Field
		if prefix != "" {
			name = prefix + "." + f.Field
		}
		result = append(result, &FieldError{Field: name, Value: f.Value, Constraints: f.Constraints})
	}
	return result
}

// Details возвращает ошибки полей, если err - ошибка валидации
func Details(err error) []*FieldError {
	var errs *Errors
	if errors.As(err, &errs) {
		return errs.Fields
	}
	var single *FieldError
	if errors.As(err, &single) {
		return []*FieldError{single}
	}
	return nil
}
