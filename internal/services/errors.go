package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned for a missing model or a model of another project.
	ErrNotFound = errors.New("not found")
	// ErrConversionUnavailable is returned by a conversion trigger that refuses a request.
	ErrConversionUnavailable = errors.New("conversion unavailable")
)

// ValidationError carries per-field messages for re-rendering a form.
type ValidationError struct {
	Fields map[string][]string `json:"errors"`
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %s", name, strings.Join(e.Fields[name], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// orNil returns e when it holds at least one message.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// translate maps repository errors onto service errors.
func translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
