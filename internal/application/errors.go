package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("unable to login")
	ErrInvalidToken   = errors.New("please authenticate")
	ErrNotFound       = errors.New("not found")
	ErrInternal       = errors.New("internal error")
)

// ValidationError reports caller input that was rejected before any mutation.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(message string, fields map[string]string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

// storeErr maps repository errors onto the service taxonomy.
func storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}

func internalErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}
