// Package store is the persistence collaborator behind the REST resources.
// Every backend (memory, mongo, postgres) satisfies Store for its entity.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bwise1/comment_service/internal/model"
)

var (
	// ErrNotFound is returned by by-id operations when no record matches.
	ErrNotFound = errors.New("record not found")
	// ErrImmutableField is returned when an update touches a field that
	// cannot change after creation.
	ErrImmutableField = errors.New("field is not mutable")
	// ErrUnknownField is returned for filters on fields the store does not index.
	ErrUnknownField = errors.New("unknown filter field")
	// ErrUnknownReference is returned when expansion is requested for a
	// field that does not reference another record.
	ErrUnknownReference = errors.New("unknown reference field")
)

// Filter holds equality constraints keyed by public field name.
type Filter map[string]string

// Fields maps public field names to their new values.
type Fields map[string]any

// Store is the contract each resource controller depends on.
type Store[T any] interface {
	Find(ctx context.Context, filter Filter) ([]T, error)
	FindByID(ctx context.Context, id string) (T, error)
	Insert(ctx context.Context, record T) (T, error)
	UpdateByID(ctx context.Context, id string, fields Fields) (T, error)
	DeleteByID(ctx context.Context, id string) (T, error)
	FindWithExpansion(ctx context.Context, filter Filter, ref string) ([]T, error)
}

// RefAuthor is the comment field that may reference a user.
const RefAuthor = model.FieldAuthor

var (
	commentFilterFields = map[string]bool{
		model.FieldID:     true,
		model.FieldPostID: true,
		model.FieldAuthor: true,
	}
	commentMutableFields = map[string]bool{
		model.FieldText:   true,
		model.FieldAuthor: true,
	}
)

func checkFilter(filter Filter) error {
	for field := range filter {
		if !commentFilterFields[field] {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}
	return nil
}

func checkMutable(fields Fields) error {
	for field, value := range fields {
		if !commentMutableFields[field] {
			return fmt.Errorf("%w: %s", ErrImmutableField, field)
		}
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field %s: expected string, got %T", field, value)
		}
	}
	return nil
}

func checkReference(ref string) error {
	if ref != RefAuthor {
		return fmt.Errorf("%w: %s", ErrUnknownReference, ref)
	}
	return nil
}

// sortedKeys gives backends a stable order when building queries.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
