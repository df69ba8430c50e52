// Package store defines the persistence boundary of the ingestion core.
// Concrete backends live in subpackages; the conversation engine only ever
// sees these interfaces.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/fintalk/internal/domain"
)

// ErrDuplicateCategory is returned by CreateCategory when another creation
// of the same (owner, name) pair won the race. Callers must re-fetch and
// resolve to the existing category instead of treating this as fatal.
var ErrDuplicateCategory = errors.New("category already exists")

// PersistenceError wraps any storage fault. A commit attempt that hits one
// is abandoned but the session keeps its draft so the user can retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// TransactionStore persists confirmed drafts.
type TransactionStore interface {
	// CreateTransaction writes one transaction and returns its id.
	CreateTransaction(ctx context.Context, tx *domain.Transaction) (string, error)
}

// CategoryStore owns the per-user category sets.
type CategoryStore interface {
	// ListCategories returns all categories owned by the user.
	ListCategories(ctx context.Context, ownerID string) ([]domain.Category, error)

	// CreateCategory creates a category, failing with ErrDuplicateCategory
	// when the owner already has one with the same name (case-insensitive).
	CreateCategory(ctx context.Context, ownerID, name string, affinity domain.Affinity, isDefault bool) (domain.Category, error)

	// TouchCategory records that a category was just used, for
	// most-recently-used ranking of ambiguous matches.
	TouchCategory(ctx context.Context, ownerID, categoryID string, usedAt time.Time) error
}

// Store is the full gateway the engine is wired with.
type Store interface {
	TransactionStore
	CategoryStore
}
