// Package inmemory is an in-memory implementation of the store gateway.
// It is safe for concurrent use and returns copies to callers. Data is lost
// on restart - it exists for tests and the local REPL.
package inmemory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/fintalk/internal/domain"
	"github.com/dvloznov/fintalk/internal/store"
)

// Store holds transactions and per-owner category sets behind one mutex.
type Store struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction
	categories   map[string]map[string]*domain.Category // ownerID -> categoryID -> category
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		transactions: make(map[string]*domain.Transaction),
		categories:   make(map[string]map[string]*domain.Category),
	}
}

// CreateTransaction implements store.TransactionStore.
func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) (string, error) {
	if tx.OwnerID == "" {
		return "", &store.PersistenceError{Op: "create transaction", Err: fmt.Errorf("owner id is required")}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *tx
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	s.transactions[rec.ID] = &rec

	return rec.ID, nil
}

// ListCategories implements store.CategoryStore.
func (s *Store) ListCategories(ctx context.Context, ownerID string) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := s.categories[ownerID]
	result := make([]domain.Category, 0, len(owned))
	for _, c := range owned {
		result = append(result, *c)
	}
	return result, nil
}

// CreateCategory implements store.CategoryStore. Name uniqueness is
// case-insensitive per owner, mirroring the unique constraint a relational
// backend would carry.
func (s *Store) CreateCategory(ctx context.Context, ownerID, name string, affinity domain.Affinity, isDefault bool) (domain.Category, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return domain.Category{}, &store.PersistenceError{Op: "create category", Err: fmt.Errorf("name is required")}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := domain.NormalizeCategoryName(trimmed)
	for _, c := range s.categories[ownerID] {
		if domain.NormalizeCategoryName(c.Name) == normalized {
			return domain.Category{}, store.ErrDuplicateCategory
		}
	}

	cat := domain.Category{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      trimmed,
		Affinity:  affinity,
		IsDefault: isDefault,
		CreatedAt: time.Now(),
	}
	if s.categories[ownerID] == nil {
		s.categories[ownerID] = make(map[string]*domain.Category)
	}
	s.categories[ownerID][cat.ID] = &cat

	return cat, nil
}

// TouchCategory implements store.CategoryStore.
func (s *Store) TouchCategory(ctx context.Context, ownerID, categoryID string, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.categories[ownerID][categoryID]
	if !ok {
		return &store.PersistenceError{Op: "touch category", Err: fmt.Errorf("category not found: %s", categoryID)}
	}
	if usedAt.After(cat.LastUsedAt) {
		cat.LastUsedAt = usedAt
	}
	return nil
}

// Transactions returns a snapshot of everything persisted so far, newest
// last. Test helper.
func (s *Store) Transactions() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		result = append(result, *tx)
	}
	return result
}

// Ensure Store implements the gateway interface.
var _ store.Store = (*Store)(nil)
