package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/fintalk/internal/domain"
	"github.com/dvloznov/fintalk/internal/store"
)

func TestCreateCategory_DuplicateName(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateCategory(ctx, "u1", "Groceries", domain.AffinityExpense, false)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	tests := []struct {
		name string
	}{
		{"Groceries"},
		{"groceries"},
		{"  GROCERIES  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateCategory(ctx, "u1", tt.name, domain.AffinityExpense, false)
			if !errors.Is(err, store.ErrDuplicateCategory) {
				t.Errorf("CreateCategory(%q) error = %v, want ErrDuplicateCategory", tt.name, err)
			}
		})
	}

	// A different owner may reuse the name.
	if _, err := s.CreateCategory(ctx, "u2", "Groceries", domain.AffinityExpense, false); err != nil {
		t.Errorf("CreateCategory for other owner failed: %v", err)
	}
}

func TestTouchCategory(t *testing.T) {
	s := New()
	ctx := context.Background()

	cat, err := s.CreateCategory(ctx, "u1", "Transport", domain.AffinityExpense, false)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	used := time.Now().Add(time.Hour)
	if err := s.TouchCategory(ctx, "u1", cat.ID, used); err != nil {
		t.Fatalf("touch failed: %v", err)
	}

	cats, err := s.ListCategories(ctx, "u1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(cats) != 1 || !cats[0].LastUsedAt.Equal(used) {
		t.Errorf("expected LastUsedAt %v, got %+v", used, cats)
	}

	// An older timestamp must not move LastUsedAt backwards.
	if err := s.TouchCategory(ctx, "u1", cat.ID, used.Add(-time.Minute)); err != nil {
		t.Fatalf("touch failed: %v", err)
	}
	cats, _ = s.ListCategories(ctx, "u1")
	if !cats[0].LastUsedAt.Equal(used) {
		t.Errorf("LastUsedAt moved backwards to %v", cats[0].LastUsedAt)
	}
}

func TestCreateTransaction_AssignsID(t *testing.T) {
	s := New()

	id, err := s.CreateTransaction(context.Background(), &domain.Transaction{
		OwnerID:    "u1",
		Amount:     5.50,
		Direction:  domain.DirectionExpense,
		CategoryID: "c1",
		OccurredOn: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		RawText:    "coffee 5.50",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if id == "" {
		t.Error("expected a generated transaction id")
	}
	if got := len(s.Transactions()); got != 1 {
		t.Errorf("expected 1 stored transaction, got %d", got)
	}
}
