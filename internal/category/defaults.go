package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/fintalk/internal/domain"
	"github.com/dvloznov/fintalk/internal/store"
)

type seedCategory struct {
	name      string
	affinity  domain.Affinity
	isDefault bool
}

// defaultCategories is the starter set every new user receives. One default
// per direction so an empty-hint draft can resolve without a prompt.
var defaultCategories = []seedCategory{
	{name: "Salary", affinity: domain.AffinityIncome, isDefault: false},
	{name: "Freelance", affinity: domain.AffinityIncome, isDefault: false},
	{name: "Gifts", affinity: domain.AffinityIncome, isDefault: false},
	{name: "Other Income", affinity: domain.AffinityIncome, isDefault: true},

	{name: "Groceries", affinity: domain.AffinityExpense, isDefault: false},
	{name: "Transport", affinity: domain.AffinityExpense, isDefault: false},
	{name: "Entertainment", affinity: domain.AffinityExpense, isDefault: false},
	{name: "Health", affinity: domain.AffinityExpense, isDefault: false},
	{name: "Restaurants", affinity: domain.AffinityExpense, isDefault: false},
	{name: "Clothing", affinity: domain.AffinityExpense, isDefault: false},
	{name: "Phone & Internet", affinity: domain.AffinityExpense, isDefault: false},
	{name: "Other", affinity: domain.AffinityExpense, isDefault: true},
}

// SeedDefaults creates the starter categories for a user who has none yet.
// Safe to call repeatedly: an already-seeded (or concurrently seeded) user
// is left untouched.
func (r *Registry) SeedDefaults(ctx context.Context, ownerID string) error {
	existing, err := r.store.ListCategories(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, seed := range defaultCategories {
		_, err := r.store.CreateCategory(ctx, ownerID, seed.name, seed.affinity, seed.isDefault)
		if err != nil && !errors.Is(err, store.ErrDuplicateCategory) {
			return fmt.Errorf("seed defaults: creating %q: %w", seed.name, err)
		}
	}
	return nil
}
