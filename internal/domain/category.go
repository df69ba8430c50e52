package domain

import (
	"strings"
	"time"
)

// Affinity tells which transaction directions a category is meaningful for.
type Affinity string

const (
	AffinityExpense Affinity = "EXPENSE"
	AffinityIncome  Affinity = "INCOME"
	AffinityBoth    Affinity = "BOTH"
)

// Matches reports whether a category with this affinity may be attached to
// a transaction going in the given direction.
func (a Affinity) Matches(d Direction) bool {
	return a == AffinityBoth || string(a) == string(d)
}

// AffinityFor returns the affinity a freshly created category should carry
// for a draft going in the given direction.
func AffinityFor(d Direction) Affinity {
	if d == DirectionIncome {
		return AffinityIncome
	}
	return AffinityExpense
}

// Category is a per-user spending/income bucket. Names are unique per owner,
// case-insensitively; uniqueness is enforced at the store boundary.
type Category struct {
	ID         string
	OwnerID    string
	Name       string
	Affinity   Affinity
	IsDefault  bool      // used when a draft arrives with no category hint
	LastUsedAt time.Time // zero until the first committed transaction
	CreatedAt  time.Time
}

// NormalizeCategoryName canonicalizes a category name for comparison.
func NormalizeCategoryName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
