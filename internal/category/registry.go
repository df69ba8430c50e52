// Package category resolves free-text category hints against a user's
// category set. It never picks a non-exact match on its own; anything below
// a unique resolution is handed back for the user to choose.
package category

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/dvloznov/fintalk/internal/domain"
	"github.com/dvloznov/fintalk/internal/store"
)

// DefaultSimilarityFloor is the minimum similarity for a category to be
// offered as a candidate. Chosen so that unrelated words ("coffee" vs
// "Food") fall through to NotFound while morphological variants
// ("grocery" vs "Groceries") stay in.
const DefaultSimilarityFloor = 0.6

// containmentScore is the floor assigned when one name contains the other,
// which Levenshtein alone underrates ("tax" vs "Taxes & Fees").
const containmentScore = 0.75

// fallbackName is suggested when the hint is empty and the user has no
// default category for the direction.
const fallbackName = "Uncategorized"

// ResolutionKind discriminates the outcome of a Resolve call.
type ResolutionKind int

const (
	// ResolutionUnique means exactly one category matched and may be
	// attached without further interaction.
	ResolutionUnique ResolutionKind = iota
	// ResolutionAmbiguous means one or more near-matches need the user to
	// choose.
	ResolutionAmbiguous
	// ResolutionNotFound means nothing matched; SuggestedName proposes a
	// new category, pending user confirmation.
	ResolutionNotFound
)

// Resolution is the outcome of resolving a hint.
type Resolution struct {
	Kind          ResolutionKind
	Category      *domain.Category  // set when Kind == ResolutionUnique
	Candidates    []domain.Category // set when Kind == ResolutionAmbiguous, ranked
	SuggestedName string            // set when Kind == ResolutionNotFound
}

// Registry resolves hints and creates categories through the store gateway.
type Registry struct {
	store store.CategoryStore
	floor float64
}

// NewRegistry creates a registry. floor <= 0 selects DefaultSimilarityFloor.
func NewRegistry(s store.CategoryStore, floor float64) *Registry {
	if floor <= 0 {
		floor = DefaultSimilarityFloor
	}
	return &Registry{store: s, floor: floor}
}

// Resolve maps a hint to the owner's categories for the given direction.
// Exact case-insensitive name matches always resolve Unique, as does an
// empty hint when the owner has exactly one matching default. Everything
// else comes back Ambiguous or NotFound so the caller can ask the user.
func (r *Registry) Resolve(ctx context.Context, ownerID, hint string, dir domain.Direction) (Resolution, error) {
	all, err := r.store.ListCategories(ctx, ownerID)
	if err != nil {
		return Resolution{}, fmt.Errorf("category resolve: %w", err)
	}

	eligible := make([]domain.Category, 0, len(all))
	for _, c := range all {
		if c.Affinity.Matches(dir) {
			eligible = append(eligible, c)
		}
	}

	hint = strings.TrimSpace(hint)
	if hint == "" {
		return resolveEmptyHint(eligible), nil
	}

	normalized := domain.NormalizeCategoryName(hint)
	for i := range eligible {
		if domain.NormalizeCategoryName(eligible[i].Name) == normalized {
			return Resolution{Kind: ResolutionUnique, Category: &eligible[i]}, nil
		}
	}

	candidates := rankCandidates(eligible, hint, r.floor)
	if len(candidates) == 0 {
		return Resolution{Kind: ResolutionNotFound, SuggestedName: hint}, nil
	}
	return Resolution{Kind: ResolutionAmbiguous, Candidates: candidates}, nil
}

func resolveEmptyHint(eligible []domain.Category) Resolution {
	var defaults []domain.Category
	for _, c := range eligible {
		if c.IsDefault {
			defaults = append(defaults, c)
		}
	}
	if len(defaults) == 1 {
		return Resolution{Kind: ResolutionUnique, Category: &defaults[0]}
	}
	if len(eligible) > 0 {
		return Resolution{Kind: ResolutionAmbiguous, Candidates: rankByRecency(eligible)}
	}
	return Resolution{Kind: ResolutionNotFound, SuggestedName: fallbackName}
}

// Create makes a new category named after the confirmed hint. When a
// concurrent creation of the same name won the race, the existing category
// is fetched and returned instead of a duplicate.
func (r *Registry) Create(ctx context.Context, ownerID, name string, dir domain.Direction) (domain.Category, error) {
	cat, err := r.store.CreateCategory(ctx, ownerID, name, domain.AffinityFor(dir), false)
	if err == nil {
		return cat, nil
	}
	if !errors.Is(err, store.ErrDuplicateCategory) {
		return domain.Category{}, fmt.Errorf("category create: %w", err)
	}

	all, listErr := r.store.ListCategories(ctx, ownerID)
	if listErr != nil {
		return domain.Category{}, fmt.Errorf("category create: refetch after duplicate: %w", listErr)
	}
	normalized := domain.NormalizeCategoryName(name)
	for _, c := range all {
		if domain.NormalizeCategoryName(c.Name) == normalized {
			return c, nil
		}
	}
	return domain.Category{}, fmt.Errorf("category create: duplicate reported but %q not found", name)
}

// similarity is the documented measure: Levenshtein ratio over the
// lowercased names, lifted to containmentScore when one contains the other.
func similarity(hint, name string) float64 {
	a := strings.ToLower(strings.TrimSpace(hint))
	b := strings.ToLower(strings.TrimSpace(name))
	if a == "" || b == "" {
		return 0
	}

	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	dist := levenshtein.ComputeDistance(a, b)
	score := 1 - float64(dist)/float64(longest)

	if len(a) >= 3 && len(b) >= 3 && (strings.Contains(a, b) || strings.Contains(b, a)) && score < containmentScore {
		score = containmentScore
	}
	return score
}

func rankCandidates(eligible []domain.Category, hint string, floor float64) []domain.Category {
	type scored struct {
		cat   domain.Category
		score float64
	}
	var matches []scored
	for _, c := range eligible {
		if s := similarity(hint, c.Name); s >= floor {
			matches = append(matches, scored{cat: c, score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].cat.LastUsedAt.After(matches[j].cat.LastUsedAt)
	})

	result := make([]domain.Category, len(matches))
	for i, m := range matches {
		result[i] = m.cat
	}
	return result
}

func rankByRecency(cats []domain.Category) []domain.Category {
	result := append([]domain.Category(nil), cats...)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LastUsedAt.After(result[j].LastUsedAt)
	})
	return result
}
