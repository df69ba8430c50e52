package category

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/fintalk/internal/domain"
	"github.com/dvloznov/fintalk/internal/store"
	"github.com/dvloznov/fintalk/internal/store/inmemory"
)

func seed(t *testing.T, s store.CategoryStore, ownerID string, names ...string) map[string]domain.Category {
	t.Helper()
	out := make(map[string]domain.Category, len(names))
	for _, name := range names {
		cat, err := s.CreateCategory(context.Background(), ownerID, name, domain.AffinityExpense, false)
		if err != nil {
			t.Fatalf("seeding %q: %v", name, err)
		}
		out[name] = cat
	}
	return out
}

func TestResolve_ExactMatchIsUnique(t *testing.T) {
	s := inmemory.New()
	cats := seed(t, s, "u1", "Food", "Transport")
	r := NewRegistry(s, 0)

	for _, hint := range []string{"Food", "food", "  FOOD "} {
		res, err := r.Resolve(context.Background(), "u1", hint, domain.DirectionExpense)
		if err != nil {
			t.Fatalf("resolve %q: %v", hint, err)
		}
		if res.Kind != ResolutionUnique {
			t.Fatalf("resolve %q: kind = %v, want Unique", hint, res.Kind)
		}
		if res.Category.ID != cats["Food"].ID {
			t.Errorf("resolve %q: got category %q", hint, res.Category.Name)
		}
	}
}

func TestResolve_ExactMatchIsIdempotent(t *testing.T) {
	s := inmemory.New()
	seed(t, s, "u1", "Food")
	r := NewRegistry(s, 0)

	first, err := r.Resolve(context.Background(), "u1", "food", domain.DirectionExpense)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve(context.Background(), "u1", "food", domain.DirectionExpense)
	if err != nil {
		t.Fatal(err)
	}
	if first.Category.ID != second.Category.ID {
		t.Errorf("resolving twice yielded different ids: %s vs %s", first.Category.ID, second.Category.ID)
	}
}

func TestResolve_UnrelatedHintIsNotFound(t *testing.T) {
	s := inmemory.New()
	seed(t, s, "u1", "Food")
	r := NewRegistry(s, 0)

	res, err := r.Resolve(context.Background(), "u1", "coffee", domain.DirectionExpense)
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != ResolutionNotFound {
		t.Fatalf("kind = %v, want NotFound", res.Kind)
	}
	if res.SuggestedName != "coffee" {
		t.Errorf("SuggestedName = %q, want trimmed hint", res.SuggestedName)
	}
}

func TestResolve_NearMatchIsAmbiguous(t *testing.T) {
	s := inmemory.New()
	seed(t, s, "u1", "Groceries", "Transport")
	r := NewRegistry(s, 0)

	res, err := r.Resolve(context.Background(), "u1", "grocery", domain.DirectionExpense)
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != ResolutionAmbiguous {
		t.Fatalf("kind = %v, want Ambiguous", res.Kind)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Name != "Groceries" {
		t.Errorf("candidates = %+v, want Groceries first", res.Candidates)
	}
}

func TestResolve_RecencyBreaksTies(t *testing.T) {
	s := inmemory.New()
	cats := seed(t, s, "u1", "Taxi fare", "Taxi ride")
	r := NewRegistry(s, 0)

	ctx := context.Background()
	if err := s.TouchCategory(ctx, "u1", cats["Taxi ride"].ID, time.Now()); err != nil {
		t.Fatal(err)
	}

	res, err := r.Resolve(ctx, "u1", "taxi", domain.DirectionExpense)
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != ResolutionAmbiguous {
		t.Fatalf("kind = %v, want Ambiguous", res.Kind)
	}
	if res.Candidates[0].Name != "Taxi ride" {
		t.Errorf("first candidate = %q, want the most recently used", res.Candidates[0].Name)
	}
}

func TestResolve_AffinityFiltersCandidates(t *testing.T) {
	s := inmemory.New()
	ctx := context.Background()
	if _, err := s.CreateCategory(ctx, "u1", "Salary", domain.AffinityIncome, false); err != nil {
		t.Fatal(err)
	}

	res, err := NewRegistry(s, 0).Resolve(ctx, "u1", "salary", domain.DirectionExpense)
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != ResolutionNotFound {
		t.Errorf("kind = %v, want NotFound: income categories must not serve expenses", res.Kind)
	}
}

func TestResolve_EmptyHint(t *testing.T) {
	ctx := context.Background()

	t.Run("single default resolves unique", func(t *testing.T) {
		s := inmemory.New()
		def, err := s.CreateCategory(ctx, "u1", "Other", domain.AffinityExpense, true)
		if err != nil {
			t.Fatal(err)
		}
		seed(t, s, "u1", "Food")

		res, err := NewRegistry(s, 0).Resolve(ctx, "u1", "", domain.DirectionExpense)
		if err != nil {
			t.Fatal(err)
		}
		if res.Kind != ResolutionUnique || res.Category.ID != def.ID {
			t.Errorf("got %+v, want unique default", res)
		}
	})

	t.Run("no categories suggests fallback name", func(t *testing.T) {
		s := inmemory.New()
		res, err := NewRegistry(s, 0).Resolve(ctx, "u1", "", domain.DirectionExpense)
		if err != nil {
			t.Fatal(err)
		}
		if res.Kind != ResolutionNotFound || res.SuggestedName != "Uncategorized" {
			t.Errorf("got %+v, want NotFound with Uncategorized", res)
		}
	})

	t.Run("no default offers all eligible", func(t *testing.T) {
		s := inmemory.New()
		seed(t, s, "u1", "Food", "Transport")
		res, err := NewRegistry(s, 0).Resolve(ctx, "u1", "", domain.DirectionExpense)
		if err != nil {
			t.Fatal(err)
		}
		if res.Kind != ResolutionAmbiguous || len(res.Candidates) != 2 {
			t.Errorf("got %+v, want both categories offered", res)
		}
	})
}

// duplicateStore simulates losing a creation race: CreateCategory reports a
// duplicate while the list already contains the winner.
type duplicateStore struct {
	*inmemory.Store
}

func (d *duplicateStore) CreateCategory(ctx context.Context, ownerID, name string, affinity domain.Affinity, isDefault bool) (domain.Category, error) {
	return domain.Category{}, store.ErrDuplicateCategory
}

func TestCreate_DuplicateRaceResolvesToExisting(t *testing.T) {
	inner := inmemory.New()
	ctx := context.Background()
	winner, err := inner.CreateCategory(ctx, "u1", "salary", domain.AffinityIncome, false)
	if err != nil {
		t.Fatal(err)
	}

	r := NewRegistry(&duplicateStore{Store: inner}, 0)
	got, err := r.Create(ctx, "u1", "Salary", domain.DirectionIncome)
	if err != nil {
		t.Fatalf("expected race to resolve, got %v", err)
	}
	if got.ID != winner.ID {
		t.Errorf("resolved to %q, want the concurrently created category", got.ID)
	}
}

func TestSeedDefaults(t *testing.T) {
	s := inmemory.New()
	r := NewRegistry(s, 0)
	ctx := context.Background()

	if err := r.SeedDefaults(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	cats, err := s.ListCategories(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != len(defaultCategories) {
		t.Fatalf("seeded %d categories, want %d", len(cats), len(defaultCategories))
	}

	// Second call is a no-op.
	if err := r.SeedDefaults(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	cats, _ = s.ListCategories(ctx, "u1")
	if len(cats) != len(defaultCategories) {
		t.Errorf("re-seeding changed the category count to %d", len(cats))
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		hint, name string
		atLeast    float64
		below      float64
	}{
		{"coffee", "Food", 0, DefaultSimilarityFloor},
		{"grocery", "Groceries", DefaultSimilarityFloor, 1},
		{"food", "Food", 1, 1.01},
		{"tax", "Taxes & Fees", containmentScore, 1},
	}

	for _, tt := range tests {
		got := similarity(tt.hint, tt.name)
		if got < tt.atLeast || got >= tt.below {
			t.Errorf("similarity(%q, %q) = %v, want in [%v, %v)", tt.hint, tt.name, got, tt.atLeast, tt.below)
		}
	}
}
