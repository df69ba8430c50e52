// Package normalize applies deterministic validation and defaulting to
// extracted fields before a draft is considered confirmable. All domain
// policy (sign conventions, defaults, tolerances) lives here so the
// extraction boundary can stay a dumb field extractor.
package normalize

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dvloznov/fintalk/internal/domain"
	"github.com/dvloznov/fintalk/internal/extract"
)

const dateLayout = "2006-01-02"

// futureTolerance allows "today" to be recorded from any timezone without
// tripping the future-date check.
const futureTolerance = 24 * time.Hour

// Defect describes one field that failed validation. Defects are surfaced
// verbatim to the user as correction prompts.
type Defect struct {
	Field   string
	Message string
}

func (d Defect) String() string {
	return fmt.Sprintf("%s: %s", d.Field, d.Message)
}

// Context carries the reference data normalization defaults against.
type Context struct {
	ReferenceDate time.Time
}

// Normalize validates and defaults the extracted fields. It checks every
// field and returns the full defect list; the draft is non-nil only when the
// list is empty.
func Normalize(p *extract.Parsed, nctx Context, rawText string) (*domain.TransactionDraft, []Defect) {
	var defects []Defect

	draft := &domain.TransactionDraft{RawText: rawText}

	// Amount: round to currency scale first, then reject zero. The sign is
	// normalized away; a negative amount with no explicit direction implies
	// an expense.
	amount := roundToCents(p.Amount)
	if amount == 0 {
		defects = append(defects, Defect{Field: "amount", Message: "amount must be nonzero"})
	}
	draft.Amount = math.Abs(amount)

	direction, err := domain.ParseDirection(p.Direction)
	if err != nil {
		defects = append(defects, Defect{Field: "direction", Message: err.Error()})
	}
	if direction != "" {
		draft.Direction = direction
	} else {
		// A negative amount without an explicit direction, and the absence
		// of any cue at all, both mean expense: the dominant case here.
		draft.Direction = domain.DirectionExpense
	}

	// Date: absent defaults to the reference date; present but unparseable
	// is a defect so ambiguity surfaces to the user instead of being
	// silently replaced.
	refDay := dayOf(nctx.ReferenceDate)
	if strings.TrimSpace(p.Date) == "" {
		draft.OccurredOn = refDay
	} else {
		occurred, err := time.Parse(dateLayout, strings.TrimSpace(p.Date))
		if err != nil {
			defects = append(defects, Defect{Field: "date", Message: fmt.Sprintf("could not read %q as a date", p.Date)})
		} else if occurred.Sub(refDay) > futureTolerance {
			defects = append(defects, Defect{Field: "date", Message: fmt.Sprintf("%s is in the future", occurred.Format(dateLayout))})
		} else {
			draft.OccurredOn = occurred
		}
	}

	draft.CategoryHint = strings.TrimSpace(p.CategoryHint)
	draft.Note = strings.TrimSpace(p.Note)

	if len(defects) > 0 {
		return nil, defects
	}
	return draft, nil
}

func roundToCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
