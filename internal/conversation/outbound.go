package conversation

import (
	"fmt"
	"strings"

	"github.com/dvloznov/fintalk/internal/domain"
)

// Outbound is what the engine hands back to the chat-transport collaborator.
// The transport decides how to render each shape (text, buttons); the engine
// never assumes a rendering.
type Outbound interface {
	outbound()
}

// PlainText is a message with no actions attached.
type PlainText struct {
	Text string
}

// ConfirmationPrompt shows the draft summary with confirm/edit/cancel
// actions. Retry is set when a previous commit attempt hit a storage fault
// and confirming again will retry it.
type ConfirmationPrompt struct {
	Summary DraftSummary
	Retry   bool
}

// ChoicePrompt asks the user to pick a category candidate or create a new
// one. Candidates may be empty, in which case creating SuggestedName is the
// only non-cancel action.
type ChoicePrompt struct {
	Candidates    []CategoryOption
	SuggestedName string
}

// CorrectionPrompt lists every validation defect and asks the user to
// resend an amended message.
type CorrectionPrompt struct {
	Defects []string
}

func (PlainText) outbound()          {}
func (ConfirmationPrompt) outbound() {}
func (ChoicePrompt) outbound()       {}
func (CorrectionPrompt) outbound()   {}

// DraftSummary is the render-ready view of a pending draft.
type DraftSummary struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Direction string  `json:"direction"`
	Date      string  `json:"date"`
	Category  string  `json:"category"` // resolved name, or the raw hint
	Note      string  `json:"note,omitempty"`
}

// CategoryOption is one selectable candidate in a ChoicePrompt.
type CategoryOption struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

func summarize(draft *domain.TransactionDraft, resolved *domain.Category, currency string) DraftSummary {
	category := draft.CategoryHint
	if resolved != nil {
		category = resolved.Name
	}
	return DraftSummary{
		Amount:    draft.Amount,
		Currency:  currency,
		Direction: string(draft.Direction),
		Date:      draft.OccurredOn.Format("2006-01-02"),
		Category:  category,
		Note:      draft.Note,
	}
}

func choicePrompt(candidates []domain.Category, suggested string) ChoicePrompt {
	options := make([]CategoryOption, len(candidates))
	for i, c := range candidates {
		options[i] = CategoryOption{Index: i, Name: c.Name}
	}
	return ChoicePrompt{Candidates: options, SuggestedName: suggested}
}

func committedText(summary DraftSummary) PlainText {
	var b strings.Builder
	if summary.Direction == string(domain.DirectionIncome) {
		b.WriteString("Recorded income of ")
	} else {
		b.WriteString("Recorded expense of ")
	}
	fmt.Fprintf(&b, "%.2f %s", summary.Amount, summary.Currency)
	if summary.Category != "" {
		b.WriteString(" in " + summary.Category)
	}
	b.WriteString(" on " + summary.Date + ".")
	return PlainText{Text: b.String()}
}
