package domain

import (
	"fmt"
	"strings"
	"time"
)

// Direction tells whether money left or entered the account.
type Direction string

const (
	DirectionExpense Direction = "EXPENSE"
	DirectionIncome  Direction = "INCOME"
)

// ParseDirection maps the loose strings produced by the extraction model
// onto a Direction. The empty string is valid input and means "not stated".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case string(DirectionExpense):
		return DirectionExpense, nil
	case string(DirectionIncome):
		return DirectionIncome, nil
	default:
		return "", fmt.Errorf("unrecognized direction %q", s)
	}
}

// TransactionDraft is an unpersisted candidate transaction awaiting user
// confirmation. Amount is always positive; the sign lives in Direction.
type TransactionDraft struct {
	Amount       float64   // rounded to 2 fractional digits, never zero
	Direction    Direction // always set after normalization
	OccurredOn   time.Time // calendar date, time part zeroed
	CategoryHint string    // free text from the message, "" when absent
	Note         string    // payee / memo remainder, "" when absent
	RawText      string    // original message, kept for audit
}

// Transaction is the persisted form of a confirmed draft.
type Transaction struct {
	ID         string
	OwnerID    string
	Amount     float64
	Direction  Direction
	CategoryID string
	OccurredOn time.Time
	Note       string
	RawText    string
	CreatedAt  time.Time
}
