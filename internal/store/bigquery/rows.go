package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/fintalk/internal/domain"
)

type transactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	OwnerID    string `bigquery:"owner_id"`    // REQUIRED
	CategoryID string `bigquery:"category_id"` // REQUIRED

	Amount    float64 `bigquery:"amount"`    // REQUIRED
	Direction string  `bigquery:"direction"` // REQUIRED

	OccurredOn civil.Date `bigquery:"occurred_on"` // REQUIRED

	Note    bigquery.NullString `bigquery:"note"` // NULLABLE
	RawText string              `bigquery:"raw_text"`

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

type categoryRow struct {
	CategoryID string `bigquery:"category_id"` // REQUIRED
	OwnerID    string `bigquery:"owner_id"`    // REQUIRED

	Name     string `bigquery:"category_name"` // REQUIRED
	Affinity string `bigquery:"affinity"`      // REQUIRED

	IsDefault bool `bigquery:"is_default"`

	LastUsedTS bigquery.NullTimestamp `bigquery:"last_used_ts"` // NULLABLE
	CreatedTS  time.Time              `bigquery:"created_ts"`   // REQUIRED
}

func transactionToRow(tx *domain.Transaction) *transactionRow {
	row := &transactionRow{
		TransactionID: tx.ID,
		OwnerID:       tx.OwnerID,
		CategoryID:    tx.CategoryID,
		Amount:        tx.Amount,
		Direction:     string(tx.Direction),
		OccurredOn:    civil.DateOf(tx.OccurredOn),
		RawText:       tx.RawText,
		CreatedTS:     tx.CreatedAt,
	}
	if tx.Note != "" {
		row.Note = bigquery.NullString{StringVal: tx.Note, Valid: true}
	}
	return row
}

func categoryFromRow(r categoryRow) domain.Category {
	cat := domain.Category{
		ID:        r.CategoryID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		Affinity:  domain.Affinity(r.Affinity),
		IsDefault: r.IsDefault,
		CreatedAt: r.CreatedTS,
	}
	if r.LastUsedTS.Valid {
		cat.LastUsedAt = r.LastUsedTS.Timestamp
	}
	return cat
}
