// Package bigquery implements the store gateway on BigQuery. One shared
// client serves all operations; the caller owns its lifetime via Close.
package bigquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/fintalk/internal/domain"
	"github.com/dvloznov/fintalk/internal/store"
)

const (
	transactionsTable = "transactions"
	categoriesTable   = "categories"

	insertAttempts = 3
	insertDelay    = 500 * time.Millisecond
)

// Store is the BigQuery-backed store gateway.
type Store struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	log       zerolog.Logger
}

// New creates a Store with its own BigQuery client.
func New(ctx context.Context, projectID, datasetID string, log zerolog.Logger) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	return &Store{client: client, projectID: projectID, datasetID: datasetID, log: log}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// qualified returns the backtick-quoted fully qualified table name.
func (s *Store) qualified(table string) string {
	return "`" + s.projectID + "." + s.datasetID + "." + table + "`"
}

// CreateTransaction implements store.TransactionStore. Streaming inserts hit
// transient quota errors under load, so the Put is retried a few times
// before the fault is surfaced.
func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) (string, error) {
	row := transactionToRow(tx)
	if row.TransactionID == "" {
		row.TransactionID = uuid.NewString()
	}
	if row.CreatedTS.IsZero() {
		row.CreatedTS = time.Now()
	}

	inserter := s.client.DatasetInProject(s.projectID, s.datasetID).Table(transactionsTable).Inserter()
	err := retry.Do(
		func() error {
			return inserter.Put(ctx, []*transactionRow{row})
		},
		retry.Attempts(insertAttempts),
		retry.Delay(insertDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.log.Warn().Err(err).Uint("attempt", n+1).Msg("transaction insert retry")
		}),
	)
	if err != nil {
		return "", &store.PersistenceError{Op: "create transaction", Err: err}
	}
	return row.TransactionID, nil
}

// ListCategories implements store.CategoryStore.
func (s *Store) ListCategories(ctx context.Context, ownerID string) ([]domain.Category, error) {
	q := s.client.Query(`
		SELECT
		  category_id,
		  owner_id,
		  category_name,
		  affinity,
		  is_default,
		  last_used_ts,
		  created_ts
		FROM ` + s.qualified(categoriesTable) + `
		WHERE owner_id = @owner_id
		ORDER BY category_name
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, &store.PersistenceError{Op: "list categories", Err: err}
	}

	var cats []domain.Category
	for {
		var r categoryRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, &store.PersistenceError{Op: "list categories", Err: err}
		}
		cats = append(cats, categoryFromRow(r))
	}
	return cats, nil
}

// CreateCategory implements store.CategoryStore. BigQuery carries no unique
// constraint, so the duplicate check is a query before the insert; a race
// between two writers is resolved by the caller re-listing on
// ErrDuplicateCategory.
func (s *Store) CreateCategory(ctx context.Context, ownerID, name string, affinity domain.Affinity, isDefault bool) (domain.Category, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return domain.Category{}, &store.PersistenceError{Op: "create category", Err: fmt.Errorf("name is required")}
	}

	exists, err := s.categoryExists(ctx, ownerID, trimmed)
	if err != nil {
		return domain.Category{}, &store.PersistenceError{Op: "create category", Err: err}
	}
	if exists {
		return domain.Category{}, store.ErrDuplicateCategory
	}

	row := &categoryRow{
		CategoryID: uuid.NewString(),
		OwnerID:    ownerID,
		Name:       trimmed,
		Affinity:   string(affinity),
		IsDefault:  isDefault,
		CreatedTS:  time.Now(),
	}
	inserter := s.client.DatasetInProject(s.projectID, s.datasetID).Table(categoriesTable).Inserter()
	if err := inserter.Put(ctx, []*categoryRow{row}); err != nil {
		return domain.Category{}, &store.PersistenceError{Op: "create category", Err: err}
	}
	return categoryFromRow(*row), nil
}

func (s *Store) categoryExists(ctx context.Context, ownerID, name string) (bool, error) {
	q := s.client.Query(`
		SELECT category_id
		FROM ` + s.qualified(categoriesTable) + `
		WHERE owner_id = @owner_id
		  AND UPPER(category_name) = UPPER(@category_name)
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "category_name", Value: name},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("duplicate check: %w", err)
	}
	var row struct {
		CategoryID string `bigquery:"category_id"`
	}
	switch err := it.Next(&row); err {
	case nil:
		return true, nil
	case iterator.Done:
		return false, nil
	default:
		return false, fmt.Errorf("duplicate check: %w", err)
	}
}

// TouchCategory implements store.CategoryStore. The predicate keeps
// last_used_ts monotonic even when touches land out of order.
func (s *Store) TouchCategory(ctx context.Context, ownerID, categoryID string, usedAt time.Time) error {
	q := s.client.Query(`
		UPDATE ` + s.qualified(categoriesTable) + `
		SET last_used_ts = @used_at
		WHERE owner_id = @owner_id
		  AND category_id = @category_id
		  AND (last_used_ts IS NULL OR last_used_ts < @used_at)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "used_at", Value: usedAt},
		{Name: "owner_id", Value: ownerID},
		{Name: "category_id", Value: categoryID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return &store.PersistenceError{Op: "touch category", Err: err}
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return &store.PersistenceError{Op: "touch category", Err: err}
	}
	if err := status.Err(); err != nil {
		return &store.PersistenceError{Op: "touch category", Err: err}
	}
	return nil
}

// Ensure Store implements the gateway interface.
var _ store.Store = (*Store)(nil)
