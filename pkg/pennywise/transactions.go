package pennywise

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// transactionService implements the TransactionService interface
type transactionService struct {
	store *Store
}

// newTransactionService creates a new transaction service
func newTransactionService(store *Store) *transactionService {
	return &transactionService{store: store}
}

// Get retrieves a single transaction
func (s *transactionService) Get(ctx context.Context, transactionID string) (*Transaction, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	tx, ok := s.store.registry.Transactions.FindByID(transactionID)
	if !ok {
		return nil, ErrNotFound
	}
	return tx, nil
}

// Create records a new transaction and propagates its balance effect.
//
// The returned transaction is in the ledger even when the error is a
// *ReferenceNotFoundError: references that resolved have been applied,
// only the stale ones were skipped. Any other error means nothing was
// recorded.
func (s *transactionService) Create(ctx context.Context, params *CreateTransactionParams) (*Transaction, error) {
	return s.create(ctx, params, false)
}

// create is the shared creation path; recurring marks transactions
// spawned from a recurring template.
func (s *transactionService) create(ctx context.Context, params *CreateTransactionParams, recurring bool) (*Transaction, error) {
	if err := ValidateTransaction(params); err != nil {
		return nil, err
	}

	now := s.store.now()
	tx := &Transaction{
		ID:           uuid.New().String(),
		UserID:       s.store.userID,
		Type:         params.Type,
		Amount:       params.Amount,
		Date:         params.Date,
		Time:         params.Time,
		Category:     params.Category,
		Details:      params.Details,
		FundSourceID: params.FundSourceID,
		CreditCardID: params.CreditCardID,
		LoanID:       params.LoanID,
		DebtID:       params.DebtID,
		Recurring:    recurring,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.store.mu.Lock()
	s.store.registry.Transactions.Insert(tx)
	result, refErr := applyTransaction(tx, s.store.registry)
	s.store.stampUpdated(result.Dirty, now)
	s.store.markDirty(result.Dirty)
	s.store.markDirty([]DirtyRecord{{Collection: CollectionTransactions, ID: tx.ID, Record: tx}})
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "create", CollectionTransactions, tx.ID)
	s.store.warnMissingRefs(result.Missing)

	return tx, refErr
}

// Update updates an existing transaction. The previous balance effect
// is reversed and the new one applied, so referenced accounts always
// reflect the transaction's current amount.
func (s *transactionService) Update(ctx context.Context, transactionID string, params *UpdateTransactionParams) (*Transaction, error) {
	if params.Amount != nil && !params.Amount.IsPositive() {
		return nil, &ValidationError{
			Field:   "amount",
			Message: "must be greater than zero",
			Value:   params.Amount.String(),
		}
	}

	s.store.mu.Lock()
	tx, ok := s.store.registry.Transactions.FindByID(transactionID)
	if !ok {
		s.store.mu.Unlock()
		return nil, ErrNotFound
	}

	reversed, _ := reverseTransaction(tx, s.store.registry)

	if params.Amount != nil {
		tx.Amount = *params.Amount
	}
	if params.Date != nil {
		tx.Date = *params.Date
	}
	if params.Time != nil {
		tx.Time = *params.Time
	}
	if params.Category != nil {
		tx.Category = *params.Category
	}
	if params.Details != nil {
		tx.Details = *params.Details
	}
	tx.UpdatedAt = s.store.now()

	applied, refErr := applyTransaction(tx, s.store.registry)
	s.store.registry.Transactions.Replace(tx)

	s.store.stampUpdated(reversed.Dirty, tx.UpdatedAt)
	s.store.stampUpdated(applied.Dirty, tx.UpdatedAt)
	s.store.markDirty(reversed.Dirty)
	s.store.markDirty(applied.Dirty)
	s.store.markDirty([]DirtyRecord{{Collection: CollectionTransactions, ID: tx.ID, Record: tx}})
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "update", CollectionTransactions, tx.ID)
	s.store.warnMissingRefs(applied.Missing)

	return tx, refErr
}

// Delete removes a transaction and reverses the balance effect it
// originally caused, keeping account balances equal to the sum of the
// live ledger.
func (s *transactionService) Delete(ctx context.Context, transactionID string) error {
	s.store.mu.Lock()
	tx, ok := s.store.registry.Transactions.FindByID(transactionID)
	if !ok {
		s.store.mu.Unlock()
		return ErrNotFound
	}

	result, refErr := reverseTransaction(tx, s.store.registry)
	s.store.registry.Transactions.Remove(transactionID)

	s.store.stampUpdated(result.Dirty, s.store.now())
	s.store.markDirty(result.Dirty)
	s.store.markDeleted(CollectionTransactions, transactionID)
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "delete", CollectionTransactions, transactionID)
	s.store.warnMissingRefs(result.Missing)

	return refErr
}

// Summary aggregates the ledger over a date range
func (s *transactionService) Summary(ctx context.Context, start, end time.Time) (*TransactionSummary, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	summary := &TransactionSummary{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		Net:           decimal.Zero,
	}

	for _, tx := range s.store.registry.Transactions.List() {
		d := tx.Date.Time
		if d.Before(start) || d.After(end) {
			continue
		}
		summary.TotalCount++
		switch tx.Type {
		case TransactionIncome:
			summary.TotalIncome = summary.TotalIncome.Add(tx.Amount)
		case TransactionExpense:
			summary.TotalExpenses = summary.TotalExpenses.Add(tx.Amount)
		}
	}

	summary.Net = summary.TotalIncome.Sub(summary.TotalExpenses)
	return summary, nil
}

// Query returns a transaction query builder
func (s *transactionService) Query() TransactionQueryBuilder {
	return &transactionQueryBuilder{
		store: s.store,
		limit: 100,
	}
}

// transactionQueryBuilder implements TransactionQueryBuilder over the
// in-memory ledger
type transactionQueryBuilder struct {
	store       *Store
	start, end  *time.Time
	types       []TransactionType
	categories  []string
	fundSources []string
	minAmount   *decimal.Decimal
	maxAmount   *decimal.Decimal
	search      string
	limit       int
	offset      int
}

// Between sets date range filter
func (b *transactionQueryBuilder) Between(start, end time.Time) TransactionQueryBuilder {
	b.start, b.end = &start, &end
	return b
}

// WithTypes filters by transaction types
func (b *transactionQueryBuilder) WithTypes(types ...TransactionType) TransactionQueryBuilder {
	b.types = types
	return b
}

// WithCategories filters by categories
func (b *transactionQueryBuilder) WithCategories(categories ...string) TransactionQueryBuilder {
	b.categories = categories
	return b
}

// WithFundSources filters by fund source references
func (b *transactionQueryBuilder) WithFundSources(fundSourceIDs ...string) TransactionQueryBuilder {
	b.fundSources = fundSourceIDs
	return b
}

// WithMinAmount sets minimum amount filter
func (b *transactionQueryBuilder) WithMinAmount(amount decimal.Decimal) TransactionQueryBuilder {
	b.minAmount = &amount
	return b
}

// WithMaxAmount sets maximum amount filter
func (b *transactionQueryBuilder) WithMaxAmount(amount decimal.Decimal) TransactionQueryBuilder {
	b.maxAmount = &amount
	return b
}

// Search matches against category and details, case-insensitive
func (b *transactionQueryBuilder) Search(query string) TransactionQueryBuilder {
	b.search = strings.ToLower(query)
	return b
}

// Limit sets result limit
func (b *transactionQueryBuilder) Limit(limit int) TransactionQueryBuilder {
	b.limit = limit
	return b
}

// Offset sets result offset
func (b *transactionQueryBuilder) Offset(offset int) TransactionQueryBuilder {
	b.offset = offset
	return b
}

// matches applies every configured filter
func (b *transactionQueryBuilder) matches(tx *Transaction) bool {
	if b.start != nil && tx.Date.Time.Before(*b.start) {
		return false
	}
	if b.end != nil && tx.Date.Time.After(*b.end) {
		return false
	}
	if len(b.types) > 0 && !containsType(b.types, tx.Type) {
		return false
	}
	if len(b.categories) > 0 && !containsString(b.categories, tx.Category) {
		return false
	}
	if len(b.fundSources) > 0 && !containsString(b.fundSources, tx.FundSourceID) {
		return false
	}
	if b.minAmount != nil && tx.Amount.LessThan(*b.minAmount) {
		return false
	}
	if b.maxAmount != nil && tx.Amount.GreaterThan(*b.maxAmount) {
		return false
	}
	if b.search != "" &&
		!strings.Contains(strings.ToLower(tx.Category), b.search) &&
		!strings.Contains(strings.ToLower(tx.Details), b.search) {
		return false
	}
	return true
}

// Execute runs the query
func (b *transactionQueryBuilder) Execute(ctx context.Context) (*TransactionList, error) {
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "query cancelled")
	default:
	}

	b.store.mu.Lock()
	var filtered []*Transaction
	for _, tx := range b.store.registry.Transactions.List() {
		if b.matches(tx) {
			filtered = append(filtered, tx)
		}
	}
	b.store.mu.Unlock()

	totalCount := len(filtered)

	// Apply pagination
	start := b.offset
	if start > totalCount {
		start = totalCount
	}
	end := start + b.limit
	if b.limit <= 0 || end > totalCount {
		end = totalCount
	}

	return &TransactionList{
		Transactions: filtered[start:end],
		TotalCount:   totalCount,
		HasMore:      end < totalCount,
		NextOffset:   end,
	}, nil
}

// Stream returns results as a channel for large queries
func (b *transactionQueryBuilder) Stream(ctx context.Context) (<-chan *Transaction, <-chan error) {
	txnChan := make(chan *Transaction)
	errChan := make(chan error, 1)

	go func() {
		defer close(txnChan)
		defer close(errChan)

		b.store.mu.Lock()
		var filtered []*Transaction
		for _, tx := range b.store.registry.Transactions.List() {
			if b.matches(tx) {
				filtered = append(filtered, tx)
			}
		}
		b.store.mu.Unlock()

		for _, tx := range filtered {
			select {
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			case txnChan <- tx:
			}
		}
	}()

	return txnChan, errChan
}

func containsType(haystack []TransactionType, needle TransactionType) bool {
	for _, t := range haystack {
		if t == needle {
			return true
		}
	}
	return false
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
