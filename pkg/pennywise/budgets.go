package pennywise

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// budgetService implements the BudgetService interface
type budgetService struct {
	store *Store
}

var hundred = decimal.NewFromInt(100)

// computeSpent fills a budget's derived fields from expense
// transactions in its category and period. Caller holds the store lock.
func (s *budgetService) computeSpent(b *Budget) {
	spent := decimal.Zero
	for _, tx := range s.store.registry.Transactions.List() {
		if tx.Type != TransactionExpense || tx.Category != b.Category {
			continue
		}
		d := tx.Date.Time
		if d.Before(b.PeriodStart.Time) || d.After(b.PeriodEnd.Time) {
			continue
		}
		spent = spent.Add(tx.Amount)
	}

	b.Spent = spent
	b.Remaining = b.Amount.Sub(spent)
	if b.Amount.IsPositive() {
		b.PercentUsed = spent.Div(b.Amount).Mul(hundred)
	} else {
		b.PercentUsed = decimal.Zero
	}
}

// List retrieves all budgets with Spent/Remaining computed
func (s *budgetService) List(ctx context.Context) ([]*Budget, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	budgets := s.store.registry.Budgets.List()
	for _, b := range budgets {
		s.computeSpent(b)
	}
	return budgets, nil
}

// Get retrieves a single budget with derived fields computed
func (s *budgetService) Get(ctx context.Context, budgetID string) (*Budget, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	b, ok := s.store.registry.Budgets.FindByID(budgetID)
	if !ok {
		return nil, ErrNotFound
	}
	s.computeSpent(b)
	return b, nil
}

// Create creates a new budget
func (s *budgetService) Create(ctx context.Context, params *CreateBudgetParams) (*Budget, error) {
	if params.Category == "" {
		return nil, &ValidationError{Field: "category", Message: "is required"}
	}
	if !params.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than zero", Value: params.Amount.String()}
	}
	if params.PeriodEnd.Time.Before(params.PeriodStart.Time) {
		return nil, &ValidationError{Field: "periodEnd", Message: "must not be before periodStart"}
	}

	now := s.store.now()
	b := &Budget{
		ID:          uuid.New().String(),
		UserID:      s.store.userID,
		Category:    params.Category,
		Amount:      params.Amount,
		PeriodStart: params.PeriodStart,
		PeriodEnd:   params.PeriodEnd,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.store.mu.Lock()
	s.store.registry.Budgets.Insert(b)
	s.computeSpent(b)
	s.store.markDirty([]DirtyRecord{{Collection: CollectionBudgets, ID: b.ID, Record: b}})
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "create", CollectionBudgets, b.ID)
	return b, nil
}

// Update updates an existing budget
func (s *budgetService) Update(ctx context.Context, budgetID string, params *UpdateBudgetParams) (*Budget, error) {
	if params.Amount != nil && !params.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than zero", Value: params.Amount.String()}
	}

	s.store.mu.Lock()
	b, ok := s.store.registry.Budgets.FindByID(budgetID)
	if !ok {
		s.store.mu.Unlock()
		return nil, ErrNotFound
	}

	if params.Amount != nil {
		b.Amount = *params.Amount
	}
	if params.PeriodStart != nil {
		b.PeriodStart = *params.PeriodStart
	}
	if params.PeriodEnd != nil {
		b.PeriodEnd = *params.PeriodEnd
	}
	b.UpdatedAt = s.store.now()

	s.store.registry.Budgets.Replace(b)
	s.computeSpent(b)
	s.store.markDirty([]DirtyRecord{{Collection: CollectionBudgets, ID: b.ID, Record: b}})
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "update", CollectionBudgets, b.ID)
	return b, nil
}

// Delete deletes a budget
func (s *budgetService) Delete(ctx context.Context, budgetID string) error {
	s.store.mu.Lock()
	if !s.store.registry.Budgets.Remove(budgetID) {
		s.store.mu.Unlock()
		return ErrNotFound
	}
	s.store.markDeleted(CollectionBudgets, budgetID)
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "delete", CollectionBudgets, budgetID)
	return nil
}
