package pennywise

import (
	"context"

	"github.com/google/uuid"
)

// debtService implements the DebtService interface
type debtService struct {
	store *Store
}

// List retrieves all debts
func (s *debtService) List(ctx context.Context) ([]*Debt, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return s.store.registry.Debts.List(), nil
}

// Get retrieves a single debt
func (s *debtService) Get(ctx context.Context, debtID string) (*Debt, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	debt, ok := s.store.registry.Debts.FindByID(debtID)
	if !ok {
		return nil, ErrNotFound
	}
	return debt, nil
}

// Create creates a new debt
func (s *debtService) Create(ctx context.Context, params *CreateDebtParams) (*Debt, error) {
	if params.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "is required"}
	}
	if params.Balance.IsNegative() {
		return nil, &ValidationError{Field: "balance", Message: "must not be negative", Value: params.Balance.String()}
	}

	now := s.store.now()
	debt := &Debt{
		ID:           uuid.New().String(),
		UserID:       s.store.userID,
		Name:         params.Name,
		Creditor:     params.Creditor,
		Balance:      params.Balance,
		Transactions: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.store.mu.Lock()
	s.store.registry.Debts.Insert(debt)
	s.store.markDirty([]DirtyRecord{{Collection: CollectionDebts, ID: debt.ID, Record: debt}})
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "create", CollectionDebts, debt.ID)
	return debt, nil
}

// Update updates an existing debt
func (s *debtService) Update(ctx context.Context, debtID string, params *UpdateDebtParams) (*Debt, error) {
	s.store.mu.Lock()
	debt, ok := s.store.registry.Debts.FindByID(debtID)
	if !ok {
		s.store.mu.Unlock()
		return nil, ErrNotFound
	}

	if params.Name != nil {
		debt.Name = *params.Name
	}
	if params.Creditor != nil {
		debt.Creditor = *params.Creditor
	}
	debt.UpdatedAt = s.store.now()

	s.store.registry.Debts.Replace(debt)
	s.store.markDirty([]DirtyRecord{{Collection: CollectionDebts, ID: debt.ID, Record: debt}})
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "update", CollectionDebts, debt.ID)
	return debt, nil
}

// Delete deletes a debt
func (s *debtService) Delete(ctx context.Context, debtID string) error {
	s.store.mu.Lock()
	if !s.store.registry.Debts.Remove(debtID) {
		s.store.mu.Unlock()
		return ErrNotFound
	}
	s.store.markDeleted(CollectionDebts, debtID)
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "delete", CollectionDebts, debtID)
	return nil
}
