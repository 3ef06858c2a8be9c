package pennywise

import (
	"context"

	"github.com/google/uuid"
)

// investmentService implements the InvestmentService interface
type investmentService struct {
	store *Store
}

// List retrieves all investments
func (s *investmentService) List(ctx context.Context) ([]*Investment, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return s.store.registry.Investments.List(), nil
}

// Get retrieves a single investment
func (s *investmentService) Get(ctx context.Context, investmentID string) (*Investment, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	inv, ok := s.store.registry.Investments.FindByID(investmentID)
	if !ok {
		return nil, ErrNotFound
	}
	return inv, nil
}

// Create creates a new investment
func (s *investmentService) Create(ctx context.Context, params *CreateInvestmentParams) (*Investment, error) {
	if params.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "is required"}
	}
	if params.Amount.IsNegative() {
		return nil, &ValidationError{Field: "amount", Message: "must not be negative", Value: params.Amount.String()}
	}

	now := s.store.now()
	inv := &Investment{
		ID:           uuid.New().String(),
		UserID:       s.store.userID,
		Name:         params.Name,
		Kind:         params.Kind,
		Amount:       params.Amount,
		CurrentValue: params.CurrentValue,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// New positions default their value to the invested amount
	if inv.CurrentValue.IsZero() {
		inv.CurrentValue = inv.Amount
	}

	s.store.mu.Lock()
	s.store.registry.Investments.Insert(inv)
	s.store.markDirty([]DirtyRecord{{Collection: CollectionInvestments, ID: inv.ID, Record: inv}})
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "create", CollectionInvestments, inv.ID)
	return inv, nil
}

// Update updates an existing investment
func (s *investmentService) Update(ctx context.Context, investmentID string, params *UpdateInvestmentParams) (*Investment, error) {
	s.store.mu.Lock()
	inv, ok := s.store.registry.Investments.FindByID(investmentID)
	if !ok {
		s.store.mu.Unlock()
		return nil, ErrNotFound
	}

	if params.Name != nil {
		inv.Name = *params.Name
	}
	if params.Amount != nil {
		inv.Amount = *params.Amount
	}
	if params.CurrentValue != nil {
		inv.CurrentValue = *params.CurrentValue
	}
	inv.UpdatedAt = s.store.now()

	s.store.registry.Investments.Replace(inv)
	s.store.markDirty([]DirtyRecord{{Collection: CollectionInvestments, ID: inv.ID, Record: inv}})
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "update", CollectionInvestments, inv.ID)
	return inv, nil
}

// Delete deletes an investment
func (s *investmentService) Delete(ctx context.Context, investmentID string) error {
	s.store.mu.Lock()
	if !s.store.registry.Investments.Remove(investmentID) {
		s.store.mu.Unlock()
		return ErrNotFound
	}
	s.store.markDeleted(CollectionInvestments, investmentID)
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "delete", CollectionInvestments, investmentID)
	return nil
}
