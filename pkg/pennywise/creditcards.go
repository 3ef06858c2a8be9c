package pennywise

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// creditCardService implements the CreditCardService interface
type creditCardService struct {
	store *Store
}

// List retrieves all credit cards
func (s *creditCardService) List(ctx context.Context) ([]*CreditCard, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return s.store.registry.CreditCards.List(), nil
}

// Get retrieves a single credit card
func (s *creditCardService) Get(ctx context.Context, creditCardID string) (*CreditCard, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	cc, ok := s.store.registry.CreditCards.FindByID(creditCardID)
	if !ok {
		return nil, ErrNotFound
	}
	return cc, nil
}

// Create creates a new credit card
func (s *creditCardService) Create(ctx context.Context, params *CreateCreditCardParams) (*CreditCard, error) {
	if params.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "is required"}
	}
	if params.Limit.IsNegative() {
		return nil, &ValidationError{Field: "limit", Message: "must not be negative", Value: params.Limit.String()}
	}

	now := s.store.now()
	cc := &CreditCard{
		ID:             uuid.New().String(),
		UserID:         s.store.userID,
		Name:           params.Name,
		CurrentBalance: params.CurrentBalance,
		Limit:          params.Limit,
		APR:            params.APR,
		DueDate:        params.DueDate,
		CutOffDate:     params.CutOffDate,
		MinimumPayment: params.MinimumPayment,
		Transactions:   []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	s.store.mu.Lock()
	s.store.registry.CreditCards.Insert(cc)
	s.store.markDirty([]DirtyRecord{{Collection: CollectionCreditCards, ID: cc.ID, Record: cc}})
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "create", CollectionCreditCards, cc.ID)
	return cc, nil
}

// Update updates an existing credit card. The balance is owned by the
// propagation engine and cannot be set directly.
func (s *creditCardService) Update(ctx context.Context, creditCardID string, params *UpdateCreditCardParams) (*CreditCard, error) {
	s.store.mu.Lock()
	cc, ok := s.store.registry.CreditCards.FindByID(creditCardID)
	if !ok {
		s.store.mu.Unlock()
		return nil, ErrNotFound
	}

	if params.Name != nil {
		cc.Name = *params.Name
	}
	if params.Limit != nil {
		cc.Limit = *params.Limit
	}
	if params.APR != nil {
		cc.APR = *params.APR
	}
	if params.DueDate != nil {
		cc.DueDate = *params.DueDate
	}
	if params.CutOffDate != nil {
		cc.CutOffDate = *params.CutOffDate
	}
	if params.MinimumPayment != nil {
		cc.MinimumPayment = *params.MinimumPayment
	}
	cc.UpdatedAt = s.store.now()

	s.store.registry.CreditCards.Replace(cc)
	s.store.markDirty([]DirtyRecord{{Collection: CollectionCreditCards, ID: cc.ID, Record: cc}})
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "update", CollectionCreditCards, cc.ID)
	return cc, nil
}

// Delete deletes a credit card
func (s *creditCardService) Delete(ctx context.Context, creditCardID string) error {
	s.store.mu.Lock()
	if !s.store.registry.CreditCards.Remove(creditCardID) {
		s.store.mu.Unlock()
		return ErrNotFound
	}
	s.store.markDeleted(CollectionCreditCards, creditCardID)
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "delete", CollectionCreditCards, creditCardID)
	return nil
}

// Utilization returns balance/limit as a fraction
func (s *creditCardService) Utilization(ctx context.Context, creditCardID string) (decimal.Decimal, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	cc, ok := s.store.registry.CreditCards.FindByID(creditCardID)
	if !ok {
		return decimal.Zero, ErrNotFound
	}
	if cc.Limit.IsZero() {
		return decimal.Zero, nil
	}
	return cc.CurrentBalance.Div(cc.Limit), nil
}
