package pennywise

import (
	"context"

	"github.com/google/uuid"
)

// loanService implements the LoanService interface
type loanService struct {
	store *Store
}

// List retrieves all loans
func (s *loanService) List(ctx context.Context) ([]*Loan, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return s.store.registry.Loans.List(), nil
}

// Get retrieves a single loan
func (s *loanService) Get(ctx context.Context, loanID string) (*Loan, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	loan, ok := s.store.registry.Loans.FindByID(loanID)
	if !ok {
		return nil, ErrNotFound
	}
	return loan, nil
}

// Create creates a new loan. The opening balance doubles as the
// original amount for payoff reporting.
func (s *loanService) Create(ctx context.Context, params *CreateLoanParams) (*Loan, error) {
	if params.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "is required"}
	}
	if params.Balance.IsNegative() {
		return nil, &ValidationError{Field: "balance", Message: "must not be negative", Value: params.Balance.String()}
	}

	now := s.store.now()
	loan := &Loan{
		ID:             uuid.New().String(),
		UserID:         s.store.userID,
		Name:           params.Name,
		Balance:        params.Balance,
		OriginalAmount: params.Balance,
		APR:            params.APR,
		MonthlyPayment: params.MonthlyPayment,
		Transactions:   []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	s.store.mu.Lock()
	s.store.registry.Loans.Insert(loan)
	s.store.markDirty([]DirtyRecord{{Collection: CollectionLoans, ID: loan.ID, Record: loan}})
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "create", CollectionLoans, loan.ID)
	return loan, nil
}

// Update updates an existing loan. The balance is owned by the
// propagation engine.
func (s *loanService) Update(ctx context.Context, loanID string, params *UpdateLoanParams) (*Loan, error) {
	s.store.mu.Lock()
	loan, ok := s.store.registry.Loans.FindByID(loanID)
	if !ok {
		s.store.mu.Unlock()
		return nil, ErrNotFound
	}

	if params.Name != nil {
		loan.Name = *params.Name
	}
	if params.APR != nil {
		loan.APR = *params.APR
	}
	if params.MonthlyPayment != nil {
		loan.MonthlyPayment = *params.MonthlyPayment
	}
	loan.UpdatedAt = s.store.now()

	s.store.registry.Loans.Replace(loan)
	s.store.markDirty([]DirtyRecord{{Collection: CollectionLoans, ID: loan.ID, Record: loan}})
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "update", CollectionLoans, loan.ID)
	return loan, nil
}

// Delete deletes a loan
func (s *loanService) Delete(ctx context.Context, loanID string) error {
	s.store.mu.Lock()
	if !s.store.registry.Loans.Remove(loanID) {
		s.store.mu.Unlock()
		return ErrNotFound
	}
	s.store.markDeleted(CollectionLoans, loanID)
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "delete", CollectionLoans, loanID)
	return nil
}
