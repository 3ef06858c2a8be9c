package pennywise

import (
	"context"

	"github.com/google/uuid"
)

// fundSourceService implements the FundSourceService interface
type fundSourceService struct {
	store *Store
}

// List retrieves all fund sources. MonthlyFlow is recomputed for each
// against the store clock, so the same call at a later instant can
// return a different flow even without new transactions.
func (s *fundSourceService) List(ctx context.Context) ([]*FundSource, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	now := s.store.now()
	sources := s.store.registry.FundSources.List()
	for _, fs := range sources {
		fs.MonthlyFlow = monthlyFlow(fs, s.store.registry, now)
	}
	return sources, nil
}

// Get retrieves a single fund source with MonthlyFlow computed
func (s *fundSourceService) Get(ctx context.Context, fundSourceID string) (*FundSource, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	fs, ok := s.store.registry.FundSources.FindByID(fundSourceID)
	if !ok {
		return nil, ErrNotFound
	}
	fs.MonthlyFlow = monthlyFlow(fs, s.store.registry, s.store.now())
	return fs, nil
}

// Create creates a new fund source
func (s *fundSourceService) Create(ctx context.Context, params *CreateFundSourceParams) (*FundSource, error) {
	if params.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "is required"}
	}

	now := s.store.now()
	fs := &FundSource{
		ID:             uuid.New().String(),
		UserID:         s.store.userID,
		Name:           params.Name,
		Kind:           params.Kind,
		CurrentBalance: params.CurrentBalance,
		Transactions:   []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	s.store.mu.Lock()
	s.store.registry.FundSources.Insert(fs)
	s.store.markDirty([]DirtyRecord{{Collection: CollectionFundSources, ID: fs.ID, Record: fs}})
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "create", CollectionFundSources, fs.ID)
	return fs, nil
}

// Update updates an existing fund source
func (s *fundSourceService) Update(ctx context.Context, fundSourceID string, params *UpdateFundSourceParams) (*FundSource, error) {
	s.store.mu.Lock()
	fs, ok := s.store.registry.FundSources.FindByID(fundSourceID)
	if !ok {
		s.store.mu.Unlock()
		return nil, ErrNotFound
	}

	if params.Name != nil {
		fs.Name = *params.Name
	}
	if params.Kind != nil {
		fs.Kind = *params.Kind
	}
	if params.CurrentBalance != nil {
		// Manual balance correction
		fs.CurrentBalance = *params.CurrentBalance
	}
	fs.UpdatedAt = s.store.now()

	s.store.registry.FundSources.Replace(fs)
	s.store.markDirty([]DirtyRecord{{Collection: CollectionFundSources, ID: fs.ID, Record: fs}})
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "update", CollectionFundSources, fs.ID)
	return fs, nil
}

// Delete deletes a fund source
func (s *fundSourceService) Delete(ctx context.Context, fundSourceID string) error {
	s.store.mu.Lock()
	if !s.store.registry.FundSources.Remove(fundSourceID) {
		s.store.mu.Unlock()
		return ErrNotFound
	}
	s.store.markDeleted(CollectionFundSources, fundSourceID)
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "delete", CollectionFundSources, fundSourceID)
	return nil
}
