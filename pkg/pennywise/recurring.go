package pennywise

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// recurringService implements the RecurringService interface
type recurringService struct {
	store *Store
	txns  *transactionService

	// sweepMu serializes ProcessDue passes. The cron goroutine and
	// manual callers must never both observe the same template as due.
	sweepMu sync.Mutex

	schedMu sync.Mutex
	sched   *cron.Cron
}

// newRecurringService creates a new recurring transaction service
func newRecurringService(store *Store, txns *transactionService) *recurringService {
	return &recurringService{
		store: store,
		txns:  txns,
	}
}

// List retrieves all recurring templates
func (s *recurringService) List(ctx context.Context) ([]*RecurringTransaction, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return s.store.registry.Recurring.List(), nil
}

// Get retrieves a single template
func (s *recurringService) Get(ctx context.Context, recurringID string) (*RecurringTransaction, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	tpl, ok := s.store.registry.Recurring.FindByID(recurringID)
	if !ok {
		return nil, ErrNotFound
	}
	return tpl, nil
}

// Create creates a new template
func (s *recurringService) Create(ctx context.Context, params *CreateRecurringParams) (*RecurringTransaction, error) {
	if !validFrequency(params.Frequency) {
		return nil, ErrInvalidFrequency
	}
	if !params.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than zero", Value: params.Amount.String()}
	}
	if params.StartDate.IsZero() {
		return nil, &ValidationError{Field: "startDate", Message: "is required"}
	}

	now := s.store.now()
	tpl := &RecurringTransaction{
		ID:           uuid.New().String(),
		UserID:       s.store.userID,
		Type:         params.Type,
		Amount:       params.Amount,
		Category:     params.Category,
		Details:      params.Details,
		Frequency:    params.Frequency,
		StartDate:    params.StartDate,
		Active:       true,
		FundSourceID: params.FundSourceID,
		CreditCardID: params.CreditCardID,
		LoanID:       params.LoanID,
		DebtID:       params.DebtID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.store.mu.Lock()
	s.store.registry.Recurring.Insert(tpl)
	s.store.markDirty([]DirtyRecord{{Collection: CollectionRecurring, ID: tpl.ID, Record: tpl}})
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "create", CollectionRecurring, tpl.ID)
	return tpl, nil
}

// Update updates an existing template
func (s *recurringService) Update(ctx context.Context, recurringID string, params *UpdateRecurringParams) (*RecurringTransaction, error) {
	if params.Frequency != nil && !validFrequency(*params.Frequency) {
		return nil, ErrInvalidFrequency
	}
	if params.Amount != nil && !params.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than zero", Value: params.Amount.String()}
	}

	s.store.mu.Lock()
	tpl, ok := s.store.registry.Recurring.FindByID(recurringID)
	if !ok {
		s.store.mu.Unlock()
		return nil, ErrNotFound
	}

	if params.Amount != nil {
		tpl.Amount = *params.Amount
	}
	if params.Category != nil {
		tpl.Category = *params.Category
	}
	if params.Details != nil {
		tpl.Details = *params.Details
	}
	if params.Frequency != nil {
		tpl.Frequency = *params.Frequency
	}
	if params.Active != nil {
		tpl.Active = *params.Active
	}
	tpl.UpdatedAt = s.store.now()

	s.store.registry.Recurring.Replace(tpl)
	s.store.markDirty([]DirtyRecord{{Collection: CollectionRecurring, ID: tpl.ID, Record: tpl}})
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "update", CollectionRecurring, tpl.ID)
	return tpl, nil
}

// Delete deletes a template
func (s *recurringService) Delete(ctx context.Context, recurringID string) error {
	s.store.mu.Lock()
	if !s.store.registry.Recurring.Remove(recurringID) {
		s.store.mu.Unlock()
		return ErrNotFound
	}
	s.store.markDeleted(CollectionRecurring, recurringID)
	s.store.mu.Unlock()

	s.store.notifyMutation(ctx, "delete", CollectionRecurring, recurringID)
	return nil
}

// advancePeriod moves t forward by one template period
func advancePeriod(t time.Time, f Frequency) time.Time {
	switch f {
	case FrequencyDaily:
		return t.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyBiWeekly:
		return t.AddDate(0, 0, 14)
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	case FrequencyYearly:
		return t.AddDate(1, 0, 0)
	}
	return t
}

// ProcessDue materializes transactions from due templates.
//
// Each due template spawns exactly one transaction per call, however
// many periods have elapsed: a template three months overdue catches up
// one period at a time across successive calls rather than flooding
// the ledger at once. Calling again at the same instant spawns nothing
// because LastProcessed has already advanced past now. Sweeps are
// serialized, so concurrent calls cannot double-spawn a template.
func (s *recurringService) ProcessDue(ctx context.Context) ([]*Transaction, error) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	now := s.store.now()

	s.store.mu.Lock()
	var due []*RecurringTransaction
	for _, tpl := range s.store.registry.Recurring.List() {
		if !tpl.Active {
			continue
		}
		base := tpl.StartDate.Time
		if tpl.LastProcessed != nil {
			base = *tpl.LastProcessed
		}
		if !advancePeriod(base, tpl.Frequency).After(now) {
			due = append(due, tpl)
		}
	}
	s.store.mu.Unlock()

	var spawned []*Transaction
	var firstErr error
	for _, tpl := range due {
		details := tpl.Details
		if details != "" {
			details += " (recurring)"
		} else {
			details = "(recurring)"
		}

		tx, err := s.txns.create(ctx, &CreateTransactionParams{
			Type:         tpl.Type,
			Amount:       tpl.Amount,
			Date:         DateOf(now),
			Time:         now.Format("15:04"),
			Category:     tpl.Category,
			Details:      details,
			FundSourceID: tpl.FundSourceID,
			CreditCardID: tpl.CreditCardID,
			LoanID:       tpl.LoanID,
			DebtID:       tpl.DebtID,
		}, true)
		if err != nil && !IsReferenceNotFound(err) {
			// A misconfigured template must not block the others
			if s.store.options.Logger != nil {
				s.store.options.Logger.Warn("recurring template failed to spawn", "template", tpl.ID, "error", err)
			}
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "template %s", tpl.ID)
			}
			continue
		}
		spawned = append(spawned, tx)

		s.store.mu.Lock()
		processed := now
		tpl.LastProcessed = &processed
		tpl.UpdatedAt = now
		s.store.registry.Recurring.Replace(tpl)
		s.store.markDirty([]DirtyRecord{{Collection: CollectionRecurring, ID: tpl.ID, Record: tpl}})
		s.store.mu.Unlock()
	}

	if len(spawned) > 0 && s.store.options.Logger != nil {
		s.store.options.Logger.Info("recurring templates processed", "spawned", len(spawned))
	}

	return spawned, firstErr
}

// StartScheduler runs ProcessDue on a cron schedule. ProcessDue is
// idempotent at any instant, so an aggressive schedule is harmless.
func (s *recurringService) StartScheduler(cronSpec string) error {
	s.schedMu.Lock()
	defer s.schedMu.Unlock()

	if s.sched != nil {
		return ErrSchedulerRunning
	}

	c := cron.New()
	_, err := c.AddFunc(cronSpec, func() {
		if _, err := s.ProcessDue(context.Background()); err != nil {
			s.store.captureError(context.Background(), err)
		}
	})
	if err != nil {
		return errors.Wrap(err, "invalid cron spec")
	}

	c.Start()
	s.sched = c
	return nil
}

// StopScheduler stops the periodic sweep
func (s *recurringService) StopScheduler() {
	s.schedMu.Lock()
	defer s.schedMu.Unlock()

	if s.sched != nil {
		s.sched.Stop()
		s.sched = nil
	}
}
