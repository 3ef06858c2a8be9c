package pennywise

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/pennywise-app/pennywise-go/internal/mirror"
	"github.com/pennywise-app/pennywise-go/internal/outbox"
	internalTypes "github.com/pennywise-app/pennywise-go/internal/types"
)

const (
	// DefaultMirrorTimeout is the default HTTP client timeout for the
	// persistence mirror
	DefaultMirrorTimeout = 30 * time.Second
)

// Store is a single user's personal-finance ledger. All mutations are
// serialized through one mutex, so a Store is safe for concurrent use
// even though the balance rules are read-modify-write.
type Store struct {
	// Service interfaces
	Transactions TransactionService
	FundSources  FundSourceService
	CreditCards  CreditCardService
	Loans        LoanService
	Debts        DebtService
	Budgets      BudgetService
	Investments  InvestmentService
	Recurring    RecurringService
	Analytics    AnalyticsService

	// Internal fields
	userID    string
	registry  *Registry
	outbox    *outbox.Outbox
	mirror    Pusher
	options   *StoreOptions
	nowFn     func() time.Time
	mu        sync.Mutex
	flushJobs *FlushJobManager
}

// StoreOptions configures the store
type StoreOptions struct {
	// MirrorURL is the base URL of the hosted document store; empty
	// disables mirroring entirely
	MirrorURL string

	// MirrorToken authenticates mirror requests
	MirrorToken string

	// HTTPClient allows using a custom HTTP client for the mirror
	HTTPClient *http.Client

	// Timeout sets the mirror HTTP client timeout
	Timeout time.Duration

	// Mirror overrides the mirror client, mainly for tests
	Mirror Pusher

	// Logger for debug logging
	Logger Logger

	// RetryConfig configures mirror retry behavior
	RetryConfig *internalTypes.RetryConfig

	// Hooks for observability
	Hooks *internalTypes.Hooks

	// SentryDSN enables Sentry error tracking when set
	SentryDSN string

	// SentryOptions allows custom Sentry configuration
	SentryOptions *sentry.ClientOptions

	// Now overrides the clock used for derived windows and recurring
	// due computation; defaults to time.Now
	Now func() time.Time
}

// Logger interface for logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Pusher mirrors dirty records to the remote document store
type Pusher interface {
	Push(ctx context.Context, userID, collection string, records []interface{}, deleted []string) error
}

// NewStore creates a store for one user's data set
func NewStore(userID string, opts *StoreOptions) (*Store, error) {
	if userID == "" {
		return nil, NewError("INVALID_USER", "user id is required")
	}
	if opts == nil {
		opts = &StoreOptions{}
	}

	// Initialize Sentry if DSN is provided
	if opts.SentryDSN != "" || opts.SentryOptions != nil {
		sentryOpts := sentry.ClientOptions{}

		if opts.SentryOptions != nil {
			sentryOpts = *opts.SentryOptions
		}

		if opts.SentryDSN != "" {
			sentryOpts.Dsn = opts.SentryDSN
		}

		if sentryOpts.Environment == "" {
			sentryOpts.Environment = "production"
		}

		if err := sentry.Init(sentryOpts); err != nil {
			// Log error but don't fail store creation
			if opts.Logger != nil {
				opts.Logger.Error("Failed to initialize Sentry", "error", err)
			}
		}
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: DefaultMirrorTimeout,
		}
	}

	if opts.Timeout > 0 {
		opts.HTTPClient.Timeout = opts.Timeout
	}

	// Wire the persistence mirror
	var pusher Pusher
	switch {
	case opts.Mirror != nil:
		pusher = opts.Mirror
	case opts.MirrorURL != "":
		pusher = mirror.NewClient(&mirror.Options{
			BaseURL:     opts.MirrorURL,
			Token:       opts.MirrorToken,
			HTTPClient:  opts.HTTPClient,
			RetryConfig: opts.RetryConfig,
			Logger:      opts.Logger,
		})
	}

	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	s := &Store{
		userID:    userID,
		registry:  NewRegistry(),
		outbox:    outbox.New(userID),
		mirror:    pusher,
		options:   opts,
		nowFn:     nowFn,
		flushJobs: NewFlushJobManager(),
	}

	s.initServices()

	return s, nil
}

// initServices initializes all service implementations
func (s *Store) initServices() {
	txns := newTransactionService(s)
	s.Transactions = txns
	s.FundSources = &fundSourceService{store: s}
	s.CreditCards = &creditCardService{store: s}
	s.Loans = &loanService{store: s}
	s.Debts = &debtService{store: s}
	s.Budgets = &budgetService{store: s}
	s.Investments = &investmentService{store: s}
	s.Recurring = newRecurringService(s, txns)
	s.Analytics = &analyticsService{store: s}
}

// UserID returns the owning user's id
func (s *Store) UserID() string {
	return s.userID
}

// Pending returns the number of records awaiting mirror flush
func (s *Store) Pending() int {
	return s.outbox.Len()
}

// Flush pushes the outbox to the persistence mirror. Best-effort: the
// in-memory state is already correct regardless of the outcome, so
// failures are logged and reported but nothing is rolled back.
func (s *Store) Flush(ctx context.Context) error {
	if s.mirror == nil {
		return nil
	}

	pending := s.outbox.Len()
	start := time.Now()
	err := s.outbox.Flush(ctx, s.mirror)
	duration := time.Since(start)

	if s.options.Hooks != nil && s.options.Hooks.OnFlush != nil {
		s.options.Hooks.OnFlush(ctx, pending, duration)
	}

	if err != nil {
		if s.options.Logger != nil {
			s.options.Logger.Warn("mirror flush failed", "error", err, "pending", s.outbox.Len())
		}
		s.captureError(ctx, err)
		return err
	}

	if s.options.Logger != nil {
		s.options.Logger.Debug("mirror flush complete", "records", pending, "duration", duration)
	}

	return nil
}

// FlushAsync starts a background flush job that keeps retrying until
// the outbox drains, its timeout hits, or it is cancelled
func (s *Store) FlushAsync() FlushJob {
	job := newFlushJob(s)
	s.flushJobs.AddJob(job)
	return job
}

// Close flushes any pending Sentry events and performs cleanup
func (s *Store) Close() {
	if sched, ok := s.Recurring.(*recurringService); ok {
		sched.StopScheduler()
	}
	// Flush Sentry events with a 2 second timeout
	sentry.Flush(2 * time.Second)
}

// now returns the store clock's current instant
func (s *Store) now() time.Time {
	return s.nowFn()
}

// stampUpdated marks accounts touched by propagation as modified at
// now. Timestamps are a service concern; the propagation engine only
// moves balances.
func (s *Store) stampUpdated(dirty []DirtyRecord, now time.Time) {
	for _, d := range dirty {
		switch rec := d.Record.(type) {
		case *FundSource:
			rec.UpdatedAt = now
		case *CreditCard:
			rec.UpdatedAt = now
		case *Loan:
			rec.UpdatedAt = now
		case *Debt:
			rec.UpdatedAt = now
		}
	}
}

// markDirty queues propagation output for the mirror
func (s *Store) markDirty(dirty []DirtyRecord) {
	if s.mirror == nil {
		return
	}
	for _, d := range dirty {
		s.outbox.Enqueue(d.Collection, d.ID, d.Record)
	}
}

// markDeleted queues a deletion for the mirror
func (s *Store) markDeleted(collection, id string) {
	if s.mirror == nil {
		return
	}
	s.outbox.EnqueueDelete(collection, id)
}

// notifyMutation fires the mutation hook
func (s *Store) notifyMutation(ctx context.Context, op, collection, recordID string) {
	if s.options.Hooks != nil && s.options.Hooks.OnMutation != nil {
		s.options.Hooks.OnMutation(ctx, op, collection, recordID)
	}
}

// captureError reports an error to Sentry and the error hook
func (s *Store) captureError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("pennywise.user", s.userID)
			scope.SetContext("outbox", map[string]interface{}{
				"pending": s.outbox.Len(),
			})
			hub.CaptureException(err)
		})
	} else {
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("pennywise.user", s.userID)
			scope.SetContext("outbox", map[string]interface{}{
				"pending": s.outbox.Len(),
			})
			sentry.CaptureException(err)
		})
	}

	if s.options.Hooks != nil && s.options.Hooks.OnError != nil {
		s.options.Hooks.OnError(ctx, err)
	}
}

// warnMissingRefs logs stale references surfaced by propagation
func (s *Store) warnMissingRefs(missing []MissingReference) {
	if s.options.Logger == nil {
		return
	}
	for _, m := range missing {
		s.options.Logger.Warn("transaction references missing account", "field", m.Field, "id", m.ID)
	}
}
