package pennywise

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionService handles all transaction-related operations. Every
// mutation runs the ledger propagation rules against the referenced
// accounts.
type TransactionService interface {
	// Query returns a transaction query builder
	Query() TransactionQueryBuilder

	// Get retrieves a single transaction
	Get(ctx context.Context, transactionID string) (*Transaction, error)

	// Create records a new transaction and propagates its balance
	// effect. When a referenced account no longer exists the created
	// transaction is returned together with a *ReferenceNotFoundError;
	// resolved references have still been applied.
	Create(ctx context.Context, params *CreateTransactionParams) (*Transaction, error)

	// Update updates an existing transaction, reversing its previous
	// balance effect and applying the new one
	Update(ctx context.Context, transactionID string, params *UpdateTransactionParams) (*Transaction, error)

	// Delete removes a transaction and reverses its balance effect
	Delete(ctx context.Context, transactionID string) error

	// Summary aggregates the ledger over a date range
	Summary(ctx context.Context, start, end time.Time) (*TransactionSummary, error)
}

// TransactionQueryBuilder builds in-memory transaction queries
type TransactionQueryBuilder interface {
	// Filter methods
	Between(start, end time.Time) TransactionQueryBuilder
	WithTypes(types ...TransactionType) TransactionQueryBuilder
	WithCategories(categories ...string) TransactionQueryBuilder
	WithFundSources(fundSourceIDs ...string) TransactionQueryBuilder
	WithMinAmount(amount decimal.Decimal) TransactionQueryBuilder
	WithMaxAmount(amount decimal.Decimal) TransactionQueryBuilder
	Search(query string) TransactionQueryBuilder
	Limit(limit int) TransactionQueryBuilder
	Offset(offset int) TransactionQueryBuilder

	// Execute runs the query
	Execute(ctx context.Context) (*TransactionList, error)

	// Stream returns results as a channel for large queries
	Stream(ctx context.Context) (<-chan *Transaction, <-chan error)
}

// FundSourceService handles cash-holding accounts
type FundSourceService interface {
	// List retrieves all fund sources with MonthlyFlow computed
	List(ctx context.Context) ([]*FundSource, error)

	// Get retrieves a single fund source with MonthlyFlow computed
	Get(ctx context.Context, fundSourceID string) (*FundSource, error)

	// Create creates a new fund source
	Create(ctx context.Context, params *CreateFundSourceParams) (*FundSource, error)

	// Update updates an existing fund source
	Update(ctx context.Context, fundSourceID string, params *UpdateFundSourceParams) (*FundSource, error)

	// Delete deletes a fund source. Transactions that referenced it
	// remain in the ledger; later propagation against them reports a
	// stale reference.
	Delete(ctx context.Context, fundSourceID string) error
}

// CreditCardService handles revolving-credit accounts
type CreditCardService interface {
	// List retrieves all credit cards
	List(ctx context.Context) ([]*CreditCard, error)

	// Get retrieves a single credit card
	Get(ctx context.Context, creditCardID string) (*CreditCard, error)

	// Create creates a new credit card
	Create(ctx context.Context, params *CreateCreditCardParams) (*CreditCard, error)

	// Update updates an existing credit card
	Update(ctx context.Context, creditCardID string, params *UpdateCreditCardParams) (*CreditCard, error)

	// Delete deletes a credit card
	Delete(ctx context.Context, creditCardID string) error

	// Utilization returns balance/limit as a fraction, zero when no
	// limit is set
	Utilization(ctx context.Context, creditCardID string) (decimal.Decimal, error)
}

// LoanService handles amortizing liabilities
type LoanService interface {
	// List retrieves all loans
	List(ctx context.Context) ([]*Loan, error)

	// Get retrieves a single loan
	Get(ctx context.Context, loanID string) (*Loan, error)

	// Create creates a new loan
	Create(ctx context.Context, params *CreateLoanParams) (*Loan, error)

	// Update updates an existing loan
	Update(ctx context.Context, loanID string, params *UpdateLoanParams) (*Loan, error)

	// Delete deletes a loan
	Delete(ctx context.Context, loanID string) error
}

// DebtService handles generic liabilities
type DebtService interface {
	// List retrieves all debts
	List(ctx context.Context) ([]*Debt, error)

	// Get retrieves a single debt
	Get(ctx context.Context, debtID string) (*Debt, error)

	// Create creates a new debt
	Create(ctx context.Context, params *CreateDebtParams) (*Debt, error)

	// Update updates an existing debt
	Update(ctx context.Context, debtID string, params *UpdateDebtParams) (*Debt, error)

	// Delete deletes a debt
	Delete(ctx context.Context, debtID string) error
}

// BudgetService handles budget operations
type BudgetService interface {
	// List retrieves all budgets with Spent/Remaining computed from
	// the ledger
	List(ctx context.Context) ([]*Budget, error)

	// Get retrieves a single budget with derived fields computed
	Get(ctx context.Context, budgetID string) (*Budget, error)

	// Create creates a new budget
	Create(ctx context.Context, params *CreateBudgetParams) (*Budget, error)

	// Update updates an existing budget
	Update(ctx context.Context, budgetID string, params *UpdateBudgetParams) (*Budget, error)

	// Delete deletes a budget
	Delete(ctx context.Context, budgetID string) error
}

// InvestmentService handles investment positions
type InvestmentService interface {
	// List retrieves all investments
	List(ctx context.Context) ([]*Investment, error)

	// Get retrieves a single investment
	Get(ctx context.Context, investmentID string) (*Investment, error)

	// Create creates a new investment
	Create(ctx context.Context, params *CreateInvestmentParams) (*Investment, error)

	// Update updates an existing investment
	Update(ctx context.Context, investmentID string, params *UpdateInvestmentParams) (*Investment, error)

	// Delete deletes an investment
	Delete(ctx context.Context, investmentID string) error
}

// RecurringService handles recurring transaction templates
type RecurringService interface {
	// List retrieves all recurring templates
	List(ctx context.Context) ([]*RecurringTransaction, error)

	// Get retrieves a single template
	Get(ctx context.Context, recurringID string) (*RecurringTransaction, error)

	// Create creates a new template
	Create(ctx context.Context, params *CreateRecurringParams) (*RecurringTransaction, error)

	// Update updates an existing template
	Update(ctx context.Context, recurringID string, params *UpdateRecurringParams) (*RecurringTransaction, error)

	// Delete deletes a template
	Delete(ctx context.Context, recurringID string) error

	// ProcessDue materializes at most one transaction per due template
	// and advances its LastProcessed marker. Safe to call at any time;
	// calling again at the same instant spawns nothing.
	ProcessDue(ctx context.Context) ([]*Transaction, error)

	// StartScheduler runs ProcessDue on a cron schedule until
	// StopScheduler is called
	StartScheduler(cronSpec string) error

	// StopScheduler stops the periodic sweep
	StopScheduler()
}

// AnalyticsService derives reporting views from the ledger
type AnalyticsService interface {
	// Cashflow aggregates income and expenses over a date range
	Cashflow(ctx context.Context, start, end time.Time) (*Cashflow, error)

	// CashflowSummary buckets cashflow by interval
	CashflowSummary(ctx context.Context, start, end time.Time, interval Interval) (*CashflowSummary, error)

	// SpendingHabits breaks down expenses by category over a window
	SpendingHabits(ctx context.Context, start, end time.Time) ([]*CategorySpending, error)

	// SavingsRate returns (income-expenses)/income over a window
	SavingsRate(ctx context.Context, start, end time.Time) (decimal.Decimal, error)

	// NetWorth sums assets minus liabilities at the current instant
	NetWorth(ctx context.Context) (*NetWorth, error)

	// CreditCardPayoff projects months to pay off a card at its
	// minimum payment
	CreditCardPayoff(ctx context.Context, creditCardID string) (*PayoffProjection, error)

	// LoanPayoff projects months to pay off a loan at its monthly
	// payment
	LoanPayoff(ctx context.Context, loanID string) (*PayoffProjection, error)

	// PortfolioDistribution returns investment value share by kind
	PortfolioDistribution(ctx context.Context) ([]*PortfolioSlice, error)
}

// FlushJob represents an async mirror flush
type FlushJob interface {
	// ID returns the job ID
	ID() string

	// Status returns the current status
	Status() FlushStatus

	// Wait runs the flush until the outbox drains or the timeout hits
	Wait(ctx context.Context, timeout time.Duration) error

	// Cancel cancels the job
	Cancel(ctx context.Context) error

	// Metrics returns job metrics
	Metrics() FlushJobMetrics
}
