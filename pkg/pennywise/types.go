package pennywise

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a monetary event
type TransactionType string

const (
	TransactionIncome     TransactionType = "income"
	TransactionExpense    TransactionType = "expense"
	TransactionDebt       TransactionType = "debt"
	TransactionInvestment TransactionType = "investment"
)

// Frequency is the period of a recurring transaction template
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiWeekly Frequency = "bi-weekly"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyYearly   Frequency = "yearly"
)

// FundSourceKind classifies a cash-holding account
type FundSourceKind string

const (
	FundSourceBank   FundSourceKind = "bank"
	FundSourceCash   FundSourceKind = "cash"
	FundSourceWallet FundSourceKind = "wallet"
)

// InvestmentKind classifies an investment position
type InvestmentKind string

const (
	InvestmentStocks InvestmentKind = "stocks"
	InvestmentBonds  InvestmentKind = "bonds"
	InvestmentCrypto InvestmentKind = "crypto"
	InvestmentFunds  InvestmentKind = "funds"
	InvestmentOther  InvestmentKind = "other"
)

// Collection names as mirrored to the document store
const (
	CollectionTransactions = "transactions"
	CollectionFundSources  = "fundSources"
	CollectionCreditCards  = "creditCards"
	CollectionLoans        = "loans"
	CollectionDebts        = "debts"
	CollectionBudgets      = "budgets"
	CollectionInvestments  = "investments"
	CollectionRecurring    = "recurringTransactions"
)

// Transaction represents a monetary event. Amount is always positive;
// the type and references decide the direction of its balance effect.
type Transaction struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	Type         TransactionType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Date         Date            `json:"date"`
	Time         string          `json:"time,omitempty"`
	Category     string          `json:"category"`
	Details      string          `json:"details,omitempty"`
	FundSourceID string          `json:"fundSourceId,omitempty"`
	CreditCardID string          `json:"creditCardId,omitempty"`
	LoanID       string          `json:"loanId,omitempty"`
	DebtID       string          `json:"debtId,omitempty"`
	Recurring    bool            `json:"recurring,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// RecordID implements the registry record interface
func (t *Transaction) RecordID() string { return t.ID }

// FundSource is a cash-holding account (bank, cash, digital wallet)
type FundSource struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	Name           string          `json:"name"`
	Kind           FundSourceKind  `json:"kind"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`

	// MonthlyFlow is derived on read from the trailing 30 days and is
	// never the stored source of truth.
	MonthlyFlow decimal.Decimal `json:"monthlyFlow"`

	// Transactions is the append-only history of transaction ids that
	// referenced this source.
	Transactions []string  `json:"transactions"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (f *FundSource) RecordID() string { return f.ID }

// CreditCard is a revolving-credit account. CurrentBalance is the
// amount owed.
type CreditCard struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	Name           string          `json:"name"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	Limit          decimal.Decimal `json:"limit"`
	APR            decimal.Decimal `json:"apr"`
	DueDate        int             `json:"dueDate"`
	CutOffDate     int             `json:"cutOffDate"`
	MinimumPayment decimal.Decimal `json:"minimumPayment"`
	Transactions   []string        `json:"transactions"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (c *CreditCard) RecordID() string { return c.ID }

// Loan is an amortizing liability
type Loan struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	Name           string          `json:"name"`
	Balance        decimal.Decimal `json:"balance"`
	OriginalAmount decimal.Decimal `json:"originalAmount"`
	APR            decimal.Decimal `json:"apr"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	Transactions   []string        `json:"transactions"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (l *Loan) RecordID() string { return l.ID }

// Debt is a generic liability tracked independently of credit cards
// and loans
type Debt struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	Name         string          `json:"name"`
	Creditor     string          `json:"creditor,omitempty"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions []string        `json:"transactions"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (d *Debt) RecordID() string { return d.ID }

// Budget caps spending for a category over a period. Spent, Remaining
// and PercentUsed are derived from the ledger on read.
type Budget struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	PeriodStart Date            `json:"periodStart"`
	PeriodEnd   Date            `json:"periodEnd"`
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	PercentUsed decimal.Decimal `json:"percentUsed"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (b *Budget) RecordID() string { return b.ID }

// Investment is a position tracked by invested amount and current value
type Investment struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	Name         string          `json:"name"`
	Kind         InvestmentKind  `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	CurrentValue decimal.Decimal `json:"currentValue"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (i *Investment) RecordID() string { return i.ID }

// RecurringTransaction is a template that spawns ordinary transactions
// when due
type RecurringTransaction struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	Details       string          `json:"details,omitempty"`
	Frequency     Frequency       `json:"frequency"`
	StartDate     Date            `json:"startDate"`
	LastProcessed *time.Time      `json:"lastProcessed,omitempty"`
	Active        bool            `json:"active"`
	FundSourceID  string          `json:"fundSourceId,omitempty"`
	CreditCardID  string          `json:"creditCardId,omitempty"`
	LoanID        string          `json:"loanId,omitempty"`
	DebtID        string          `json:"debtId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (r *RecurringTransaction) RecordID() string { return r.ID }

// TransactionSummary aggregates the ledger over a window
type TransactionSummary struct {
	TotalCount    int             `json:"totalCount"`
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	Net           decimal.Decimal `json:"net"`
}

// TransactionList represents paginated query results
type TransactionList struct {
	Transactions []*Transaction `json:"transactions"`
	TotalCount   int            `json:"totalCount"`
	HasMore      bool           `json:"hasMore"`
	NextOffset   int            `json:"nextOffset"`
}

// Parameter structures

// CreateTransactionParams for recording transactions
type CreateTransactionParams struct {
	Type         TransactionType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Date         Date            `json:"date"`
	Time         string          `json:"time,omitempty"`
	Category     string          `json:"category"`
	Details      string          `json:"details,omitempty"`
	FundSourceID string          `json:"fundSourceId,omitempty"`
	CreditCardID string          `json:"creditCardId,omitempty"`
	LoanID       string          `json:"loanId,omitempty"`
	DebtID       string          `json:"debtId,omitempty"`
}

// UpdateTransactionParams for updating transactions. Type and account
// references are immutable after creation; changing where money came
// from is delete-and-recreate.
type UpdateTransactionParams struct {
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Date     *Date            `json:"date,omitempty"`
	Time     *string          `json:"time,omitempty"`
	Category *string          `json:"category,omitempty"`
	Details  *string          `json:"details,omitempty"`
}

// CreateFundSourceParams for creating cash accounts
type CreateFundSourceParams struct {
	Name           string          `json:"name"`
	Kind           FundSourceKind  `json:"kind"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
}

// UpdateFundSourceParams for updating cash accounts
type UpdateFundSourceParams struct {
	Name           *string          `json:"name,omitempty"`
	Kind           *FundSourceKind  `json:"kind,omitempty"`
	CurrentBalance *decimal.Decimal `json:"currentBalance,omitempty"`
}

// CreateCreditCardParams for creating credit cards
type CreateCreditCardParams struct {
	Name           string          `json:"name"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	Limit          decimal.Decimal `json:"limit"`
	APR            decimal.Decimal `json:"apr"`
	DueDate        int             `json:"dueDate"`
	CutOffDate     int             `json:"cutOffDate"`
	MinimumPayment decimal.Decimal `json:"minimumPayment"`
}

// UpdateCreditCardParams for updating credit cards
type UpdateCreditCardParams struct {
	Name           *string          `json:"name,omitempty"`
	Limit          *decimal.Decimal `json:"limit,omitempty"`
	APR            *decimal.Decimal `json:"apr,omitempty"`
	DueDate        *int             `json:"dueDate,omitempty"`
	CutOffDate     *int             `json:"cutOffDate,omitempty"`
	MinimumPayment *decimal.Decimal `json:"minimumPayment,omitempty"`
}

// CreateLoanParams for creating loans
type CreateLoanParams struct {
	Name           string          `json:"name"`
	Balance        decimal.Decimal `json:"balance"`
	APR            decimal.Decimal `json:"apr"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
}

// UpdateLoanParams for updating loans
type UpdateLoanParams struct {
	Name           *string          `json:"name,omitempty"`
	APR            *decimal.Decimal `json:"apr,omitempty"`
	MonthlyPayment *decimal.Decimal `json:"monthlyPayment,omitempty"`
}

// CreateDebtParams for creating debts
type CreateDebtParams struct {
	Name     string          `json:"name"`
	Creditor string          `json:"creditor,omitempty"`
	Balance  decimal.Decimal `json:"balance"`
}

// UpdateDebtParams for updating debts
type UpdateDebtParams struct {
	Name     *string `json:"name,omitempty"`
	Creditor *string `json:"creditor,omitempty"`
}

// CreateBudgetParams for creating budgets
type CreateBudgetParams struct {
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	PeriodStart Date            `json:"periodStart"`
	PeriodEnd   Date            `json:"periodEnd"`
}

// UpdateBudgetParams for updating budgets
type UpdateBudgetParams struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	PeriodStart *Date            `json:"periodStart,omitempty"`
	PeriodEnd   *Date            `json:"periodEnd,omitempty"`
}

// CreateInvestmentParams for creating investments
type CreateInvestmentParams struct {
	Name         string          `json:"name"`
	Kind         InvestmentKind  `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	CurrentValue decimal.Decimal `json:"currentValue"`
}

// UpdateInvestmentParams for updating investments
type UpdateInvestmentParams struct {
	Name         *string          `json:"name,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	CurrentValue *decimal.Decimal `json:"currentValue,omitempty"`
}

// CreateRecurringParams for creating recurring templates
type CreateRecurringParams struct {
	Type         TransactionType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category"`
	Details      string          `json:"details,omitempty"`
	Frequency    Frequency       `json:"frequency"`
	StartDate    Date            `json:"startDate"`
	FundSourceID string          `json:"fundSourceId,omitempty"`
	CreditCardID string          `json:"creditCardId,omitempty"`
	LoanID       string          `json:"loanId,omitempty"`
	DebtID       string          `json:"debtId,omitempty"`
}

// UpdateRecurringParams for updating recurring templates
type UpdateRecurringParams struct {
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Category  *string          `json:"category,omitempty"`
	Details   *string          `json:"details,omitempty"`
	Frequency *Frequency       `json:"frequency,omitempty"`
	Active    *bool            `json:"active,omitempty"`
}
