package pennywise

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Interval buckets a cashflow summary
type Interval string

const (
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// Cashflow aggregates money in and out over a window
type Cashflow struct {
	Start    time.Time       `json:"start"`
	End      time.Time       `json:"end"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// CashflowBucket is one interval of a cashflow summary
type CashflowBucket struct {
	Start    time.Time       `json:"start"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// CashflowSummary is cashflow bucketed by interval
type CashflowSummary struct {
	Interval Interval          `json:"interval"`
	Buckets  []*CashflowBucket `json:"buckets"`
	Totals   *Cashflow         `json:"totals"`
}

// CategorySpending is the expense total for one category
type CategorySpending struct {
	Category   string          `json:"category"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
	Percentage decimal.Decimal `json:"percentage"`
}

// NetWorth is the asset/liability snapshot at an instant
type NetWorth struct {
	AsOf             time.Time       `json:"asOf"`
	FundSources      decimal.Decimal `json:"fundSources"`
	Investments      decimal.Decimal `json:"investments"`
	CreditCardDebt   decimal.Decimal `json:"creditCardDebt"`
	LoanDebt         decimal.Decimal `json:"loanDebt"`
	OtherDebt        decimal.Decimal `json:"otherDebt"`
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	Net              decimal.Decimal `json:"net"`
}

// PayoffProjection estimates how long a liability takes to clear at a
// fixed monthly payment
type PayoffProjection struct {
	AccountID      string          `json:"accountId"`
	Balance        decimal.Decimal `json:"balance"`
	APR            decimal.Decimal `json:"apr"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	Months         int             `json:"months"`
	TotalInterest  decimal.Decimal `json:"totalInterest"`
	PayoffDate     Date            `json:"payoffDate"`
}

// PortfolioSlice is one investment kind's share of the portfolio
type PortfolioSlice struct {
	Kind       InvestmentKind  `json:"kind"`
	Value      decimal.Decimal `json:"value"`
	Invested   decimal.Decimal `json:"invested"`
	Count      int             `json:"count"`
	Percentage decimal.Decimal `json:"percentage"`
}


// analyticsService implements the AnalyticsService interface. Every
// view is derived from the registry on read; nothing here is stored.
type analyticsService struct {
	store *Store
}

// Cashflow aggregates income and expenses over a date range
func (s *analyticsService) Cashflow(ctx context.Context, start, end time.Time) (*Cashflow, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	return s.cashflowLocked(start, end), nil
}

func (s *analyticsService) cashflowLocked(start, end time.Time) *Cashflow {
	flow := &Cashflow{
		Start:    start,
		End:      end,
		Income:   decimal.Zero,
		Expenses: decimal.Zero,
	}

	for _, tx := range s.store.registry.Transactions.List() {
		d := tx.Date.Time
		if d.Before(start) || d.After(end) {
			continue
		}
		switch tx.Type {
		case TransactionIncome:
			flow.Income = flow.Income.Add(tx.Amount)
		case TransactionExpense:
			flow.Expenses = flow.Expenses.Add(tx.Amount)
		}
	}

	flow.Net = flow.Income.Sub(flow.Expenses)
	return flow
}

// bucketStart truncates t to the start of its interval bucket
func bucketStart(t time.Time, interval Interval) time.Time {
	switch interval {
	case IntervalDaily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case IntervalWeekly:
		// Weeks start on Monday
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case IntervalMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case IntervalYearly:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	}
	return t
}

// CashflowSummary buckets cashflow by interval
func (s *analyticsService) CashflowSummary(ctx context.Context, start, end time.Time, interval Interval) (*CashflowSummary, error) {
	switch interval {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
	default:
		return nil, NewError("INVALID_INTERVAL", "unknown summary interval: "+string(interval))
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	byBucket := make(map[time.Time]*CashflowBucket)
	for _, tx := range s.store.registry.Transactions.List() {
		d := tx.Date.Time
		if d.Before(start) || d.After(end) {
			continue
		}
		if tx.Type != TransactionIncome && tx.Type != TransactionExpense {
			continue
		}

		key := bucketStart(d, interval)
		bucket, ok := byBucket[key]
		if !ok {
			bucket = &CashflowBucket{
				Start:    key,
				Income:   decimal.Zero,
				Expenses: decimal.Zero,
			}
			byBucket[key] = bucket
		}

		if tx.Type == TransactionIncome {
			bucket.Income = bucket.Income.Add(tx.Amount)
		} else {
			bucket.Expenses = bucket.Expenses.Add(tx.Amount)
		}
	}

	buckets := make([]*CashflowBucket, 0, len(byBucket))
	for _, bucket := range byBucket {
		bucket.Net = bucket.Income.Sub(bucket.Expenses)
		buckets = append(buckets, bucket)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Start.Before(buckets[j].Start)
	})

	return &CashflowSummary{
		Interval: interval,
		Buckets:  buckets,
		Totals:   s.cashflowLocked(start, end),
	}, nil
}

// SpendingHabits breaks down expenses by category over a window,
// largest first
func (s *analyticsService) SpendingHabits(ctx context.Context, start, end time.Time) ([]*CategorySpending, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	byCategory := make(map[string]*CategorySpending)
	total := decimal.Zero

	for _, tx := range s.store.registry.Transactions.List() {
		if tx.Type != TransactionExpense {
			continue
		}
		d := tx.Date.Time
		if d.Before(start) || d.After(end) {
			continue
		}

		cs, ok := byCategory[tx.Category]
		if !ok {
			cs = &CategorySpending{Category: tx.Category, Total: decimal.Zero}
			byCategory[tx.Category] = cs
		}
		cs.Total = cs.Total.Add(tx.Amount)
		cs.Count++
		total = total.Add(tx.Amount)
	}

	habits := make([]*CategorySpending, 0, len(byCategory))
	for _, cs := range byCategory {
		if total.IsPositive() {
			cs.Percentage = cs.Total.Div(total).Mul(hundred).Round(2)
		}
		habits = append(habits, cs)
	}
	sort.Slice(habits, func(i, j int) bool {
		if !habits[i].Total.Equal(habits[j].Total) {
			return habits[i].Total.GreaterThan(habits[j].Total)
		}
		return habits[i].Category < habits[j].Category
	})

	return habits, nil
}

// SavingsRate returns (income-expenses)/income over a window. Zero
// income yields a zero rate rather than a division error.
func (s *analyticsService) SavingsRate(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	s.store.mu.Lock()
	flow := s.cashflowLocked(start, end)
	s.store.mu.Unlock()

	if !flow.Income.IsPositive() {
		return decimal.Zero, nil
	}
	return flow.Net.Div(flow.Income).Round(4), nil
}

// NetWorth sums assets minus liabilities at the current instant
func (s *analyticsService) NetWorth(ctx context.Context) (*NetWorth, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	nw := &NetWorth{
		AsOf:           s.store.now(),
		FundSources:    decimal.Zero,
		Investments:    decimal.Zero,
		CreditCardDebt: decimal.Zero,
		LoanDebt:       decimal.Zero,
		OtherDebt:      decimal.Zero,
	}

	for _, fs := range s.store.registry.FundSources.List() {
		nw.FundSources = nw.FundSources.Add(fs.CurrentBalance)
	}
	for _, inv := range s.store.registry.Investments.List() {
		nw.Investments = nw.Investments.Add(inv.CurrentValue)
	}
	for _, cc := range s.store.registry.CreditCards.List() {
		nw.CreditCardDebt = nw.CreditCardDebt.Add(cc.CurrentBalance)
	}
	for _, loan := range s.store.registry.Loans.List() {
		nw.LoanDebt = nw.LoanDebt.Add(loan.Balance)
	}
	for _, debt := range s.store.registry.Debts.List() {
		nw.OtherDebt = nw.OtherDebt.Add(debt.Balance)
	}

	nw.TotalAssets = nw.FundSources.Add(nw.Investments)
	nw.TotalLiabilities = nw.CreditCardDebt.Add(nw.LoanDebt).Add(nw.OtherDebt)
	nw.Net = nw.TotalAssets.Sub(nw.TotalLiabilities)
	return nw, nil
}

// CreditCardPayoff projects months to pay off a card at its minimum
// payment
func (s *analyticsService) CreditCardPayoff(ctx context.Context, creditCardID string) (*PayoffProjection, error) {
	s.store.mu.Lock()
	card, ok := s.store.registry.CreditCards.FindByID(creditCardID)
	if !ok {
		s.store.mu.Unlock()
		return nil, ErrNotFound
	}
	balance := card.CurrentBalance
	apr := card.APR
	payment := card.MinimumPayment
	s.store.mu.Unlock()

	return s.projectPayoff(creditCardID, balance, apr, payment)
}

// LoanPayoff projects months to pay off a loan at its monthly payment
func (s *analyticsService) LoanPayoff(ctx context.Context, loanID string) (*PayoffProjection, error) {
	s.store.mu.Lock()
	loan, ok := s.store.registry.Loans.FindByID(loanID)
	if !ok {
		s.store.mu.Unlock()
		return nil, ErrNotFound
	}
	balance := loan.Balance
	apr := loan.APR
	payment := loan.MonthlyPayment
	s.store.mu.Unlock()

	return s.projectPayoff(loanID, balance, apr, payment)
}

// projectPayoff runs the amortization schedule month by month
func (s *analyticsService) projectPayoff(accountID string, balance, apr, payment decimal.Decimal) (*PayoffProjection, error) {
	proj := &PayoffProjection{
		AccountID:      accountID,
		Balance:        balance,
		APR:            apr,
		MonthlyPayment: payment,
		TotalInterest:  decimal.Zero,
	}

	if !balance.IsPositive() {
		proj.PayoffDate = DateOf(s.store.now())
		return proj, nil
	}
	if !payment.IsPositive() {
		return nil, NewError("NO_PAYMENT", "account has no monthly payment configured")
	}

	monthlyRate := apr.Div(hundred).Div(decimal.NewFromInt(12))

	// The first month's interest tells us whether the payment makes any
	// headway at all
	if payment.LessThanOrEqual(balance.Mul(monthlyRate)) {
		return nil, NewError("PAYMENT_TOO_SMALL", "monthly payment does not cover interest; balance will never amortize")
	}

	remaining := balance
	for remaining.IsPositive() {
		interest := remaining.Mul(monthlyRate).Round(2)
		proj.TotalInterest = proj.TotalInterest.Add(interest)
		remaining = remaining.Add(interest).Sub(payment)
		proj.Months++
	}

	proj.PayoffDate = DateOf(s.store.now().AddDate(0, proj.Months, 0))
	return proj, nil
}

// PortfolioDistribution returns investment value share by kind
func (s *analyticsService) PortfolioDistribution(ctx context.Context) ([]*PortfolioSlice, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	byKind := make(map[InvestmentKind]*PortfolioSlice)
	total := decimal.Zero

	for _, inv := range s.store.registry.Investments.List() {
		slice, ok := byKind[inv.Kind]
		if !ok {
			slice = &PortfolioSlice{
				Kind:     inv.Kind,
				Value:    decimal.Zero,
				Invested: decimal.Zero,
			}
			byKind[inv.Kind] = slice
		}
		slice.Value = slice.Value.Add(inv.CurrentValue)
		slice.Invested = slice.Invested.Add(inv.Amount)
		slice.Count++
		total = total.Add(inv.CurrentValue)
	}

	slices := make([]*PortfolioSlice, 0, len(byKind))
	for _, slice := range byKind {
		if total.IsPositive() {
			slice.Percentage = slice.Value.Div(total).Mul(hundred).Round(2)
		}
		slices = append(slices, slice)
	}
	sort.Slice(slices, func(i, j int) bool {
		if !slices[i].Value.Equal(slices[j].Value) {
			return slices[i].Value.GreaterThan(slices[j].Value)
		}
		return slices[i].Kind < slices[j].Kind
	})

	return slices, nil
}
