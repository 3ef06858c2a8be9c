package pennywise

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLedger(t *testing.T, store *Store) *FundSource {
	t.Helper()
	ctx := context.Background()

	fs := seedFundSource(t, store, "0")

	seed := []struct {
		txType   TransactionType
		amount   string
		date     Date
		category string
	}{
		{TransactionIncome, "3000", NewDate(2024, 1, 5), "salary"},
		{TransactionExpense, "1200", NewDate(2024, 1, 10), "rent"},
		{TransactionExpense, "300", NewDate(2024, 1, 15), "groceries"},
		{TransactionIncome, "3000", NewDate(2024, 2, 5), "salary"},
		{TransactionExpense, "1200", NewDate(2024, 2, 10), "rent"},
		{TransactionExpense, "500", NewDate(2024, 2, 12), "groceries"},
	}
	for _, s := range seed {
		_, err := store.Transactions.Create(ctx, &CreateTransactionParams{
			Type:         s.txType,
			Amount:       dec(s.amount),
			Date:         s.date,
			Category:     s.category,
			FundSourceID: fs.ID,
		})
		require.NoError(t, err)
	}
	return fs
}

func TestAnalyticsService_Cashflow(t *testing.T) {
	store := newTestStore(t)
	seedLedger(t, store)

	flow, err := store.Analytics.Cashflow(context.Background(),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, dec("6000").Equal(flow.Income), "income: %s", flow.Income)
	assert.True(t, dec("3200").Equal(flow.Expenses), "expenses: %s", flow.Expenses)
	assert.True(t, dec("2800").Equal(flow.Net), "net: %s", flow.Net)
}

func TestAnalyticsService_CashflowSummary_Monthly(t *testing.T) {
	store := newTestStore(t)
	seedLedger(t, store)

	summary, err := store.Analytics.CashflowSummary(context.Background(),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		IntervalMonthly)
	require.NoError(t, err)

	require.Len(t, summary.Buckets, 2)
	jan, feb := summary.Buckets[0], summary.Buckets[1]

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), jan.Start)
	assert.True(t, dec("1500").Equal(jan.Net), "january net: %s", jan.Net)

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), feb.Start)
	assert.True(t, dec("1300").Equal(feb.Net), "february net: %s", feb.Net)

	assert.True(t, dec("2800").Equal(summary.Totals.Net))
}

func TestAnalyticsService_CashflowSummary_InvalidInterval(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Analytics.CashflowSummary(context.Background(),
		time.Time{}, testNow, Interval("quarterly"))
	assert.Error(t, err)
}

func TestAnalyticsService_SpendingHabits(t *testing.T) {
	store := newTestStore(t)
	seedLedger(t, store)

	habits, err := store.Analytics.SpendingHabits(context.Background(),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, habits, 2)

	// Largest category first
	assert.Equal(t, "rent", habits[0].Category)
	assert.True(t, dec("2400").Equal(habits[0].Total))
	assert.Equal(t, 2, habits[0].Count)
	assert.True(t, dec("75").Equal(habits[0].Percentage), "rent share: %s", habits[0].Percentage)

	assert.Equal(t, "groceries", habits[1].Category)
	assert.True(t, dec("800").Equal(habits[1].Total))
	assert.True(t, dec("25").Equal(habits[1].Percentage))
}

func TestAnalyticsService_SavingsRate(t *testing.T) {
	store := newTestStore(t)
	seedLedger(t, store)
	ctx := context.Background()

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	// February: income 3000, expenses 1700
	rate, err := store.Analytics.SavingsRate(ctx, start, end)
	require.NoError(t, err)
	assert.True(t, dec("0.4333").Equal(rate), "rate: %s", rate)
}

func TestAnalyticsService_SavingsRate_ZeroIncome(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fs := seedFundSource(t, store, "100")
	_, err := store.Transactions.Create(ctx, &CreateTransactionParams{
		Type:         TransactionExpense,
		Amount:       dec("50"),
		Date:         DateOf(testNow),
		Category:     "misc",
		FundSourceID: fs.ID,
	})
	require.NoError(t, err)

	rate, err := store.Analytics.SavingsRate(ctx, testNow.AddDate(0, -1, 0), testNow)
	require.NoError(t, err)
	assert.True(t, rate.IsZero(), "zero income yields zero rate, got %s", rate)
}

func TestAnalyticsService_NetWorth(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedFundSource(t, store, "5000")
	seedCreditCard(t, store, "1500")

	_, err := store.Loans.Create(ctx, &CreateLoanParams{
		Name: "Car", Balance: dec("8000"), APR: dec("6"), MonthlyPayment: dec("300"),
	})
	require.NoError(t, err)

	_, err = store.Debts.Create(ctx, &CreateDebtParams{
		Name: "IOU", Balance: dec("500"),
	})
	require.NoError(t, err)

	_, err = store.Investments.Create(ctx, &CreateInvestmentParams{
		Name: "Index fund", Kind: InvestmentFunds, Amount: dec("2000"), CurrentValue: dec("2600"),
	})
	require.NoError(t, err)

	nw, err := store.Analytics.NetWorth(ctx)
	require.NoError(t, err)

	assert.True(t, dec("7600").Equal(nw.TotalAssets), "assets: %s", nw.TotalAssets)
	assert.True(t, dec("10000").Equal(nw.TotalLiabilities), "liabilities: %s", nw.TotalLiabilities)
	assert.True(t, dec("-2400").Equal(nw.Net), "net: %s", nw.Net)
	assert.Equal(t, testNow, nw.AsOf)
}

func TestAnalyticsService_CreditCardPayoff(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cc, err := store.CreditCards.Create(ctx, &CreateCreditCardParams{
		Name:           "Visa",
		CurrentBalance: dec("1000"),
		Limit:          dec("5000"),
		APR:            dec("0"),
		MinimumPayment: dec("100"),
	})
	require.NoError(t, err)

	proj, err := store.Analytics.CreditCardPayoff(ctx, cc.ID)
	require.NoError(t, err)

	// No interest: 1000 / 100 = 10 flat months
	assert.Equal(t, 10, proj.Months)
	assert.True(t, proj.TotalInterest.IsZero())
	assert.Equal(t, DateOf(testNow.AddDate(0, 10, 0)), proj.PayoffDate)
}

func TestAnalyticsService_CreditCardPayoff_InterestAccrues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cc, err := store.CreditCards.Create(ctx, &CreateCreditCardParams{
		Name:           "Visa",
		CurrentBalance: dec("1000"),
		Limit:          dec("5000"),
		APR:            dec("24"),
		MinimumPayment: dec("100"),
	})
	require.NoError(t, err)

	proj, err := store.Analytics.CreditCardPayoff(ctx, cc.ID)
	require.NoError(t, err)

	// 2% monthly interest stretches the schedule past the flat 10
	assert.Greater(t, proj.Months, 10)
	assert.True(t, proj.TotalInterest.IsPositive())
}

func TestAnalyticsService_Payoff_PaymentTooSmall(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cc, err := store.CreditCards.Create(ctx, &CreateCreditCardParams{
		Name:           "Visa",
		CurrentBalance: dec("10000"),
		Limit:          dec("20000"),
		APR:            dec("30"),
		MinimumPayment: dec("100"), // monthly interest is 250
	})
	require.NoError(t, err)

	_, err = store.Analytics.CreditCardPayoff(ctx, cc.ID)
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "PAYMENT_TOO_SMALL", perr.Code)
}

func TestAnalyticsService_LoanPayoff(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	loan, err := store.Loans.Create(ctx, &CreateLoanParams{
		Name:           "Car",
		Balance:        dec("5000"),
		APR:            dec("0"),
		MonthlyPayment: dec("500"),
	})
	require.NoError(t, err)

	proj, err := store.Analytics.LoanPayoff(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, proj.Months)
}

func TestAnalyticsService_LoanPayoff_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Analytics.LoanPayoff(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalyticsService_PortfolioDistribution(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Investments.Create(ctx, &CreateInvestmentParams{
		Name: "S&P 500", Kind: InvestmentFunds, Amount: dec("5000"), CurrentValue: dec("6000"),
	})
	require.NoError(t, err)
	_, err = store.Investments.Create(ctx, &CreateInvestmentParams{
		Name: "BTC", Kind: InvestmentCrypto, Amount: dec("1000"), CurrentValue: dec("2000"),
	})
	require.NoError(t, err)

	slices, err := store.Analytics.PortfolioDistribution(ctx)
	require.NoError(t, err)

	require.Len(t, slices, 2)
	assert.Equal(t, InvestmentFunds, slices[0].Kind)
	assert.True(t, dec("75").Equal(slices[0].Percentage), "funds share: %s", slices[0].Percentage)
	assert.Equal(t, InvestmentCrypto, slices[1].Kind)
	assert.True(t, dec("25").Equal(slices[1].Percentage))
}

func TestAnalyticsService_PortfolioDistribution_Empty(t *testing.T) {
	store := newTestStore(t)
	slices, err := store.Analytics.PortfolioDistribution(context.Background())
	require.NoError(t, err)
	assert.Empty(t, slices)
}
