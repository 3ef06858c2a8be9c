package pennywise

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPusher is a mock persistence mirror
type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) Push(ctx context.Context, userID, collection string, records []interface{}, deleted []string) error {
	args := m.Called(ctx, userID, collection, records, deleted)
	return args.Error(0)
}

// testNow is the fixed clock every test store runs on
var testNow = time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)

// newTestStore builds a store with a fixed clock and no mirror
func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore("user-123", &StoreOptions{
		Now: func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return store
}

// newMirroredStore builds a store wired to a mock mirror
func newMirroredStore(t *testing.T, pusher Pusher) *Store {
	t.Helper()

	store, err := NewStore("user-123", &StoreOptions{
		Mirror: pusher,
		Now:    func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seedFundSource creates a fund source with an opening balance
func seedFundSource(t *testing.T, store *Store, balance string) *FundSource {
	t.Helper()

	fs, err := store.FundSources.Create(context.Background(), &CreateFundSourceParams{
		Name:           "Checking",
		Kind:           FundSourceBank,
		CurrentBalance: dec(balance),
	})
	require.NoError(t, err)
	return fs
}

// seedCreditCard creates a card with an opening balance owed
func seedCreditCard(t *testing.T, store *Store, balance string) *CreditCard {
	t.Helper()

	cc, err := store.CreditCards.Create(context.Background(), &CreateCreditCardParams{
		Name:           "Visa",
		CurrentBalance: dec(balance),
		Limit:          dec("5000"),
		APR:            dec("24.99"),
		DueDate:        15,
		CutOffDate:     1,
		MinimumPayment: dec("50"),
	})
	require.NoError(t, err)
	return cc
}
