package pennywise

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	internalTypes "github.com/pennywise-app/pennywise-go/internal/types"
)

func TestNewStore(t *testing.T) {
	store, err := NewStore("user-123", nil)
	require.NoError(t, err)

	assert.Equal(t, "user-123", store.UserID())
	assert.NotNil(t, store.Transactions)
	assert.NotNil(t, store.FundSources)
	assert.NotNil(t, store.CreditCards)
	assert.NotNil(t, store.Loans)
	assert.NotNil(t, store.Debts)
	assert.NotNil(t, store.Budgets)
	assert.NotNil(t, store.Investments)
	assert.NotNil(t, store.Recurring)
	assert.NotNil(t, store.Analytics)
}

func TestNewStore_RequiresUserID(t *testing.T) {
	_, err := NewStore("", nil)
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "INVALID_USER", perr.Code)
}

func TestStore_MutationsFailuresDoNotBlock(t *testing.T) {
	// A mirror that always fails must never stop ledger mutations
	pusher := new(MockPusher)
	pusher.On("Push", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("mirror down"))

	store := newMirroredStore(t, pusher)
	ctx := context.Background()

	fs := seedFundSource(t, store, "100")
	_, err := store.Transactions.Create(ctx, &CreateTransactionParams{
		Type: TransactionExpense, Amount: dec("40"), Date: DateOf(testNow),
		Category: "misc", FundSourceID: fs.ID,
	})
	require.NoError(t, err)

	// In-memory state is correct even though the flush fails
	assert.Error(t, store.Flush(ctx))

	got, err := store.FundSources.Get(ctx, fs.ID)
	require.NoError(t, err)
	assert.True(t, dec("60").Equal(got.CurrentBalance))

	// Everything stays queued for the next attempt
	assert.NotZero(t, store.Pending())
}

func TestStore_FlushDrainsOutbox(t *testing.T) {
	pusher := new(MockPusher)
	pusher.On("Push", mock.Anything, "user-123", mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	store := newMirroredStore(t, pusher)
	ctx := context.Background()

	fs := seedFundSource(t, store, "100")
	_, err := store.Transactions.Create(ctx, &CreateTransactionParams{
		Type: TransactionExpense, Amount: dec("10"), Date: DateOf(testNow),
		Category: "misc", FundSourceID: fs.ID,
	})
	require.NoError(t, err)

	assert.NotZero(t, store.Pending())
	require.NoError(t, store.Flush(ctx))
	assert.Zero(t, store.Pending())

	pusher.AssertCalled(t, "Push", mock.Anything, "user-123", CollectionFundSources, mock.Anything, mock.Anything)
	pusher.AssertCalled(t, "Push", mock.Anything, "user-123", CollectionTransactions, mock.Anything, mock.Anything)
}

func TestStore_DeleteReachesMirrorAsTombstone(t *testing.T) {
	var deletedIDs []string
	pusher := new(MockPusher)
	pusher.On("Push", mock.Anything, mock.Anything, CollectionTransactions, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			deletedIDs = args.Get(4).([]string)
		}).
		Return(nil)
	pusher.On("Push", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	store := newMirroredStore(t, pusher)
	ctx := context.Background()

	fs := seedFundSource(t, store, "100")
	tx, err := store.Transactions.Create(ctx, &CreateTransactionParams{
		Type: TransactionExpense, Amount: dec("10"), Date: DateOf(testNow),
		Category: "misc", FundSourceID: fs.ID,
	})
	require.NoError(t, err)
	require.NoError(t, store.Transactions.Delete(ctx, tx.ID))

	require.NoError(t, store.Flush(ctx))
	assert.Equal(t, []string{tx.ID}, deletedIDs)
}

func TestStore_NoMirrorMeansNothingPending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fs := seedFundSource(t, store, "100")
	_, err := store.Transactions.Create(ctx, &CreateTransactionParams{
		Type: TransactionExpense, Amount: dec("10"), Date: DateOf(testNow),
		Category: "misc", FundSourceID: fs.ID,
	})
	require.NoError(t, err)

	assert.Zero(t, store.Pending())
	assert.NoError(t, store.Flush(ctx))
}

func TestStore_Hooks(t *testing.T) {
	var mutations []string
	var flushes int

	pusher := new(MockPusher)
	pusher.On("Push", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	store, err := NewStore("user-123", &StoreOptions{
		Mirror: pusher,
		Now:    func() time.Time { return testNow },
		Hooks: &internalTypes.Hooks{
			OnMutation: func(ctx context.Context, op, collection, recordID string) {
				mutations = append(mutations, op+":"+collection)
			},
			OnFlush: func(ctx context.Context, pending int, duration time.Duration) {
				flushes++
			},
		},
	})
	require.NoError(t, err)

	ctx := context.Background()
	fs := seedFundSource(t, store, "100")
	_, err = store.Transactions.Create(ctx, &CreateTransactionParams{
		Type: TransactionExpense, Amount: dec("10"), Date: DateOf(testNow),
		Category: "misc", FundSourceID: fs.ID,
	})
	require.NoError(t, err)
	require.NoError(t, store.Flush(ctx))

	assert.Equal(t, []string{"create:fundSources", "create:transactions"}, mutations)
	assert.Equal(t, 1, flushes)
}

func TestStore_FlushAsync(t *testing.T) {
	pusher := new(MockPusher)
	pusher.On("Push", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	store := newMirroredStore(t, pusher)
	seedFundSource(t, store, "100")

	job := store.FlushAsync()
	assert.Equal(t, FlushStatusPending, job.Status())

	err := job.Wait(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, FlushStatusCompleted, job.Status())
	assert.Zero(t, store.Pending())

	metrics := job.Metrics()
	assert.Equal(t, job.ID(), metrics.ID)
	assert.Equal(t, 1, metrics.AttemptCount)
}

func TestStore_FlushAsync_Timeout(t *testing.T) {
	pusher := new(MockPusher)
	pusher.On("Push", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("mirror down"))

	store := newMirroredStore(t, pusher)
	seedFundSource(t, store, "100")

	job := store.FlushAsync()
	err := job.Wait(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrFlushTimeout)
	assert.Equal(t, FlushStatusTimeout, job.Status())
	assert.Error(t, job.Metrics().LastError)
}

func TestStore_FlushAsync_CancelWhileWaiting(t *testing.T) {
	pusher := new(MockPusher)
	pusher.On("Push", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("mirror down"))

	store := newMirroredStore(t, pusher)
	seedFundSource(t, store, "100")

	job := store.FlushAsync()
	done := make(chan error, 1)
	go func() {
		done <- job.Wait(context.Background(), time.Minute)
	}()

	// Cancel from another goroutine while Wait is between retries
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, job.Cancel(context.Background()))

	err := <-done
	require.Error(t, err)
	assert.Equal(t, FlushStatusCancelled, job.Status())
}

func TestFlushJobManager(t *testing.T) {
	manager := NewFlushJobManager()
	store := newTestStore(t)

	job := newFlushJob(store)
	manager.AddJob(job)

	got, ok := manager.GetJob(job.ID())
	require.True(t, ok)
	assert.Equal(t, job.ID(), got.ID())

	assert.Len(t, manager.ListJobs(), 1)

	// Pending jobs are never cleaned up
	assert.Zero(t, manager.CleanupCompleted(0))

	require.NoError(t, job.Cancel(context.Background()))
	assert.Equal(t, 1, manager.CleanupCompleted(0))
	assert.Empty(t, manager.ListJobs())
}
