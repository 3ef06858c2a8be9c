package outbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPusher is a mock implementation of the Pusher interface
type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) Push(ctx context.Context, userID, collection string, records []interface{}, deleted []string) error {
	args := m.Called(ctx, userID, collection, records, deleted)
	return args.Error(0)
}

func TestOutbox_EnqueueDedupes(t *testing.T) {
	o := New("user-1")

	o.Enqueue("fundSources", "fs-1", map[string]string{"balance": "100"})
	o.Enqueue("fundSources", "fs-1", map[string]string{"balance": "150"})
	o.Enqueue("fundSources", "fs-2", map[string]string{"balance": "50"})

	assert.Equal(t, 2, o.Len())
}

func TestOutbox_DeleteSupersedesUpsert(t *testing.T) {
	o := New("user-1")
	o.Enqueue("transactions", "txn-1", "pending-upsert")
	o.EnqueueDelete("transactions", "txn-1")

	var gotRecords []interface{}
	var gotDeleted []string
	pusher := new(MockPusher)
	pusher.On("Push", mock.Anything, "user-1", "transactions", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			gotRecords, _ = args.Get(3).([]interface{})
			gotDeleted, _ = args.Get(4).([]string)
		}).
		Return(nil)

	require.NoError(t, o.Flush(context.Background(), pusher))
	assert.Empty(t, gotRecords)
	assert.Equal(t, []string{"txn-1"}, gotDeleted)
}

func TestOutbox_FlushClearsOnSuccess(t *testing.T) {
	o := New("user-1")
	o.Enqueue("fundSources", "fs-1", "a")
	o.Enqueue("creditCards", "cc-1", "b")

	pusher := new(MockPusher)
	pusher.On("Push", mock.Anything, "user-1", "creditCards", mock.Anything, mock.Anything).Return(nil)
	pusher.On("Push", mock.Anything, "user-1", "fundSources", mock.Anything, mock.Anything).Return(nil)

	err := o.Flush(context.Background(), pusher)
	require.NoError(t, err)
	assert.Equal(t, 0, o.Len())
	pusher.AssertExpectations(t)
}

func TestOutbox_FailedCollectionStaysQueued(t *testing.T) {
	o := New("user-1")
	o.Enqueue("fundSources", "fs-1", "a")
	o.Enqueue("loans", "loan-1", "b")

	pusher := new(MockPusher)
	pusher.On("Push", mock.Anything, "user-1", "fundSources", mock.Anything, mock.Anything).
		Return(assert.AnError)
	pusher.On("Push", mock.Anything, "user-1", "loans", mock.Anything, mock.Anything).Return(nil)

	err := o.Flush(context.Background(), pusher)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fundSources")

	// The failed collection is still pending, the successful one is not
	assert.Equal(t, 1, o.Len())

	// A second flush against a healthy mirror drains it
	pusher2 := new(MockPusher)
	pusher2.On("Push", mock.Anything, "user-1", "fundSources", mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, o.Flush(context.Background(), pusher2))
	assert.Equal(t, 0, o.Len())
}

func TestOutbox_LatestVersionWins(t *testing.T) {
	o := New("user-1")
	o.Enqueue("debts", "d-1", "stale")
	o.Enqueue("debts", "d-1", "fresh")

	var pushed []interface{}
	pusher := new(MockPusher)
	pusher.On("Push", mock.Anything, "user-1", "debts", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			pushed, _ = args.Get(3).([]interface{})
		}).
		Return(nil)

	require.NoError(t, o.Flush(context.Background(), pusher))
	require.Len(t, pushed, 1)
	assert.Equal(t, "fresh", pushed[0])
}
