package registry

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchInvokesInRegistrationOrder(t *testing.T) {
	table := NewNotificationTable()
	var mu sync.Mutex
	var order []int

	for i := 0; i < 5; i++ {
		i := i
		table.Add("evt", func(ctx context.Context, params json.RawMessage) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}

	count, errs := table.Dispatch(context.Background(), "evt", nil)
	require.Empty(t, errs)
	assert.Equal(t, 5, count)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestRemovedHandlerNotInvokedForSubsequentDispatch(t *testing.T) {
	table := NewNotificationTable()
	var calls int32
	h := table.Add("evt", func(ctx context.Context, params json.RawMessage) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	table.Remove(context.Background(), h)
	count, _ := table.Dispatch(context.Background(), "evt", nil)

	assert.Equal(t, 0, count)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestRemoveWaitsForInFlightInvocationToFinish(t *testing.T) {
	table := NewNotificationTable()
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	h := table.Add("evt", func(ctx context.Context, params json.RawMessage) error {
		close(started)
		<-release
		finished.Store(true)
		return nil
	})

	go table.Dispatch(context.Background(), "evt", nil)
	<-started

	removeDone := make(chan struct{})
	go func() {
		table.Remove(context.Background(), h)
		close(removeDone)
	}()

	select {
	case <-removeDone:
		t.Fatal("Remove returned before the in-flight invocation finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-removeDone:
	case <-time.After(time.Second):
		t.Fatal("Remove never returned after invocation finished")
	}
	assert.True(t, finished.Load())
}

func TestReentrantRemoveDoesNotDeadlock(t *testing.T) {
	table := NewNotificationTable()
	var h Handle
	done := make(chan struct{})

	h = table.Add("evt", func(ctx context.Context, params json.RawMessage) error {
		// A handler removing itself, from inside its own invocation, must
		// not block forever waiting on its own completion.
		ok := table.Remove(ctx, h)
		assert.True(t, ok)
		close(done)
		return nil
	})

	go table.Dispatch(context.Background(), "evt", nil)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reentrant Remove deadlocked")
	}
}

func TestHandlerAddedDuringDispatchNotObservedForThatDispatch(t *testing.T) {
	table := NewNotificationTable()
	var secondCalled atomic.Bool

	table.Add("evt", func(ctx context.Context, params json.RawMessage) error {
		table.Add("evt", func(ctx context.Context, params json.RawMessage) error {
			secondCalled.Store(true)
			return nil
		})
		return nil
	})

	count, _ := table.Dispatch(context.Background(), "evt", nil)
	assert.Equal(t, 1, count)
	assert.False(t, secondCalled.Load())

	count2, _ := table.Dispatch(context.Background(), "evt", nil)
	assert.Equal(t, 2, count2)
}

func TestRequestTableLastRegistrationWins(t *testing.T) {
	table := NewRequestTable()
	table.Register("ping", func(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`"first"`), nil
	})
	table.Register("ping", func(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`"second"`), nil
	})

	h, ok := table.Lookup("ping")
	require.True(t, ok)
	result, err := h(context.Background(), nil)
	require.NoError(t, err)
	assert.JSONEq(t, `"second"`, string(result))
}
