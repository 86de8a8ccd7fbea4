package routine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTaskValidation(t *testing.T) {
	m := NewManager(context.Background())

	assert.ErrorIs(t, m.RunTask(nil), ErrNilTask)
	assert.ErrorIs(t, m.RunTask(&Task{Handler: func(context.Context) error { return nil }}), ErrEmptyID)
	assert.ErrorIs(t, m.RunTask(&Task{ID: "x"}), ErrTaskHandlerUnset)
	assert.ErrorIs(t, m.Run("x", nil), ErrNilHandler)
}

func TestDuplicateIDRejected(t *testing.T) {
	m := NewManager(context.Background())

	block := make(chan struct{})
	handler := func(ctx context.Context) error {
		<-block
		return nil
	}

	require.NoError(t, m.Run("poller", handler))
	assert.ErrorIs(t, m.Run("poller", handler), ErrRoutineExists)

	close(block)
	require.NoError(t, m.Shutdown("poller"))
}

func TestShutdownAllStopsEveryTask(t *testing.T) {
	m := NewManager(context.Background())

	var running atomic.Int32
	handler := func(ctx context.Context) error {
		running.Add(1)
		defer running.Add(-1)
		<-ctx.Done()
		return ctx.Err()
	}

	require.NoError(t, m.Run("a", handler))
	require.NoError(t, m.Run("b", handler))
	require.NoError(t, m.Run("c", handler))

	require.Eventually(t, func() bool { return running.Load() == 3 }, time.Second, 10*time.Millisecond)
	require.NoError(t, m.ShutdownAll())
	assert.Equal(t, int32(0), running.Load())
}

func TestShutdownUnknownID(t *testing.T) {
	m := NewManager(context.Background())
	assert.ErrorIs(t, m.Shutdown("ghost"), ErrRoutineNotFound)
	assert.ErrorIs(t, m.Shutdown(""), ErrEmptyID)
}

func TestLifecycleHooks(t *testing.T) {
	m := NewManager(context.Background())

	started := make(chan string, 1)
	done := make(chan string, 1)
	errs := make(chan error, 1)

	err := m.RunTask(&Task{
		ID:      "hooks",
		Handler: func(ctx context.Context) error { return context.DeadlineExceeded },
		OnStart: func(id string) { started <- id },
		OnDone:  func(id string) { done <- id },
		OnError: func(id string, err error) { errs <- err },
	})
	require.NoError(t, err)

	select {
	case id := <-started:
		assert.Equal(t, "hooks", id)
	case <-time.After(time.Second):
		t.Fatal("OnStart not called")
	}
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("OnError not called")
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnDone not called")
	}
}
