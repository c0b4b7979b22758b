package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcTask struct {
	name string
	fn   func(ctx context.Context) error
}

func (t funcTask) Name() string                      { return t.name }
func (t funcTask) Execute(ctx context.Context) error { return t.fn(ctx) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcherRunsTask(t *testing.T) {
	d := NewDispatcher(testLogger(), 1, 4)
	defer d.Stop()

	done := make(chan struct{})
	err := d.Enqueue(funcTask{name: "t", fn: func(context.Context) error {
		close(done)
		return nil
	}})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestDispatcherDropsWhenBacklogFull(t *testing.T) {
	d := NewDispatcher(testLogger(), 1, 1)
	defer d.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	blocking := funcTask{name: "blocker", fn: func(ctx context.Context) error {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}}

	// Occupy the single worker, then fill the backlog.
	require.NoError(t, d.Enqueue(blocking))
	<-started
	require.NoError(t, d.Enqueue(funcTask{name: "queued", fn: func(context.Context) error { return nil }}))

	err := d.Enqueue(funcTask{name: "dropped", fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
}

func TestDispatcherRecoversFromPanic(t *testing.T) {
	d := NewDispatcher(testLogger(), 1, 4)
	defer d.Stop()

	ran := make(chan struct{})
	require.NoError(t, d.Enqueue(funcTask{name: "panics", fn: func(context.Context) error {
		panic("boom")
	}}))
	require.NoError(t, d.Enqueue(funcTask{name: "after", fn: func(context.Context) error {
		close(ran)
		return nil
	}}))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}
}
