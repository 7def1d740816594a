package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHTTP struct {
	started, stopped bool
	errCh            chan error
}

func (f *fakeHTTP) Start() error                   { f.started = true; return nil }
func (f *fakeHTTP) Errors() <-chan error           { return f.errCh }
func (f *fakeHTTP) Stop(ctx context.Context) error { f.stopped = true; return nil }
func (f *fakeHTTP) Addr() string                   { return "127.0.0.1:0" }

type fakeWorker struct {
	startErr         error
	started, stopped bool
}

func (w *fakeWorker) Start() error                   { w.started = true; return w.startErr }
func (w *fakeWorker) Stop(ctx context.Context) error { w.stopped = true; return nil }

func TestRunContextStopsOnCancel(t *testing.T) {
	h := &fakeHTTP{errCh: make(chan error, 1)}
	w := &fakeWorker{}
	app := New(nil, h, func() bool { return false })
	app.SetConsumer(w)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunContext(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("app did not stop")
	}
	assert.True(t, h.started)
	assert.True(t, h.stopped)
	assert.True(t, w.started)
	assert.True(t, w.stopped)
}

func TestRunContextReturnsListenerError(t *testing.T) {
	h := &fakeHTTP{errCh: make(chan error, 1)}
	h.errCh <- errors.New("address in use")

	err := New(nil, h, nil).RunContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address in use")
	assert.True(t, h.stopped)
}

func TestRunContextConsumerStartFailure(t *testing.T) {
	h := &fakeHTTP{errCh: make(chan error)}
	app := New(nil, h, nil)
	app.SetConsumer(&fakeWorker{startErr: errors.New("no handlers")})

	require.Error(t, app.RunContext(context.Background()))
	assert.False(t, h.started)
}
