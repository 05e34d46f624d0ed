package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, size int) *Queue {
	logger, _ := test.NewNullLogger()
	q := New(size, logger)
	t.Cleanup(func() { _ = q.Close(context.Background()) })
	return q
}

func TestQueue_RunsJobsInSubmitOrder(t *testing.T) {
	q := newTestQueue(t, 16)

	var order []int
	for i := 0; i < 10; i++ {
		n := i
		require.NoError(t, q.Post("append", func(context.Context) error {
			order = append(order, n) // only the worker touches order
			return nil
		}))
	}
	// A Submit queued behind the posts returns after all of them ran
	require.NoError(t, q.Submit(context.Background(), "barrier", func(context.Context) error { return nil }))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestQueue_NeverRunsTwoJobsAtOnce(t *testing.T) {
	q := newTestQueue(t, 64)
	ctx := context.Background()

	var mu sync.Mutex
	running, maxRunning := 0, 0
	counter := 0 // read-modify-write without its own lock, like a cached balance

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Submit(ctx, "incr", func(context.Context) error {
				mu.Lock()
				running++
				if running > maxRunning {
					maxRunning = running
				}
				mu.Unlock()

				v := counter
				time.Sleep(100 * time.Microsecond)
				counter = v + 1

				mu.Lock()
				running--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxRunning)
	assert.Equal(t, 50, counter)
}

func TestQueue_SubmitReturnsJobError(t *testing.T) {
	q := newTestQueue(t, 1)
	boom := errors.New("boom")
	err := q.Submit(context.Background(), "fail", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestQueue_SkipsJobWhoseCallerIsGone(t *testing.T) {
	q := newTestQueue(t, 4)

	// Block the worker so the second job waits in the buffer
	release := make(chan struct{})
	go func() {
		_ = q.Submit(context.Background(), "blocker", func(context.Context) error {
			<-release
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	errCh := make(chan error, 1)
	go func() {
		errCh <- q.Submit(ctx, "late", func(context.Context) error {
			ran = true
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	close(release)

	err := <-errCh
	assert.ErrorIs(t, err, ErrCanceled)
	assert.False(t, ran, "a job whose caller left before it started must not run")
}

func TestQueue_StartedJobIgnoresCallerCancellation(t *testing.T) {
	q := newTestQueue(t, 1)
	ctx, cancel := context.WithCancel(context.Background())

	err := q.Submit(ctx, "long", func(jobCtx context.Context) error {
		cancel()
		time.Sleep(5 * time.Millisecond)
		return jobCtx.Err() // detached: still nil
	})
	assert.NoError(t, err)
}

func TestQueue_PostRunsInBackground(t *testing.T) {
	q := newTestQueue(t, 2)
	done := make(chan struct{})
	require.NoError(t, q.Post("bg", func(context.Context) error {
		close(done)
		return nil
	}))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("posted job did not run")
	}
}

func TestQueue_PostErrorIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	q := New(1, logger)

	require.NoError(t, q.Post("bg", func(context.Context) error { return errors.New("disk full") }))
	require.NoError(t, q.Close(context.Background()))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "bg", entry.Data["job"])
}

func TestQueue_RecoversFromPanic(t *testing.T) {
	q := newTestQueue(t, 1)
	err := q.Submit(context.Background(), "panic", func(context.Context) error { panic("oops") })
	assert.Error(t, err)

	// Worker is still alive
	assert.NoError(t, q.Submit(context.Background(), "after", func(context.Context) error { return nil }))
}

func TestQueue_CloseDrainsAndRejects(t *testing.T) {
	logger, _ := test.NewNullLogger()
	q := New(8, logger)

	var mu sync.Mutex
	count := 0
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Post("bg", func(context.Context) error {
			mu.Lock()
			count++
			mu.Unlock()
			return nil
		}))
	}
	require.NoError(t, q.Close(context.Background()))
	assert.Equal(t, 5, count)

	err := q.Submit(context.Background(), "after-close", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, q.Post("after-close", func(context.Context) error { return nil }), ErrClosed)
}

func TestQueue_CloseRunsPostsWaitingForBufferSpace(t *testing.T) {
	logger, _ := test.NewNullLogger()
	q := New(1, logger)

	// Hold the worker so later posts overflow the buffer
	started, release := make(chan struct{}), make(chan struct{})
	require.NoError(t, q.Post("hold", func(context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	var mu sync.Mutex
	count := 0
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Post("reconcile", func(context.Context) error {
			mu.Lock()
			count++
			mu.Unlock()
			return nil
		}))
	}

	closed := make(chan error, 1)
	go func() { closed <- q.Close(context.Background()) }()
	close(release)

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("queue did not close")
	}
	assert.Equal(t, 5, count)
}
