package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailboxes_RunsInOrder(t *testing.T) {
	m := NewMailboxes(4, time.Minute)
	defer m.Close()

	var (
		mu  sync.Mutex
		got []int
		wg  sync.WaitGroup
	)
	for i := range 10 {
		wg.Add(1)
		require.NoError(t, m.Submit(context.Background(), "a", func(ctx context.Context) {
			defer wg.Done()
			assert.True(t, InMailbox(ctx, "a"))
			assert.False(t, InMailbox(ctx, "b"))
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestMailboxes_IdleExit(t *testing.T) {
	m := NewMailboxes(1, 10*time.Millisecond)
	defer m.Close()

	done := make(chan struct{})
	require.NoError(t, m.Submit(context.Background(), "a", func(context.Context) { close(done) }))
	<-done
	assert.Equal(t, 1, m.Len())

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)

	// A new job after the exit starts a fresh mailbox.
	done = make(chan struct{})
	require.NoError(t, m.Submit(context.Background(), "a", func(context.Context) { close(done) }))
	<-done
}

func TestMailboxes_RecoversPanics(t *testing.T) {
	m := NewMailboxes(1, time.Minute)
	defer m.Close()

	require.NoError(t, m.Submit(context.Background(), "a", func(context.Context) { panic("boom") }))

	done := make(chan struct{})
	require.NoError(t, m.Submit(context.Background(), "a", func(context.Context) { close(done) }))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mailbox died with the panicking job")
	}
}

func TestMailboxes_Close(t *testing.T) {
	m := NewMailboxes(8, time.Minute)

	release := make(chan struct{})
	var ran sync.WaitGroup
	ran.Add(3)
	require.NoError(t, m.Submit(context.Background(), "a", func(context.Context) {
		<-release
		ran.Done()
	}))
	for range 2 {
		require.NoError(t, m.Submit(context.Background(), "a", func(context.Context) { ran.Done() }))
	}

	closed := make(chan struct{})
	go func() {
		m.Close()
		close(closed)
	}()
	close(release)
	<-closed
	ran.Wait()

	err := m.Submit(context.Background(), "a", func(context.Context) {})
	assert.ErrorIs(t, err, ErrMailboxesClosed)
}

func TestMailboxes_SubmitHonoursContext(t *testing.T) {
	m := NewMailboxes(1, time.Minute)
	defer m.Close()

	block := make(chan struct{})
	defer close(block)
	require.NoError(t, m.Submit(context.Background(), "a", func(context.Context) { <-block }))
	require.NoError(t, m.Submit(context.Background(), "a", func(context.Context) {}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := m.Submit(ctx, "a", func(context.Context) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
