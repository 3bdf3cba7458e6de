package sessions

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(ttl time.Duration) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(ttl)
	s.now = clock.Now
	return s, clock
}

func TestMemoryStore_TakeIsSingleUse(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "s1", []byte("key")))

	got, err := s.Take(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("key"), got)

	_, err = s.Take(ctx, "s1")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryStore_ConcurrentTakeHasOneWinner(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "s1", []byte("key")))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Take(ctx, "s1"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestMemoryStore_Expiry(t *testing.T) {
	s, clock := newTestStore(time.Minute)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "s1", []byte("key")))

	clock.Advance(59 * time.Second)
	_, err := s.Peek(ctx, "s1")
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = s.Peek(ctx, "s1")
	require.ErrorIs(t, err, common.ErrorNotFound)
	_, err = s.Take(ctx, "s1")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryStore_PeekDoesNotConsume(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "s1", []byte("key")))

	peeked, err := s.Peek(ctx, "s1")
	require.NoError(t, err)
	peeked[0] = 'X'

	got, err := s.Take(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("key"), got, "Peek must return a copy")
}

func TestMemoryStore_PutRejectsLiveDuplicate(t *testing.T) {
	s, clock := newTestStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "s1", []byte("a")))
	require.ErrorIs(t, s.Put(ctx, "s1", []byte("b")), common.ErrAlreadyExists)

	clock.Advance(2 * time.Minute)
	require.NoError(t, s.Put(ctx, "s1", []byte("c")))
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	s, clock := newTestStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "old", []byte("a")))
	clock.Advance(30 * time.Second)
	require.NoError(t, s.Put(ctx, "new", []byte("b")))
	clock.Advance(45 * time.Second)

	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, s.Len())
}

func TestRunJanitor_StopsOnCancel(t *testing.T) {
	s := NewMemoryStore(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Put(ctx, "s1", []byte("a")))

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	done := make(chan struct{})
	go func() {
		RunJanitor(ctx, s, 5*time.Millisecond, logger)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
