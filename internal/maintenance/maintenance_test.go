package maintenance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCleaner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int64
	err     error
	called  chan struct{}
}

func (c *fakeCleaner) Cleanup(_ context.Context, cutoff time.Time) (int64, error) {
	c.mu.Lock()
	c.cutoffs = append(c.cutoffs, cutoff)
	c.mu.Unlock()
	if c.called != nil {
		select {
		case c.called <- struct{}{}:
		default:
		}
	}
	return c.n, c.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCleanupComputesCutoff(t *testing.T) {
	c := &fakeCleaner{n: 3}
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	n, err := Cleanup(context.Background(), c, 14*24*time.Hour, now, discard())

	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	require.Len(t, c.cutoffs, 1)
	assert.Equal(t, time.Date(2026, 10, 4, 12, 0, 0, 0, time.UTC), c.cutoffs[0])
}

func TestCleanupWrapsErrors(t *testing.T) {
	boom := errors.New("connection reset")
	c := &fakeCleaner{err: boom}

	_, err := Cleanup(context.Background(), c, time.Hour, time.Now(), discard())

	assert.ErrorIs(t, err, boom)
}

func TestStartRunsOnTickAndStops(t *testing.T) {
	c := &fakeCleaner{called: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Start(ctx, c, Config{CleanupInterval: 10 * time.Millisecond, Retention: time.Hour}, discard())
	}()

	select {
	case <-c.called:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup never ran")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStartDisabled(t *testing.T) {
	c := &fakeCleaner{}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	require.NoError(t, Start(ctx, c, Config{CleanupInterval: -1}, discard()))
	assert.Empty(t, c.cutoffs)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 6*time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 14*24*time.Hour, cfg.Retention)
}

func TestZeroConfigTakesDefaults(t *testing.T) {
	assert.Equal(t, DefaultConfig(), Config{}.withDefaults())

	cfg := Config{CleanupInterval: -1, Retention: time.Hour}.withDefaults()
	assert.Equal(t, -time.Duration(1), cfg.CleanupInterval)
	assert.Equal(t, time.Hour, cfg.Retention)
}
