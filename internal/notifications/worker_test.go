package notifications

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerwatch/outage-notifier/internal/schedule"
)

type fakePasser struct {
	mu     sync.Mutex
	modes  []PassMode
	passed chan PassMode
	block  chan struct{}
}

func newFakePasser() *fakePasser {
	return &fakePasser{passed: make(chan PassMode, 16)}
}

func (p *fakePasser) RunPass(ctx context.Context, mode PassMode) PassResult {
	p.mu.Lock()
	p.modes = append(p.modes, mode)
	p.mu.Unlock()
	p.passed <- mode
	if p.block != nil {
		<-p.block
	}
	return PassResult{Mode: mode}
}

func TestSchedulerRunsFirstPassImmediately(t *testing.T) {
	p := newFakePasser()
	s := NewScheduler(p, SchedulerConfig{Interval: time.Hour}, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)

	select {
	case mode := <-p.passed:
		assert.Equal(t, ModeRegular, mode)
	case <-time.After(2 * time.Second):
		t.Fatal("first pass did not run")
	}

	cancel()
	s.Wait()
	assert.Equal(t, Idle, s.State())
	assert.Len(t, p.passed, 0, "no second pass within the interval")
}

func TestSchedulerReportsPollingDuringPass(t *testing.T) {
	p := newFakePasser()
	p.block = make(chan struct{})
	s := NewScheduler(p, SchedulerConfig{Interval: time.Hour}, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())

	s.Start(ctx)
	<-p.passed
	assert.Equal(t, Polling, s.State())

	cancel()
	close(p.block)
	s.Wait()
	assert.Equal(t, Idle, s.State())
}

func TestSchedulerRunIsSingleUse(t *testing.T) {
	p := newFakePasser()
	s := NewScheduler(p, SchedulerConfig{Interval: time.Hour}, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())

	errs := make(chan error, 2)
	go func() { errs <- s.Run(ctx) }()
	<-p.passed
	go func() { errs <- s.Run(ctx) }()

	cancel()
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	assert.Len(t, p.modes, 1)
}

func TestSchedulerRepeatsAfterInterval(t *testing.T) {
	p := newFakePasser()
	s := NewScheduler(p, SchedulerConfig{Interval: 10 * time.Millisecond}, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	for i := 0; i < 3; i++ {
		select {
		case <-p.passed:
		case <-time.After(2 * time.Second):
			t.Fatalf("pass %d did not run", i+1)
		}
	}
	cancel()
	s.Wait()
}

func digestScheduler(now *time.Time) *Scheduler {
	return NewScheduler(newFakePasser(), SchedulerConfig{
		Interval: 5 * time.Minute,
		Triggers: []DigestTrigger{
			{At: schedule.MustTime("07:00"), Mode: ModeDigestToday},
			{At: schedule.MustTime("20:00"), Mode: ModeDigestTomorrow},
		},
		Location: time.UTC,
		Now:      func() time.Time { return *now },
	}, quietLogger())
}

func TestDueModeFiresOncePerDay(t *testing.T) {
	now := time.Date(2026, 10, 18, 6, 59, 0, 0, time.UTC)
	s := digestScheduler(&now)

	assert.Equal(t, ModeRegular, s.dueMode(now))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, ModeDigestToday, s.dueMode(now))
	assert.Equal(t, ModeRegular, s.dueMode(now.Add(5*time.Minute)), "already fired today")

	now = time.Date(2026, 10, 18, 20, 3, 0, 0, time.UTC)
	assert.Equal(t, ModeDigestTomorrow, s.dueMode(now))

	now = time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, ModeDigestToday, s.dueMode(now), "fires again the next day")
}

func TestDueModeSkipsAfterGrace(t *testing.T) {
	now := time.Date(2026, 10, 18, 7, 45, 0, 0, time.UTC)
	s := digestScheduler(&now)

	assert.Equal(t, ModeRegular, s.dueMode(now))
}

func TestNextDelay(t *testing.T) {
	now := time.Date(2026, 10, 18, 6, 58, 0, 0, time.UTC)
	s := digestScheduler(&now)

	assert.Equal(t, 2*time.Minute, s.nextDelay(now), "lands on the morning trigger")
	assert.Equal(t, 5*time.Minute, s.nextDelay(now.Add(time.Hour)))

	late := time.Date(2026, 10, 18, 23, 58, 0, 0, time.UTC)
	assert.Equal(t, 5*time.Minute, s.nextDelay(late))
}

func TestNextDelayWithoutTriggers(t *testing.T) {
	s := NewScheduler(newFakePasser(), SchedulerConfig{}, quietLogger())
	assert.Equal(t, defaultCheckInterval, s.nextDelay(time.Now()))
}

func TestParsePassMode(t *testing.T) {
	m, err := ParsePassMode("tomorrow")
	require.NoError(t, err)
	assert.Equal(t, ModeDigestTomorrow, m)

	_, err = ParsePassMode("weekly")
	assert.Error(t, err)
}
