package notifications

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/powerwatch/outage-notifier/internal/schedule"
)

// State is the scheduler's observable state.
type State int32

const (
	Idle State = iota
	Polling
)

func (s State) String() string {
	if s == Polling {
		return "polling"
	}
	return "idle"
}

// DigestTrigger runs a pass in Mode once a day at At (local time).
type DigestTrigger struct {
	At   schedule.TimeOfDay
	Mode PassMode
}

// Passer runs one pass; *Engine implements it.
type Passer interface {
	RunPass(ctx context.Context, mode PassMode) PassResult
}

type SchedulerConfig struct {
	Interval time.Duration
	Triggers []DigestTrigger
	Location *time.Location
	Now      func() time.Time
}

// Scheduler runs passes back to back with Interval between the end of one
// and the start of the next, so passes never overlap. The first pass runs
// immediately.
type Scheduler struct {
	engine Passer
	cfg    SchedulerConfig
	logger *slog.Logger

	state atomic.Int32
	fired map[PassMode]string // trigger mode -> local date it last fired

	once sync.Once
	done chan struct{}
}

func NewScheduler(engine Passer, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultCheckInterval
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scheduler{
		engine: engine,
		cfg:    cfg,
		logger: logger,
		fired:  make(map[PassMode]string),
		done:   make(chan struct{}),
	}
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Start runs the loop in a goroutine. Use Wait to join it.
func (s *Scheduler) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Wait blocks until Run has returned.
func (s *Scheduler) Wait() {
	<-s.done
}

// Run blocks until ctx is cancelled. A pass in flight finishes its current
// user before Run returns. It always returns nil; the error is for errgroup.
func (s *Scheduler) Run(ctx context.Context) error {
	started := false
	s.once.Do(func() { started = true })
	if !started {
		<-s.done
		return nil
	}
	defer close(s.done)

	s.logger.Info("Scheduler started", "interval", s.cfg.Interval, "digests", len(s.cfg.Triggers))
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.state.Store(int32(Idle))
			s.logger.Info("Scheduler stopped")
			return nil
		case <-timer.C:
		}
		if ctx.Err() != nil {
			continue
		}

		s.state.Store(int32(Polling))
		mode := s.dueMode(s.cfg.Now())
		res := s.engine.RunPass(ctx, mode)
		s.state.Store(int32(Idle))
		s.logger.Debug("Pass finished", "summary", res.String())

		timer.Reset(s.nextDelay(s.cfg.Now()))
	}
}

// dueMode returns the digest mode whose trigger is due and has not fired
// today, marking it fired; otherwise ModeRegular.
func (s *Scheduler) dueMode(now time.Time) PassMode {
	local := now.In(s.cfg.Location)
	date := local.Format(schedule.DateLayout)
	clock := schedule.Clock(local)
	grace := schedule.TimeOfDay(digestGrace / time.Minute)

	for _, t := range s.cfg.Triggers {
		if clock < t.At || clock >= t.At+grace {
			continue
		}
		if s.fired[t.Mode] == date {
			continue
		}
		s.fired[t.Mode] = date
		return t.Mode
	}
	return ModeRegular
}

// nextDelay is Interval, shortened so the next pass lands on the next
// digest trigger.
func (s *Scheduler) nextDelay(now time.Time) time.Duration {
	delay := s.cfg.Interval
	local := now.In(s.cfg.Location)
	for _, t := range s.cfg.Triggers {
		at := t.At.On(local)
		if !at.After(local) {
			at = t.At.On(local.AddDate(0, 0, 1))
		}
		if until := at.Sub(local); until < delay {
			delay = until
		}
	}
	return delay
}
