package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/powerwatch/outage-notifier/internal/metrics"
	"github.com/powerwatch/outage-notifier/internal/telegram"
)

// Dispatcher delivers rendered schedules, preferring to edit the user's
// live message for the same date over sending a new one.
type Dispatcher struct {
	sender  Sender
	handles HandleStore
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu          sync.Mutex
	pausedUntil time.Time
}

// NewDispatcher paces paced deliveries at one per interval; interval <= 0
// disables pacing.
func NewDispatcher(sender Sender, handles HandleStore, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Dispatcher{
		sender:  sender,
		handles: handles,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		metrics: m,
	}
}

// Deliver waits for the pacing limiter, then delivers. Used by background
// passes.
func (d *Dispatcher) Deliver(ctx context.Context, del Delivery) error {
	if err := d.waitPause(ctx); err != nil {
		return fmt.Errorf("flood wait: %w", err)
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacing wait: %w", err)
	}
	return d.deliver(ctx, del)
}

// DeliverNow delivers without pacing. Used for on-demand requests.
func (d *Dispatcher) DeliverNow(ctx context.Context, del Delivery) error {
	return d.deliver(ctx, del)
}

func (d *Dispatcher) deliver(ctx context.Context, del Delivery) error {
	text := Render(del)

	h, err := d.handles.LastMessage(ctx, del.UserID)
	if err != nil {
		d.metrics.Delivery(del.Kind.String(), "failed")
		return fmt.Errorf("read message handle: %w", err)
	}

	// On-demand requests always get a fresh message at the bottom of the chat.
	if h != nil && h.Date == del.Date && del.Kind != KindOnDemand {
		err := d.sender.EditMessage(ctx, del.UserID, h.MessageID, text)
		if err == nil || errors.Is(err, telegram.ErrNotModified) {
			d.metrics.Delivery(del.Kind.String(), "edited")
			return nil
		}
		if d.backOff(err) {
			d.metrics.Delivery(del.Kind.String(), "failed")
			return fmt.Errorf("edit message: %w", err)
		}
		d.logger.Debug("Edit failed, sending new message",
			"user_id", del.UserID, "message_id", h.MessageID, "error", err)
	}

	id, err := d.sender.SendMessage(ctx, del.UserID, text)
	if err != nil {
		d.backOff(err)
		d.metrics.Delivery(del.Kind.String(), "failed")
		return fmt.Errorf("send message: %w", err)
	}
	d.metrics.Delivery(del.Kind.String(), "sent")

	if err := d.handles.SetLastMessage(ctx, Handle{UserID: del.UserID, MessageID: id, Date: del.Date}); err != nil {
		// The message is out; a later update will send instead of edit.
		d.logger.Warn("Failed to store message handle", "user_id", del.UserID, "error", err)
	}
	return nil
}

// backOff holds paced deliveries for the wait a 429 response asked for.
// It reports whether err carried one.
func (d *Dispatcher) backOff(err error) bool {
	wait, ok := telegram.RetryAfter(err)
	if !ok {
		return false
	}
	d.mu.Lock()
	if until := time.Now().Add(wait); until.After(d.pausedUntil) {
		d.pausedUntil = until
	}
	d.mu.Unlock()
	d.logger.Warn("Messaging API flood control, pausing deliveries", "retry_after", wait)
	return true
}

func (d *Dispatcher) waitPause(ctx context.Context) error {
	d.mu.Lock()
	wait := time.Until(d.pausedUntil)
	d.mu.Unlock()
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Notice sends a plain informational message. It does not touch handles.
func (d *Dispatcher) Notice(ctx context.Context, userID int64, text string) error {
	if _, err := d.sender.SendMessage(ctx, userID, text); err != nil {
		return fmt.Errorf("send notice: %w", err)
	}
	return nil
}
