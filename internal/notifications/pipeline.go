package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/powerwatch/outage-notifier/internal/metrics"
	"github.com/powerwatch/outage-notifier/internal/profile"
	"github.com/powerwatch/outage-notifier/internal/schedule"
)

var (
	ErrInvalidGroup = errors.New("invalid group code")
	ErrNoSchedule   = errors.New("no schedule available")
	ErrNoContext    = errors.New("user has no schedule context")
)

// DocumentSource fetches published documents. Nil means unavailable.
type DocumentSource interface {
	FetchToday(ctx context.Context) *schedule.Document
	FetchTomorrow(ctx context.Context) *schedule.Document
}

// DocumentCache is a read-through source that passes can also write to.
type DocumentCache interface {
	DocumentSource
	Put(ctx context.Context, doc *schedule.Document)
}

// ContextResolver resolves a user's group; nil, nil means unknown.
type ContextResolver interface {
	Resolve(ctx context.Context, userID int64) (*profile.Context, error)
}

// Deps wires an Engine. Cache, SyncTime, Metrics, Now, and Location are
// optional.
type Deps struct {
	Source      DocumentSource
	Cache       DocumentCache
	Parser      *schedule.Parser
	Detector    *Detector
	Dispatcher  *Dispatcher
	Resolver    ContextResolver
	Subscribers SubscriberStore
	SyncTime    func(ctx context.Context) string
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Now         func() time.Time
	Location    *time.Location
}

// Engine runs passes and answers on-demand queries.
type Engine struct {
	Deps
}

func NewEngine(d Deps) *Engine {
	if d.Parser == nil {
		d.Parser = schedule.NewParser(schedule.English)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	return &Engine{Deps: d}
}

// --------------------------------------------------------------------------
// Background pass
// --------------------------------------------------------------------------

// RunPass fetches both documents once and walks every subscriber. ctx only
// stops the walk between users; the user in flight finishes on a detached
// context bounded by transport timeouts.
func (e *Engine) RunPass(ctx context.Context, mode PassMode) PassResult {
	res := PassResult{ID: uuid.NewString(), Mode: mode, StartedAt: e.Now()}
	logger := e.Logger.With("pass_id", res.ID, "mode", mode.String())
	work := context.WithoutCancel(ctx)

	defer func() {
		res.Duration = e.Now().Sub(res.StartedAt)
		e.Metrics.ObservePass(mode.String(), res.Duration, res.Failures > 0)
		logger.Info("Pass complete",
			"users", res.Users, "delivered", res.Delivered, "failures", res.Failures,
			"skipped", res.Skipped, "parse_misses", res.ParseMisses,
			"interrupted", res.Interrupted, "duration", res.Duration.Round(time.Millisecond))
	}()

	today := e.Source.FetchToday(work)
	tomorrow := e.Source.FetchTomorrow(work)
	e.Metrics.SourceFetch(schedule.Today.String(), today != nil)
	e.Metrics.SourceFetch(schedule.Tomorrow.String(), tomorrow != nil)
	res.TodayAvailable = today != nil
	res.TomorrowAvailable = tomorrow != nil

	var docs []*schedule.Document
	for _, doc := range []*schedule.Document{today, tomorrow} {
		if doc == nil {
			continue
		}
		if e.Cache != nil {
			e.Cache.Put(work, doc)
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		logger.Warn("No schedule documents available")
		return res
	}

	users, err := e.Subscribers.Subscribers(work)
	if err != nil {
		logger.Error("Failed to list subscribers", "error", err)
		res.Failures++
		return res
	}
	e.Metrics.Subscribers(len(users))

	for _, userID := range users {
		if ctx.Err() != nil {
			res.Interrupted = true
			break
		}
		res.Users++
		e.processUser(work, logger, userID, docs, mode, &res)
	}
	return res
}

func (e *Engine) processUser(ctx context.Context, logger *slog.Logger, userID int64, docs []*schedule.Document, mode PassMode, res *PassResult) {
	uc, err := e.Resolver.Resolve(ctx, userID)
	if err != nil {
		logger.Warn("Context resolution failed", "user_id", userID, "error", err)
		res.Failures++
		return
	}
	if uc == nil {
		logger.Debug("No schedule context", "user_id", userID)
		res.Skipped++
		return
	}

	for _, doc := range docs {
		parsed := e.Parser.Parse(doc.RawMarkup, uc.GroupCode)
		if !parsed.Found {
			// Treated as a parse failure: fingerprinting an empty schedule here
			// would announce "no outages" on upstream wording drift.
			logger.Warn("Group not found in schedule",
				"user_id", userID, "group", uc.GroupCode, "day", doc.Day, "note", parsed.Note)
			e.Metrics.ParseMiss(doc.Day.String())
			res.ParseMisses++
			continue
		}

		det, err := e.Detector.ShouldNotify(ctx, userID, doc.Day, doc.Date, parsed.Intervals)
		if err != nil {
			logger.Warn("Change detection failed, skipping user", "user_id", userID, "day", doc.Day, "error", err)
			res.Failures++
			return
		}
		e.Metrics.Decision(doc.Day.String(), det.Decision.String())

		kind, ok := deliveryKind(det.Decision, mode, doc.Day)
		if !ok {
			continue
		}
		err = e.Dispatcher.Deliver(ctx, Delivery{
			UserID:    userID,
			Kind:      kind,
			Context:   *uc,
			Day:       doc.Day,
			Date:      doc.Date,
			Intervals: parsed.Intervals,
			ImageURL:  doc.ImageURL,
		})
		if err != nil {
			logger.Warn("Delivery failed", "user_id", userID, "day", doc.Day, "kind", kind, "error", err)
			res.Failures++
			continue
		}
		res.Delivered++
	}
}

// deliveryKind maps a decision to a message. Digest passes also deliver
// their day's schedule when nothing changed.
func deliveryKind(d Decision, mode PassMode, day schedule.Day) (Kind, bool) {
	switch d {
	case FirstSeen:
		return KindFirstSeen, true
	case Changed:
		return KindChanged, true
	}
	if (mode == ModeDigestToday && day == schedule.Today) || (mode == ModeDigestTomorrow && day == schedule.Tomorrow) {
		return KindDigest, true
	}
	return 0, false
}

// --------------------------------------------------------------------------
// On-demand
// --------------------------------------------------------------------------

// GroupStatus is the live state of one group.
type GroupStatus struct {
	Group      string              `json:"group"`
	Date       string              `json:"date"`
	IsPowerOn  bool                `json:"is_power_on"`
	NextChange *schedule.TimeOfDay `json:"next_change"`
	Intervals  []schedule.Interval `json:"intervals"`
	Found      bool                `json:"found"`
	Note       string              `json:"note,omitempty"`
	UpdatedAt  string              `json:"updated_at,omitempty"`
}

func (e *Engine) onDemandSource() DocumentSource {
	if e.Cache != nil {
		return e.Cache
	}
	return e.Source
}

// CurrentStatus reports whether group has power now according to today's
// document. A group missing from the document fails open with a note.
func (e *Engine) CurrentStatus(ctx context.Context, code schedule.GroupCode) (GroupStatus, error) {
	if !code.Valid() {
		return GroupStatus{}, ErrInvalidGroup
	}
	doc := e.onDemandSource().FetchToday(ctx)
	if doc == nil {
		return GroupStatus{}, ErrNoSchedule
	}
	parsed := e.Parser.Parse(doc.RawMarkup, code)
	st := schedule.CurrentStatus(parsed.Intervals, e.Now().In(e.Location))

	intervals := schedule.Sorted(parsed.Intervals)
	return GroupStatus{
		Group:      code.Dotted(),
		Date:       doc.Date,
		IsPowerOn:  st.IsPowerOn,
		NextChange: st.NextChange,
		Intervals:  intervals,
		Found:      parsed.Found,
		Note:       parsed.Note,
		UpdatedAt:  doc.UpdatedAt,
	}, nil
}

// SendScheduleNow sends today's schedule to userID immediately, bypassing
// pacing and change detection. Users without a context or when no schedule
// is published get an explanatory notice and a typed error.
func (e *Engine) SendScheduleNow(ctx context.Context, userID int64) error {
	uc, err := e.Resolver.Resolve(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve context: %w", err)
	}
	if uc == nil {
		if err := e.Dispatcher.Notice(ctx, userID, noContextText); err != nil {
			e.Logger.Warn("Notice failed", "user_id", userID, "error", err)
		}
		return ErrNoContext
	}

	doc := e.onDemandSource().FetchToday(ctx)
	if doc == nil {
		if err := e.Dispatcher.Notice(ctx, userID, noScheduleText); err != nil {
			e.Logger.Warn("Notice failed", "user_id", userID, "error", err)
		}
		return ErrNoSchedule
	}

	parsed := e.Parser.Parse(doc.RawMarkup, uc.GroupCode)
	del := Delivery{
		UserID:    userID,
		Kind:      KindOnDemand,
		Context:   *uc,
		Day:       doc.Day,
		Date:      doc.Date,
		Intervals: parsed.Intervals,
		ImageURL:  doc.ImageURL,
	}
	if !parsed.Found {
		del.Note = parsed.Note
	}
	if e.SyncTime != nil {
		del.SyncTime = e.SyncTime(ctx)
	}
	return e.Dispatcher.DeliverNow(ctx, del)
}
