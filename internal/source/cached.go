package source

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/powerwatch/outage-notifier/internal/cache"
	"github.com/powerwatch/outage-notifier/internal/schedule"
)

// Fetcher is what CachedFetcher reads through to.
type Fetcher interface {
	FetchToday(ctx context.Context) *schedule.Document
	FetchTomorrow(ctx context.Context) *schedule.Document
}

// CachedFetcher serves on-demand reads from a short-lived cache, falling
// back to the upstream on a miss. Absent documents are not cached.
type CachedFetcher struct {
	next   Fetcher
	store  cache.Store
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedFetcher(next Fetcher, store cache.Store, ttl time.Duration, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{next: next, store: store, ttl: ttl, logger: logger}
}

func (f *CachedFetcher) FetchToday(ctx context.Context) *schedule.Document {
	return f.read(ctx, schedule.Today)
}

func (f *CachedFetcher) FetchTomorrow(ctx context.Context) *schedule.Document {
	return f.read(ctx, schedule.Tomorrow)
}

func (f *CachedFetcher) read(ctx context.Context, day schedule.Day) *schedule.Document {
	if data, ok := f.store.Get(ctx, cacheKey(day)); ok {
		var doc schedule.Document
		if err := json.Unmarshal(data, &doc); err == nil {
			return &doc
		}
	}
	var doc *schedule.Document
	if day == schedule.Tomorrow {
		doc = f.next.FetchTomorrow(ctx)
	} else {
		doc = f.next.FetchToday(ctx)
	}
	f.Put(ctx, doc)
	return doc
}

// Put writes a freshly fetched document through to the cache.
func (f *CachedFetcher) Put(ctx context.Context, doc *schedule.Document) {
	if doc == nil {
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := f.store.Set(ctx, cacheKey(doc.Day), data, f.ttl); err != nil {
		f.logger.Warn("Document cache write failed", "day", doc.Day, "error", err)
	}
}

func cacheKey(day schedule.Day) string {
	return "schedule:" + day.String()
}
