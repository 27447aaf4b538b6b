// Package source fetches published outage schedules from the utility's
// public API.
//
// The API is a Hydra/JSON-LD collection. Schedules hang off the
// "photo-grafic" menu: one menu item per day, each carrying the rendered
// HTML of the announcement. Every failure is absorbed here and surfaces as
// a nil document.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/powerwatch/outage-notifier/internal/schedule"
)

const (
	menuPath     = "/menus?page=1&type=photo-grafic"
	syncTimePath = "/options?option_key=successful_last_synk"
)

type Options struct {
	MainBaseURL       string // menus
	PowerBaseURL      string // options
	Timeout           time.Duration
	RequestsPerMinute int
	Parser            *schedule.Parser // date and update-stamp extraction
	Location          *time.Location
	Logger            *slog.Logger
	Now               func() time.Time
	HTTPClient        *http.Client
}

// Client is the HTTP client for the schedule API.
type Client struct {
	httpClient *http.Client
	mainURL    string
	powerURL   string
	limiter    *rate.Limiter
	parser     *schedule.Parser
	loc        *time.Location
	now        func() time.Time
	logger     *slog.Logger
}

// NewClient creates a schedule API client with rate limiting.
func NewClient(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Parser == nil {
		opts.Parser = schedule.NewParser(schedule.English)
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(opts.RequestsPerMinute) / 60.0)
	}
	return &Client{
		httpClient: opts.HTTPClient,
		mainURL:    strings.TrimRight(opts.MainBaseURL, "/"),
		powerURL:   strings.TrimRight(opts.PowerBaseURL, "/"),
		limiter:    rate.NewLimiter(limit, 2),
		parser:     opts.Parser,
		loc:        opts.Location,
		now:        opts.Now,
		logger:     opts.Logger,
	}
}

// hydraCollection is the common API response wrapper.
type hydraCollection struct {
	Member []json.RawMessage `json:"hydra:member"`
}

type menu struct {
	MenuItems []menuItem `json:"menuItems"`
}

type menuItem struct {
	Name     string `json:"name"`
	Orders   *int   `json:"orders"`
	ImageURL string `json:"imageUrl"`
	RawHTML  string `json:"rawHtml"`
}

type option struct {
	OptionValue string `json:"optionValue"`
}

// FetchToday returns today's document, or nil if it is unavailable.
func (c *Client) FetchToday(ctx context.Context) *schedule.Document {
	return c.fetch(ctx, schedule.Today)
}

// FetchTomorrow returns tomorrow's document, or nil if it has not been
// published yet or the fetch failed.
func (c *Client) FetchTomorrow(ctx context.Context) *schedule.Document {
	return c.fetch(ctx, schedule.Tomorrow)
}

func (c *Client) fetch(ctx context.Context, day schedule.Day) *schedule.Document {
	items, err := c.menuItems(ctx)
	if err != nil {
		c.logger.Warn("Schedule fetch failed", "day", day, "error", err)
		return nil
	}
	item := pickItem(items, day)
	if item == nil || item.RawHTML == "" {
		c.logger.Debug("Schedule not published", "day", day)
		return nil
	}

	date := c.parser.ExtractDate(item.RawHTML)
	if date == "" {
		date = schedule.DateLabel(c.now().In(c.loc), day)
	}
	return &schedule.Document{
		Day:       day,
		Date:      date,
		RawMarkup: item.RawHTML,
		ImageURL:  c.absoluteImageURL(item.ImageURL),
		UpdatedAt: c.parser.ExtractUpdatedAt(item.RawHTML),
	}
}

// pickItem selects the menu item for day. Today falls back to the first item;
// tomorrow has no fallback.
func pickItem(items []menuItem, day schedule.Day) *menuItem {
	order, name := 0, "Today"
	if day == schedule.Tomorrow {
		order, name = 1, "Tomorrow"
	}
	for i := range items {
		if (items[i].Orders != nil && *items[i].Orders == order) || items[i].Name == name {
			return &items[i]
		}
	}
	if day == schedule.Today && len(items) > 0 {
		return &items[0]
	}
	return nil
}

func (c *Client) menuItems(ctx context.Context) ([]menuItem, error) {
	coll, err := c.get(ctx, c.mainURL+menuPath)
	if err != nil {
		return nil, err
	}
	if len(coll.Member) == 0 {
		return nil, fmt.Errorf("menu collection is empty")
	}
	var m menu
	if err := json.Unmarshal(coll.Member[0], &m); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}
	return m.MenuItems, nil
}

// SyncTime returns the upstream's last successful synchronisation stamp, or ""
// when unavailable.
func (c *Client) SyncTime(ctx context.Context) string {
	coll, err := c.get(ctx, c.powerURL+syncTimePath)
	if err != nil {
		c.logger.Debug("Sync time fetch failed", "error", err)
		return ""
	}
	if len(coll.Member) == 0 {
		return ""
	}
	var opt option
	if err := json.Unmarshal(coll.Member[0], &opt); err != nil {
		return ""
	}
	return opt.OptionValue
}

// get performs a rate-limited GET and decodes the Hydra envelope.
func (c *Client) get(ctx context.Context, u string) (*hydraCollection, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/ld+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d: %s", u, resp.StatusCode, truncate(body, 200))
	}

	var result hydraCollection
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// absoluteImageURL resolves the site-relative image path against the API host.
func (c *Client) absoluteImageURL(p string) string {
	if p == "" {
		return ""
	}
	ref, err := url.Parse(p)
	if err != nil || ref.IsAbs() {
		return p
	}
	base, err := url.Parse(c.mainURL)
	if err != nil {
		return p
	}
	return (&url.URL{Scheme: base.Scheme, Host: base.Host}).ResolveReference(ref).String()
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
