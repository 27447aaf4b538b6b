package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/powerwatch/outage-notifier/internal/schedule"
)

var (
	groupKeys    = []string{"cherg_gpv", "chergGpv", "group", "group_code", "groupCode", "gpv"}
	cityKeys     = []string{"city_name", "cityName"}
	streetKeys   = []string{"street_name", "streetName"}
	buildingKeys = []string{"building_name", "buildingName", "building"}
	labelKeys    = []string{"label", "name", "title"}
)

// Firebase reads user profiles from a Realtime Database over its REST API.
type Firebase struct {
	httpClient *http.Client
	baseURL    string
}

// NewFirebase returns a provider for the database at baseURL. An empty
// baseURL yields a provider that knows nobody.
func NewFirebase(baseURL string, timeout time.Duration) *Firebase {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Firebase{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (f *Firebase) Name() string { return "firebase" }

func (f *Firebase) Lookup(ctx context.Context, userID int64) (*Context, error) {
	if f.baseURL == "" {
		return nil, nil
	}
	u := fmt.Sprintf("%s/users/%d.json", f.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile store returned %d", resp.StatusCode)
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	data, ok := raw.(map[string]any)
	if !ok || len(data) == 0 {
		// null, or a scalar where an object was expected
		return nil, nil
	}
	return contextFromProfile(data), nil
}

// contextFromProfile maps a loosely typed profile document. It returns nil
// when no group code can be extracted.
func contextFromProfile(data map[string]any) *Context {
	code, ok := schedule.NormalizeGroupCode(pick(data, groupKeys...))
	if !ok {
		return nil
	}
	c := &Context{
		Kind:      Manual,
		GroupCode: code,
		City:      pick(data, cityKeys...),
		Street:    pick(data, streetKeys...),
		Building:  pick(data, buildingKeys...),
		Label:     pick(data, labelKeys...),
	}
	if c.City != "" && c.Street != "" && c.Building != "" {
		c.Kind = Address
	}
	return c
}

// pick returns the first non-empty string or number under any of keys.
func pick(data map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := data[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
