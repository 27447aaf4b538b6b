package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevalidated(t *testing.T) {
	data := []byte(`{"group":"41","is_power_on":true}`)

	rec := httptest.NewRecorder()
	Revalidated(rec, httptest.NewRequest(http.MethodGet, "/status/41", nil), data, 30*time.Second)

	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, "public, max-age=30", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, string(data), rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/status/41", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	Revalidated(rec, req, data, 30*time.Second)

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Equal(t, etag, rec.Header().Get("ETag"))
	assert.Zero(t, rec.Body.Len())
}

func TestErrorDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrorDetail(rec, http.StatusBadGateway, CodeDeliveryFailed, "Could not deliver the schedule", "chat not found")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ErrorBody{Code: CodeDeliveryFailed, Message: "Could not deliver the schedule", Detail: "chat not found"}, resp.Error)
}

func TestErrorOmitsEmptyDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, CodeNotFound, "Unknown user")

	assert.JSONEq(t, `{"error":{"code":"NOT_FOUND","message":"Unknown user"}}`, rec.Body.String())
}
