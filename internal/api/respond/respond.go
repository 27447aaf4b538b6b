// Package respond writes the API's response bodies: status payloads that
// clients revalidate by ETag, uncached JSON objects, and the error envelope
// clients switch on by Code.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/powerwatch/outage-notifier/internal/cache"
)

// Code identifies an error condition. Clients match on it, not on Message.
type Code string

const (
	CodeInvalidGroup   Code = "INVALID_GROUP"
	CodeInvalidUser    Code = "INVALID_USER"
	CodeInvalidBody    Code = "INVALID_BODY"
	CodeMissingField   Code = "MISSING_FIELD"
	CodeNotFound       Code = "NOT_FOUND"
	CodeNoContext      Code = "NO_CONTEXT"
	CodeNoSchedule     Code = "NO_SCHEDULE"
	CodeDeliveryFailed Code = "DELIVERY_FAILED"
	CodeRateLimited    Code = "RATE_LIMITED"
	CodeInternal       Code = "INTERNAL"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Revalidated writes a JSON payload clients may reuse for ttl. The ETag is
// derived from data, and a request whose If-None-Match already names it gets
// a bodyless 304.
func Revalidated(w http.ResponseWriter, r *http.Request, data []byte, ttl time.Duration) {
	etag := cache.ComputeETag(data)
	h := w.Header()
	h.Set("ETag", etag)
	h.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(ttl.Seconds())))
	h.Set("Vary", "Accept-Encoding")

	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// JSON writes v with the given status and no caching.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, code Code, message string) {
	ErrorDetail(w, status, code, message, "")
}

// ErrorDetail adds a free-form detail, usually the underlying error text.
func ErrorDetail(w http.ResponseWriter, status int, code Code, message, detail string) {
	JSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Detail: detail}})
}
