package scraper

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		wantLabel string
	}{
		{"deadline exceeded", context.DeadlineExceeded, 0, "timeout"},
		{"net timeout", timeoutErr{}, 0, "timeout"},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, 0, "connection"},
		{"forbidden", nil, http.StatusForbidden, "blocked"},
		{"not found", nil, http.StatusNotFound, "listing_gone"},
		{"too many requests", nil, http.StatusTooManyRequests, "rate_limited"},
		{"plain error passes through", errors.New("boom"), 0, "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err, tt.status)
			if got == nil {
				t.Fatal("classified error is nil")
			}
			if label := errorTypeLabel(got); label != tt.wantLabel {
				t.Errorf("label = %q, want %q", label, tt.wantLabel)
			}
		})
	}

	if classifyError(nil, 0) != nil {
		t.Error("nil error with no status should stay nil")
	}
	if classifyError(nil, http.StatusOK) != nil {
		t.Error("2xx status with no error should stay nil")
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrTimeout{Err: context.DeadlineExceeded}, true},
		{ErrConnection{Err: errors.New("refused")}, true},
		{ErrRateLimited{Err: errors.New("429")}, true},
		{ErrBlocked{Err: errors.New("403")}, false},
		{ErrListingGone{Err: errors.New("404")}, false},
		{errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := retryable(tt.err); got != tt.want {
			t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.IncRequest("alpha")
	m.ObserveDuration(time.Second)
	m.IncListings("alpha", 3)
	m.IncRetries()
	m.IncError("alpha", "timeout")
	m.IncIngested("created")
	m.ObserveRun(time.Second)
}
