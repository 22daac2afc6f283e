package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrTimeout indicates a timeout while issuing a request.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrBlocked indicates the store refused the request (HTTP 403),
// typically an anti-bot measure.
type ErrBlocked struct {
	Err error
}

func (e ErrBlocked) Error() string {
	return fmt.Errorf("blocked: %w", e.Err).Error()
}

func (e ErrBlocked) Unwrap() error {
	return e.Err
}

// ErrListingGone indicates the listing no longer exists (HTTP 404).
type ErrListingGone struct {
	Err error
}

func (e ErrListingGone) Error() string {
	return fmt.Errorf("listing_gone: %w", e.Err).Error()
}

func (e ErrListingGone) Unwrap() error {
	return e.Err
}

// ErrRateLimited indicates the store rate-limited the request.
type ErrRateLimited struct {
	Err error
}

func (e ErrRateLimited) Error() string {
	return fmt.Errorf("rate_limited: %w", e.Err).Error()
}

func (e ErrRateLimited) Unwrap() error {
	return e.Err
}

// classifyError maps transport failures and HTTP statuses onto the
// typed scrape errors used for metrics labels and retry decisions.
func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrBlocked{Err: wrapped}
		case http.StatusNotFound:
			return ErrListingGone{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
	}

	if err == nil {
		return nil
	}
	return err
}

// errorTypeLabel returns the metrics label for a classified error.
func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var blocked ErrBlocked
	if errors.As(err, &blocked) {
		return "blocked"
	}
	var gone ErrListingGone
	if errors.As(err, &gone) {
		return "listing_gone"
	}
	var rateLimited ErrRateLimited
	if errors.As(err, &rateLimited) {
		return "rate_limited"
	}
	return "other"
}

// retryable reports whether a classified error is worth retrying.
// Blocked and gone listings will not improve on retry.
func retryable(err error) bool {
	switch errorTypeLabel(err) {
	case "timeout", "connection", "rate_limited":
		return true
	}
	return false
}
