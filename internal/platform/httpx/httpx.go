package httpx

import (
	"errors"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusCoder is implemented by transport errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatusCode() int
}

// IsRetryableError reports whether a request should be retried: network-level
// failures, 429 and 5xx responses.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		code := sc.HTTPStatusCode()
		if code == http.StatusTooManyRequests {
			return true
		}
		if code >= 500 && code <= 599 {
			return true
		}
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "unexpected eof") ||
		strings.Contains(msg, "timeout")
}

// RetryAfterDuration honors a Retry-After response header when present,
// otherwise returns the supplied backoff, capped at max.
func RetryAfterDuration(resp *http.Response, backoff, max time.Duration) time.Duration {
	d := backoff
	if resp != nil {
		if v := strings.TrimSpace(resp.Header.Get("Retry-After")); v != "" {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				d = time.Duration(secs) * time.Second
			}
		}
	}
	if max > 0 && d > max {
		d = max
	}
	return d
}

// JitterSleep spreads a sleep duration by up to +25% to avoid thundering herds.
func JitterSleep(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	return d + time.Duration(rand.Int63n(int64(d)/4+1))
}
