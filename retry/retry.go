// Package retry holds the backoff policy shared by the upload transport.
package retry

import (
	"errors"
	"io"
	"math"
	"math/rand"
	"net"
	"syscall"
	"time"

	"google.golang.org/api/googleapi"
)

const (
	default_max_retries = 10
)

// Status codes the upstream API documents as transient.
var retriableStatusCodes = map[int]bool{
	500: true,
	502: true,
	503: true,
	504: true,
}

// Policy decides whether an error is worth retrying, how long to back off
// before attempt n, and when to give up.
type Policy struct {
	MaxRetries int
	Backoff    func(attempt int) time.Duration
	Retriable  func(err error) bool
}

// Default returns the policy used by the uploader: up to 10 retries,
// full-jitter exponential backoff in seconds, and the transient status code
// set {500, 502, 503, 504} plus network-level failures.
func Default() Policy {
	return Policy{
		MaxRetries: default_max_retries,
		Backoff:    ExpJitter,
		Retriable:  IsRetriable,
	}
}

// Exhausted reports whether the attempt count has passed the ceiling.
func (p Policy) Exhausted(retries int) bool {
	return retries > p.MaxRetries
}

// ExpJitter returns a random duration in [0, 2^attempt) seconds.
func ExpJitter(attempt int) time.Duration {
	max := math.Pow(2, float64(attempt))
	return time.Duration(rand.Float64() * max * float64(time.Second))
}

// IsRetriable classifies transport errors: connection-level failures and the
// closed set of transient server status codes retry, everything else is fatal.
func IsRetriable(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return retriableStatusCodes[apiErr.Code]
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	return false
}
