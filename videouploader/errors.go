package videouploader

import "fmt"

// AuthError means the channel's credentials are invalid or expired. It is
// never retried here; the operator has to refresh the token.
type AuthError struct {
	Channel string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("channel %s: authorization failed: %v", e.Channel, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FatalRequestError covers non-transient request failures: permission denied,
// quota exceeded, malformed input. Not retried.
type FatalRequestError struct {
	StatusCode int
	Err        error
}

func (e *FatalRequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upload failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upload failed: %v", e.Err)
}

func (e *FatalRequestError) Unwrap() error { return e.Err }

// ExhaustedRetriesError means the transfer hit the retry ceiling.
type ExhaustedRetriesError struct {
	Retries int
	Err     error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("giving up after %d retries: %v", e.Retries, e.Err)
}

func (e *ExhaustedRetriesError) Unwrap() error { return e.Err }
