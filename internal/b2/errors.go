// Package b2 provides a client for the Backblaze B2 storage API with
// automatic reauthorization on token expiry, single-shot and chunked
// (large-file) uploads, and streaming downloads.
package b2

import (
	"errors"
	"fmt"
)

// Sentinel errors for local precondition and budget failures.
// Use errors.Is(err, b2.ErrBucketNotFound) to check.
var (
	// ErrAuthExhausted is returned when the reauthorization budget is spent
	// without the API accepting any token.
	ErrAuthExhausted = errors.New("b2: reauthorization attempts exhausted")

	// ErrInsufficientData is returned when a file is too small to be split
	// into parts.
	ErrInsufficientData = errors.New("b2: not enough data to upload in parts")

	// ErrNotAFile is returned when an upload source is not a regular file.
	ErrNotAFile = errors.New("b2: not a regular file")

	// ErrBucketNotFound is returned when a bucket name cannot be resolved
	// to an ID, even after refreshing the bucket list.
	ErrBucketNotFound = errors.New("b2: bucket not found")
)

// APIError is any non-retryable rejection from the B2 API. Code and Message
// are taken verbatim from the error response body.
type APIError struct {
	Code    string
	Message string
	Status  int
	URL     string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("b2: %s (HTTP %d, %s): %s", e.Code, e.Status, e.URL, e.Message)
	}

	return fmt.Sprintf("b2: HTTP %d (%s): %s", e.Status, e.URL, e.Message)
}

// AuthError is a failure of the authorization endpoint itself: bad
// credentials or any other non-success response during (re)authorization.
type AuthError struct {
	Code    string
	Message string
	Status  int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("b2: authorization failed: %s (HTTP %d): %s", e.Code, e.Status, e.Message)
}
