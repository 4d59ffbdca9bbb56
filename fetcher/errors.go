package fetcher

import (
	"errors"
	"fmt"
)

var (
	ErrResponseClosed   = errors.New("response closed before it was read")
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

// FetchError is a failure of the network fetch of a resource.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed: %s", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MaterializeError is a failure to read the full body of a fetched
// resource.
type MaterializeError struct {
	Err error
}

func (e *MaterializeError) Error() string {
	return fmt.Sprintf("materialize failed: %s", e.Err)
}

func (e *MaterializeError) Unwrap() error {
	return e.Err
}

// ResourceLoadError is what Coordinator.Load reports for any failure.
//
// Failures are cached along with successes, so retrying the same URL
// returns the same error until the cache entry has been swept.
type ResourceLoadError struct {
	URL   string
	Cause error
}

func (e *ResourceLoadError) Error() string {
	return fmt.Sprintf("failed to load document from URL: %s: %s",
		e.URL,
		e.Cause,
	)
}

func (e *ResourceLoadError) Unwrap() error {
	return e.Cause
}
