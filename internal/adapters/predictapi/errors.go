package predictapi

import (
	"errors"
	"fmt"
)

// Sentinel kinds wrapped by FetchError.
var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrDecode           = errors.New("decode response")
	ErrTransport        = errors.New("transport")
)

// FetchError is the only error returned by Client calls. Resource names the
// upstream resource, e.g. "analytics/drivers". Status is 0 when no response
// was received.
type FetchError struct {
	Resource string
	Status   int
	Detail   string
	Err      error
}

func (e *FetchError) Error() string {
	if !errors.Is(e.Err, ErrUnexpectedStatus) {
		return fmt.Sprintf("fetch %s: %v", e.Resource, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("fetch %s: status %d: %s", e.Resource, e.Status, e.Detail)
	}
	return fmt.Sprintf("fetch %s: status %d", e.Resource, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AsFetchError extracts a *FetchError from err.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	ok := errors.As(err, &fe)
	return fe, ok
}
