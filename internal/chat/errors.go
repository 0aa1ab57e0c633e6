package chat

import "errors"

// Sentinel errors returned by Relay.
var (
	ErrEmptyMessage = errors.New("no message provided")
	ErrUpstream     = errors.New("completion upstream failed")
)
