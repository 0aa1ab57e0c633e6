package dedupe

import "time"

// Option applies a configuration option to the in-memory deduper.
type Option func(*inFlight)

// WithMaxSize caps the number of tracked keys; the oldest is evicted first.
// maxSize <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inFlight) {
		d.maxSize = maxSize
	}
}

// WithTTL sets how long a key stays recorded without being released.
// ttl <= 0 keeps keys until Unrecord.
func WithTTL(ttl time.Duration) Option {
	return func(d *inFlight) {
		d.ttl = ttl
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *inFlight) {
		if now != nil {
			d.now = now
		}
	}
}
