// Package clock abstracts time for quota windows and reconciliation stamps.
package clock

import "time"

// Clock supplies the current time. Services take a Clock instead of calling
// time.Now so tests can pin month boundaries.
type Clock interface {
	Now() time.Time
}

// SystemClock returns wall-clock time in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Fixed is a Clock pinned to a single instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }
