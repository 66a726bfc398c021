package testutil

import "time"

// ExecutionRecord is the time span of one native body call.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether both calls were running at some instant. Calls
// that merely touch end to start do not overlap.
func (r ExecutionRecord) Overlaps(other ExecutionRecord) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}
