package storage

import (
	"time"

	"github.com/docgrid/docgrid/internal/storage/content"
)

// Time is the unix timestamp type shared with the engine core.
type Time = content.Time

// Now returns the current time as a Time.
func Now() Time {
	return content.Now()
}

// ToTime converts a time.Time to a Time.
func ToTime(v time.Time) Time {
	return content.ToTime(v)
}
