package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Webinar is one catalog entry produced by a refresh run. Records are
// replaced wholesale on every successful run and never edited in place.
type Webinar struct {
	ObjectID           string   `json:"objectID"`
	WebcastID          string   `json:"webcastId,omitempty"`
	Title              string   `json:"title"`
	URL                string   `json:"url"`
	Description        string   `json:"description"`
	StartTimestamp     int64    `json:"startDateTimestamp"`
	EndTimestamp       int64    `json:"endDateTimestamp"`
	StartDate          string   `json:"startDate,omitempty"`
	StartTime          string   `json:"startTime,omitempty"`
	EndDate            string   `json:"endDate,omitempty"`
	EndTime            string   `json:"endTime,omitempty"`
	DurationHours      float64  `json:"durationHours"`
	DurationLabel      string   `json:"durationLabel"`
	DurationBucket     int      `json:"durationBucket"`
	Type               string   `json:"type,omitempty"`
	FocusAreas         []string `json:"focusAreas"`
	Language           []string `json:"language"`
	Tags               []string `json:"tags"`
	CreatedAtTimestamp *int64   `json:"createdAtTimestamp,omitempty"`
}

// ErrInvalidWebinar marks a stored record that breaks the catalog invariants.
var ErrInvalidWebinar = errors.New("invalid webinar record")

// Validate checks the invariants every catalog record holds: a non-empty
// object id and a positive duration.
func (w Webinar) Validate() error {
	if w.ObjectID == "" {
		return fmt.Errorf("%w: missing objectID", ErrInvalidWebinar)
	}
	if !(w.DurationHours > 0) {
		return fmt.Errorf("%w: objectID %q has duration %v", ErrInvalidWebinar, w.ObjectID, w.DurationHours)
	}
	return nil
}

// MergedWebinar is a catalog entry joined with the user's flags.
type MergedWebinar struct {
	Webinar
	Watched  bool `json:"watched"`
	Favorite bool `json:"favorite"`
}

// DurationHours returns the length of the [start, end] window in hours.
// ok is false when the window is empty or inverted.
func DurationHours(start, end int64) (hours float64, ok bool) {
	seconds := end - start
	if seconds <= 0 {
		return 0, false
	}
	return float64(seconds) / 3600.0, true
}

// BucketFor groups a duration for display: everything under one hour is
// bucket 0, longer sessions fall into their whole-hour floor.
func BucketFor(hours float64) int {
	if hours < 1.0 {
		return 0
	}
	return int(math.Floor(hours))
}

// FormatDurationLabel renders hours as "1h 30m", "45m" or "2h".
func FormatDurationLabel(hours float64) string {
	totalMinutes := int(math.Round(hours * 60))
	h := totalMinutes / 60
	m := totalMinutes % 60

	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if m > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	return strings.Join(parts, " ")
}
