package domain

import "fmt"

// Flag names a user annotation that can be toggled.
type Flag string

const (
	FlagWatched  Flag = "watched"
	FlagFavorite Flag = "favorite"
)

// ParseFlag validates a flag name coming from a request or CLI argument.
func ParseFlag(s string) (Flag, error) {
	switch Flag(s) {
	case FlagWatched, FlagFavorite:
		return Flag(s), nil
	default:
		return "", fmt.Errorf("unknown flag %q", s)
	}
}

// UserState holds the per-webcast annotations.
type UserState struct {
	Watched  bool `json:"watched"`
	Favorite bool `json:"favorite"`
}

// With returns a copy of s with one flag set. The other flag is kept.
func (s UserState) With(flag Flag, value bool) UserState {
	switch flag {
	case FlagWatched:
		s.Watched = value
	case FlagFavorite:
		s.Favorite = value
	}
	return s
}

// StateMap is the whole user-state store keyed by webcast id.
// A missing key means both flags are false.
type StateMap map[string]UserState

// Get returns the entry for webcastID or the zero state.
func (m StateMap) Get(webcastID string) UserState {
	if m == nil {
		return UserState{}
	}
	return m[webcastID]
}

// LegacyFlag is one set of user flags recovered from a catalog document that
// carried them inline next to the record.
type LegacyFlag struct {
	ObjectID  string
	WebcastID string
	Watched   bool
	Favorite  bool
}
