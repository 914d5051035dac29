// Package catalog holds the pure reconciliation logic between the fetched
// catalog and the user-state map: identity resolution, the left-join that
// produces the client view, and the default presentation order.
package catalog

import (
	"sort"
	"strings"

	"webinar_archive/internal/domain"
)

// Resolve picks the webcast id a toggle applies to.
//
// An explicit webcastID always wins and is not checked against the catalog.
// Otherwise objectID is looked up in a map built from records; records
// missing either id are skipped. The map is rebuilt on every call.
func Resolve(webcastID, objectID string, records []domain.Webinar) (string, bool) {
	if webcastID != "" {
		return webcastID, true
	}
	if objectID == "" {
		return "", false
	}

	byObjectID := make(map[string]string, len(records))
	for _, r := range records {
		if r.ObjectID == "" || r.WebcastID == "" {
			continue
		}
		byObjectID[r.ObjectID] = r.WebcastID
	}

	id, ok := byObjectID[objectID]
	return id, ok
}

// Merge left-joins records with state. The output has exactly one entry per
// record, in record order.
func Merge(records []domain.Webinar, state domain.StateMap) []domain.MergedWebinar {
	merged := make([]domain.MergedWebinar, 0, len(records))
	for _, r := range records {
		flags := state.Get(r.WebcastID)
		merged = append(merged, domain.MergedWebinar{
			Webinar:  r,
			Watched:  flags.Watched,
			Favorite: flags.Favorite,
		})
	}
	return merged
}

// SortDefault orders by duration bucket, then newest first, then title.
// Records without a creation timestamp sort after dated ones in a bucket.
func SortDefault(items []domain.MergedWebinar) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.DurationBucket != b.DurationBucket {
			return a.DurationBucket < b.DurationBucket
		}

		switch {
		case a.CreatedAtTimestamp != nil && b.CreatedAtTimestamp == nil:
			return true
		case a.CreatedAtTimestamp == nil && b.CreatedAtTimestamp != nil:
			return false
		case a.CreatedAtTimestamp != nil && b.CreatedAtTimestamp != nil &&
			*a.CreatedAtTimestamp != *b.CreatedAtTimestamp:
			return *a.CreatedAtTimestamp > *b.CreatedAtTimestamp
		}

		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}
