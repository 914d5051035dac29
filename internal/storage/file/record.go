package file

import "webinar_archive/internal/domain"

// catalogDocument is the on-disk catalog layout as written by Save.
type catalogDocument struct {
	Webinars []domain.Webinar `json:"webinars"`
}

// readableDocument accepts both record layouts.
type readableDocument struct {
	Webinars []catalogRecord `json:"webinars"`
}

// catalogRecord decodes both the current record layout and the first
// generation one, which used snake_case duration fields, a cysa_tags list and
// carried the user flags inline.
type catalogRecord struct {
	ObjectID           string    `json:"objectID"`
	WebcastID          domain.ID `json:"webcastId"`
	Title              string    `json:"title"`
	URL                string    `json:"url"`
	Description        string    `json:"description"`
	StartTimestamp     int64     `json:"startDateTimestamp"`
	EndTimestamp       int64     `json:"endDateTimestamp"`
	StartDate          string    `json:"startDate"`
	StartTime          string    `json:"startTime"`
	EndDate            string    `json:"endDate"`
	EndTime            string    `json:"endTime"`
	DurationHours      *float64  `json:"durationHours"`
	DurationLabel      string    `json:"durationLabel"`
	DurationBucket     *int      `json:"durationBucket"`
	Type               string    `json:"type"`
	FocusAreas         []string  `json:"focusAreas"`
	Language           []string  `json:"language"`
	Tags               []string  `json:"tags"`
	CreatedAtTimestamp *int64    `json:"createdAtTimestamp"`

	LegacyDurationHours *float64 `json:"duration_hours"`
	LegacyDurationLabel string   `json:"duration_label"`
	LegacyTags          []string `json:"cysa_tags"`
	Watched             *bool    `json:"watched"`
	Favorite            *bool    `json:"favorite"`
}

// webinar converts a decoded record to the domain form. Legacy records get
// their bucket recomputed so old and new catalogs group the same way.
func (r catalogRecord) webinar() domain.Webinar {
	w := domain.Webinar{
		ObjectID:           r.ObjectID,
		WebcastID:          string(r.WebcastID),
		Title:              r.Title,
		URL:                r.URL,
		Description:        r.Description,
		StartTimestamp:     r.StartTimestamp,
		EndTimestamp:       r.EndTimestamp,
		StartDate:          r.StartDate,
		StartTime:          r.StartTime,
		EndDate:            r.EndDate,
		EndTime:            r.EndTime,
		DurationLabel:      r.DurationLabel,
		Type:               r.Type,
		FocusAreas:         orEmpty(r.FocusAreas),
		Language:           orEmpty(r.Language),
		Tags:               r.Tags,
		CreatedAtTimestamp: r.CreatedAtTimestamp,
	}

	switch {
	case r.DurationHours != nil:
		w.DurationHours = *r.DurationHours
		if r.DurationBucket != nil {
			w.DurationBucket = *r.DurationBucket
		} else {
			w.DurationBucket = domain.BucketFor(w.DurationHours)
		}
	case r.LegacyDurationHours != nil:
		w.DurationHours = *r.LegacyDurationHours
		w.DurationBucket = domain.BucketFor(w.DurationHours)
	}

	if w.DurationLabel == "" {
		if r.LegacyDurationLabel != "" {
			w.DurationLabel = r.LegacyDurationLabel
		} else if w.DurationHours > 0 {
			w.DurationLabel = domain.FormatDurationLabel(w.DurationHours)
		}
	}

	if w.Tags == nil {
		w.Tags = orEmpty(r.LegacyTags)
	}

	return w
}

func orEmpty(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}
