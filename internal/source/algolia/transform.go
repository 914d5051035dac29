package algolia

import (
	"strings"

	"webinar_archive/internal/domain"
	"webinar_archive/internal/tagging"
)

// normalize turns one raw hit into a catalog record. ok is false for hits
// that cannot be placed in the catalog: no object id, or no positive
// duration.
func (s *Source) normalize(hit Hit) (domain.Webinar, bool) {
	objectID := string(hit.ObjectID)
	if objectID == "" {
		s.logger.Debug("dropping hit without objectID")
		return domain.Webinar{}, false
	}

	if !hit.StartDateTimestamp.Valid || !hit.EndDateTimestamp.Valid {
		s.logger.Debug("dropping hit without timestamps", "object_id", objectID)
		return domain.Webinar{}, false
	}

	hours, ok := domain.DurationHours(hit.StartDateTimestamp.Value, hit.EndDateTimestamp.Value)
	if !ok {
		s.logger.Debug("dropping hit with non-positive duration",
			"object_id", objectID,
			"start", hit.StartDateTimestamp.Value,
			"end", hit.EndDateTimestamp.Value,
		)
		return domain.Webinar{}, false
	}

	title := strings.TrimSpace(deref(hit.Title))
	description := strings.TrimSpace(deref(hit.Description))

	w := domain.Webinar{
		ObjectID:       objectID,
		WebcastID:      string(hit.WebcastID),
		Title:          title,
		URL:            s.absoluteURL(deref(hit.URL)),
		Description:    description,
		StartTimestamp: hit.StartDateTimestamp.Value,
		EndTimestamp:   hit.EndDateTimestamp.Value,
		StartDate:      hit.StartDate,
		StartTime:      hit.StartTime,
		EndDate:        hit.EndDate,
		EndTime:        hit.EndTime,
		DurationHours:  hours,
		DurationLabel:  domain.FormatDurationLabel(hours),
		DurationBucket: domain.BucketFor(hours),
		Type:           hit.Type,
		FocusAreas:     nonNil(hit.Facets.FocusArea),
		Language:       nonNil(hit.Language),
		Tags:           tagging.Classify(title + " " + description),
	}

	if hit.CreatedAtTimestamp.Valid {
		created := hit.CreatedAtTimestamp.Value
		w.CreatedAtTimestamp = &created
	}

	return w, true
}

func (s *Source) absoluteURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(s.siteURL, "/") + path
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func nonNil(l StringList) []string {
	if l == nil {
		return []string{}
	}
	return []string(l)
}
