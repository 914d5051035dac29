package file

import (
	"encoding/json"
	"fmt"
	"os"

	"webinar_archive/internal/domain"
)

// ReadLegacyFlags extracts inline flags from a combined catalog document.
// Unlike Load, a missing or malformed document is an error: the caller asked
// for this file explicitly.
func ReadLegacyFlags(path string) ([]domain.LegacyFlag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read legacy catalog: %w", err)
	}

	var doc readableDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode legacy catalog: %w", err)
	}

	flags := make([]domain.LegacyFlag, 0, len(doc.Webinars))
	for _, r := range doc.Webinars {
		if r.Watched == nil && r.Favorite == nil {
			continue
		}
		f := domain.LegacyFlag{
			ObjectID:  r.ObjectID,
			WebcastID: string(r.WebcastID),
		}
		if r.Watched != nil {
			f.Watched = *r.Watched
		}
		if r.Favorite != nil {
			f.Favorite = *r.Favorite
		}
		flags = append(flags, f)
	}
	return flags, nil
}
