package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofrs/flock"

	"webinar_archive/internal/domain"
)

// CatalogStore persists the catalog as a single JSON document.
type CatalogStore struct {
	path   string
	lock   *flock.Flock
	mu     sync.Mutex
	logger *slog.Logger
}

func NewCatalogStore(path string, logger *slog.Logger) *CatalogStore {
	return &CatalogStore{
		path:   path,
		lock:   lockFor(path),
		logger: logger.With("store", "catalog", "path", path),
	}
}

// Load returns the stored records in their stored order. A missing or
// unreadable document yields an empty catalog.
func (s *CatalogStore) Load(ctx context.Context) ([]domain.Webinar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := readDocument(s.path)
	if err != nil {
		s.logger.Warn("catalog unavailable, using empty catalog", "error", err)
		return []domain.Webinar{}, nil
	}
	if data == nil {
		return []domain.Webinar{}, nil
	}

	var doc readableDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("catalog unreadable, using empty catalog",
			"error", fmt.Errorf("%w: %v", domain.ErrStorageRead, err),
		)
		return []domain.Webinar{}, nil
	}

	webinars := make([]domain.Webinar, 0, len(doc.Webinars))
	for i, r := range doc.Webinars {
		w := r.webinar()
		if err := w.Validate(); err != nil {
			s.logger.Warn("skipping invalid catalog record", "index", i, "error", err)
			continue
		}
		webinars = append(webinars, w)
	}
	return webinars, nil
}

// Save replaces the whole catalog.
func (s *CatalogStore) Save(ctx context.Context, webinars []domain.Webinar) error {
	if webinars == nil {
		webinars = []domain.Webinar{}
	}
	doc := catalogDocument{Webinars: webinars}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := withLock(ctx, s.lock, func() error {
		return writeJSONAtomic(s.path, doc)
	})
	if err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}

	s.logger.Debug("catalog saved", "records", len(webinars))
	return nil
}
