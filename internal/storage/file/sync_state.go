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

// SyncStateStore keeps one bookkeeping entry per source in a JSON document.
type SyncStateStore struct {
	path   string
	lock   *flock.Flock
	mu     sync.Mutex
	logger *slog.Logger
}

func NewSyncStateStore(path string, logger *slog.Logger) *SyncStateStore {
	return &SyncStateStore{
		path:   path,
		lock:   lockFor(path),
		logger: logger.With("store", "sync_state", "path", path),
	}
}

func (s *SyncStateStore) Get(ctx context.Context, sourceID string) (*domain.SyncState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	states, err := s.read()
	if err != nil {
		return nil, err
	}

	if state, ok := states[sourceID]; ok {
		state.SourceID = sourceID
		return &state, nil
	}
	return &domain.SyncState{SourceID: sourceID}, nil
}

// Update replaces the entry for state.SourceID and keeps the others.
func (s *SyncStateStore) Update(ctx context.Context, state *domain.SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return withLock(ctx, s.lock, func() error {
		states, err := s.read()
		if err != nil {
			s.logger.Warn("discarding unreadable sync state", "error", err)
			states = map[string]domain.SyncState{}
		}
		states[state.SourceID] = *state
		if err := writeJSONAtomic(s.path, states); err != nil {
			return fmt.Errorf("save sync state: %w", err)
		}
		return nil
	})
}

func (s *SyncStateStore) read() (map[string]domain.SyncState, error) {
	data, err := readDocument(s.path)
	if err != nil {
		return nil, err
	}
	states := map[string]domain.SyncState{}
	if data == nil {
		return states, nil
	}
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageRead, err)
	}
	return states, nil
}
