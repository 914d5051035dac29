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

// legacyStateField wraps the mapping in documents written by older versions.
const legacyStateField = "state"

// StateStore persists user flags keyed by webcast id.
type StateStore struct {
	path   string
	lock   *flock.Flock
	mu     sync.Mutex
	logger *slog.Logger
}

func NewStateStore(path string, logger *slog.Logger) *StateStore {
	return &StateStore{
		path:   path,
		lock:   lockFor(path),
		logger: logger.With("store", "state", "path", path),
	}
}

// Load returns the full mapping. A missing or unreadable document yields an
// empty mapping.
func (s *StateStore) Load(ctx context.Context) (domain.StateMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.load(), nil
}

// Save overwrites the whole mapping.
func (s *StateStore) Save(ctx context.Context, state domain.StateMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := withLock(ctx, s.lock, func() error {
		return s.save(state)
	})
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Update runs load, fn and save as one exclusive step against both other
// goroutines and other processes. Nothing is written when fn fails.
func (s *StateStore) Update(ctx context.Context, fn func(domain.StateMap) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return withLock(ctx, s.lock, func() error {
		state := s.load()
		if err := fn(state); err != nil {
			return err
		}
		if err := s.save(state); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
		return nil
	})
}

func (s *StateStore) load() domain.StateMap {
	data, err := readDocument(s.path)
	if err != nil {
		s.logger.Warn("state unavailable, using empty state", "error", err)
		return domain.StateMap{}
	}
	if data == nil {
		return domain.StateMap{}
	}

	state, legacy, err := decodeState(data)
	if err != nil {
		s.logger.Warn("state unreadable, using empty state", "error", err)
		return domain.StateMap{}
	}
	if legacy {
		s.logger.Debug("unwrapped legacy state document", "entries", len(state))
	}
	return state
}

func (s *StateStore) save(state domain.StateMap) error {
	if state == nil {
		state = domain.StateMap{}
	}
	return writeJSONAtomic(s.path, state)
}

// decodeState accepts the flat mapping and the legacy {"state": {...}}
// wrapper, which may carry sibling fields such as a version. A "state" value
// that decodes as a mapping marks the wrapper; a flat entry that happens to
// be keyed "state" holds booleans and does not decode as a mapping.
func decodeState(data []byte) (domain.StateMap, bool, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrStorageRead, err)
	}

	if raw, ok := top[legacyStateField]; ok {
		var inner domain.StateMap
		if err := json.Unmarshal(raw, &inner); err == nil {
			if inner == nil {
				inner = domain.StateMap{}
			}
			return inner, true, nil
		}
	}

	state := make(domain.StateMap, len(top))
	for id, raw := range top {
		var entry domain.UserState
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, false, fmt.Errorf("%w: entry %q: %v", domain.ErrStorageRead, id, err)
		}
		state[id] = entry
	}
	return state, false, nil
}
