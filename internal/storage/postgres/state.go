package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"webinar_archive/internal/domain"
)

type stateRow struct {
	WebcastID string `db:"webcast_id"`
	Watched   bool   `db:"watched"`
	Favorite  bool   `db:"favorite"`
}

// StateStore keeps user flags in the user_state table.
type StateStore struct {
	db *sqlx.DB
	tm *TransactionManager
}

func NewStateStore(db *sqlx.DB) *StateStore {
	return &StateStore{db: db, tm: NewTransactionManager(db)}
}

func (s *StateStore) Load(ctx context.Context) (domain.StateMap, error) {
	var rows []stateRow
	query := `SELECT webcast_id, watched, favorite FROM user_state`
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query); err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	state := make(domain.StateMap, len(rows))
	for _, r := range rows {
		state[r.WebcastID] = domain.UserState{Watched: r.Watched, Favorite: r.Favorite}
	}
	return state, nil
}

func (s *StateStore) Save(ctx context.Context, state domain.StateMap) error {
	return s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		return s.replace(ctx, state)
	})
}

// Update locks the table for the length of one transaction, so concurrent
// writers from any process apply their changes one after another.
func (s *StateStore) Update(ctx context.Context, fn func(domain.StateMap) error) error {
	return s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, s.db)
		if _, err := exec.ExecContext(ctx, `LOCK TABLE user_state IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock state: %w", err)
		}

		state, err := s.Load(ctx)
		if err != nil {
			return err
		}
		if err := fn(state); err != nil {
			return err
		}
		return s.replace(ctx, state)
	})
}

func (s *StateStore) replace(ctx context.Context, state domain.StateMap) error {
	exec := GetExecutor(ctx, s.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM user_state`); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}

	query := `
		INSERT INTO user_state (webcast_id, watched, favorite, updated_at)
		VALUES ($1, $2, $3, NOW())`

	for id, st := range state {
		if _, err := exec.ExecContext(ctx, query, id, st.Watched, st.Favorite); err != nil {
			return fmt.Errorf("insert state %s: %w", id, err)
		}
	}
	return nil
}
