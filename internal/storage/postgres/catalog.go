package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"webinar_archive/internal/domain"
)

type webinarRow struct {
	Position       int            `db:"position"`
	ObjectID       string         `db:"object_id"`
	WebcastID      string         `db:"webcast_id"`
	Title          string         `db:"title"`
	URL            string         `db:"url"`
	Description    string         `db:"description"`
	StartTS        int64          `db:"start_ts"`
	EndTS          int64          `db:"end_ts"`
	StartDate      string         `db:"start_date"`
	StartTime      string         `db:"start_time"`
	EndDate        string         `db:"end_date"`
	EndTime        string         `db:"end_time"`
	DurationHours  float64        `db:"duration_hours"`
	DurationLabel  string         `db:"duration_label"`
	DurationBucket int            `db:"duration_bucket"`
	Type           string         `db:"type"`
	FocusAreas     pq.StringArray `db:"focus_areas"`
	Language       pq.StringArray `db:"language"`
	Tags           pq.StringArray `db:"tags"`
	CreatedAtTS    sql.NullInt64  `db:"created_at_ts"`
}

func (r webinarRow) toDomain() domain.Webinar {
	w := domain.Webinar{
		ObjectID:       r.ObjectID,
		WebcastID:      r.WebcastID,
		Title:          r.Title,
		URL:            r.URL,
		Description:    r.Description,
		StartTimestamp: r.StartTS,
		EndTimestamp:   r.EndTS,
		StartDate:      r.StartDate,
		StartTime:      r.StartTime,
		EndDate:        r.EndDate,
		EndTime:        r.EndTime,
		DurationHours:  r.DurationHours,
		DurationLabel:  r.DurationLabel,
		DurationBucket: r.DurationBucket,
		Type:           r.Type,
		FocusAreas:     nonNil(r.FocusAreas),
		Language:       nonNil(r.Language),
		Tags:           nonNil(r.Tags),
	}
	if r.CreatedAtTS.Valid {
		created := r.CreatedAtTS.Int64
		w.CreatedAtTimestamp = &created
	}
	return w
}

func nonNil(a pq.StringArray) []string {
	if a == nil {
		return []string{}
	}
	return []string(a)
}

// CatalogStore keeps the catalog in the webinars table. Row order is the
// position column, which preserves the order records were saved in.
type CatalogStore struct {
	db *sqlx.DB
	tm *TransactionManager
}

func NewCatalogStore(db *sqlx.DB) *CatalogStore {
	return &CatalogStore{db: db, tm: NewTransactionManager(db)}
}

func (s *CatalogStore) Load(ctx context.Context) ([]domain.Webinar, error) {
	query := `
		SELECT position, object_id, webcast_id, title, url, description,
			start_ts, end_ts, start_date, start_time, end_date, end_time,
			duration_hours, duration_label, duration_bucket, type,
			focus_areas, language, tags, created_at_ts
		FROM webinars
		ORDER BY position`

	var rows []webinarRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	webinars := make([]domain.Webinar, 0, len(rows))
	for _, r := range rows {
		webinars = append(webinars, r.toDomain())
	}
	return webinars, nil
}

// Save replaces every row in one transaction, so readers see either the old
// catalog or the new one.
func (s *CatalogStore) Save(ctx context.Context, webinars []domain.Webinar) error {
	return s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, s.db)

		if _, err := exec.ExecContext(ctx, `DELETE FROM webinars`); err != nil {
			return fmt.Errorf("clear catalog: %w", err)
		}

		query := `
			INSERT INTO webinars (
				position, object_id, webcast_id, title, url, description,
				start_ts, end_ts, start_date, start_time, end_date, end_time,
				duration_hours, duration_label, duration_bucket, type,
				focus_areas, language, tags, created_at_ts
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
			)`

		for i, w := range webinars {
			var created sql.NullInt64
			if w.CreatedAtTimestamp != nil {
				created = sql.NullInt64{Int64: *w.CreatedAtTimestamp, Valid: true}
			}

			_, err := exec.ExecContext(ctx, query,
				i,
				w.ObjectID,
				w.WebcastID,
				w.Title,
				w.URL,
				w.Description,
				w.StartTimestamp,
				w.EndTimestamp,
				w.StartDate,
				w.StartTime,
				w.EndDate,
				w.EndTime,
				w.DurationHours,
				w.DurationLabel,
				w.DurationBucket,
				w.Type,
				pq.Array(nonNil(w.FocusAreas)),
				pq.Array(nonNil(w.Language)),
				pq.Array(nonNil(w.Tags)),
				created,
			)
			if err != nil {
				return fmt.Errorf("insert webinar %s: %w", w.ObjectID, err)
			}
		}
		return nil
	})
}
