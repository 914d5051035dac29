package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"

	"webinar_archive/internal/domain"
	"webinar_archive/testdata/utils"
)

var webinarColumns = []string{
	"position", "object_id", "webcast_id", "title", "url", "description",
	"start_ts", "end_ts", "start_date", "start_time", "end_date", "end_time",
	"duration_hours", "duration_label", "duration_bucket", "type",
	"focus_areas", "language", "tags", "created_at_ts",
}

type StoreTestSuite struct {
	suite.Suite
	ctx  context.Context
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	raw, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.db = sqlx.NewDb(raw, "postgres")
	s.mock = mock
}

func (s *StoreTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) TestCatalogLoad_OrderedAndMapped() {
	rows := sqlmock.NewRows(webinarColumns).
		AddRow(0, "A1", "W1", "First", "https://x/1", "", 1000, 6400, "", "", "", "", 1.5, "1h 30m", 1, "webcast",
			`{"Cloud Security"}`, "{English}", `{"Cloud Security (CySA+)"}`, int64(1690000000)).
		AddRow(1, "A2", "", "Second", "https://x/2", "", 0, 1800, "", "", "", "", 0.5, "30m", 0, "",
			"{}", "{}", "{}", nil)

	s.mock.ExpectQuery(regexp.QuoteMeta("FROM webinars")).WillReturnRows(rows)

	webinars, err := NewCatalogStore(s.db).Load(s.ctx)

	s.Require().NoError(err)
	s.Require().Len(webinars, 2)
	s.Equal("A1", webinars[0].ObjectID)
	s.Equal([]string{"Cloud Security (CySA+)"}, webinars[0].Tags)
	s.Equal(utils.Ptr(int64(1690000000)), webinars[0].CreatedAtTimestamp)
	s.Equal("A2", webinars[1].ObjectID)
	s.Nil(webinars[1].CreatedAtTimestamp)
	s.Equal([]string{}, webinars[1].Tags)
}

func (s *StoreTestSuite) TestCatalogSave_ReplacesInOneTransaction() {
	webinars := []domain.Webinar{
		{ObjectID: "A1", WebcastID: "W1", StartTimestamp: 0, EndTimestamp: 3600, DurationHours: 1, DurationBucket: 1},
		{ObjectID: "A2", StartTimestamp: 0, EndTimestamp: 1800, DurationHours: 0.5},
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM webinars")).WillReturnResult(sqlmock.NewResult(0, 5))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO webinars")).
		WithArgs(0, "A1", "W1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO webinars")).WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	s.NoError(NewCatalogStore(s.db).Save(s.ctx, webinars))
}

func (s *StoreTestSuite) TestCatalogSave_InsertFailureRollsBack() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM webinars")).WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO webinars")).WillReturnError(errors.New("disk full"))
	s.mock.ExpectRollback()

	err := NewCatalogStore(s.db).Save(s.ctx, []domain.Webinar{{ObjectID: "A1"}})

	s.Require().Error(err)
	s.Contains(err.Error(), "insert webinar A1")
}

func (s *StoreTestSuite) TestStateLoad() {
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM user_state")).WillReturnRows(
		sqlmock.NewRows([]string{"webcast_id", "watched", "favorite"}).
			AddRow("W1", true, false).
			AddRow("W2", false, true),
	)

	state, err := NewStateStore(s.db).Load(s.ctx)

	s.Require().NoError(err)
	s.Equal(domain.StateMap{
		"W1": {Watched: true},
		"W2": {Favorite: true},
	}, state)
}

func (s *StoreTestSuite) TestStateUpdate_LocksAndRewrites() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("LOCK TABLE user_state")).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM user_state")).WillReturnRows(
		sqlmock.NewRows([]string{"webcast_id", "watched", "favorite"}).AddRow("W1", true, false),
	)
	s.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_state")).WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_state")).WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_state")).WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	var seen domain.StateMap
	err := NewStateStore(s.db).Update(s.ctx, func(m domain.StateMap) error {
		seen = domain.StateMap{"W1": m["W1"]}
		m["W2"] = domain.UserState{Favorite: true}
		return nil
	})

	s.Require().NoError(err)
	s.Equal(domain.StateMap{"W1": {Watched: true}}, seen)
}

func (s *StoreTestSuite) TestStateUpdate_CallbackErrorRollsBack() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("LOCK TABLE user_state")).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM user_state")).WillReturnRows(
		sqlmock.NewRows([]string{"webcast_id", "watched", "favorite"}),
	)
	s.mock.ExpectRollback()

	boom := errors.New("boom")
	err := NewStateStore(s.db).Update(s.ctx, func(domain.StateMap) error { return boom })

	s.ErrorIs(err, boom)
}

func (s *StoreTestSuite) TestSyncStateGet_NewSource() {
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM sync_state")).
		WithArgs("algolia").
		WillReturnRows(sqlmock.NewRows([]string{"source_id", "last_synced_at", "last_run_id", "catalog_size", "total_runs"}))

	state, err := NewSyncStateStore(s.db).Get(s.ctx, "algolia")

	s.Require().NoError(err)
	s.Equal("algolia", state.SourceID)
	s.True(state.LastSyncedAt.IsZero())
}

func (s *StoreTestSuite) TestSyncStateUpdate_Upserts() {
	at := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	s.mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (source_id) DO UPDATE")).
		WithArgs("algolia", at, "run-1", 10, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewSyncStateStore(s.db).Update(s.ctx, &domain.SyncState{
		SourceID:     "algolia",
		LastSyncedAt: at,
		LastRunID:    "run-1",
		CatalogSize:  10,
		TotalRuns:    2,
	})

	s.NoError(err)
}

func (s *StoreTestSuite) TestTransaction_NestedReusesOuter() {
	s.mock.ExpectBegin()
	s.mock.ExpectCommit()

	tm := NewTransactionManager(s.db)
	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		outer := GetTxFromContext(ctx)
		return tm.WithTransaction(ctx, func(inner context.Context) error {
			s.Same(outer, GetTxFromContext(inner))
			return nil
		})
	})

	s.NoError(err)
}
