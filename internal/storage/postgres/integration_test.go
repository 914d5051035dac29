//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"webinar_archive/internal/domain"
	"webinar_archive/testdata/utils"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db

	version, dirty, err := Migrate(s.db)
	s.Require().NoError(err)
	s.False(dirty)
	s.Equal(uint(3), version)
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM webinars")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM user_state")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM sync_state")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) TestMigrate_Idempotent() {
	version, _, err := Migrate(s.db)
	s.NoError(err)
	s.Equal(uint(3), version)
}

func (s *PostgresIntegrationSuite) TestCatalogStore_RoundTrip() {
	store := NewCatalogStore(s.db)
	in := []domain.Webinar{
		{
			ObjectID:           "B",
			WebcastID:          "2",
			Title:              "Second",
			URL:                "https://www.example.org/webcasts/b",
			StartTimestamp:     1000,
			EndTimestamp:       8200,
			DurationHours:      2,
			DurationLabel:      "2h",
			DurationBucket:     2,
			FocusAreas:         []string{"Cloud Security", "DFIR"},
			Language:           []string{"English"},
			Tags:               []string{"Cloud Security (CySA+)"},
			CreatedAtTimestamp: utils.Ptr(int64(1690000000)),
		},
		{
			ObjectID:       "A",
			Title:          "First",
			StartTimestamp: 0,
			EndTimestamp:   1800,
			DurationHours:  0.5,
			DurationLabel:  "30m",
			FocusAreas:     []string{},
			Language:       []string{},
			Tags:           []string{},
		},
	}

	s.Require().NoError(store.Save(s.ctx, in))
	out, err := store.Load(s.ctx)

	s.Require().NoError(err)
	s.Equal(in, out)

	s.Require().NoError(store.Save(s.ctx, in[1:]))
	out, err = store.Load(s.ctx)
	s.Require().NoError(err)
	s.Len(out, 1)
}

func (s *PostgresIntegrationSuite) TestStateStore_ConcurrentUpdates() {
	store := NewStateStore(s.db)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			s.NoError(store.Update(s.ctx, func(m domain.StateMap) error {
				m[id] = m.Get(id).With(domain.FlagWatched, true)
				return nil
			}))
		}(i)
	}
	wg.Wait()

	state, err := store.Load(s.ctx)
	s.Require().NoError(err)
	s.Len(state, 10)
}

func (s *PostgresIntegrationSuite) TestSyncStateStore_GetUpdate() {
	store := NewSyncStateStore(s.db)

	state, err := store.Get(s.ctx, "algolia")
	s.Require().NoError(err)
	s.Equal(int64(0), state.TotalRuns)

	now := time.Now().UTC().Truncate(time.Microsecond)
	state.LastSyncedAt = now
	state.LastRunID = "run-1"
	state.CatalogSize = 12
	state.TotalRuns = 1
	s.Require().NoError(store.Update(s.ctx, state))

	got, err := store.Get(s.ctx, "algolia")
	s.Require().NoError(err)
	s.True(now.Equal(got.LastSyncedAt))
	s.Equal("run-1", got.LastRunID)
	s.Equal(12, got.CatalogSize)
}
