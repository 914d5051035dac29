package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"webinar_archive/internal/domain"
	"webinar_archive/internal/service/mocks"
)

type SyncServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	source    *mocks.MockSource
	catalog   *mocks.MockCatalogStore
	syncState *mocks.MockSyncStateStore
	publisher *mocks.MockPublisher

	service *SyncService
	logger  *slog.Logger
	now     time.Time
}

func (s *SyncServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.source = mocks.NewMockSource(s.ctrl)
	s.catalog = mocks.NewMockCatalogStore(s.ctrl)
	s.syncState = mocks.NewMockSyncStateStore(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.now = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	s.source.EXPECT().ID().Return("test-source").AnyTimes()
	s.source.EXPECT().Name().Return("Test Source").AnyTimes()

	s.service = NewSyncService(
		s.source,
		s.catalog,
		s.syncState,
		s.publisher,
		s.logger,
	)
	s.service.now = func() time.Time { return s.now }
}

func (s *SyncServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestSyncServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SyncServiceTestSuite))
}

func fetched() ([]domain.Webinar, domain.SyncStats) {
	webinars := []domain.Webinar{
		{ObjectID: "A1", WebcastID: "W1", Title: "One", DurationHours: 1, DurationBucket: 1},
		{ObjectID: "A2", WebcastID: "W2", Title: "Two", DurationHours: 2, DurationBucket: 2},
	}
	return webinars, domain.SyncStats{Pages: 1, Hits: 3, Kept: 2, Dropped: 1}
}

func (s *SyncServiceTestSuite) TestSync_ReplacesCatalogAndPublishes() {
	ctx := context.Background()
	webinars, stats := fetched()

	s.source.EXPECT().FetchWebinars(ctx, s.now).Return(webinars, stats, nil)
	s.catalog.EXPECT().Save(ctx, webinars).Return(nil)
	s.syncState.EXPECT().Get(ctx, "test-source").Return(&domain.SyncState{SourceID: "test-source", TotalRuns: 4}, nil)

	var saved *domain.SyncState
	s.syncState.EXPECT().Update(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, state *domain.SyncState) error {
			saved = state
			return nil
		},
	)

	var published domain.SyncStats
	s.publisher.EXPECT().PublishRefresh(ctx, "test-source", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, st domain.SyncStats) error {
			published = st
			return nil
		},
	)

	result, err := s.service.Sync(ctx)

	s.Require().NoError(err)
	s.NotEmpty(result.RunID)
	s.Equal(2, result.Kept)
	s.Equal(1, result.Dropped)

	s.Require().NotNil(saved)
	s.Equal(int64(5), saved.TotalRuns)
	s.Equal(2, saved.CatalogSize)
	s.Equal(result.RunID, saved.LastRunID)
	s.Equal(s.now, saved.LastSyncedAt)

	s.Equal(result.RunID, published.RunID)
}

func (s *SyncServiceTestSuite) TestSync_FetchErrorLeavesCatalogAlone() {
	ctx := context.Background()
	fetchErr := &domain.FetchError{Page: 2, Err: errors.New("connection reset")}

	s.source.EXPECT().FetchWebinars(ctx, s.now).Return(nil, domain.SyncStats{Pages: 2}, fetchErr)
	// No Save, no sync state update, no publish.

	result, err := s.service.Sync(ctx)

	s.Nil(result)
	s.Require().Error(err)
	var target *domain.FetchError
	s.Require().ErrorAs(err, &target)
	s.Equal(2, target.Page)
}

func (s *SyncServiceTestSuite) TestSync_SaveErrorSkipsBookkeeping() {
	ctx := context.Background()
	webinars, stats := fetched()

	s.source.EXPECT().FetchWebinars(ctx, s.now).Return(webinars, stats, nil)
	s.catalog.EXPECT().Save(ctx, webinars).Return(errors.New("disk full"))

	_, err := s.service.Sync(ctx)

	s.Require().Error(err)
	s.Contains(err.Error(), "save catalog")
}

func (s *SyncServiceTestSuite) TestSync_PublishFailureDoesNotFailRun() {
	ctx := context.Background()
	webinars, stats := fetched()

	s.source.EXPECT().FetchWebinars(ctx, s.now).Return(webinars, stats, nil)
	s.catalog.EXPECT().Save(ctx, webinars).Return(nil)
	s.syncState.EXPECT().Get(ctx, "test-source").Return(&domain.SyncState{SourceID: "test-source"}, nil)
	s.syncState.EXPECT().Update(ctx, gomock.Any()).Return(nil)
	s.publisher.EXPECT().PublishRefresh(ctx, "test-source", gomock.Any()).Return(errors.New("broker down"))

	result, err := s.service.Sync(ctx)

	s.NoError(err)
	s.Equal(2, result.Kept)
}

func (s *SyncServiceTestSuite) TestSync_WithoutPublisher() {
	ctx := context.Background()
	webinars, stats := fetched()

	svc := NewSyncService(s.source, s.catalog, s.syncState, nil, s.logger)
	svc.now = func() time.Time { return s.now }

	s.source.EXPECT().FetchWebinars(ctx, s.now).Return(webinars, stats, nil)
	s.catalog.EXPECT().Save(ctx, webinars).Return(nil)
	s.syncState.EXPECT().Get(ctx, "test-source").Return(&domain.SyncState{SourceID: "test-source"}, nil)
	s.syncState.EXPECT().Update(ctx, gomock.Any()).Return(nil)

	_, err := svc.Sync(ctx)

	s.NoError(err)
}

func (s *SyncServiceTestSuite) TestSync_SyncStateErrorIsReported() {
	ctx := context.Background()
	webinars, stats := fetched()

	s.source.EXPECT().FetchWebinars(ctx, s.now).Return(webinars, stats, nil)
	s.catalog.EXPECT().Save(ctx, webinars).Return(nil)
	s.syncState.EXPECT().Get(ctx, "test-source").Return(nil, errors.New("db down"))

	result, err := s.service.Sync(ctx)

	s.Require().Error(err)
	s.Contains(err.Error(), "update sync state")
	s.NotNil(result)
}
