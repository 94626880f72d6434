//go:build integration

package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"marina/internal/approval/models"
	"marina/internal/approval/store"
	id "marina/pkg/domain"
	"marina/pkg/platform/sentinel"
	"marina/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "approval_requests")
	s.Require().NoError(err)
}

func newTestRequest(createdAt time.Time) *models.Request {
	request, err := models.NewRequest(id.RequestID(uuid.New()), models.KindUser, uuid.NewString(), "ONBOARDING", "", createdAt)
	if err != nil {
		panic(err)
	}
	return request
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	request := newTestRequest(time.Now())
	s.Require().NoError(s.store.Create(ctx, request))

	found, err := s.store.FindByID(ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(request.TargetID, found.TargetID)
	s.Equal(models.RequestPending, found.Status)

	s.ErrorIs(s.store.Create(ctx, request), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdateStatus() {
	ctx := context.Background()
	request := newTestRequest(time.Now())
	s.Require().NoError(s.store.Create(ctx, request))

	request.SetStatus(models.RequestApproved, time.Now())
	s.Require().NoError(s.store.Update(ctx, request))

	found, err := s.store.FindByID(ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(models.RequestApproved, found.Status)

	ghost := newTestRequest(time.Now())
	s.ErrorIs(s.store.Update(ctx, ghost), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListOrderingAndFilter() {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	var requests []*models.Request
	for i := 0; i < 3; i++ {
		request := newTestRequest(base.Add(time.Duration(i) * time.Minute))
		s.Require().NoError(s.store.Create(ctx, request))
		requests = append(requests, request)
	}

	requests[0].SetStatus(models.RequestBlocked, time.Now())
	s.Require().NoError(s.store.Update(ctx, requests[0]))

	all, err := s.store.List(ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(requests[2].ID, all[0].ID, "newest first")

	blocked := models.RequestBlocked
	filtered, err := s.store.List(ctx, &blocked)
	s.Require().NoError(err)
	s.Require().Len(filtered, 1)
	s.Equal(requests[0].ID, filtered[0].ID)
}

func (s *PostgresStoreSuite) TestSearchPagination() {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		request := newTestRequest(base.Add(time.Duration(i) * time.Minute))
		s.Require().NoError(s.store.Create(ctx, request))
	}

	page1, total, err := s.store.Search(ctx, nil, 1, 2)
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Len(page1, 2)

	page3, total, err := s.store.Search(ctx, nil, 3, 2)
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Len(page3, 1)

	beyond, total, err := s.store.Search(ctx, nil, 4, 2)
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Empty(beyond)

	var seen []string
	for page := 1; page <= 3; page++ {
		items, _, err := s.store.Search(ctx, nil, page, 2)
		s.Require().NoError(err)
		for _, item := range items {
			seen = append(seen, item.ID.String())
		}
	}
	s.Len(seen, 5)
	unique := map[string]bool{}
	for _, idStr := range seen {
		s.False(unique[idStr], fmt.Sprintf("request %s appeared twice across pages", idStr))
		unique[idStr] = true
	}
}

func (s *PostgresStoreSuite) TestNotFound() {
	ctx := context.Background()
	_, err := s.store.FindByID(ctx, id.RequestID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}
