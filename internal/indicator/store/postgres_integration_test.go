//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"satudata/internal/indicator/store"
	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
	"satudata/pkg/testutil/containers"
)

type IndicatorStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestIndicatorStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(IndicatorStoreSuite))
}

func (s *IndicatorStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *IndicatorStoreSuite) TearDownSuite() {
	_ = s.postgres.DB.Close()
	_ = s.postgres.Container.Terminate(context.Background())
}

func (s *IndicatorStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *IndicatorStoreSuite) seed(code string, sequence int, category id.Category, active bool) id.IndicatorID {
	indicatorID := id.IndicatorID(uuid.New())
	now := time.Now().UTC()
	_, err := s.postgres.DB.ExecContext(context.Background(), `
		INSERT INTO indicators (id, code, sequence, name, category, unit, period_type, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, uuid.UUID(indicatorID), code, sequence, "Indicator "+code, string(category), "%", string(id.PeriodYearly), active, now)
	s.Require().NoError(err)
	return indicatorID
}

func (s *IndicatorStoreSuite) TestFindByID() {
	ctx := context.Background()
	indicatorID := s.seed("EK-001", 1, id.CategoryEkonomi, false)

	// FindByID must return inactive indicators too; the service decides
	// visibility.
	found, err := s.store.FindByID(ctx, indicatorID)
	s.Require().NoError(err)
	s.Equal(indicatorID, found.ID)
	s.Equal("EK-001", found.Code)
	s.Equal(id.CategoryEkonomi, found.Category)
	s.False(found.Active)

	_, err = s.store.FindByID(ctx, id.IndicatorID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *IndicatorStoreSuite) TestListActiveOrderingAndFilter() {
	ctx := context.Background()
	s.seed("EK-002", 2, id.CategoryEkonomi, true)
	s.seed("EK-001", 1, id.CategoryEkonomi, true)
	s.seed("SO-001", 1, id.CategorySosial, true)
	s.seed("EK-003", 3, id.CategoryEkonomi, false) // inactive, never listed

	all, err := s.store.ListActive(ctx, "")
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	// sequence first, code breaks ties
	s.Equal("EK-001", all[0].Code)
	s.Equal("SO-001", all[1].Code)
	s.Equal("EK-002", all[2].Code)

	ekonomi, err := s.store.ListActive(ctx, id.CategoryEkonomi)
	s.Require().NoError(err)
	s.Require().Len(ekonomi, 2)
	s.Equal("EK-001", ekonomi[0].Code)
	s.Equal("EK-002", ekonomi[1].Code)
}

func (s *IndicatorStoreSuite) TestListByIDs() {
	ctx := context.Background()
	first := s.seed("EK-001", 1, id.CategoryEkonomi, true)
	second := s.seed("SO-001", 2, id.CategorySosial, true)
	missing := id.IndicatorID(uuid.New())

	found, err := s.store.ListByIDs(ctx, []id.IndicatorID{first, second, missing})
	s.Require().NoError(err)
	s.Require().Len(found, 2)
	s.Equal("EK-001", found[first].Code)
	s.Equal("SO-001", found[second].Code)
	_, ok := found[missing]
	s.False(ok, "missing ids must be absent, not nil entries")

	empty, err := s.store.ListByIDs(ctx, nil)
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *IndicatorStoreSuite) TestSetActive() {
	ctx := context.Background()
	indicatorID := s.seed("EK-001", 1, id.CategoryEkonomi, true)

	s.Require().NoError(s.store.SetActive(ctx, indicatorID, false))
	found, err := s.store.FindByID(ctx, indicatorID)
	s.Require().NoError(err)
	s.False(found.Active)

	err = s.store.SetActive(ctx, id.IndicatorID(uuid.New()), false)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
