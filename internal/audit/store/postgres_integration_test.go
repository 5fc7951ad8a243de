//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"satudata/internal/audit"
	"satudata/internal/audit/store"
	id "satudata/pkg/domain"
	txcontext "satudata/pkg/platform/tx"
	"satudata/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *AuditStoreSuite) TearDownSuite() {
	_ = s.postgres.DB.Close()
	_ = s.postgres.Container.Terminate(context.Background())
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *AuditStoreSuite) newEntry(recordID string, at time.Time) audit.Entry {
	entry, err := audit.NewCreateEntry("indicator_data", recordID, id.UserID(uuid.New()), map[string]any{"value": 1}, at)
	s.Require().NoError(err)
	return entry
}

func (s *AuditStoreSuite) TestAppendAndListOrdering() {
	ctx := context.Background()
	recordID := uuid.NewString()
	base := time.Now().UTC().Truncate(time.Microsecond)

	for i := 0; i < 3; i++ {
		s.Require().NoError(s.store.Append(ctx, s.newEntry(recordID, base.Add(time.Duration(i)*time.Second))))
	}
	// Unrelated record, must not appear.
	s.Require().NoError(s.store.Append(ctx, s.newEntry(uuid.NewString(), base)))

	entries, err := s.store.ListByRecord(ctx, "indicator_data", recordID)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	for i := 1; i < len(entries); i++ {
		s.False(entries[i].CreatedAt.Before(entries[i-1].CreatedAt), "entries must be oldest first")
	}
	s.NotNil(entries[0].NewValues)
}

// TestAppendJoinsTransaction verifies the append-with-mutation guarantee: an
// entry written inside a rolled-back transaction leaves no trace.
func (s *AuditStoreSuite) TestAppendJoinsTransaction() {
	ctx := context.Background()
	recordID := uuid.NewString()

	tx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)
	txCtx := txcontext.WithTx(ctx, tx)
	s.Require().NoError(s.store.Append(txCtx, s.newEntry(recordID, time.Now().UTC())))
	s.Require().NoError(tx.Rollback())

	entries, err := s.store.ListByRecord(ctx, "indicator_data", recordID)
	s.Require().NoError(err)
	s.Empty(entries, "rolled-back append must leave no audit row")
}

// TestSavepointRollbackKeepsSiblings mirrors what bulk import relies on: a
// failed savepoint discards only its own writes.
func (s *AuditStoreSuite) TestSavepointRollbackKeepsSiblings() {
	ctx := context.Background()
	keptRecord := uuid.NewString()
	lostRecord := uuid.NewString()

	tx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)
	txCtx := txcontext.WithTx(ctx, tx)

	err = txcontext.InSavepoint(txCtx, "row_1", func(spCtx context.Context) error {
		return s.store.Append(spCtx, s.newEntry(keptRecord, time.Now().UTC()))
	})
	s.Require().NoError(err)

	err = txcontext.InSavepoint(txCtx, "row_2", func(spCtx context.Context) error {
		s.Require().NoError(s.store.Append(spCtx, s.newEntry(lostRecord, time.Now().UTC())))
		return context.DeadlineExceeded // force the savepoint to roll back
	})
	s.Error(err)

	s.Require().NoError(tx.Commit())

	kept, err := s.store.ListByRecord(ctx, "indicator_data", keptRecord)
	s.Require().NoError(err)
	s.Len(kept, 1)

	lost, err := s.store.ListByRecord(ctx, "indicator_data", lostRecord)
	s.Require().NoError(err)
	s.Empty(lost, "rolled-back savepoint must discard its writes")
}
