package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSnapshot(records ...domain.FileRecord) *domain.UploadSnapshot {
	s := domain.NewMigrationSnapshot(uuid.New())
	for _, rec := range records {
		s.Put(rec)
	}
	return s
}

func started(filename string) domain.FileRecord {
	return domain.NewTrackedRecord(filename, "c-"+filename, domain.MigrateStatusStarted, nil)
}

func TestUploadSnapshot_Put(t *testing.T) {
	s := newSnapshot(started("a"), started("b"))

	s.Put(domain.NewTrackedRecord("a", "other", domain.MigrateStatusComplete, nil))

	require.Len(t, s.Files, 2)
	assert.Equal(t, "a", s.Files[0].Filename)
	assert.Equal(t, "other", s.Files[0].Checksum)
	assert.Equal(t, "b", s.Files[1].Filename)
}

func TestUploadSnapshot_MigrationComplete(t *testing.T) {
	tests := []struct {
		name       string
		records    []domain.FileRecord
		complete   bool
		withErrors bool
		remaining  int
	}{
		{
			name:     "empty snapshot",
			complete: true,
		},
		{
			name:      "started record",
			records:   []domain.FileRecord{started("a"), domain.NewTrackedRecord("b", "", domain.MigrateStatusComplete, nil)},
			remaining: 1,
		},
		{
			name: "untracked records are ignored",
			records: []domain.FileRecord{
				{Filename: "legacy.txt"},
				domain.NewTrackedRecord("b", "", domain.MigrateStatusComplete, nil),
			},
			complete: true,
		},
		{
			name: "error and no started",
			records: []domain.FileRecord{
				domain.NewTrackedRecord("a", "", domain.MigrateStatusError, nil),
				domain.NewTrackedRecord("b", "", domain.MigrateStatusComplete, nil),
			},
			withErrors: true,
		},
		{
			name: "error with started",
			records: []domain.FileRecord{
				domain.NewTrackedRecord("a", "", domain.MigrateStatusError, nil),
				started("b"),
			},
			remaining: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSnapshot(tt.records...)

			assert.Equal(t, tt.complete, s.MigrationComplete())
			assert.Equal(t, tt.withErrors, s.MigrationCompleteWithErrors())
			assert.Equal(t, tt.remaining, s.Remaining())
		})
	}
}

func TestUploadSnapshot_UpdateRecord(t *testing.T) {

	t.Run("completes the last started record", func(t *testing.T) {
		// Arrange
		s := newSnapshot(started("a"), domain.NewTrackedRecord("b", "", domain.MigrateStatusComplete, nil))

		// Act
		update, err := s.UpdateRecord("a", domain.MarkComplete())

		// Assert
		require.NoError(t, err)
		assert.True(t, update.Changed)
		assert.True(t, update.Resolved())
		assert.Equal(t, 1, update.RemainingBefore)
		assert.Equal(t, 0, update.RemainingAfter)
		assert.Same(t, s, update.Snapshot)
		assert.True(t, s.MigrationComplete())
	})

	t.Run("other records still started", func(t *testing.T) {
		s := newSnapshot(started("a"), started("b"))

		update, err := s.UpdateRecord("a", domain.MarkError(domain.MigrateErrorChecksumMismatch))

		require.NoError(t, err)
		assert.True(t, update.Changed)
		assert.False(t, update.Resolved())
		assert.Equal(t, domain.MigrateErrorChecksumMismatch, update.Record.MigrateError)
		assert.True(t, update.Record.HasStatus(domain.MigrateStatusError))
	})

	t.Run("complete is terminal", func(t *testing.T) {
		s := newSnapshot(domain.NewTrackedRecord("a", "", domain.MigrateStatusComplete, nil))

		update, err := s.UpdateRecord("a", domain.MarkError("Transfer Failure"))

		require.NoError(t, err)
		assert.False(t, update.Changed)
		assert.False(t, update.Resolved())
		assert.True(t, update.Record.HasStatus(domain.MigrateStatusComplete))
	})

	t.Run("same error twice is unchanged", func(t *testing.T) {
		s := newSnapshot(started("a"))
		_, err := s.UpdateRecord("a", domain.MarkError("Transfer Failure: boom"))
		require.NoError(t, err)

		update, err := s.UpdateRecord("a", domain.MarkError("Transfer Failure: boom"))

		require.NoError(t, err)
		assert.False(t, update.Changed)
	})

	t.Run("error to complete clears the message", func(t *testing.T) {
		s := newSnapshot(started("a"))
		_, err := s.UpdateRecord("a", domain.MarkError("Transfer Failure: boom"))
		require.NoError(t, err)

		update, err := s.UpdateRecord("a", domain.MarkComplete())

		require.NoError(t, err)
		assert.True(t, update.Changed)
		assert.False(t, update.Resolved())
		assert.Empty(t, update.Record.MigrateError)
	})

	t.Run("unknown filename", func(t *testing.T) {
		s := newSnapshot(started("a"))

		_, err := s.UpdateRecord("missing", domain.MarkComplete())

		assert.ErrorIs(t, err, domain.ErrFileRecordNotFound)
	})

	t.Run("untracked record", func(t *testing.T) {
		s := newSnapshot(domain.FileRecord{Filename: "legacy.txt"})

		_, err := s.UpdateRecord("legacy.txt", domain.MarkComplete())

		assert.ErrorIs(t, err, domain.ErrUntrackedRecord)
		rec, ok := s.Record("legacy.txt")
		require.True(t, ok)
		assert.False(t, rec.Tracked())
	})
}

func TestFileRecord_Untracked(t *testing.T) {
	userID := "uid42"
	rec := domain.NewTrackedRecord("a", "c1", domain.MigrateStatusError, &userID)
	rec.MigrateError = "Checksum Mismatch"

	untracked := rec.Untracked()

	assert.False(t, untracked.Tracked())
	assert.Empty(t, untracked.MigrateError)
	assert.Equal(t, "c1", untracked.Checksum)
	assert.Equal(t, &userID, untracked.UserID)
}
