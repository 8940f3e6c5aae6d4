package completion_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/alert"
	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/repository"
	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/storage"
	"github.com/pulibrary/pdc-describe-sub000/internal/config"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/service/activity"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/service/completion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	uow      *repository.MockUnitOfWork
	store    *storage.MockStorage
	alerter  *alert.MockAlerter
	notifier *activity.MockActivityNotifier
	service  port.MessageService
	work     *domain.Work
}

func newFixture(retries int) *fixture {
	f := &fixture{
		uow:      repository.NewMockUnitOfWork(),
		store:    storage.NewMockStorage(),
		alerter:  alert.NewMockAlerter(),
		notifier: activity.NewMockActivityNotifier(),
		work: &domain.Work{
			ID:  uuid.New(),
			DOI: "10.34770/abc-123",
			ARK: "ark:/88435/dsp01zz",
		},
	}
	f.service = completion.NewCompletionService(
		f.uow,
		f.store,
		f.alerter,
		f.notifier,
		config.MigrationConfig{UpdateRetries: retries},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return f
}

// newSnapshot returns a snapshot of the fixture work with the given records
func (f *fixture) newSnapshot(records ...domain.FileRecord) *domain.UploadSnapshot {
	snapshot := domain.NewMigrationSnapshot(f.work.ID)
	for _, rec := range records {
		snapshot.Put(rec)
	}
	return snapshot
}

func (f *fixture) task(snapshot *domain.UploadSnapshot, filename string, action domain.TransferAction) domain.CompletionTask {
	task := domain.CompletionTask{
		SnapshotID:        snapshot.ID,
		WorkID:            f.work.ID,
		Filename:          filename,
		ExpectedChecksum:  "c1",
		DestinationBucket: "destination",
		DestinationKey:    filename,
		Action:            action,
		Size:              42,
	}
	if action == domain.ActionCopy {
		task.SourceBucket = "source"
		task.SourceKey = "88435/dsp01zz/" + filename
	}
	return task
}

func encode(t *testing.T, task domain.CompletionTask) []byte {
	t.Helper()
	data, err := json.Marshal(task)
	require.NoError(t, err)
	return data
}

func started(filename, checksum string) domain.FileRecord {
	return domain.NewTrackedRecord(filename, checksum, domain.MigrateStatusStarted, nil)
}

func TestCompletionService_HandleMessage_CopyCompletes(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(3)
	snapshot := f.newSnapshot(started("p/a.bin", "c1"), started("p/b.bin", "c2"))
	task := f.task(snapshot, "p/a.bin", domain.ActionCopy)

	f.uow.GetSnapshotRepoMock().On("FindByID", ctx, snapshot.ID).Return(snapshot, nil)
	f.store.On("CopyObject", ctx, "source", task.SourceKey, "destination", "p/a.bin", int64(42)).
		Return(&domain.CopyResult{Key: "p/a.bin", ETag: "c1"}, nil)
	f.store.On("ObjectChecksum", ctx, "destination", "p/a.bin").Return("\"c1\"", nil)
	f.uow.On("Execute", ctx, mock.Anything).Return(nil)
	f.uow.GetSnapshotRepoMock().On("UpdateRecord", ctx, snapshot.ID, "p/a.bin", mock.Anything).Return(snapshot, nil)

	// Act
	err := f.service.HandleMessage(ctx, encode(t, task))

	// Assert
	require.NoError(t, err)
	rec, _ := snapshot.Record("p/a.bin")
	assert.True(t, rec.HasStatus(domain.MigrateStatusComplete))
	assert.Equal(t, 1, snapshot.Remaining())
	f.uow.GetActivityRepoMock().AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.alerter.AssertNotCalled(t, "Alert", mock.Anything, mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	f.store.AssertExpectations(t)
}

func TestCompletionService_HandleMessage_LastRecordWritesCompletion(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(3)
	done := domain.NewTrackedRecord("p/dir/", "", domain.MigrateStatusComplete, nil)
	snapshot := f.newSnapshot(done, started("p/data_space_a.txt", "c1"))
	task := f.task(snapshot, "p/data_space_a.txt", domain.ActionUpload)

	var written []domain.Activity
	f.uow.GetSnapshotRepoMock().On("FindByID", ctx, snapshot.ID).Return(snapshot, nil)
	f.store.On("ObjectChecksum", ctx, "destination", "p/data_space_a.txt").Return("c1", nil)
	f.uow.On("Execute", ctx, mock.Anything).Return(nil)
	f.uow.GetSnapshotRepoMock().On("UpdateRecord", ctx, snapshot.ID, "p/data_space_a.txt", mock.Anything).Return(snapshot, nil)
	f.uow.GetActivityRepoMock().On("ExistsForSnapshot", ctx, snapshot.ID, domain.ActivityMigrationStart).Return(true, nil)
	f.uow.GetActivityRepoMock().On("Create", ctx, mock.AnythingOfType("domain.Activity")).
		Run(func(args mock.Arguments) {
			written = append(written, args.Get(1).(domain.Activity))
		}).
		Return(nil)
	f.notifier.On("Notify", ctx, mock.Anything).Return()

	// Act
	err := f.service.HandleMessage(ctx, encode(t, task))

	// Assert
	require.NoError(t, err)
	assert.True(t, snapshot.MigrationComplete())
	require.Len(t, written, 1)
	assert.Equal(t, domain.ActivityMigrationComplete, written[0].Type)
	assert.Equal(t, snapshot.ID, written[0].Payload.MigrationID)
	assert.Nil(t, written[0].Payload.FileCount)
	f.notifier.AssertCalled(t, "Notify", ctx, written)
	f.alerter.AssertNotCalled(t, "Alert", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompletionService_HandleMessage_ChecksumMismatch(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(3)
	snapshot := f.newSnapshot(started("p/a.bin", "c1"))
	task := f.task(snapshot, "p/a.bin", domain.ActionVerify)

	var written []domain.Activity
	var alertMessage string
	var alertAttrs map[string]string
	f.uow.GetSnapshotRepoMock().On("FindByID", ctx, snapshot.ID).Return(snapshot, nil)
	f.store.On("ObjectChecksum", ctx, "destination", "p/a.bin").Return("C1", nil)
	f.uow.On("Execute", ctx, mock.Anything).Return(nil)
	f.uow.GetSnapshotRepoMock().On("UpdateRecord", ctx, snapshot.ID, "p/a.bin", mock.Anything).Return(snapshot, nil)
	f.uow.GetActivityRepoMock().On("ExistsForSnapshot", ctx, snapshot.ID, domain.ActivityMigrationStart).Return(true, nil)
	f.uow.GetActivityRepoMock().On("Create", ctx, mock.AnythingOfType("domain.Activity")).
		Run(func(args mock.Arguments) {
			written = append(written, args.Get(1).(domain.Activity))
		}).
		Return(nil)
	f.uow.GetWorkRepoMock().On("FindByID", ctx, f.work.ID).Return(f.work, nil)
	f.alerter.On("Alert", ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			alertMessage = args.String(1)
			alertAttrs = args.Get(2).(map[string]string)
		}).
		Return(nil).Once()
	f.notifier.On("Notify", ctx, mock.Anything).Return()

	// Act
	err := f.service.HandleMessage(ctx, encode(t, task))

	// Assert
	require.NoError(t, err)
	rec, _ := snapshot.Record("p/a.bin")
	assert.True(t, rec.HasStatus(domain.MigrateStatusError))
	assert.Equal(t, domain.MigrateErrorChecksumMismatch, rec.MigrateError)
	assert.True(t, snapshot.MigrationCompleteWithErrors())

	require.Len(t, written, 1)
	assert.Equal(t, domain.ActivityMigrationCompleteWithErrors, written[0].Type)

	assert.Contains(t, alertMessage, f.work.ID.String())
	assert.Contains(t, alertMessage, f.work.DOI)
	assert.Contains(t, alertMessage, f.work.ARK)
	assert.Contains(t, alertMessage, "p/a.bin")
	assert.Equal(t, domain.MigrateErrorChecksumMismatch, alertAttrs["error"])
	f.alerter.AssertExpectations(t)
}

func TestCompletionService_HandleMessage_TransferErrorFromOrchestrator(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(3)
	snapshot := f.newSnapshot(started("p/data_space_a.txt", "c1"), started("p/b.bin", "c2"))
	task := f.task(snapshot, "p/data_space_a.txt", domain.ActionUpload)
	task.TransferError = "Transfer Failure: connection reset"

	f.uow.GetSnapshotRepoMock().On("FindByID", ctx, snapshot.ID).Return(snapshot, nil)
	f.uow.On("Execute", ctx, mock.Anything).Return(nil)
	f.uow.GetSnapshotRepoMock().On("UpdateRecord", ctx, snapshot.ID, "p/data_space_a.txt", mock.Anything).Return(snapshot, nil)
	f.uow.GetWorkRepoMock().On("FindByID", ctx, f.work.ID).Return(f.work, nil)
	f.alerter.On("Alert", ctx, mock.Anything, mock.Anything).Return(nil).Once()

	// Act
	err := f.service.HandleMessage(ctx, encode(t, task))

	// Assert
	require.NoError(t, err)
	rec, _ := snapshot.Record("p/data_space_a.txt")
	assert.True(t, rec.HasStatus(domain.MigrateStatusError))
	assert.Equal(t, "Transfer Failure: connection reset", rec.MigrateError)
	f.store.AssertNotCalled(t, "ObjectChecksum", mock.Anything, mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "CopyObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.alerter.AssertExpectations(t)
}

func TestCompletionService_HandleMessage_CopyRejected(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(3)
	snapshot := f.newSnapshot(started("p/a.bin", "c1"), started("p/b.bin", "c2"))
	task := f.task(snapshot, "p/a.bin", domain.ActionCopy)

	f.uow.GetSnapshotRepoMock().On("FindByID", ctx, snapshot.ID).Return(snapshot, nil)
	f.store.On("CopyObject", ctx, "source", task.SourceKey, "destination", "p/a.bin", int64(42)).
		Return(&domain.CopyResult{Failure: errors.New("AccessDenied: no")}, nil)
	f.uow.On("Execute", ctx, mock.Anything).Return(nil)
	f.uow.GetSnapshotRepoMock().On("UpdateRecord", ctx, snapshot.ID, "p/a.bin", mock.Anything).Return(snapshot, nil)
	f.uow.GetWorkRepoMock().On("FindByID", ctx, f.work.ID).Return(nil, domain.ErrWorkNotFound)
	f.alerter.On("Alert", ctx, mock.Anything, mock.Anything).Return(errors.New("webhook down"))

	// Act
	err := f.service.HandleMessage(ctx, encode(t, task))

	// Assert
	require.NoError(t, err)
	rec, _ := snapshot.Record("p/a.bin")
	assert.Equal(t, "Transfer Failure: AccessDenied: no", rec.MigrateError)
	f.store.AssertNotCalled(t, "ObjectChecksum", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompletionService_HandleMessage_DestinationMissing(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(3)
	snapshot := f.newSnapshot(started("p/a.bin", "c1"), started("p/b.bin", "c2"))
	task := f.task(snapshot, "p/a.bin", domain.ActionUpload)

	f.uow.GetSnapshotRepoMock().On("FindByID", ctx, snapshot.ID).Return(snapshot, nil)
	f.store.On("ObjectChecksum", ctx, "destination", "p/a.bin").Return("", domain.ErrObjectNotFound)
	f.uow.On("Execute", ctx, mock.Anything).Return(nil)
	f.uow.GetSnapshotRepoMock().On("UpdateRecord", ctx, snapshot.ID, "p/a.bin", mock.Anything).Return(snapshot, nil)
	f.uow.GetWorkRepoMock().On("FindByID", ctx, f.work.ID).Return(f.work, nil)
	f.alerter.On("Alert", ctx, mock.Anything, mock.Anything).Return(nil)

	// Act
	err := f.service.HandleMessage(ctx, encode(t, task))

	// Assert
	require.NoError(t, err)
	rec, _ := snapshot.Record("p/a.bin")
	assert.Equal(t, "Transfer Failure: destination object missing", rec.MigrateError)
}

func TestCompletionService_HandleMessage_MultipartETagVerifiedBySize(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(3)
	snapshot := f.newSnapshot(started("p/big.bin", "9b2cf535f27731c974343645a3985328-3"), started("p/b.bin", "c2"))
	task := f.task(snapshot, "p/big.bin", domain.ActionCopy)
	task.ExpectedChecksum = "9b2cf535f27731c974343645a3985328-3"

	f.uow.GetSnapshotRepoMock().On("FindByID", ctx, snapshot.ID).Return(snapshot, nil)
	f.store.On("CopyObject", ctx, "source", task.SourceKey, "destination", "p/big.bin", int64(42)).
		Return(&domain.CopyResult{Key: "p/big.bin"}, nil)
	f.store.On("StatObject", ctx, "destination", "p/big.bin").
		Return(&domain.FileDescriptor{Filename: "p/big.bin", Size: 42}, nil)
	f.uow.On("Execute", ctx, mock.Anything).Return(nil)
	f.uow.GetSnapshotRepoMock().On("UpdateRecord", ctx, snapshot.ID, "p/big.bin", mock.Anything).Return(snapshot, nil)

	// Act
	err := f.service.HandleMessage(ctx, encode(t, task))

	// Assert
	require.NoError(t, err)
	rec, _ := snapshot.Record("p/big.bin")
	assert.True(t, rec.HasStatus(domain.MigrateStatusComplete))
	f.store.AssertNotCalled(t, "ObjectChecksum", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompletionService_HandleMessage_NoOp(t *testing.T) {
	ctx := context.Background()

	t.Run("record already complete", func(t *testing.T) {
		// Arrange
		f := newFixture(3)
		snapshot := f.newSnapshot(domain.NewTrackedRecord("p/a.bin", "c1", domain.MigrateStatusComplete, nil))
		task := f.task(snapshot, "p/a.bin", domain.ActionCopy)
		f.uow.GetSnapshotRepoMock().On("FindByID", ctx, snapshot.ID).Return(snapshot, nil)

		// Act
		err := f.service.HandleMessage(ctx, encode(t, task))

		// Assert
		require.NoError(t, err)
		f.store.AssertNotCalled(t, "CopyObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.uow.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("record untracked", func(t *testing.T) {
		// Arrange
		f := newFixture(3)
		snapshot := f.newSnapshot(domain.FileRecord{Filename: "p/a.bin", Checksum: "c1"})
		task := f.task(snapshot, "p/a.bin", domain.ActionVerify)
		f.uow.GetSnapshotRepoMock().On("FindByID", ctx, snapshot.ID).Return(snapshot, nil)

		// Act
		err := f.service.HandleMessage(ctx, encode(t, task))

		// Assert
		require.NoError(t, err)
		rec, _ := snapshot.Record("p/a.bin")
		assert.False(t, rec.Tracked())
		f.uow.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("record missing", func(t *testing.T) {
		// Arrange
		f := newFixture(3)
		snapshot := f.newSnapshot(started("p/b.bin", "c2"))
		task := f.task(snapshot, "p/a.bin", domain.ActionVerify)
		f.uow.GetSnapshotRepoMock().On("FindByID", ctx, snapshot.ID).Return(snapshot, nil)

		// Act
		err := f.service.HandleMessage(ctx, encode(t, task))

		// Assert
		require.NoError(t, err)
		f.uow.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("snapshot missing", func(t *testing.T) {
		// Arrange
		f := newFixture(3)
		snapshot := f.newSnapshot()
		task := f.task(snapshot, "p/a.bin", domain.ActionVerify)
		f.uow.GetSnapshotRepoMock().On("FindByID", ctx, snapshot.ID).Return(nil, domain.ErrSnapshotNotFound)

		// Act
		err := f.service.HandleMessage(ctx, encode(t, task))

		// Assert
		require.NoError(t, err)
	})

	t.Run("repeated error does not alert twice", func(t *testing.T) {
		// Arrange
		f := newFixture(3)
		failed := domain.NewTrackedRecord("p/a.bin", "c1", domain.MigrateStatusError, nil)
		failed.MigrateError = domain.MigrateErrorChecksumMismatch
		snapshot := f.newSnapshot(failed, started("p/b.bin", "c2"))
		task := f.task(snapshot, "p/a.bin", domain.ActionVerify)

		f.uow.GetSnapshotRepoMock().On("FindByID", ctx, snapshot.ID).Return(snapshot, nil)
		f.store.On("ObjectChecksum", ctx, "destination", "p/a.bin").Return("zz", nil)
		f.uow.On("Execute", ctx, mock.Anything).Return(nil)
		f.uow.GetSnapshotRepoMock().On("UpdateRecord", ctx, snapshot.ID, "p/a.bin", mock.Anything).Return(snapshot, nil)

		// Act
		err := f.service.HandleMessage(ctx, encode(t, task))

		// Assert
		require.NoError(t, err)
		f.alerter.AssertNotCalled(t, "Alert", mock.Anything, mock.Anything, mock.Anything)
		f.uow.GetActivityRepoMock().AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestCompletionService_HandleMessage_InvalidTask(t *testing.T) {
	ctx := context.Background()

	t.Run("not json", func(t *testing.T) {
		f := newFixture(3)

		err := f.service.HandleMessage(ctx, []byte("{not json"))

		assert.ErrorIs(t, err, domain.ErrInvalidTask)
	})

	t.Run("missing snapshot id", func(t *testing.T) {
		f := newFixture(3)
		data := encode(t, domain.CompletionTask{Filename: "p/a.bin", DestinationBucket: "d", DestinationKey: "p/a.bin"})

		err := f.service.HandleMessage(ctx, data)

		assert.ErrorIs(t, err, domain.ErrInvalidTask)
		f.uow.GetSnapshotRepoMock().AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestCompletionService_HandleMessage_SourceUnavailable(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(3)
	snapshot := f.newSnapshot(started("p/a.bin", "c1"))
	task := f.task(snapshot, "p/a.bin", domain.ActionCopy)

	f.uow.GetSnapshotRepoMock().On("FindByID", ctx, snapshot.ID).Return(snapshot, nil)
	f.store.On("CopyObject", ctx, "source", task.SourceKey, "destination", "p/a.bin", int64(42)).
		Return(nil, domain.ErrSourceUnavailable)

	// Act
	err := f.service.HandleMessage(ctx, encode(t, task))

	// Assert
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	rec, _ := snapshot.Record("p/a.bin")
	assert.True(t, rec.HasStatus(domain.MigrateStatusStarted))
	f.uow.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestCompletionService_HandleMessage_ConcurrentUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("retried until the write lands", func(t *testing.T) {
		// Arrange
		f := newFixture(3)
		snapshot := f.newSnapshot(started("p/a.bin", "c1"), started("p/b.bin", "c2"))
		task := f.task(snapshot, "p/a.bin", domain.ActionVerify)

		f.uow.GetSnapshotRepoMock().On("FindByID", ctx, snapshot.ID).Return(snapshot, nil)
		f.store.On("ObjectChecksum", ctx, "destination", "p/a.bin").Return("c1", nil)
		f.uow.On("Execute", ctx, mock.Anything).Return(nil)
		f.uow.GetSnapshotRepoMock().On("UpdateRecord", ctx, snapshot.ID, "p/a.bin", mock.Anything).
			Return(nil, domain.ErrConcurrentUpdate).Twice()
		f.uow.GetSnapshotRepoMock().On("UpdateRecord", ctx, snapshot.ID, "p/a.bin", mock.Anything).
			Return(snapshot, nil).Once()

		// Act
		err := f.service.HandleMessage(ctx, encode(t, task))

		// Assert
		require.NoError(t, err)
		f.uow.GetSnapshotRepoMock().AssertNumberOfCalls(t, "UpdateRecord", 3)
		f.store.AssertNumberOfCalls(t, "ObjectChecksum", 1)
		rec, _ := snapshot.Record("p/a.bin")
		assert.True(t, rec.HasStatus(domain.MigrateStatusComplete))
	})

	t.Run("gives up after the configured retries", func(t *testing.T) {
		// Arrange
		f := newFixture(1)
		snapshot := f.newSnapshot(started("p/a.bin", "c1"))
		task := f.task(snapshot, "p/a.bin", domain.ActionVerify)

		f.uow.GetSnapshotRepoMock().On("FindByID", ctx, snapshot.ID).Return(snapshot, nil)
		f.store.On("ObjectChecksum", ctx, "destination", "p/a.bin").Return("c1", nil)
		f.uow.On("Execute", ctx, mock.Anything).Return(nil)
		f.uow.GetSnapshotRepoMock().On("UpdateRecord", ctx, snapshot.ID, "p/a.bin", mock.Anything).
			Return(nil, domain.ErrConcurrentUpdate)

		// Act
		err := f.service.HandleMessage(ctx, encode(t, task))

		// Assert
		assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
		f.uow.GetSnapshotRepoMock().AssertNumberOfCalls(t, "UpdateRecord", 2)
	})
}

func TestCompletionService_HandleMessage_CompletionWithoutStart(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(3)
	snapshot := f.newSnapshot(started("p/a.bin", "c1"))
	task := f.task(snapshot, "p/a.bin", domain.ActionVerify)

	var alertMessage string
	f.uow.GetSnapshotRepoMock().On("FindByID", ctx, snapshot.ID).Return(snapshot, nil)
	f.store.On("ObjectChecksum", ctx, "destination", "p/a.bin").Return("c1", nil)
	f.uow.On("Execute", ctx, mock.Anything).Return(nil)
	f.uow.GetSnapshotRepoMock().On("UpdateRecord", ctx, snapshot.ID, "p/a.bin", mock.Anything).Return(snapshot, nil)
	f.uow.GetActivityRepoMock().On("ExistsForSnapshot", ctx, snapshot.ID, domain.ActivityMigrationStart).Return(false, nil)
	f.uow.GetActivityRepoMock().On("Create", ctx, mock.AnythingOfType("domain.Activity")).Return(nil).Once()
	f.uow.GetWorkRepoMock().On("FindByID", ctx, f.work.ID).Return(f.work, nil)
	f.alerter.On("Alert", ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			alertMessage = args.String(1)
		}).
		Return(nil).Once()
	f.notifier.On("Notify", ctx, mock.Anything).Return()

	// Act
	err := f.service.HandleMessage(ctx, encode(t, task))

	// Assert
	require.NoError(t, err)
	f.uow.GetActivityRepoMock().AssertExpectations(t)
	assert.Contains(t, alertMessage, "without a start activity")
	assert.Contains(t, alertMessage, f.work.ARK)
}
