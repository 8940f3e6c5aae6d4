package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
)

// MigrateWork plans and schedules the migration of every legacy and side-channel file of a work.
// Files are resolved asynchronously by the completion workers, directory keys are copied here.
func (s *migrationService) MigrateWork(ctx context.Context, workID uuid.UUID) (*domain.MigrationResult, error) {
	work, err := s.uow.WorkRepo().FindByID(ctx, workID)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With("work_id", work.ID, "ark", work.ARK)

	skipped := s.skipsLegacy(work.ARK)

	var staged []domain.StagedFile
	if skipped {
		logger.Info("legacy migration skipped for ark")
	} else {
		staged, err = s.stageLegacyFiles(ctx, logger, work.ARK)
		if err != nil {
			migrationsTotal.WithLabelValues("failed").Inc()
			return nil, err
		}
	}

	listing, err := s.store.ListObjects(ctx, s.sourceBucket, work.SourcePrefix()+"/")
	if err != nil {
		migrationsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("error listing side-channel objects: %w", err)
	}

	plan := domain.BuildMigrationPlan(*work, staged, listing)
	discardUnplanned(logger, staged, plan)

	if err := s.transferFiles(ctx, logger, plan); err != nil {
		migrationsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	s.copyDirectories(ctx, logger, plan)

	prior, err := s.uow.SnapshotRepo().FindByWorkID(ctx, work.ID)
	if err != nil {
		migrationsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	snapshot := domain.NewMigrationSnapshot(work.ID)
	for _, rec := range plan.Records(work.UserID) {
		snapshot.Put(rec)
	}
	for _, rec := range domain.CarriedForwardRecords(prior, snapshot.Filenames()) {
		snapshot.Put(rec)
	}

	var activities []domain.Activity
	txErr := s.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		if err := uow.SnapshotRepo().Create(ctx, snapshot); err != nil {
			return err
		}

		if skipped {
			skip := domain.NewMigrationSkipActivity(work.ID, snapshot.ID, work.ARK, plan.FileCount(), plan.DirectoryCount())
			if err := uow.ActivityRepo().Create(ctx, skip); err != nil {
				return err
			}
			activities = append(activities, skip)
		}

		start := domain.NewMigrationStartActivity(work.ID, snapshot.ID, plan.FileCount(), plan.DirectoryCount())
		if err := uow.ActivityRepo().Create(ctx, start); err != nil {
			return err
		}
		activities = append(activities, start)

		if err := uow.WorkRepo().MarkMigrated(ctx, work.ID); err != nil {
			return err
		}

		if snapshot.Remaining() == 0 {
			completion := domain.NewMigrationCompletionActivity(snapshot)
			if err := uow.ActivityRepo().Create(ctx, completion); err != nil {
				return err
			}
			activities = append(activities, completion)
		}
		return nil
	})
	if txErr != nil {
		migrationsTotal.WithLabelValues("failed").Inc()
		logger.Error("failed to persist migration snapshot", "err", txErr)
		return nil, txErr
	}

	s.notifier.Notify(ctx, activities...)

	enqueued := s.enqueueCompletions(ctx, logger, snapshot, plan)

	result := "migrated"
	if skipped {
		result = "skipped"
	}
	migrationsTotal.WithLabelValues(result).Inc()

	logger.Info("migration scheduled",
		"snapshot_id", snapshot.ID,
		"files", plan.FileCount(),
		"directories", plan.DirectoryCount(),
		"enqueued", enqueued)

	return &domain.MigrationResult{
		Snapshot:       snapshot,
		FileCount:      plan.FileCount(),
		DirectoryCount: plan.DirectoryCount(),
		Skipped:        skipped,
		Enqueued:       enqueued,
	}, nil
}

// stageLegacyFiles downloads the legacy bitstreams of an ARK. Unverifiable bitstreams are left out,
// failed downloads are kept so that their record ends in error.
func (s *migrationService) stageLegacyFiles(ctx context.Context, logger *slog.Logger, ark string) ([]domain.StagedFile, error) {
	bitstreams, err := s.legacy.ListBitstreams(ctx, ark)
	if err != nil {
		return nil, fmt.Errorf("error listing legacy bitstreams: %w", err)
	}
	if len(bitstreams) == 0 {
		return nil, nil
	}

	results := s.legacy.DownloadBitstreams(ctx, bitstreams)

	staged := make([]domain.StagedFile, 0, len(results))
	for _, result := range results {
		file, ok := domain.NewStagedFile(result)
		if !ok {
			logger.Warn("legacy bitstream not migrated",
				"bitstream", result.Bitstream.Name,
				"algorithm", result.Bitstream.ChecksumAlgorithm,
				"err", result.Err)
			continue
		}
		if file.Failure != "" {
			logger.Error("legacy bitstream download failed", "bitstream", result.Bitstream.Name, "err", result.Err)
		}
		staged = append(staged, file)
	}
	return staged, nil
}

// transferFiles skips files already in place and uploads staged legacy files.
// Only an unreachable destination aborts, any other transfer problem is kept on the planned file.
func (s *migrationService) transferFiles(ctx context.Context, logger *slog.Logger, plan *domain.MigrationPlan) error {
	for i := range plan.Files {
		file := &plan.Files[i]
		if file.TransferError != "" {
			continue
		}

		present, err := s.alreadyMigrated(ctx, file)
		if err != nil {
			return err
		}
		if present {
			logger.Info("destination object already in place", "key", file.Filename)
			if file.Origin == domain.FileOriginLegacy {
				removeStaged(logger, file.LocalPath)
			}
			file.Action = domain.ActionVerify
			plannedFilesTotal.WithLabelValues(string(file.Origin), string(file.Action)).Inc()
			continue
		}

		if file.Action == domain.ActionUpload {
			if _, err := s.store.UploadFile(ctx, s.destinationBucket, file.Filename, file.LocalPath); err != nil {
				logger.Error("failed to upload legacy file", "key", file.Filename, "err", err)
				file.TransferError = domain.TransferErrorMessage(err.Error())
			} else {
				removeStaged(logger, file.LocalPath)
			}
		}
		plannedFilesTotal.WithLabelValues(string(file.Origin), string(file.Action)).Inc()
	}
	return nil
}

func (s *migrationService) alreadyMigrated(ctx context.Context, file *domain.PlannedFile) (bool, error) {
	observed, err := s.store.ObjectChecksum(ctx, s.destinationBucket, file.Filename)
	switch {
	case errors.Is(err, domain.ErrObjectNotFound):
		return false, nil
	case errors.Is(err, domain.ErrSourceUnavailable):
		return false, fmt.Errorf("error checking destination object %s: %w", file.Filename, err)
	case err != nil:
		s.logger.Warn("destination checksum unavailable", "key", file.Filename, "err", err)
		return false, nil
	}
	return domain.ChecksumsEqual(observed, file.Checksum), nil
}

// copyDirectories copies the zero-byte directory keys, they are resolved before the snapshot is written
func (s *migrationService) copyDirectories(ctx context.Context, logger *slog.Logger, plan *domain.MigrationPlan) {
	for i := range plan.Directories {
		dir := &plan.Directories[i]

		result, err := s.store.CopyObject(ctx, s.sourceBucket, dir.SourceKey, s.destinationBucket, dir.Filename, 0)
		switch {
		case err != nil:
			dir.TransferError = domain.TransferErrorMessage(err.Error())
		case !result.Successful():
			dir.TransferError = domain.TransferErrorMessage(result.Failure.Error())
		}

		if dir.TransferError != "" {
			logger.Error("failed to copy directory key", "key", dir.Filename, "err", dir.TransferError)
		}
	}
}

func (s *migrationService) enqueueCompletions(ctx context.Context, logger *slog.Logger, snapshot *domain.UploadSnapshot, plan *domain.MigrationPlan) int {
	enqueued := 0
	for _, file := range plan.Files {
		task := domain.NewCompletionTask(snapshot, file, s.sourceBucket, s.destinationBucket)
		if err := s.tasks.EnqueueCompletion(ctx, task); err != nil {
			enqueueFailuresTotal.Inc()
			logger.Error("failed to enqueue completion task", "snapshot_id", snapshot.ID, "filename", file.Filename, "err", err)
			continue
		}
		enqueued++
	}
	return enqueued
}

// discardUnplanned removes the staged downloads that lost their destination key to another entry of the plan
func discardUnplanned(logger *slog.Logger, staged []domain.StagedFile, plan *domain.MigrationPlan) {
	planned := make(map[string]struct{}, len(plan.Files))
	for _, file := range plan.Files {
		if file.LocalPath != "" {
			planned[file.LocalPath] = struct{}{}
		}
	}
	for _, file := range staged {
		if _, ok := planned[file.LocalPath]; ok {
			continue
		}
		removeStaged(logger, file.LocalPath)
	}
}

func removeStaged(logger *slog.Logger, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to remove staged file", "path", path, "err", err)
	}
}
