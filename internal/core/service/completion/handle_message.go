package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
)

const missingDestinationDetail = "destination object missing"

type recordOutcome struct {
	update     *domain.RecordUpdate
	completion *domain.Activity
	started    bool
}

// HandleMessage resolves the file record of one completion task.
// A returned error other than domain.ErrInvalidTask asks for redelivery.
func (c *completionService) HandleMessage(ctx context.Context, data []byte) error {
	var task domain.CompletionTask
	if err := json.Unmarshal(data, &task); err != nil {
		completionsTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: %v", domain.ErrInvalidTask, err)
	}
	if err := task.Validate(); err != nil {
		completionsTotal.WithLabelValues("invalid").Inc()
		return err
	}

	logger := c.logger.With("snapshot_id", task.SnapshotID, "filename", task.Filename)

	snapshot, err := c.uow.SnapshotRepo().FindByID(ctx, task.SnapshotID)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		logger.Warn("snapshot not found, task dropped")
		completionsTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	if err != nil {
		return err
	}

	rec, ok := snapshot.Record(task.Filename)
	switch {
	case !ok:
		logger.Warn("file record not found, task dropped")
		completionsTotal.WithLabelValues("skipped").Inc()
		return nil
	case !rec.Tracked():
		logger.Info("file record is not tracked, task dropped")
		completionsTotal.WithLabelValues("skipped").Inc()
		return nil
	case rec.HasStatus(domain.MigrateStatusComplete):
		logger.Debug("file record already complete")
		completionsTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	mutation, err := c.resolve(ctx, task)
	if err != nil {
		logger.Error("failed to resolve completion task", "err", err)
		completionsTotal.WithLabelValues("retry").Inc()
		return err
	}

	outcome, err := c.writeRecord(ctx, task, mutation)
	if errors.Is(err, domain.ErrUntrackedRecord) || errors.Is(err, domain.ErrFileRecordNotFound) {
		logger.Warn("file record changed under the task, task dropped", "err", err)
		completionsTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	if err != nil {
		logger.Error("failed to update file record", "err", err)
		completionsTotal.WithLabelValues("retry").Inc()
		return err
	}

	update := outcome.update
	switch {
	case !update.Changed:
		completionsTotal.WithLabelValues("unchanged").Inc()
	case update.Record.HasStatus(domain.MigrateStatusError):
		completionsTotal.WithLabelValues("error").Inc()
		logger.Warn("file migration failed", "migrate_error", update.Record.MigrateError)
		c.alertFailure(ctx, logger, task, update.Record)
	default:
		completionsTotal.WithLabelValues("complete").Inc()
		logger.Info("file migrated")
	}

	if outcome.completion != nil {
		logger.Info("migration completed", "work_id", task.WorkID, "type", outcome.completion.Type)
		c.notifier.Notify(ctx, *outcome.completion)
		if !outcome.started {
			c.alertMissingStart(ctx, logger, task)
		}
	}
	return nil
}

// resolve performs the pending transfer and verification, it returns the mutation of the record
func (c *completionService) resolve(ctx context.Context, task domain.CompletionTask) (domain.RecordMutation, error) {
	if task.TransferError != "" {
		return domain.MarkError(task.TransferError), nil
	}

	if task.Action == domain.ActionCopy {
		result, err := c.store.CopyObject(ctx, task.SourceBucket, task.SourceKey, task.DestinationBucket, task.DestinationKey, task.Size)
		if err != nil {
			return nil, err
		}
		if !result.Successful() {
			return domain.MarkError(domain.TransferErrorMessage(result.Failure.Error())), nil
		}
	}

	return c.verify(ctx, task)
}

// verify compares the destination object to the expected digest.
// A multipart etag is not a content digest, such objects are verified by size.
func (c *completionService) verify(ctx context.Context, task domain.CompletionTask) (domain.RecordMutation, error) {
	if domain.IsMultipartETag(task.ExpectedChecksum) {
		info, err := c.store.StatObject(ctx, task.DestinationBucket, task.DestinationKey)
		if errors.Is(err, domain.ErrObjectNotFound) {
			return domain.MarkError(domain.TransferErrorMessage(missingDestinationDetail)), nil
		}
		if err != nil {
			return nil, err
		}
		if info.Size == task.Size {
			return domain.MarkComplete(), nil
		}
		return domain.MarkError(domain.MigrateErrorChecksumMismatch), nil
	}

	observed, err := c.store.ObjectChecksum(ctx, task.DestinationBucket, task.DestinationKey)
	if errors.Is(err, domain.ErrObjectNotFound) {
		return domain.MarkError(domain.TransferErrorMessage(missingDestinationDetail)), nil
	}
	if err != nil {
		return nil, err
	}

	if domain.ChecksumsEqual(observed, task.ExpectedChecksum) {
		return domain.MarkComplete(), nil
	}
	return domain.MarkError(domain.MigrateErrorChecksumMismatch), nil
}

// writeRecord applies the mutation and, when it resolves the last started record,
// appends the completion activity in the same transaction. Lost version races are retried.
func (c *completionService) writeRecord(ctx context.Context, task domain.CompletionTask, mutation domain.RecordMutation) (*recordOutcome, error) {
	b := newBackoff()
	for attempt := 0; ; attempt++ {
		outcome := &recordOutcome{}

		err := c.uow.Execute(ctx, func(uow port.UnitOfWork) error {
			update, err := uow.SnapshotRepo().UpdateRecord(ctx, task.SnapshotID, task.Filename, mutation)
			if err != nil {
				return err
			}
			outcome.update = update
			if !update.Resolved() {
				return nil
			}

			started, err := uow.ActivityRepo().ExistsForSnapshot(ctx, task.SnapshotID, domain.ActivityMigrationStart)
			if err != nil {
				return err
			}

			completion := domain.NewMigrationCompletionActivity(update.Snapshot)
			if err := uow.ActivityRepo().Create(ctx, completion); err != nil {
				return err
			}
			outcome.completion = &completion
			outcome.started = started
			return nil
		})
		if err == nil {
			return outcome, nil
		}
		if !errors.Is(err, domain.ErrConcurrentUpdate) || attempt >= c.retries {
			return nil, err
		}

		updateConflictsTotal.Inc()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
}

func (c *completionService) alertFailure(ctx context.Context, logger *slog.Logger, task domain.CompletionTask, rec domain.FileRecord) {
	attrs := map[string]string{
		"work_id":     task.WorkID.String(),
		"snapshot_id": task.SnapshotID.String(),
		"filename":    task.Filename,
		"error":       rec.MigrateError,
	}
	c.withWork(ctx, logger, task, attrs)

	message := fmt.Sprintf("Migration of %s failed for work %s (DOI %s, ARK %s): %s",
		task.Filename, task.WorkID, attrs["doi"], attrs["ark"], rec.MigrateError)
	if err := c.alerter.Alert(ctx, message, attrs); err != nil {
		logger.Error("failed to raise alert", "err", err)
	}
}

func (c *completionService) alertMissingStart(ctx context.Context, logger *slog.Logger, task domain.CompletionTask) {
	attrs := map[string]string{
		"work_id":     task.WorkID.String(),
		"snapshot_id": task.SnapshotID.String(),
	}
	c.withWork(ctx, logger, task, attrs)

	message := fmt.Sprintf("Migration %s of work %s (DOI %s, ARK %s) completed without a start activity",
		task.SnapshotID, task.WorkID, attrs["doi"], attrs["ark"])
	if err := c.alerter.Alert(ctx, message, attrs); err != nil {
		logger.Error("failed to raise alert", "err", err)
	}
}

func (c *completionService) withWork(ctx context.Context, logger *slog.Logger, task domain.CompletionTask, attrs map[string]string) {
	work, err := c.uow.WorkRepo().FindByID(ctx, task.WorkID)
	if err != nil {
		logger.Warn("work lookup for alert failed", "work_id", task.WorkID, "err", err)
		return
	}
	attrs["doi"] = work.DOI
	attrs["ark"] = work.ARK
}
