package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// CompletionTask carries everything a completion worker needs to resolve one file record
type CompletionTask struct {
	SnapshotID        uuid.UUID      `json:"snapshot_id"`
	WorkID            uuid.UUID      `json:"work_id"`
	Filename          string         `json:"filename"`
	ExpectedChecksum  string         `json:"expected_checksum"`
	SourceBucket      string         `json:"source_bucket,omitempty"`
	SourceKey         string         `json:"source_key,omitempty"`
	DestinationBucket string         `json:"destination_bucket"`
	DestinationKey    string         `json:"destination_key"`
	Action            TransferAction `json:"action"`
	Size              int64          `json:"size"`
	TransferError     string         `json:"transfer_error,omitempty"`
}

// NewCompletionTask builds the task of a planned file
func NewCompletionTask(snapshot *UploadSnapshot, file PlannedFile, sourceBucket, destinationBucket string) CompletionTask {
	task := CompletionTask{
		SnapshotID:        snapshot.ID,
		WorkID:            snapshot.WorkID,
		Filename:          file.Filename,
		ExpectedChecksum:  file.Checksum,
		DestinationBucket: destinationBucket,
		DestinationKey:    file.Filename,
		Action:            file.Action,
		Size:              file.Size,
		TransferError:     file.TransferError,
	}
	if file.Action == ActionCopy {
		task.SourceBucket = sourceBucket
		task.SourceKey = file.SourceKey
	}
	return task
}

// DeduplicationID identifies the task across redeliveries
func (t CompletionTask) DeduplicationID() string {
	return fmt.Sprintf("%s:%s", t.SnapshotID, t.Filename)
}

// Validate checks the fields a worker cannot do without
func (t CompletionTask) Validate() error {
	switch {
	case t.SnapshotID == uuid.Nil:
		return fmt.Errorf("%w: missing snapshot id", ErrInvalidTask)
	case t.Filename == "":
		return fmt.Errorf("%w: missing filename", ErrInvalidTask)
	case t.DestinationBucket == "" || t.DestinationKey == "":
		return fmt.Errorf("%w: missing destination", ErrInvalidTask)
	case t.Action == ActionCopy && (t.SourceBucket == "" || t.SourceKey == ""):
		return fmt.Errorf("%w: copy without source", ErrInvalidTask)
	}
	return nil
}

// CopyResult is the completion handle of an object copy
type CopyResult struct {
	Key     string
	ETag    string
	Failure error
}

// Successful reports whether the copy went through
func (c *CopyResult) Successful() bool {
	return c != nil && c.Failure == nil
}

// MigrationResult is returned once a migration has been planned and scheduled
type MigrationResult struct {
	Snapshot       *UploadSnapshot
	FileCount      int
	DirectoryCount int
	Skipped        bool
	Enqueued       int
}
