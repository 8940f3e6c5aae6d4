package domain

import "time"

// MigrateStatus represents the migration status of a file record
type MigrateStatus string

const (
	MigrateStatusStarted  MigrateStatus = "started"
	MigrateStatusComplete MigrateStatus = "complete"
	MigrateStatusError    MigrateStatus = "error"
)

// MigrateErrorChecksumMismatch is the record error for content that failed verification
const MigrateErrorChecksumMismatch = "Checksum Mismatch"

// MigrateErrorTransferPrefix prefixes the record error for failed uploads and copies
const MigrateErrorTransferPrefix = "Transfer Failure"

// FileDescriptor is a read-only view of one object discovered in a source
type FileDescriptor struct {
	Filename     string
	Size         int64
	LastModified time.Time
	Checksum     string
}

// IsDirectory reports whether the descriptor is a zero-byte directory placeholder
func (f FileDescriptor) IsDirectory() bool {
	return f.Size == 0
}

// ObjectListing is the flattened result of a prefix listing
type ObjectListing struct {
	Files       []FileDescriptor
	Directories []FileDescriptor
}

// Count returns the number of files and directories in the listing
func (l *ObjectListing) Count() (int, int) {
	if l == nil {
		return 0, 0
	}
	return len(l.Files), len(l.Directories)
}

// FileRecord is one row of an upload snapshot.
// A nil Status marks a record that predates migration tracking.
type FileRecord struct {
	Filename     string         `json:"filename"`
	Checksum     string         `json:"checksum,omitempty"`
	Status       *MigrateStatus `json:"migrate_status,omitempty"`
	MigrateError string         `json:"migrate_error,omitempty"`
	UserID       *string        `json:"user_id,omitempty"`
}

// NewTrackedRecord creates a record with the given migration status
func NewTrackedRecord(filename, checksum string, status MigrateStatus, userID *string) FileRecord {
	return FileRecord{
		Filename: filename,
		Checksum: checksum,
		Status:   &status,
		UserID:   userID,
	}
}

// Tracked reports whether the record carries a migration status
func (r FileRecord) Tracked() bool {
	return r.Status != nil
}

// HasStatus reports whether the record is tracked with the given status
func (r FileRecord) HasStatus(status MigrateStatus) bool {
	return r.Status != nil && *r.Status == status
}

// Untracked returns a copy of the record without migration status or error
func (r FileRecord) Untracked() FileRecord {
	return FileRecord{
		Filename: r.Filename,
		Checksum: r.Checksum,
		UserID:   r.UserID,
	}
}

// RecordMutation changes one file record in place and reports whether it changed
type RecordMutation func(rec *FileRecord) (bool, error)

// MarkComplete sets the record to complete. Completing a complete record is a no-op.
func MarkComplete() RecordMutation {
	return func(rec *FileRecord) (bool, error) {
		if !rec.Tracked() {
			return false, ErrUntrackedRecord
		}
		if rec.HasStatus(MigrateStatusComplete) {
			return false, nil
		}
		status := MigrateStatusComplete
		rec.Status = &status
		rec.MigrateError = ""
		return true, nil
	}
}

// MarkError sets the record to error with a message. Complete records are left unchanged.
func MarkError(message string) RecordMutation {
	return func(rec *FileRecord) (bool, error) {
		if !rec.Tracked() {
			return false, ErrUntrackedRecord
		}
		if rec.HasStatus(MigrateStatusComplete) {
			return false, nil
		}
		if rec.HasStatus(MigrateStatusError) && rec.MigrateError == message {
			return false, nil
		}
		status := MigrateStatusError
		rec.Status = &status
		rec.MigrateError = message
		return true, nil
	}
}
