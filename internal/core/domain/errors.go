package domain

import "errors"

// ErrAlreadyExists is an error thrown when entity already exists
var ErrAlreadyExists = errors.New("already exists")

// ErrWorkNotFound is an error thrown when a work is not found
var ErrWorkNotFound = errors.New("work not found")

// ErrSnapshotNotFound is an error thrown when an upload snapshot is not found
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrFileRecordNotFound is an error thrown when a snapshot has no record for a filename
var ErrFileRecordNotFound = errors.New("file record not found")

// ErrUntrackedRecord is an error thrown when a mutation targets a record without migration status
var ErrUntrackedRecord = errors.New("file record is not tracked")

// ErrConcurrentUpdate is an error thrown when a snapshot changed between read and write
var ErrConcurrentUpdate = errors.New("concurrent snapshot update")

// ErrSourceUnavailable is an error thrown when the legacy API or the object store cannot be reached
var ErrSourceUnavailable = errors.New("source unavailable")

// ErrChecksumMismatch is an error thrown when content disagrees with its reported digest
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ErrTransferFailure is an error thrown when an upload or copy reports failure
var ErrTransferFailure = errors.New("transfer failure")

// ErrUnverifiableDigest is an error thrown when a digest algorithm is not supported
var ErrUnverifiableDigest = errors.New("unverifiable digest")

// ErrObjectNotFound is an error thrown when an object does not exist in a bucket
var ErrObjectNotFound = errors.New("object not found")

// ErrInvalidTask is an error thrown when a completion task cannot be processed
var ErrInvalidTask = errors.New("invalid completion task")

// ErrInvalidWork is an error thrown when a work lacks an identifier needed for migration
var ErrInvalidWork = errors.New("invalid work")
