package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SnapshotKind distinguishes migration snapshots from generic upload snapshots
type SnapshotKind string

const (
	SnapshotKindUpload    SnapshotKind = "upload"
	SnapshotKindMigration SnapshotKind = "migration"
)

// UploadSnapshot is the ordered list of file records of one upload or migration attempt
type UploadSnapshot struct {
	ID        uuid.UUID
	WorkID    uuid.UUID
	Kind      SnapshotKind
	Files     []FileRecord
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMigrationSnapshot creates an empty migration snapshot for a work
func NewMigrationSnapshot(workID uuid.UUID) *UploadSnapshot {
	return &UploadSnapshot{
		ID:     uuid.New(),
		WorkID: workID,
		Kind:   SnapshotKindMigration,
		Files:  []FileRecord{},
	}
}

// RecordUpdate describes the outcome of a record mutation. Snapshot is the state after the mutation.
type RecordUpdate struct {
	Filename        string
	Record          FileRecord
	Changed         bool
	RemainingBefore int
	RemainingAfter  int
	Snapshot        *UploadSnapshot
}

// Resolved reports whether this update resolved the last started record of the snapshot
func (u RecordUpdate) Resolved() bool {
	return u.Changed && u.RemainingBefore > 0 && u.RemainingAfter == 0
}

func (s *UploadSnapshot) indexOf(filename string) int {
	for i := range s.Files {
		if s.Files[i].Filename == filename {
			return i
		}
	}
	return -1
}

// Record returns the record for a filename
func (s *UploadSnapshot) Record(filename string) (FileRecord, bool) {
	i := s.indexOf(filename)
	if i < 0 {
		return FileRecord{}, false
	}
	return s.Files[i], true
}

// Put stores a record keyed by filename, replacing any previous record with that filename
func (s *UploadSnapshot) Put(rec FileRecord) {
	if i := s.indexOf(rec.Filename); i >= 0 {
		s.Files[i] = rec
		return
	}
	s.Files = append(s.Files, rec)
}

// Remaining returns the number of records still started
func (s *UploadSnapshot) Remaining() int {
	n := 0
	for _, rec := range s.Files {
		if rec.HasStatus(MigrateStatusStarted) {
			n++
		}
	}
	return n
}

// CountByStatus returns how many tracked records hold the status
func (s *UploadSnapshot) CountByStatus(status MigrateStatus) int {
	n := 0
	for _, rec := range s.Files {
		if rec.HasStatus(status) {
			n++
		}
	}
	return n
}

// MigrationComplete is true iff every tracked record is complete. Untracked records are ignored.
func (s *UploadSnapshot) MigrationComplete() bool {
	for _, rec := range s.Files {
		if rec.Tracked() && !rec.HasStatus(MigrateStatusComplete) {
			return false
		}
	}
	return true
}

// MigrationCompleteWithErrors is true iff at least one record failed and none is still started
func (s *UploadSnapshot) MigrationCompleteWithErrors() bool {
	return s.CountByStatus(MigrateStatusError) > 0 && s.Remaining() == 0
}

// UpdateRecord applies a mutation to the record with the filename
func (s *UploadSnapshot) UpdateRecord(filename string, mutate RecordMutation) (RecordUpdate, error) {
	i := s.indexOf(filename)
	if i < 0 {
		return RecordUpdate{}, fmt.Errorf("%s: %w", filename, ErrFileRecordNotFound)
	}

	before := s.Remaining()
	rec := s.Files[i]
	changed, err := mutate(&rec)
	if err != nil {
		return RecordUpdate{}, fmt.Errorf("%s: %w", filename, err)
	}
	if changed {
		s.Files[i] = rec
	}

	return RecordUpdate{
		Filename:        filename,
		Record:          s.Files[i],
		Changed:         changed,
		RemainingBefore: before,
		RemainingAfter:  s.Remaining(),
		Snapshot:        s,
	}, nil
}

// Filenames returns the set of filenames in the snapshot
func (s *UploadSnapshot) Filenames() map[string]struct{} {
	names := make(map[string]struct{}, len(s.Files))
	for _, rec := range s.Files {
		names[rec.Filename] = struct{}{}
	}
	return names
}
