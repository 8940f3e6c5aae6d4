package domain

import "fmt"

// FileOrigin tells where a planned file comes from
type FileOrigin string

const (
	FileOriginLegacy FileOrigin = "legacy"
	FileOriginBucket FileOrigin = "bucket"
)

// TransferAction is what has to happen to a planned file before it can be verified
type TransferAction string

const (
	// ActionUpload sends a staged legacy file to the destination bucket
	ActionUpload TransferAction = "upload"
	// ActionCopy copies an object from the side-channel bucket
	ActionCopy TransferAction = "copy"
	// ActionVerify only checks the destination object, it is already in place
	ActionVerify TransferAction = "verify"
)

// PlannedFile is one destination object of a migration plan.
// TransferError holds the record error of a file that can no longer be transferred.
type PlannedFile struct {
	Filename      string
	Checksum      string
	Origin        FileOrigin
	SourceKey     string
	LocalPath     string
	Size          int64
	Action        TransferAction
	TransferError string
}

// MigrationPlan is the merged list of files and directory keys of a migration
type MigrationPlan struct {
	Files       []PlannedFile
	Directories []PlannedFile
}

// FileCount returns the number of planned files
func (p *MigrationPlan) FileCount() int {
	return len(p.Files)
}

// DirectoryCount returns the number of planned directory keys
func (p *MigrationPlan) DirectoryCount() int {
	return len(p.Directories)
}

// BuildMigrationPlan merges staged legacy files and side-channel objects into one plan keyed by destination key.
// An entry with the same destination key and the same checksum as an earlier one is dropped,
// an entry with the same key and a different checksum replaces it. A failed entry is always replaced.
func BuildMigrationPlan(work Work, staged []StagedFile, listing *ObjectListing) *MigrationPlan {
	destinationPrefix := work.DestinationPrefix()
	sourcePrefix := work.SourcePrefix()

	plan := &MigrationPlan{}
	index := make(map[string]int)

	add := func(file PlannedFile) {
		if i, ok := index[file.Filename]; ok {
			if plan.Files[i].TransferError == "" && ChecksumsEqual(plan.Files[i].Checksum, file.Checksum) {
				return
			}
			plan.Files[i] = file
			return
		}
		index[file.Filename] = len(plan.Files)
		plan.Files = append(plan.Files, file)
	}

	for _, file := range staged {
		add(PlannedFile{
			Filename:      LegacyDestinationKey(destinationPrefix, file.Name),
			Checksum:      NormalizeChecksum(file.Checksum),
			Origin:        FileOriginLegacy,
			LocalPath:     file.LocalPath,
			Size:          file.Size,
			Action:        ActionUpload,
			TransferError: file.Failure,
		})
	}

	if listing == nil {
		return plan
	}

	for _, object := range listing.Files {
		add(PlannedFile{
			Filename:  RelocateKey(object.Filename, sourcePrefix, destinationPrefix),
			Checksum:  NormalizeChecksum(object.Checksum),
			Origin:    FileOriginBucket,
			SourceKey: object.Filename,
			Size:      object.Size,
			Action:    ActionCopy,
		})
	}

	seenDirectories := make(map[string]struct{})
	for _, object := range listing.Directories {
		key := RelocateKey(object.Filename, sourcePrefix, destinationPrefix)
		if _, ok := seenDirectories[key]; ok {
			continue
		}
		seenDirectories[key] = struct{}{}
		plan.Directories = append(plan.Directories, PlannedFile{
			Filename:  key,
			Origin:    FileOriginBucket,
			SourceKey: object.Filename,
			Action:    ActionCopy,
		})
	}

	return plan
}

// Records returns the snapshot records of the plan: files are started,
// directory keys are complete unless their synchronous copy failed.
func (p *MigrationPlan) Records(userID *string) []FileRecord {
	records := make([]FileRecord, 0, len(p.Files)+len(p.Directories))
	for _, file := range p.Files {
		records = append(records, NewTrackedRecord(file.Filename, file.Checksum, MigrateStatusStarted, userID))
	}
	for _, dir := range p.Directories {
		if dir.TransferError != "" {
			rec := NewTrackedRecord(dir.Filename, dir.Checksum, MigrateStatusError, userID)
			rec.MigrateError = dir.TransferError
			records = append(records, rec)
			continue
		}
		records = append(records, NewTrackedRecord(dir.Filename, dir.Checksum, MigrateStatusComplete, userID))
	}
	return records
}

// TransferErrorMessage formats the record error of a failed transfer
func TransferErrorMessage(detail string) string {
	if detail == "" {
		return MigrateErrorTransferPrefix
	}
	return fmt.Sprintf("%s: %s", MigrateErrorTransferPrefix, detail)
}

// CarriedForwardRecords returns the records of prior snapshots (newest first) that are not excluded,
// stripped of their migration status. The newest record of a filename wins.
func CarriedForwardRecords(prior []*UploadSnapshot, exclude map[string]struct{}) []FileRecord {
	seen := make(map[string]struct{})
	var carried []FileRecord
	for _, snapshot := range prior {
		if snapshot == nil {
			continue
		}
		for _, rec := range snapshot.Files {
			if _, ok := exclude[rec.Filename]; ok {
				continue
			}
			if _, ok := seen[rec.Filename]; ok {
				continue
			}
			seen[rec.Filename] = struct{}{}
			carried = append(carried, rec.Untracked())
		}
	}
	return carried
}
