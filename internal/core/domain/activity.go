package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActivityType is a type that represents the kind of a work activity
type ActivityType string

const (
	ActivityMigrationStart              ActivityType = "MIGRATION_START"
	ActivityMigrationComplete           ActivityType = "MIGRATION_COMPLETE"
	ActivityMigrationCompleteWithErrors ActivityType = "MIGRATION_COMPLETE_WITH_ERRORS"
	ActivityMigrationSkip               ActivityType = "MIGRATION_SKIP"
)

// ActivityPayload is the JSON body of a migration activity
type ActivityPayload struct {
	MigrationID    uuid.UUID `json:"migration_id"`
	Message        string    `json:"message"`
	FileCount      *int      `json:"file_count,omitempty"`
	DirectoryCount *int      `json:"directory_count,omitempty"`
}

// Activity is one entry of a work's activity log
type Activity struct {
	ID         uuid.UUID
	WorkID     uuid.UUID
	SnapshotID uuid.UUID
	Type       ActivityType
	Payload    ActivityPayload
	CreatedAt  time.Time
}

// MarshalPayload encodes the payload for persistence
func (a Activity) MarshalPayload() ([]byte, error) {
	return json.Marshal(a.Payload)
}

func newActivity(workID, snapshotID uuid.UUID, activityType ActivityType, payload ActivityPayload) Activity {
	return Activity{
		ID:         uuid.New(),
		WorkID:     workID,
		SnapshotID: snapshotID,
		Type:       activityType,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}
}

// NewMigrationStartActivity records the start of a migration with its counts
func NewMigrationStartActivity(workID, snapshotID uuid.UUID, fileCount, directoryCount int) Activity {
	return newActivity(workID, snapshotID, ActivityMigrationStart, ActivityPayload{
		MigrationID:    snapshotID,
		Message:        fmt.Sprintf("%d files and %d directories are migrating", fileCount, directoryCount),
		FileCount:      &fileCount,
		DirectoryCount: &directoryCount,
	})
}

// NewMigrationSkipActivity records that legacy discovery was skipped for an ARK
func NewMigrationSkipActivity(workID, snapshotID uuid.UUID, ark string, fileCount, directoryCount int) Activity {
	return newActivity(workID, snapshotID, ActivityMigrationSkip, ActivityPayload{
		MigrationID:    snapshotID,
		Message:        fmt.Sprintf("Legacy migration skipped for %s, it is migrated manually", ark),
		FileCount:      &fileCount,
		DirectoryCount: &directoryCount,
	})
}

// NewMigrationCompletionActivity records the end of a migration based on the final snapshot state
func NewMigrationCompletionActivity(snapshot *UploadSnapshot) Activity {
	if snapshot.MigrationCompleteWithErrors() {
		failed := snapshot.CountByStatus(MigrateStatusError)
		return newActivity(snapshot.WorkID, snapshot.ID, ActivityMigrationCompleteWithErrors, ActivityPayload{
			MigrationID: snapshot.ID,
			Message:     fmt.Sprintf("Migration completed with %d errors", failed),
		})
	}
	return newActivity(snapshot.WorkID, snapshot.ID, ActivityMigrationComplete, ActivityPayload{
		MigrationID: snapshot.ID,
		Message:     fmt.Sprintf("%d files were migrated", snapshot.CountByStatus(MigrateStatusComplete)),
	})
}
