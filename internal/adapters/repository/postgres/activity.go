package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
)

type sqlActivityRepository struct {
	db SQLQuerier
}

// NewSQLActivityRepository creates sqlActivityRepository that implements port.ActivityRepository
func NewSQLActivityRepository(db SQLQuerier) port.ActivityRepository {
	return &sqlActivityRepository{db: db}
}

// Create appends an activity to the log of its work
func (s *sqlActivityRepository) Create(ctx context.Context, activity domain.Activity) error {
	payload, err := activity.MarshalPayload()
	if err != nil {
		return fmt.Errorf("error encoding activity payload: %w", err)
	}

	snapshotID := uuid.NullUUID{UUID: activity.SnapshotID, Valid: activity.SnapshotID != uuid.Nil}

	query := `INSERT INTO activities (id, work_id, snapshot_id, type, payload, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = s.db.ExecContext(ctx, query, activity.ID, activity.WorkID, snapshotID, activity.Type, payload, activity.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting activity: %w", err)
	}
	return nil
}

// FindByWorkID returns the activity log of a work, oldest first
func (s *sqlActivityRepository) FindByWorkID(ctx context.Context, workID uuid.UUID) ([]domain.Activity, error) {
	query := `
		SELECT id, work_id, snapshot_id, type, payload, created_at
		FROM activities
		WHERE work_id = $1
		ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, workID)
	if err != nil {
		return nil, fmt.Errorf("error querying activities: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var row dbActivity
		if err := rows.Scan(&row.ID, &row.WorkID, &row.SnapshotID, &row.Type, &row.Payload, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning activity: %w", err)
		}
		activity, err := row.ToDomain()
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}

// ExistsForSnapshot reports whether an activity of the type was recorded for the snapshot
func (s *sqlActivityRepository) ExistsForSnapshot(ctx context.Context, snapshotID uuid.UUID, activityType domain.ActivityType) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM activities WHERE snapshot_id = $1 AND type = $2)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, snapshotID, activityType).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking activity: %w", err)
	}
	return exists, nil
}

type dbActivity struct {
	ID         uuid.UUID     `db:"id"`
	WorkID     uuid.UUID     `db:"work_id"`
	SnapshotID uuid.NullUUID `db:"snapshot_id"`
	Type       string        `db:"type"`
	Payload    []byte        `db:"payload"`
	CreatedAt  time.Time     `db:"created_at"`
}

// ToDomain converts db obj to domain
func (a *dbActivity) ToDomain() (domain.Activity, error) {
	var payload domain.ActivityPayload
	if err := json.Unmarshal(a.Payload, &payload); err != nil {
		return domain.Activity{}, fmt.Errorf("error decoding activity %s payload: %w", a.ID, err)
	}
	activity := domain.Activity{
		ID:        a.ID,
		WorkID:    a.WorkID,
		Type:      domain.ActivityType(a.Type),
		Payload:   payload,
		CreatedAt: a.CreatedAt,
	}
	if a.SnapshotID.Valid {
		activity.SnapshotID = a.SnapshotID.UUID
	}
	return activity, nil
}
