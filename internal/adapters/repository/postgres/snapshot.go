package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
)

const snapshotColumns = `id, work_id, kind, files, version, created_at, updated_at`

type sqlSnapshotRepository struct {
	db SQLQuerier
}

// NewSQLSnapshotRepository creates sqlSnapshotRepository that implements port.SnapshotRepository
func NewSQLSnapshotRepository(db SQLQuerier) port.SnapshotRepository {
	return &sqlSnapshotRepository{db: db}
}

// Create persists a new snapshot with its initial record list
func (s *sqlSnapshotRepository) Create(ctx context.Context, snapshot *domain.UploadSnapshot) error {
	files, err := marshalFiles(snapshot.Files)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO upload_snapshots (id, work_id, kind, files, remaining, version)
		VALUES ($1, $2, $3, $4, $5, 0)
		RETURNING version, created_at, updated_at`

	err = s.db.QueryRowContext(ctx, query, snapshot.ID, snapshot.WorkID, snapshot.Kind, files, snapshot.Remaining()).
		Scan(&snapshot.Version, &snapshot.CreatedAt, &snapshot.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("snapshot %s : %w", snapshot.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("error inserting snapshot: %w", err)
	}
	return nil
}

// FindByID finds by id
func (s *sqlSnapshotRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM upload_snapshots WHERE id = $1`

	var row dbSnapshot
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&row.ID,
		&row.WorkID,
		&row.Kind,
		&row.Files,
		&row.Version,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, err
	}

	return row.ToDomain()
}

// FindByWorkID returns the snapshots of a work, newest first
func (s *sqlSnapshotRepository) FindByWorkID(ctx context.Context, workID uuid.UUID) ([]*domain.UploadSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM upload_snapshots WHERE work_id = $1 ORDER BY created_at DESC, id`
	return s.list(ctx, query, workID)
}

// FindStalled returns snapshots with started records that have not moved since updatedBefore
func (s *sqlSnapshotRepository) FindStalled(ctx context.Context, updatedBefore time.Time) ([]*domain.UploadSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM upload_snapshots WHERE remaining > 0 AND updated_at < $1 ORDER BY updated_at`
	return s.list(ctx, query, updatedBefore)
}

// UpdateRecord mutates one record with a read-modify-write of the whole list.
// The write only lands if the version read is still current.
func (s *sqlSnapshotRepository) UpdateRecord(ctx context.Context, id uuid.UUID, filename string, mutate domain.RecordMutation) (*domain.RecordUpdate, error) {
	snapshot, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update, err := snapshot.UpdateRecord(filename, mutate)
	if err != nil {
		return nil, err
	}
	if !update.Changed {
		return &update, nil
	}

	files, err := marshalFiles(snapshot.Files)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE upload_snapshots
		SET files = $1, remaining = $2, version = version + 1, updated_at = now()
		WHERE id = $3 AND version = $4`

	result, err := s.db.ExecContext(ctx, query, files, update.RemainingAfter, id, snapshot.Version)
	if err != nil {
		return nil, fmt.Errorf("error updating snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("error checking rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("snapshot %s version %d: %w", id, snapshot.Version, domain.ErrConcurrentUpdate)
	}
	snapshot.Version++

	return &update, nil
}

func (s *sqlSnapshotRepository) list(ctx context.Context, query string, args ...any) ([]*domain.UploadSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.UploadSnapshot
	for rows.Next() {
		var row dbSnapshot
		if err := rows.Scan(
			&row.ID,
			&row.WorkID,
			&row.Kind,
			&row.Files,
			&row.Version,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning snapshot: %w", err)
		}
		snapshot, err := row.ToDomain()
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

func marshalFiles(files []domain.FileRecord) ([]byte, error) {
	if files == nil {
		files = []domain.FileRecord{}
	}
	data, err := json.Marshal(files)
	if err != nil {
		return nil, fmt.Errorf("error encoding snapshot files: %w", err)
	}
	return data, nil
}

type dbSnapshot struct {
	ID        uuid.UUID `db:"id"`
	WorkID    uuid.UUID `db:"work_id"`
	Kind      string    `db:"kind"`
	Files     []byte    `db:"files"`
	Version   int       `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ToDomain converts db obj to domain
func (s *dbSnapshot) ToDomain() (*domain.UploadSnapshot, error) {
	files := []domain.FileRecord{}
	if len(s.Files) > 0 {
		if err := json.Unmarshal(s.Files, &files); err != nil {
			return nil, fmt.Errorf("error decoding snapshot %s files: %w", s.ID, err)
		}
	}
	return &domain.UploadSnapshot{
		ID:        s.ID,
		WorkID:    s.WorkID,
		Kind:      domain.SnapshotKind(s.Kind),
		Files:     files,
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}, nil
}
