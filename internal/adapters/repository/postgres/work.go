package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
)

type sqlWorkRepository struct {
	db SQLQuerier
}

// NewSQLWorkRepository creates sqlWorkRepository that implements port.WorkRepository
func NewSQLWorkRepository(db SQLQuerier) port.WorkRepository {
	return &sqlWorkRepository{db: db}
}

// Upsert creates a work or updates its identifiers
func (s *sqlWorkRepository) Upsert(ctx context.Context, work domain.Work) error {
	query := `
		INSERT INTO works (id, doi, ark, user_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET doi = EXCLUDED.doi, ark = EXCLUDED.ark, user_id = EXCLUDED.user_id, updated_at = now()`

	var userID sql.NullString
	if work.UserID != nil {
		userID = sql.NullString{String: *work.UserID, Valid: true}
	}

	if _, err := s.db.ExecContext(ctx, query, work.ID, work.DOI, work.ARK, userID); err != nil {
		return fmt.Errorf("error upserting work: %w", err)
	}
	return nil
}

// FindByID finds by id
func (s *sqlWorkRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Work, error) {
	query := `SELECT id, doi, ark, user_id, migrated, created_at, updated_at FROM works WHERE id = $1`

	var row dbWork
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&row.ID,
		&row.DOI,
		&row.ARK,
		&row.UserID,
		&row.Migrated,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWorkNotFound
		}
		return nil, err
	}

	return row.ToDomain(), nil
}

// MarkMigrated sets the migrated flag
func (s *sqlWorkRepository) MarkMigrated(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE works SET migrated = TRUE, updated_at = now() WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error updating work: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrWorkNotFound
	}
	return nil
}

type dbWork struct {
	ID        uuid.UUID      `db:"id"`
	DOI       string         `db:"doi"`
	ARK       string         `db:"ark"`
	UserID    sql.NullString `db:"user_id"`
	Migrated  bool           `db:"migrated"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// ToDomain converts db obj to domain
func (w *dbWork) ToDomain() *domain.Work {
	work := &domain.Work{
		ID:        w.ID,
		DOI:       w.DOI,
		ARK:       w.ARK,
		Migrated:  w.Migrated,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
	if w.UserID.Valid {
		userID := w.UserID.String
		work.UserID = &userID
	}
	return work
}
