package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cdmworks/golden-keys-api/internal/models"
)

const uniqueViolation = "23505"

// GoldenKeySQLRepository is the PostgreSQL gateway driver. All records live in
// a single golden_keys table discriminated by approval_status; the pending
// write operations never touch approved or rejected rows.
type GoldenKeySQLRepository struct {
	db *sqlx.DB
}

// NewGoldenKeySQLRepository constructs the repository.
func NewGoldenKeySQLRepository(db *sqlx.DB) *GoldenKeySQLRepository {
	return &GoldenKeySQLRepository{db: db}
}

const goldenKeyColumns = `id, key, label, description, data_type, required, owner, version, approval_status, created_at, updated_at, approved_at`

// FetchPending loads the pending record set in insertion order.
func (r *GoldenKeySQLRepository) FetchPending(ctx context.Context) ([]models.GoldenKey, error) {
	return r.fetchByStatus(ctx, models.ApprovalStatusPending)
}

// FetchApproved loads the approved record set in insertion order.
func (r *GoldenKeySQLRepository) FetchApproved(ctx context.Context) ([]models.GoldenKey, error) {
	return r.fetchByStatus(ctx, models.ApprovalStatusApproved)
}

func (r *GoldenKeySQLRepository) fetchByStatus(ctx context.Context, status models.ApprovalStatus) ([]models.GoldenKey, error) {
	query := fmt.Sprintf(`SELECT %s FROM golden_keys WHERE approval_status = $1 ORDER BY created_at ASC, id ASC`, goldenKeyColumns)
	keys := []models.GoldenKey{}
	if err := r.db.SelectContext(ctx, &keys, query, status); err != nil {
		return nil, fmt.Errorf("fetch %s golden keys: %w", status, err)
	}
	return keys, nil
}

// AddPending inserts a new pending record. A primary key collision surfaces
// as ErrDuplicateID.
func (r *GoldenKeySQLRepository) AddPending(ctx context.Context, key *models.GoldenKey) error {
	const query = `INSERT INTO golden_keys (id, key, label, description, data_type, required, owner, version, approval_status, created_at, updated_at, approved_at)
VALUES (:id, :key, :label, :description, :data_type, :required, :owner, :version, :approval_status, :created_at, :updated_at, :approved_at)`
	if _, err := r.db.NamedExecContext(ctx, query, key); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("add pending %s: %w", key.ID, ErrDuplicateID)
		}
		return fmt.Errorf("add pending golden key: %w", err)
	}
	return nil
}

// UpdatePending applies a partial edit to a pending record inside a
// transaction and returns the updated row.
func (r *GoldenKeySQLRepository) UpdatePending(ctx context.Context, id string, params UpdateGoldenKeyParams) (*models.GoldenKey, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update golden key tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := fmt.Sprintf(`SELECT %s FROM golden_keys WHERE id = $1 AND approval_status = $2 FOR UPDATE`, goldenKeyColumns)
	var key models.GoldenKey
	if err := tx.GetContext(ctx, &key, query, id, models.ApprovalStatusPending); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("update pending %s: %w", id, ErrPendingNotFound)
		}
		return nil, fmt.Errorf("load pending golden key: %w", err)
	}

	params.apply(&key)

	const update = `UPDATE golden_keys
SET key = :key, label = :label, description = :description, data_type = :data_type,
    required = :required, owner = :owner, version = :version, updated_at = :updated_at
WHERE id = :id AND approval_status = 'pending'`
	if _, err := tx.NamedExecContext(ctx, update, &key); err != nil {
		return nil, fmt.Errorf("update pending golden key: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update golden key tx: %w", err)
	}
	return &key, nil
}

// DeletePending removes a pending record by id.
func (r *GoldenKeySQLRepository) DeletePending(ctx context.Context, id string) error {
	const query = `DELETE FROM golden_keys WHERE id = $1 AND approval_status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete pending golden key: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete pending golden key: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete pending %s: %w", id, ErrPendingNotFound)
	}
	return nil
}
