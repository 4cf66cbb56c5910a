package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/claiminsight/claiminsight-api/internal/models"
)

// HistoryRepository persists completed submissions. Entries are append
// and delete only; nothing ever updates an entry in place.
type HistoryRepository interface {
	Create(ctx context.Context, entry *models.HistoryEntry) error
	ListByUser(ctx context.Context, userID string) ([]models.HistoryEntry, error)
	GetByID(ctx context.Context, userID, id string) (*models.HistoryEntry, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
}

type historyRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Create(ctx context.Context, entry *models.HistoryEntry) error {
	query := `
		INSERT INTO history_entries (id, user_id, damage_type, filename, image_key, image_caption, loss_description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.DamageType,
		entry.Filename,
		entry.ImageKey,
		entry.ImageCaption,
		entry.LossDescription,
		entry.CreatedAt,
	)

	return err
}

func (r *historyRepository) ListByUser(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	query := `
		SELECT id, user_id, damage_type, filename, image_key, image_caption, loss_description, created_at
		FROM history_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	entries := []models.HistoryEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *historyRepository) GetByID(ctx context.Context, userID, id string) (*models.HistoryEntry, error) {
	query := `
		SELECT id, user_id, damage_type, filename, image_key, image_caption, loss_description, created_at
		FROM history_entries
		WHERE user_id = $1 AND id = $2
	`

	var entry models.HistoryEntry
	err := r.db.GetContext(ctx, &entry, query, userID, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// Delete removes one entry by identifier and reports whether it existed.
func (r *historyRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	query := `DELETE FROM history_entries WHERE user_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
