package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/models"
)

var ErrPortfolioItemNotFound = errors.New("portfolio item not found")

// PortfolioRepository управляет портфолио фрилансеров.
type PortfolioRepository struct {
	db *sqlx.DB
}

func NewPortfolioRepository(db *sqlx.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// Create сохраняет работу в портфолио.
func (r *PortfolioRepository) Create(ctx context.Context, item *models.PortfolioItem) error {
	query := `
		INSERT INTO portfolio_items (user_id, title, description, uri, skills)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		item.UserID, item.Title, item.Description, item.URI, item.Skills).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

// GetByID возвращает работу по ID.
func (r *PortfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PortfolioItem, error) {
	var item models.PortfolioItem
	err := r.db.GetContext(ctx, &item, `SELECT * FROM portfolio_items WHERE id = $1`, id)
	if isNoRows(err) {
		return nil, ErrPortfolioItemNotFound
	}
	return &item, err
}

// ListByUser возвращает портфолио пользователя.
func (r *PortfolioRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PortfolioItem, error) {
	var items []models.PortfolioItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM portfolio_items WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	return items, err
}

// Update обновляет работу в портфолио.
func (r *PortfolioRepository) Update(ctx context.Context, item *models.PortfolioItem) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE portfolio_items SET title = $2, description = $3, uri = $4, skills = $5, updated_at = NOW()
		WHERE id = $1
	`, item.ID, item.Title, item.Description, item.URI, item.Skills)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPortfolioItemNotFound
	}
	return nil
}

// Delete удаляет работу из портфолио.
func (r *PortfolioRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM portfolio_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPortfolioItemNotFound
	}
	return nil
}
