package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/models"
)

var (
	ErrReviewNotFound = errors.New("review not found")
	ErrReviewExists   = errors.New("review already exists")
)

// ReviewRepository управляет отзывами по завершённым заказам.
type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create сохраняет отзыв. Один участник оставляет по заказу не более одного отзыва.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (job_id, reviewer_id, reviewed_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		review.JobID, review.ReviewerID, review.ReviewedID, review.Rating, review.Comment).
		Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil && isUniqueViolation(err) {
		return ErrReviewExists
	}
	return err
}

// ListByUser возвращает отзывы о пользователе.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.SelectContext(ctx, &reviews, `
		SELECT * FROM reviews WHERE reviewed_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return reviews, err
}

// GetByJobAndReviewer возвращает отзыв участника по заказу.
func (r *ReviewRepository) GetByJobAndReviewer(ctx context.Context, jobID, reviewerID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.GetContext(ctx, &review, `
		SELECT * FROM reviews WHERE job_id = $1 AND reviewer_id = $2
	`, jobID, reviewerID)
	if isNoRows(err) {
		return nil, ErrReviewNotFound
	}
	return &review, err
}

// GetStats возвращает агрегированную статистику пользователя: средний рейтинг,
// число отзывов и число завершённых заказов.
func (r *ReviewRepository) GetStats(ctx context.Context, userID uuid.UUID) (*models.PublicProfileStats, error) {
	var stats models.PublicProfileStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE reviewed_id = $1
	`, userID).Scan(&stats.AverageRating, &stats.TotalReviews)
	if err != nil {
		return nil, err
	}
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'completed')
		FROM jobs WHERE client_id = $1 OR freelancer_id = $1
	`, userID).Scan(&stats.TotalJobs, &stats.CompletedJobs)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
