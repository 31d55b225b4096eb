package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/models"
)

var (
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrJobNotCompleted = errors.New("job is not completed")
)

// ReviewRepo описывает зависимости ReviewService от слоя хранилища.
type ReviewRepo interface {
	Create(ctx context.Context, review *models.Review) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Review, error)
	GetByJobAndReviewer(ctx context.Context, jobID, reviewerID uuid.UUID) (*models.Review, error)
	GetStats(ctx context.Context, userID uuid.UUID) (*models.PublicProfileStats, error)
}

// ReviewJobRepo даёт ReviewService доступ к заказам.
type ReviewJobRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

// ReviewService управляет отзывами по завершённым заказам.
type ReviewService struct {
	repo     ReviewRepo
	jobs     ReviewJobRepo
	notifier Notifier
}

func NewReviewService(repo ReviewRepo, jobs ReviewJobRepo) *ReviewService {
	return &ReviewService{repo: repo, jobs: jobs}
}

// SetNotifier подключает рассылку уведомлений.
func (s *ReviewService) SetNotifier(n Notifier) {
	s.notifier = n
}

// CreateReview сохраняет отзыв участника о втором участнике завершённого
// заказа. Каждый участник оставляет не более одного отзыва.
func (s *ReviewService) CreateReview(ctx context.Context, jobID, reviewerID uuid.UUID, rating int, comment *string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusCompleted {
		return nil, ErrJobNotCompleted
	}
	if job.FreelancerID == nil {
		return nil, ErrNotParticipant
	}

	var reviewedID uuid.UUID
	switch reviewerID {
	case job.ClientID:
		reviewedID = *job.FreelancerID
	case *job.FreelancerID:
		reviewedID = job.ClientID
	default:
		return nil, ErrNotParticipant
	}

	review := &models.Review{
		JobID:      jobID,
		ReviewerID: reviewerID,
		ReviewedID: reviewedID,
		Rating:     rating,
		Comment:    comment,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, reviewedID, models.NotificationReviewReceived,
			"Новый отзыв", "О вас оставлен новый отзыв", &jobID)
	}

	return review, nil
}

// ListUserReviews возвращает отзывы о пользователе.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// GetUserStats возвращает агрегированную статистику пользователя.
func (s *ReviewService) GetUserStats(ctx context.Context, userID uuid.UUID) (*models.PublicProfileStats, error) {
	return s.repo.GetStats(ctx, userID)
}
