package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
	"github.com/ignatzorin/freelance-escrow/internal/validation"
)

var (
	ErrInvalidBudget         = errors.New("budget must be positive")
	ErrDeadlinePassed        = errors.New("deadline has passed")
	ErrInvalidCompletionTime = errors.New("completion time must be in the future")
	ErrNotJobOwner           = errors.New("caller is not the job owner")
	ErrInvalidBidIndex       = errors.New("invalid bid index")
	ErrOwnJobBid             = errors.New("client cannot bid on own job")
)

// JobRepo описывает зависимости JobService от слоя хранилища.
type JobRepo interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	List(ctx context.Context, status, category string, limit, offset int) ([]models.Job, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Job, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Job, error)
	ListBids(ctx context.Context, jobID uuid.UUID) ([]models.Bid, error)
	ListMilestones(ctx context.Context, jobID uuid.UUID) ([]models.Milestone, error)
	CreateBid(ctx context.Context, bid *models.Bid, milestones []models.BidMilestone) error
	AcceptBid(ctx context.Context, jobID uuid.UUID, position int) (*models.Bid, error)
	Cancel(ctx context.Context, jobID uuid.UUID) error
}

// JobService реализует жизненный цикл заказа: публикация, ставки,
// выбор исполнителя, отмена.
type JobService struct {
	repo     JobRepo
	notifier Notifier
	now      func() time.Time
}

// CreateJobInput содержит данные нового заказа.
type CreateJobInput struct {
	Title       string
	Description string
	Budget      int64
	Deadline    time.Time
	Currency    string
	Category    string
	Skills      []string
}

// PlaceBidInput содержит данные ставки.
type PlaceBidInput struct {
	Amount         int64
	CompletionTime time.Time
	Proposal       string
	Milestones     []models.BidMilestone
}

func NewJobService(repo JobRepo) *JobService {
	return &JobService{repo: repo, now: time.Now}
}

// SetNotifier подключает рассылку уведомлений.
func (s *JobService) SetNotifier(n Notifier) {
	s.notifier = n
}

// CreateJob публикует новый заказ клиента.
func (s *JobService) CreateJob(ctx context.Context, clientID uuid.UUID, in CreateJobInput) (*models.Job, error) {
	if in.Budget <= 0 {
		return nil, ErrInvalidBudget
	}
	if !in.Deadline.After(s.now()) {
		return nil, ErrDeadlinePassed
	}
	if err := validation.ValidateLength("название", in.Title, validation.MinJobTitleLength, validation.MaxJobTitleLength); err != nil {
		return nil, fmt.Errorf("job service: %w", err)
	}
	if err := validation.ValidateLength("описание", in.Description, validation.MinJobDescriptionLength, validation.MaxJobDescriptionLength); err != nil {
		return nil, fmt.Errorf("job service: %w", err)
	}
	if err := validation.ValidateSkills(in.Skills); err != nil {
		return nil, fmt.Errorf("job service: %w", err)
	}

	currency := in.Currency
	if currency == "" {
		currency = models.FundKindNative
	}

	job := &models.Job{
		ClientID:    clientID,
		Title:       in.Title,
		Description: in.Description,
		Budget:      in.Budget,
		Deadline:    in.Deadline,
		Currency:    currency,
		Category:    in.Category,
		Skills:      in.Skills,
		Status:      models.JobStatusOpen,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob возвращает заказ вместе со ставками и этапами.
func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	bids, err := s.repo.ListBids(ctx, id)
	if err != nil {
		return nil, err
	}
	job.Bids = bids

	if job.HasMilestones {
		milestones, err := s.repo.ListMilestones(ctx, id)
		if err != nil {
			return nil, err
		}
		job.Milestones = milestones
	}

	return job, nil
}

// ListJobs возвращает заказы с фильтрами.
func (s *JobService) ListJobs(ctx context.Context, status, category string, limit, offset int) ([]models.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, status, category, limit, offset)
}

// ListClientJobs возвращает заказы клиента.
func (s *JobService) ListClientJobs(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByClient(ctx, clientID, limit, offset)
}

// ListFreelancerJobs возвращает заказы исполнителя.
func (s *JobService) ListFreelancerJobs(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByFreelancer(ctx, freelancerID, limit, offset)
}

// PlaceBid добавляет ставку фрилансера на открытый заказ.
func (s *JobService) PlaceBid(ctx context.Context, jobID, bidderID uuid.UUID, in PlaceBidInput) (*models.Bid, error) {
	if in.Amount <= 0 {
		return nil, ErrInvalidBudget
	}
	if !in.CompletionTime.After(s.now()) {
		return nil, ErrInvalidCompletionTime
	}
	if err := validation.ValidateLength("предложение", in.Proposal, validation.MinProposalLength, validation.MaxProposalLength); err != nil {
		return nil, fmt.Errorf("job service: %w", err)
	}

	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID == bidderID {
		return nil, ErrOwnJobBid
	}
	if job.Status != models.JobStatusOpen {
		return nil, repository.ErrJobNotOpen
	}
	if !job.Deadline.After(s.now()) {
		return nil, ErrDeadlinePassed
	}
	// Обещанный срок сдачи должен укладываться в дедлайн заказа.
	if !in.CompletionTime.Before(job.Deadline) {
		return nil, ErrInvalidCompletionTime
	}

	bid := &models.Bid{
		JobID:          jobID,
		BidderID:       bidderID,
		Amount:         in.Amount,
		CompletionTime: in.CompletionTime,
		Proposal:       in.Proposal,
	}
	if err := s.repo.CreateBid(ctx, bid, in.Milestones); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, job.ClientID, models.NotificationBidPlaced,
			"Новая ставка", fmt.Sprintf("На заказ «%s» подана новая ставка", job.Title), &job.ID)
	}

	return bid, nil
}

// AcceptBid принимает ставку по индексу. Только клиент выбирает
// исполнителя, и только пока заказ открыт.
func (s *JobService) AcceptBid(ctx context.Context, jobID, callerID uuid.UUID, bidIndex int) (*models.Bid, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != callerID {
		return nil, ErrNotJobOwner
	}
	if bidIndex < 0 {
		return nil, ErrInvalidBidIndex
	}

	bid, err := s.repo.AcceptBid(ctx, jobID, bidIndex)
	if err != nil {
		if errors.Is(err, repository.ErrBidNotFound) {
			return nil, ErrInvalidBidIndex
		}
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, bid.BidderID, models.NotificationBidAccepted,
			"Ставка принята", fmt.Sprintf("Ваша ставка на заказ «%s» принята", job.Title), &job.ID)
	}

	return bid, nil
}

// CancelJob отменяет открытый заказ. Доступно только клиенту.
func (s *JobService) CancelJob(ctx context.Context, jobID, callerID uuid.UUID) error {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.ClientID != callerID {
		return ErrNotJobOwner
	}
	return s.repo.Cancel(ctx, jobID)
}
