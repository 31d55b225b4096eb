package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
)

var (
	ErrFreelancerNotSet      = errors.New("job has no freelancer")
	ErrInvalidMilestoneIndex = errors.New("invalid milestone index")
)

// EscrowRepo описывает зависимости EscrowService от слоя хранилища.
type EscrowRepo interface {
	Create(ctx context.Context, escrow *models.Escrow) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Escrow, error)
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error)
	Disburse(ctx context.Context, params repository.DisburseParams) (*models.Escrow, error)
}

// EscrowJobRepo даёт EscrowService доступ к заказам и этапам.
type EscrowJobRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListMilestones(ctx context.Context, jobID uuid.UUID) ([]models.Milestone, error)
}

// EscrowService управляет удержанием и выплатой средств по заказу.
// Деньги двигаются только целиком: каждая операция — одна транзакция базы.
type EscrowService struct {
	repo       EscrowRepo
	jobs       EscrowJobRepo
	feeBPS     int64
	platformID uuid.UUID
	notifier   Notifier
}

func NewEscrowService(repo EscrowRepo, jobs EscrowJobRepo, feeBPS int64, platformID uuid.UUID) *EscrowService {
	return &EscrowService{
		repo:       repo,
		jobs:       jobs,
		feeBPS:     feeBPS,
		platformID: platformID,
	}
}

// SetNotifier подключает рассылку уведомлений.
func (s *EscrowService) SetNotifier(n Notifier) {
	s.notifier = n
}

// CreateEscrow удерживает бюджет заказа и комиссию платформы со счёта
// клиента. Доступно только клиенту после выбора исполнителя.
func (s *EscrowService) CreateEscrow(ctx context.Context, jobID, callerID uuid.UUID) (*models.Escrow, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != callerID {
		return nil, ErrNotJobOwner
	}
	if job.Status != models.JobStatusInProgress {
		return nil, repository.ErrJobNotInProgress
	}
	if job.FreelancerID == nil {
		return nil, ErrFreelancerNotSet
	}

	escrow := &models.Escrow{
		JobID:        jobID,
		ClientID:     job.ClientID,
		FreelancerID: *job.FreelancerID,
		Amount:       job.Budget,
		PlatformFee:  job.Budget * s.feeBPS / models.BasisPointsTotal,
		FundKind:     job.Currency,
	}
	if err := s.repo.Create(ctx, escrow); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, escrow.FreelancerID, models.NotificationEscrowCreated,
			"Средства зарезервированы", fmt.Sprintf("Клиент зарезервировал оплату по заказу «%s»", job.Title), &jobID)
	}

	return escrow, nil
}

// GetEscrow возвращает escrow заказа.
func (s *EscrowService) GetEscrow(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	return s.repo.GetByJobID(ctx, jobID)
}

// ReleaseFull выплачивает фрилансеру весь остаток escrow и закрывает
// заказ. Комиссия уходит на счёт платформы. Доступно только клиенту.
func (s *EscrowService) ReleaseFull(ctx context.Context, jobID, callerID uuid.UUID) (*models.Escrow, error) {
	escrow, err := s.repo.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if escrow.ClientID != callerID {
		return nil, ErrNotJobOwner
	}

	remaining, err := s.remaining(ctx, escrow)
	if err != nil {
		return nil, err
	}

	legs := []models.TransferLeg{
		{From: escrow.ID, To: escrow.FreelancerID, Amount: remaining, Type: models.TransactionTypeEscrowRelease},
		{From: escrow.ID, To: s.platformID, Amount: escrow.PlatformFee, Type: models.TransactionTypePlatformFee},
	}
	result, err := s.repo.Disburse(ctx, repository.DisburseParams{
		EscrowID:     escrow.ID,
		Legs:         legs,
		EscrowStatus: models.EscrowStatusReleased,
		JobStatus:    models.JobStatusCompleted,
		Description:  "Оплата завершённого заказа",
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, escrow.FreelancerID, models.NotificationEscrowReleased,
			"Оплата получена", "Клиент подтвердил завершение заказа, средства зачислены", &jobID)
	}

	return result, nil
}

// PayMilestone выплачивает фрилансеру долю этапа. После оплаты последнего
// этапа escrow закрывается: нераспределённый остаток возвращается клиенту,
// комиссия уходит платформе.
func (s *EscrowService) PayMilestone(ctx context.Context, jobID, callerID uuid.UUID, index int) (*models.Escrow, error) {
	escrow, err := s.repo.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if escrow.ClientID != callerID {
		return nil, ErrNotJobOwner
	}

	milestones, err := s.jobs.ListMilestones(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(milestones) {
		return nil, ErrInvalidMilestoneIndex
	}
	milestone := milestones[index]
	if milestone.Completed {
		return nil, repository.ErrMilestoneAlreadyPaid
	}

	share := milestoneShare(escrow.Amount, milestone.ShareBPS)
	position := milestone.Position

	uncompleted := 0
	for _, m := range milestones {
		if !m.Completed {
			uncompleted++
		}
	}

	params := repository.DisburseParams{
		EscrowID:          escrow.ID,
		MilestonePosition: &position,
		Description:       fmt.Sprintf("Оплата этапа «%s»", milestone.Title),
	}

	if uncompleted == 1 {
		// Последний этап: escrow опустошается полностью. Остаток после
		// целочисленного округления долей возвращается клиенту.
		paid := paidShares(escrow.Amount, milestones) + share
		residual := escrow.Amount - paid
		params.Legs = []models.TransferLeg{
			{From: escrow.ID, To: escrow.FreelancerID, Amount: share, Type: models.TransactionTypeMilestonePayment},
			{From: escrow.ID, To: escrow.ClientID, Amount: residual, Type: models.TransactionTypeEscrowRefund},
			{From: escrow.ID, To: s.platformID, Amount: escrow.PlatformFee, Type: models.TransactionTypePlatformFee},
		}
		params.EscrowStatus = models.EscrowStatusReleased
		params.JobStatus = models.JobStatusCompleted
	} else {
		params.Legs = []models.TransferLeg{
			{From: escrow.ID, To: escrow.FreelancerID, Amount: share, Type: models.TransactionTypeMilestonePayment},
		}
	}

	result, err := s.repo.Disburse(ctx, params)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, escrow.FreelancerID, models.NotificationMilestoneCompleted,
			"Этап оплачен", fmt.Sprintf("Оплачен этап «%s»", milestone.Title), &jobID)
	}

	return result, nil
}

// Refund возвращает клиенту остаток escrow и отменяет заказ. Комиссия
// уходит платформе. Возврат инициирует только клиент.
func (s *EscrowService) Refund(ctx context.Context, jobID, callerID uuid.UUID) (*models.Escrow, error) {
	escrow, err := s.repo.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if escrow.ClientID != callerID {
		return nil, ErrNotJobOwner
	}

	remaining, err := s.remaining(ctx, escrow)
	if err != nil {
		return nil, err
	}

	legs := []models.TransferLeg{
		{From: escrow.ID, To: escrow.ClientID, Amount: remaining, Type: models.TransactionTypeEscrowRefund},
		{From: escrow.ID, To: s.platformID, Amount: escrow.PlatformFee, Type: models.TransactionTypePlatformFee},
	}
	result, err := s.repo.Disburse(ctx, repository.DisburseParams{
		EscrowID:     escrow.ID,
		Legs:         legs,
		EscrowStatus: models.EscrowStatusRefunded,
		JobStatus:    models.JobStatusCancelled,
		Description:  "Возврат средств за отменённый заказ",
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, escrow.FreelancerID, models.NotificationEscrowRefunded,
			"Заказ отменён", "Клиент отменил заказ, остаток средств возвращён", &jobID)
	}

	return result, nil
}

// remaining возвращает невыплаченный остаток escrow без учёта комиссии.
func (s *EscrowService) remaining(ctx context.Context, escrow *models.Escrow) (int64, error) {
	milestones, err := s.jobs.ListMilestones(ctx, escrow.JobID)
	if err != nil {
		return 0, err
	}
	return escrow.Amount - paidShares(escrow.Amount, milestones), nil
}

// milestoneShare вычисляет долю этапа в минимальных единицах.
// Округление всегда вниз, остаток копится на escrow.
func milestoneShare(amount, shareBPS int64) int64 {
	return amount * shareBPS / models.BasisPointsTotal
}

// paidShares возвращает сумму уже выплаченных долей этапов.
func paidShares(amount int64, milestones []models.Milestone) int64 {
	var paid int64
	for _, m := range milestones {
		if m.Completed {
			paid += milestoneShare(amount, m.ShareBPS)
		}
	}
	return paid
}
