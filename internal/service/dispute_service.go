package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
	"github.com/ignatzorin/freelance-escrow/internal/validation"
)

var (
	ErrNotParticipant        = errors.New("user is not a participant of this escrow")
	ErrNotArbiter            = errors.New("user is not an authorized arbiter")
	ErrInvalidSplitRatio     = errors.New("split ratio must be between 0 and 100")
	ErrInvalidResolutionKind = errors.New("unknown resolution kind")
)

// ArbiterPolicy решает, уполномочен ли пользователь разрешать споры.
type ArbiterPolicy interface {
	IsArbiter(id uuid.UUID) bool
}

// StaticArbiterPolicy — список арбитров, заданный конфигурацией.
type StaticArbiterPolicy struct {
	ids map[uuid.UUID]struct{}
}

func NewStaticArbiterPolicy(arbiters []uuid.UUID) *StaticArbiterPolicy {
	ids := make(map[uuid.UUID]struct{}, len(arbiters))
	for _, id := range arbiters {
		ids[id] = struct{}{}
	}
	return &StaticArbiterPolicy{ids: ids}
}

func (p *StaticArbiterPolicy) IsArbiter(id uuid.UUID) bool {
	_, ok := p.ids[id]
	return ok
}

// DisputeRepo описывает зависимости DisputeService от слоя хранилища.
type DisputeRepo interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetOpenByJobID(ctx context.Context, jobID uuid.UUID) (*models.Dispute, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
	Resolve(ctx context.Context, params repository.ResolveParams) (*models.Dispute, error)
}

// DisputeEscrowRepo даёт DisputeService доступ к escrow.
type DisputeEscrowRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Escrow, error)
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error)
}

// DisputeJobRepo даёт DisputeService доступ к этапам заказа.
type DisputeJobRepo interface {
	ListMilestones(ctx context.Context, jobID uuid.UUID) ([]models.Milestone, error)
}

// DisputeService управляет спорами: открытие блокирует escrow, решение
// арбитра распределяет невыплаченный остаток и закрывает заказ.
type DisputeService struct {
	repo       DisputeRepo
	escrows    DisputeEscrowRepo
	jobs       DisputeJobRepo
	arbiters   ArbiterPolicy
	platformID uuid.UUID
	notifier   Notifier
}

func NewDisputeService(repo DisputeRepo, escrows DisputeEscrowRepo, jobs DisputeJobRepo, arbiters ArbiterPolicy, platformID uuid.UUID) *DisputeService {
	return &DisputeService{
		repo:       repo,
		escrows:    escrows,
		jobs:       jobs,
		arbiters:   arbiters,
		platformID: platformID,
	}
}

// SetNotifier подключает рассылку уведомлений.
func (s *DisputeService) SetNotifier(n Notifier) {
	s.notifier = n
}

// InitiateDispute открывает спор по заказу. Инициатором может быть
// только сторона escrow. Открытый спор блокирует обычные выплаты.
func (s *DisputeService) InitiateDispute(ctx context.Context, jobID, initiatorID uuid.UUID, reason, evidence string) (*models.Dispute, error) {
	if err := validation.ValidateLength("причина спора", reason, validation.MinDisputeReasonLength, validation.MaxDisputeReasonLength); err != nil {
		return nil, fmt.Errorf("dispute service: %w", err)
	}
	if err := validation.ValidateLength("доказательства", evidence, 0, validation.MaxEvidenceLength); err != nil {
		return nil, fmt.Errorf("dispute service: %w", err)
	}

	escrow, err := s.escrows.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if escrow.Status != models.EscrowStatusActive {
		return nil, repository.ErrEscrowNotActive
	}
	if escrow.ClientID != initiatorID && escrow.FreelancerID != initiatorID {
		return nil, ErrNotParticipant
	}

	d := &models.Dispute{
		JobID:       jobID,
		EscrowID:    escrow.ID,
		InitiatorID: initiatorID,
		Reason:      reason,
		Evidence:    evidence,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		other := escrow.ClientID
		if initiatorID == escrow.ClientID {
			other = escrow.FreelancerID
		}
		s.notifier.Notify(ctx, other, models.NotificationDisputeInitiated,
			"Открыт спор", "По вашему заказу открыт спор, выплаты приостановлены", &jobID)
	}

	return d, nil
}

// GetDispute возвращает спор по ID.
func (s *DisputeService) GetDispute(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return s.repo.GetByID(ctx, id)
}

// GetOpenDispute возвращает открытый спор по заказу.
func (s *DisputeService) GetOpenDispute(ctx context.Context, jobID uuid.UUID) (*models.Dispute, error) {
	return s.repo.GetOpenByJobID(ctx, jobID)
}

// ListUserDisputes возвращает споры пользователя.
func (s *DisputeService) ListUserDisputes(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// ResolveDispute разрешает спор. Распределяется невыплаченный остаток
// escrow: уже оплаченные этапы решением не затрагиваются. При возврате
// клиенту возвращается и комиссия, в остальных случаях комиссия уходит
// платформе. Решение выносит только уполномоченный арбитр и только один раз.
func (s *DisputeService) ResolveDispute(ctx context.Context, disputeID, resolverID uuid.UUID, kind string, splitRatio *int64, note string) (*models.Dispute, error) {
	if !s.arbiters.IsArbiter(resolverID) {
		return nil, ErrNotArbiter
	}

	d, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if d.Resolved {
		return nil, repository.ErrDisputeResolved
	}

	escrow, err := s.escrows.GetByID(ctx, d.EscrowID)
	if err != nil {
		return nil, err
	}

	milestones, err := s.jobs.ListMilestones(ctx, d.JobID)
	if err != nil {
		return nil, err
	}
	remaining := escrow.Amount - paidShares(escrow.Amount, milestones)

	var legs []models.TransferLeg
	switch kind {
	case models.ResolutionReleaseFreelancer:
		legs = []models.TransferLeg{
			{From: escrow.ID, To: escrow.FreelancerID, Amount: remaining, Type: models.TransactionTypeDisputePayout},
			{From: escrow.ID, To: s.platformID, Amount: escrow.PlatformFee, Type: models.TransactionTypePlatformFee},
		}
	case models.ResolutionRefundClient:
		// Клиент получает назад и остаток, и комиссию.
		legs = []models.TransferLeg{
			{From: escrow.ID, To: escrow.ClientID, Amount: remaining + escrow.PlatformFee, Type: models.TransactionTypeDisputePayout},
		}
	case models.ResolutionSplit:
		if splitRatio == nil || *splitRatio < 0 || *splitRatio > 100 {
			return nil, ErrInvalidSplitRatio
		}
		freelancerAmount := remaining * *splitRatio / 100
		clientAmount := remaining - freelancerAmount
		legs = []models.TransferLeg{
			{From: escrow.ID, To: escrow.FreelancerID, Amount: freelancerAmount, Type: models.TransactionTypeDisputePayout},
			{From: escrow.ID, To: escrow.ClientID, Amount: clientAmount, Type: models.TransactionTypeDisputePayout},
			{From: escrow.ID, To: s.platformID, Amount: escrow.PlatformFee, Type: models.TransactionTypePlatformFee},
		}
	default:
		return nil, ErrInvalidResolutionKind
	}

	resolved, err := s.repo.Resolve(ctx, repository.ResolveParams{
		DisputeID:  disputeID,
		Kind:       kind,
		SplitRatio: splitRatio,
		Note:       note,
		ResolvedBy: resolverID,
		Legs:       legs,
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		jobID := d.JobID
		s.notifier.Notify(ctx, escrow.ClientID, models.NotificationDisputeResolved,
			"Спор разрешён", "Арбитр вынес решение по спору", &jobID)
		s.notifier.Notify(ctx, escrow.FreelancerID, models.NotificationDisputeResolved,
			"Спор разрешён", "Арбитр вынес решение по спору", &jobID)
	}

	return resolved, nil
}
