package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
)

type mockEscrowRepo struct {
	mock.Mock
}

func (m *mockEscrowRepo) Create(ctx context.Context, escrow *models.Escrow) error {
	args := m.Called(ctx, escrow)
	return args.Error(0)
}

func (m *mockEscrowRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Escrow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

func (m *mockEscrowRepo) GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

func (m *mockEscrowRepo) Disburse(ctx context.Context, params repository.DisburseParams) (*models.Escrow, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

type mockEscrowJobRepo struct {
	mock.Mock
}

func (m *mockEscrowJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *mockEscrowJobRepo) ListMilestones(ctx context.Context, jobID uuid.UUID) ([]models.Milestone, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).([]models.Milestone), args.Error(1)
}

func newEscrowService(repo *mockEscrowRepo, jobs *mockEscrowJobRepo, platformID uuid.UUID) *EscrowService {
	return NewEscrowService(repo, jobs, 500, platformID)
}

func legByType(legs []models.TransferLeg, txType string) (models.TransferLeg, bool) {
	for _, leg := range legs {
		if leg.Type == txType {
			return leg, true
		}
	}
	return models.TransferLeg{}, false
}

func TestEscrowService_CreateEscrow_FeeCalculation(t *testing.T) {
	repo := new(mockEscrowRepo)
	jobs := new(mockEscrowJobRepo)
	svc := newEscrowService(repo, jobs, uuid.New())
	ctx := context.Background()

	jobID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()
	job := &models.Job{
		ID:           jobID,
		ClientID:     clientID,
		FreelancerID: &freelancerID,
		Budget:       10000,
		Currency:     models.FundKindNative,
		Status:       models.JobStatusInProgress,
	}
	jobs.On("GetByID", ctx, jobID).Return(job, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(e *models.Escrow) bool {
		return e.Amount == 10000 && e.PlatformFee == 500 &&
			e.ClientID == clientID && e.FreelancerID == freelancerID
	})).Return(nil)

	escrow, err := svc.CreateEscrow(ctx, jobID, clientID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), escrow.PlatformFee)
	repo.AssertExpectations(t)
}

func TestEscrowService_CreateEscrow_NotOwner(t *testing.T) {
	repo := new(mockEscrowRepo)
	jobs := new(mockEscrowJobRepo)
	svc := newEscrowService(repo, jobs, uuid.New())
	ctx := context.Background()

	jobID := uuid.New()
	freelancerID := uuid.New()
	job := &models.Job{
		ID:           jobID,
		ClientID:     uuid.New(),
		FreelancerID: &freelancerID,
		Budget:       10000,
		Status:       models.JobStatusInProgress,
	}
	jobs.On("GetByID", ctx, jobID).Return(job, nil)

	_, err := svc.CreateEscrow(ctx, jobID, uuid.New())
	assert.ErrorIs(t, err, ErrNotJobOwner)
	repo.AssertNotCalled(t, "Create")
}

func TestEscrowService_CreateEscrow_JobNotInProgress(t *testing.T) {
	repo := new(mockEscrowRepo)
	jobs := new(mockEscrowJobRepo)
	svc := newEscrowService(repo, jobs, uuid.New())
	ctx := context.Background()

	jobID := uuid.New()
	clientID := uuid.New()
	job := &models.Job{ID: jobID, ClientID: clientID, Budget: 10000, Status: models.JobStatusOpen}
	jobs.On("GetByID", ctx, jobID).Return(job, nil)

	_, err := svc.CreateEscrow(ctx, jobID, clientID)
	assert.ErrorIs(t, err, repository.ErrJobNotInProgress)
}

func TestEscrowService_ReleaseFull_FullAmountAndFee(t *testing.T) {
	repo := new(mockEscrowRepo)
	jobs := new(mockEscrowJobRepo)
	platformID := uuid.New()
	svc := newEscrowService(repo, jobs, platformID)
	ctx := context.Background()

	jobID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()
	escrow := &models.Escrow{
		ID:           uuid.New(),
		JobID:        jobID,
		ClientID:     clientID,
		FreelancerID: freelancerID,
		Amount:       10000,
		PlatformFee:  500,
		Status:       models.EscrowStatusActive,
	}
	repo.On("GetByJobID", ctx, jobID).Return(escrow, nil)
	jobs.On("ListMilestones", ctx, jobID).Return([]models.Milestone{}, nil)
	repo.On("Disburse", ctx, mock.MatchedBy(func(p repository.DisburseParams) bool {
		release, ok := legByType(p.Legs, models.TransactionTypeEscrowRelease)
		if !ok || release.Amount != 10000 || release.To != freelancerID {
			return false
		}
		fee, ok := legByType(p.Legs, models.TransactionTypePlatformFee)
		if !ok || fee.Amount != 500 || fee.To != platformID {
			return false
		}
		return p.EscrowStatus == models.EscrowStatusReleased && p.JobStatus == models.JobStatusCompleted
	})).Return(&models.Escrow{Status: models.EscrowStatusReleased}, nil)

	result, err := svc.ReleaseFull(ctx, jobID, clientID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusReleased, result.Status)
	repo.AssertExpectations(t)
}

func TestEscrowService_ReleaseFull_AfterPartialMilestones(t *testing.T) {
	repo := new(mockEscrowRepo)
	jobs := new(mockEscrowJobRepo)
	platformID := uuid.New()
	svc := newEscrowService(repo, jobs, platformID)
	ctx := context.Background()

	jobID := uuid.New()
	clientID := uuid.New()
	escrow := &models.Escrow{
		ID:           uuid.New(),
		JobID:        jobID,
		ClientID:     clientID,
		FreelancerID: uuid.New(),
		Amount:       10000,
		PlatformFee:  500,
		Status:       models.EscrowStatusActive,
	}
	repo.On("GetByJobID", ctx, jobID).Return(escrow, nil)
	jobs.On("ListMilestones", ctx, jobID).Return([]models.Milestone{
		{Position: 0, ShareBPS: 6000, Completed: true},
		{Position: 1, ShareBPS: 4000, Completed: false},
	}, nil)
	repo.On("Disburse", ctx, mock.MatchedBy(func(p repository.DisburseParams) bool {
		// Выплачено 6000, остаток 4000
		release, ok := legByType(p.Legs, models.TransactionTypeEscrowRelease)
		return ok && release.Amount == 4000
	})).Return(escrow, nil)

	_, err := svc.ReleaseFull(ctx, jobID, clientID)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEscrowService_ReleaseFull_Locked(t *testing.T) {
	repo := new(mockEscrowRepo)
	jobs := new(mockEscrowJobRepo)
	svc := newEscrowService(repo, jobs, uuid.New())
	ctx := context.Background()

	jobID := uuid.New()
	clientID := uuid.New()
	escrow := &models.Escrow{
		ID:       uuid.New(),
		JobID:    jobID,
		ClientID: clientID,
		Amount:   10000,
		Locked:   true,
		Status:   models.EscrowStatusActive,
	}
	repo.On("GetByJobID", ctx, jobID).Return(escrow, nil)
	jobs.On("ListMilestones", ctx, jobID).Return([]models.Milestone{}, nil)
	repo.On("Disburse", ctx, mock.Anything).Return(nil, repository.ErrEscrowLocked)

	_, err := svc.ReleaseFull(ctx, jobID, clientID)
	assert.ErrorIs(t, err, repository.ErrEscrowLocked)
}

func TestEscrowService_PayMilestone_IntermediateShare(t *testing.T) {
	repo := new(mockEscrowRepo)
	jobs := new(mockEscrowJobRepo)
	svc := newEscrowService(repo, jobs, uuid.New())
	ctx := context.Background()

	jobID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()
	escrow := &models.Escrow{
		ID:           uuid.New(),
		JobID:        jobID,
		ClientID:     clientID,
		FreelancerID: freelancerID,
		Amount:       10000,
		PlatformFee:  500,
		Status:       models.EscrowStatusActive,
	}
	repo.On("GetByJobID", ctx, jobID).Return(escrow, nil)
	jobs.On("ListMilestones", ctx, jobID).Return([]models.Milestone{
		{Position: 0, ShareBPS: 6000},
		{Position: 1, ShareBPS: 4000},
	}, nil)
	repo.On("Disburse", ctx, mock.MatchedBy(func(p repository.DisburseParams) bool {
		if len(p.Legs) != 1 || p.Legs[0].Amount != 6000 || p.Legs[0].To != freelancerID {
			return false
		}
		// Промежуточный этап не меняет статусы
		return p.EscrowStatus == "" && p.JobStatus == "" &&
			p.MilestonePosition != nil && *p.MilestonePosition == 0
	})).Return(escrow, nil)

	_, err := svc.PayMilestone(ctx, jobID, clientID, 0)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEscrowService_PayMilestone_LastClosesEscrow(t *testing.T) {
	repo := new(mockEscrowRepo)
	jobs := new(mockEscrowJobRepo)
	platformID := uuid.New()
	svc := newEscrowService(repo, jobs, platformID)
	ctx := context.Background()

	jobID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()
	escrow := &models.Escrow{
		ID:           uuid.New(),
		JobID:        jobID,
		ClientID:     clientID,
		FreelancerID: freelancerID,
		Amount:       10000,
		PlatformFee:  500,
		Status:       models.EscrowStatusActive,
	}
	repo.On("GetByJobID", ctx, jobID).Return(escrow, nil)
	jobs.On("ListMilestones", ctx, jobID).Return([]models.Milestone{
		{Position: 0, ShareBPS: 6000, Completed: true},
		{Position: 1, ShareBPS: 4000},
	}, nil)
	repo.On("Disburse", ctx, mock.MatchedBy(func(p repository.DisburseParams) bool {
		payment, ok := legByType(p.Legs, models.TransactionTypeMilestonePayment)
		if !ok || payment.Amount != 4000 {
			return false
		}
		fee, ok := legByType(p.Legs, models.TransactionTypePlatformFee)
		if !ok || fee.Amount != 500 || fee.To != platformID {
			return false
		}
		return p.EscrowStatus == models.EscrowStatusReleased && p.JobStatus == models.JobStatusCompleted
	})).Return(&models.Escrow{Status: models.EscrowStatusReleased}, nil)

	result, err := svc.PayMilestone(ctx, jobID, clientID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusReleased, result.Status)
	repo.AssertExpectations(t)
}

func TestEscrowService_PayMilestone_RoundingResidualToClient(t *testing.T) {
	repo := new(mockEscrowRepo)
	jobs := new(mockEscrowJobRepo)
	svc := newEscrowService(repo, jobs, uuid.New())
	ctx := context.Background()

	jobID := uuid.New()
	clientID := uuid.New()
	escrow := &models.Escrow{
		ID:           uuid.New(),
		JobID:        jobID,
		ClientID:     clientID,
		FreelancerID: uuid.New(),
		Amount:       1000,
		PlatformFee:  50,
		Status:       models.EscrowStatusActive,
	}
	repo.On("GetByJobID", ctx, jobID).Return(escrow, nil)
	// Доли 333+333+333, вся сумма этапов 999: 1 единица остаётся
	jobs.On("ListMilestones", ctx, jobID).Return([]models.Milestone{
		{Position: 0, ShareBPS: 3333, Completed: true},
		{Position: 1, ShareBPS: 3333, Completed: true},
		{Position: 2, ShareBPS: 3334},
	}, nil)
	repo.On("Disburse", ctx, mock.MatchedBy(func(p repository.DisburseParams) bool {
		refund, ok := legByType(p.Legs, models.TransactionTypeEscrowRefund)
		if !ok || refund.To != clientID {
			return false
		}
		payment, _ := legByType(p.Legs, models.TransactionTypeMilestonePayment)
		// 333+333 выплачено, последний этап 333, остаток 1000-999=1
		return payment.Amount == 333 && refund.Amount == 1
	})).Return(escrow, nil)

	_, err := svc.PayMilestone(ctx, jobID, clientID, 2)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEscrowService_PayMilestone_InvalidIndex(t *testing.T) {
	repo := new(mockEscrowRepo)
	jobs := new(mockEscrowJobRepo)
	svc := newEscrowService(repo, jobs, uuid.New())
	ctx := context.Background()

	jobID := uuid.New()
	clientID := uuid.New()
	escrow := &models.Escrow{ID: uuid.New(), JobID: jobID, ClientID: clientID, Status: models.EscrowStatusActive}
	repo.On("GetByJobID", ctx, jobID).Return(escrow, nil)
	jobs.On("ListMilestones", ctx, jobID).Return([]models.Milestone{{Position: 0, ShareBPS: 10000}}, nil)

	_, err := svc.PayMilestone(ctx, jobID, clientID, 5)
	assert.ErrorIs(t, err, ErrInvalidMilestoneIndex)

	_, err = svc.PayMilestone(ctx, jobID, clientID, -1)
	assert.ErrorIs(t, err, ErrInvalidMilestoneIndex)
}

func TestEscrowService_PayMilestone_AlreadyPaid(t *testing.T) {
	repo := new(mockEscrowRepo)
	jobs := new(mockEscrowJobRepo)
	svc := newEscrowService(repo, jobs, uuid.New())
	ctx := context.Background()

	jobID := uuid.New()
	clientID := uuid.New()
	escrow := &models.Escrow{ID: uuid.New(), JobID: jobID, ClientID: clientID, Amount: 1000, Status: models.EscrowStatusActive}
	repo.On("GetByJobID", ctx, jobID).Return(escrow, nil)
	jobs.On("ListMilestones", ctx, jobID).Return([]models.Milestone{
		{Position: 0, ShareBPS: 5000, Completed: true},
		{Position: 1, ShareBPS: 5000},
	}, nil)

	_, err := svc.PayMilestone(ctx, jobID, clientID, 0)
	assert.ErrorIs(t, err, repository.ErrMilestoneAlreadyPaid)
	repo.AssertNotCalled(t, "Disburse")
}

func TestEscrowService_Refund_RemainingToClientFeeToPlatform(t *testing.T) {
	repo := new(mockEscrowRepo)
	jobs := new(mockEscrowJobRepo)
	platformID := uuid.New()
	svc := newEscrowService(repo, jobs, platformID)
	ctx := context.Background()

	jobID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()
	escrow := &models.Escrow{
		ID:           uuid.New(),
		JobID:        jobID,
		ClientID:     clientID,
		FreelancerID: freelancerID,
		Amount:       10000,
		PlatformFee:  500,
		Status:       models.EscrowStatusActive,
	}
	repo.On("GetByJobID", ctx, jobID).Return(escrow, nil)
	jobs.On("ListMilestones", ctx, jobID).Return([]models.Milestone{
		{Position: 0, ShareBPS: 6000, Completed: true},
		{Position: 1, ShareBPS: 4000},
	}, nil)
	repo.On("Disburse", ctx, mock.MatchedBy(func(p repository.DisburseParams) bool {
		refund, ok := legByType(p.Legs, models.TransactionTypeEscrowRefund)
		if !ok || refund.Amount != 4000 || refund.To != clientID {
			return false
		}
		fee, ok := legByType(p.Legs, models.TransactionTypePlatformFee)
		if !ok || fee.Amount != 500 || fee.To != platformID {
			return false
		}
		return p.EscrowStatus == models.EscrowStatusRefunded && p.JobStatus == models.JobStatusCancelled
	})).Return(&models.Escrow{Status: models.EscrowStatusRefunded}, nil)

	result, err := svc.Refund(ctx, jobID, clientID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusRefunded, result.Status)
	repo.AssertExpectations(t)
}

func TestEscrowService_Refund_OnlyClient(t *testing.T) {
	repo := new(mockEscrowRepo)
	jobs := new(mockEscrowJobRepo)
	svc := newEscrowService(repo, jobs, uuid.New())
	ctx := context.Background()

	jobID := uuid.New()
	escrow := &models.Escrow{
		ID:           uuid.New(),
		JobID:        jobID,
		ClientID:     uuid.New(),
		FreelancerID: uuid.New(),
		Status:       models.EscrowStatusActive,
	}
	repo.On("GetByJobID", ctx, jobID).Return(escrow, nil)

	_, err := svc.Refund(ctx, jobID, escrow.FreelancerID)
	assert.ErrorIs(t, err, ErrNotJobOwner)

	_, err = svc.Refund(ctx, jobID, uuid.New())
	assert.ErrorIs(t, err, ErrNotJobOwner)
	repo.AssertNotCalled(t, "Disburse")
}
