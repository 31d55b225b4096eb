package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
)

type mockDisputeRepo struct {
	mock.Mock
}

func (m *mockDisputeRepo) Create(ctx context.Context, d *models.Dispute) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *mockDisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) GetOpenByJobID(ctx context.Context, jobID uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) Resolve(ctx context.Context, params repository.ResolveParams) (*models.Dispute, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

type mockDisputeEscrowRepo struct {
	mock.Mock
}

func (m *mockDisputeEscrowRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Escrow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

func (m *mockDisputeEscrowRepo) GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

type mockDisputeJobRepo struct {
	mock.Mock
}

func (m *mockDisputeJobRepo) ListMilestones(ctx context.Context, jobID uuid.UUID) ([]models.Milestone, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).([]models.Milestone), args.Error(1)
}

type disputeFixture struct {
	repo       *mockDisputeRepo
	escrows    *mockDisputeEscrowRepo
	jobs       *mockDisputeJobRepo
	arbiterID  uuid.UUID
	platformID uuid.UUID
	svc        *DisputeService
}

func newDisputeFixture() *disputeFixture {
	f := &disputeFixture{
		repo:       new(mockDisputeRepo),
		escrows:    new(mockDisputeEscrowRepo),
		jobs:       new(mockDisputeJobRepo),
		arbiterID:  uuid.New(),
		platformID: uuid.New(),
	}
	policy := NewStaticArbiterPolicy([]uuid.UUID{f.arbiterID})
	f.svc = NewDisputeService(f.repo, f.escrows, f.jobs, policy, f.platformID)
	return f
}

func validReason() string {
	return strings.Repeat("работа не сдана ", 3)
}

func TestDisputeService_InitiateDispute_Success(t *testing.T) {
	f := newDisputeFixture()
	ctx := context.Background()

	jobID := uuid.New()
	clientID := uuid.New()
	escrow := &models.Escrow{
		ID:           uuid.New(),
		JobID:        jobID,
		ClientID:     clientID,
		FreelancerID: uuid.New(),
		Status:       models.EscrowStatusActive,
	}
	f.escrows.On("GetByJobID", ctx, jobID).Return(escrow, nil)
	f.repo.On("Create", ctx, mock.MatchedBy(func(d *models.Dispute) bool {
		return d.JobID == jobID && d.EscrowID == escrow.ID && d.InitiatorID == clientID
	})).Return(nil)

	d, err := f.svc.InitiateDispute(ctx, jobID, clientID, validReason(), "")
	require.NoError(t, err)
	assert.Equal(t, escrow.ID, d.EscrowID)
	f.repo.AssertExpectations(t)
}

func TestDisputeService_InitiateDispute_NotParticipant(t *testing.T) {
	f := newDisputeFixture()
	ctx := context.Background()

	jobID := uuid.New()
	escrow := &models.Escrow{
		ID:           uuid.New(),
		JobID:        jobID,
		ClientID:     uuid.New(),
		FreelancerID: uuid.New(),
		Status:       models.EscrowStatusActive,
	}
	f.escrows.On("GetByJobID", ctx, jobID).Return(escrow, nil)

	_, err := f.svc.InitiateDispute(ctx, jobID, uuid.New(), validReason(), "")
	assert.ErrorIs(t, err, ErrNotParticipant)
	f.repo.AssertNotCalled(t, "Create")
}

func TestDisputeService_InitiateDispute_EscrowNotActive(t *testing.T) {
	f := newDisputeFixture()
	ctx := context.Background()

	jobID := uuid.New()
	clientID := uuid.New()
	escrow := &models.Escrow{
		ID:       uuid.New(),
		JobID:    jobID,
		ClientID: clientID,
		Status:   models.EscrowStatusReleased,
	}
	f.escrows.On("GetByJobID", ctx, jobID).Return(escrow, nil)

	_, err := f.svc.InitiateDispute(ctx, jobID, clientID, validReason(), "")
	assert.ErrorIs(t, err, repository.ErrEscrowNotActive)
}

func TestDisputeService_ResolveDispute_Split(t *testing.T) {
	f := newDisputeFixture()
	ctx := context.Background()

	jobID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()
	escrowID := uuid.New()
	disputeID := uuid.New()

	d := &models.Dispute{ID: disputeID, JobID: jobID, EscrowID: escrowID}
	escrow := &models.Escrow{
		ID:           escrowID,
		JobID:        jobID,
		ClientID:     clientID,
		FreelancerID: freelancerID,
		Amount:       1000,
		PlatformFee:  50,
		Locked:       true,
		Status:       models.EscrowStatusActive,
	}
	f.repo.On("GetByID", ctx, disputeID).Return(d, nil)
	f.escrows.On("GetByID", ctx, escrowID).Return(escrow, nil)
	f.jobs.On("ListMilestones", ctx, jobID).Return([]models.Milestone{}, nil)

	ratio := int64(30)
	f.repo.On("Resolve", ctx, mock.MatchedBy(func(p repository.ResolveParams) bool {
		// 30% от 1000: фрилансеру 300, клиенту 700, комиссия 50 платформе
		var toFreelancer, toClient, toPlatform int64
		for _, leg := range p.Legs {
			switch leg.To {
			case freelancerID:
				toFreelancer += leg.Amount
			case clientID:
				toClient += leg.Amount
			case f.platformID:
				toPlatform += leg.Amount
			}
		}
		return toFreelancer == 300 && toClient == 700 && toPlatform == 50 &&
			p.Kind == models.ResolutionSplit
	})).Return(&models.Dispute{ID: disputeID, Resolved: true}, nil)

	resolved, err := f.svc.ResolveDispute(ctx, disputeID, f.arbiterID, models.ResolutionSplit, &ratio, "поровну не делим")
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	f.repo.AssertExpectations(t)
}

func TestDisputeService_ResolveDispute_RefundClientReturnsFee(t *testing.T) {
	f := newDisputeFixture()
	ctx := context.Background()

	jobID := uuid.New()
	clientID := uuid.New()
	escrowID := uuid.New()
	disputeID := uuid.New()

	d := &models.Dispute{ID: disputeID, JobID: jobID, EscrowID: escrowID}
	escrow := &models.Escrow{
		ID:           escrowID,
		JobID:        jobID,
		ClientID:     clientID,
		FreelancerID: uuid.New(),
		Amount:       1000,
		PlatformFee:  50,
		Locked:       true,
		Status:       models.EscrowStatusActive,
	}
	f.repo.On("GetByID", ctx, disputeID).Return(d, nil)
	f.escrows.On("GetByID", ctx, escrowID).Return(escrow, nil)
	f.jobs.On("ListMilestones", ctx, jobID).Return([]models.Milestone{}, nil)
	f.repo.On("Resolve", ctx, mock.MatchedBy(func(p repository.ResolveParams) bool {
		// Клиент получает и сумму, и комиссию
		return len(p.Legs) == 1 && p.Legs[0].To == clientID && p.Legs[0].Amount == 1050
	})).Return(d, nil)

	_, err := f.svc.ResolveDispute(ctx, disputeID, f.arbiterID, models.ResolutionRefundClient, nil, "")
	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestDisputeService_ResolveDispute_ReleaseAfterPartialMilestones(t *testing.T) {
	f := newDisputeFixture()
	ctx := context.Background()

	jobID := uuid.New()
	freelancerID := uuid.New()
	escrowID := uuid.New()
	disputeID := uuid.New()

	d := &models.Dispute{ID: disputeID, JobID: jobID, EscrowID: escrowID}
	escrow := &models.Escrow{
		ID:           escrowID,
		JobID:        jobID,
		ClientID:     uuid.New(),
		FreelancerID: freelancerID,
		Amount:       10000,
		PlatformFee:  500,
		Locked:       true,
		Status:       models.EscrowStatusActive,
	}
	f.repo.On("GetByID", ctx, disputeID).Return(d, nil)
	f.escrows.On("GetByID", ctx, escrowID).Return(escrow, nil)
	f.jobs.On("ListMilestones", ctx, jobID).Return([]models.Milestone{
		{Position: 0, ShareBPS: 6000, Completed: true},
		{Position: 1, ShareBPS: 4000},
	}, nil)
	f.repo.On("Resolve", ctx, mock.MatchedBy(func(p repository.ResolveParams) bool {
		// Распределяется только невыплаченный остаток 4000
		payout := p.Legs[0]
		return payout.To == freelancerID && payout.Amount == 4000
	})).Return(d, nil)

	_, err := f.svc.ResolveDispute(ctx, disputeID, f.arbiterID, models.ResolutionReleaseFreelancer, nil, "")
	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestDisputeService_ResolveDispute_NotArbiter(t *testing.T) {
	f := newDisputeFixture()
	ctx := context.Background()

	_, err := f.svc.ResolveDispute(ctx, uuid.New(), uuid.New(), models.ResolutionSplit, nil, "")
	assert.ErrorIs(t, err, ErrNotArbiter)
	f.repo.AssertNotCalled(t, "Resolve")
}

func TestDisputeService_ResolveDispute_AlreadyResolved(t *testing.T) {
	f := newDisputeFixture()
	ctx := context.Background()

	disputeID := uuid.New()
	f.repo.On("GetByID", ctx, disputeID).Return(&models.Dispute{ID: disputeID, Resolved: true}, nil)

	_, err := f.svc.ResolveDispute(ctx, disputeID, f.arbiterID, models.ResolutionRefundClient, nil, "")
	assert.ErrorIs(t, err, repository.ErrDisputeResolved)
}

func TestDisputeService_ResolveDispute_InvalidSplitRatio(t *testing.T) {
	f := newDisputeFixture()
	ctx := context.Background()

	jobID := uuid.New()
	escrowID := uuid.New()
	disputeID := uuid.New()
	d := &models.Dispute{ID: disputeID, JobID: jobID, EscrowID: escrowID}
	escrow := &models.Escrow{ID: escrowID, JobID: jobID, Amount: 1000, Status: models.EscrowStatusActive, Locked: true}
	f.repo.On("GetByID", ctx, disputeID).Return(d, nil)
	f.escrows.On("GetByID", ctx, escrowID).Return(escrow, nil)
	f.jobs.On("ListMilestones", ctx, jobID).Return([]models.Milestone{}, nil)

	bad := int64(101)
	_, err := f.svc.ResolveDispute(ctx, disputeID, f.arbiterID, models.ResolutionSplit, &bad, "")
	assert.ErrorIs(t, err, ErrInvalidSplitRatio)

	_, err = f.svc.ResolveDispute(ctx, disputeID, f.arbiterID, models.ResolutionSplit, nil, "")
	assert.ErrorIs(t, err, ErrInvalidSplitRatio)
}

func TestDisputeService_ResolveDispute_UnknownKind(t *testing.T) {
	f := newDisputeFixture()
	ctx := context.Background()

	jobID := uuid.New()
	escrowID := uuid.New()
	disputeID := uuid.New()
	d := &models.Dispute{ID: disputeID, JobID: jobID, EscrowID: escrowID}
	escrow := &models.Escrow{ID: escrowID, JobID: jobID, Amount: 1000, Status: models.EscrowStatusActive, Locked: true}
	f.repo.On("GetByID", ctx, disputeID).Return(d, nil)
	f.escrows.On("GetByID", ctx, escrowID).Return(escrow, nil)
	f.jobs.On("ListMilestones", ctx, jobID).Return([]models.Milestone{}, nil)

	_, err := f.svc.ResolveDispute(ctx, disputeID, f.arbiterID, "coin_flip", nil, "")
	assert.ErrorIs(t, err, ErrInvalidResolutionKind)
}
