package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
)

type mockLedgerRepo struct {
	mock.Mock
}

func (m *mockLedgerRepo) GetBalance(ctx context.Context, ownerID uuid.UUID, fundKind string) (*models.Account, error) {
	args := m.Called(ctx, ownerID, fundKind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockLedgerRepo) Deposit(ctx context.Context, userID uuid.UUID, fundKind string, amount int64, description string) (*models.Transaction, error) {
	args := m.Called(ctx, userID, fundKind, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockLedgerRepo) Withdraw(ctx context.Context, userID uuid.UUID, fundKind string, amount int64, description string) (*models.Transaction, error) {
	args := m.Called(ctx, userID, fundKind, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockLedgerRepo) ListTransactions(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func TestPaymentService_GetBalance_DefaultFundKind(t *testing.T) {
	repo := new(mockLedgerRepo)
	svc := NewPaymentService(repo)
	ctx := context.Background()
	userID := uuid.New()

	expected := &models.Account{OwnerID: userID, FundKind: models.FundKindNative, Balance: 1000}
	repo.On("GetBalance", ctx, userID, models.FundKindNative).Return(expected, nil)

	account, err := svc.GetBalance(ctx, userID, "")
	assert.NoError(t, err)
	assert.Equal(t, expected, account)
	repo.AssertExpectations(t)
}

func TestPaymentService_Deposit_Success(t *testing.T) {
	repo := new(mockLedgerRepo)
	svc := NewPaymentService(repo)
	ctx := context.Background()
	userID := uuid.New()

	expected := &models.Transaction{ID: uuid.New(), Amount: 1000}
	repo.On("Deposit", ctx, userID, models.FundKindNative, int64(1000), "Пополнение баланса").Return(expected, nil)

	tx, err := svc.Deposit(ctx, userID, "", 1000)
	assert.NoError(t, err)
	assert.Equal(t, expected, tx)
}

func TestPaymentService_Deposit_InvalidAmount(t *testing.T) {
	repo := new(mockLedgerRepo)
	svc := NewPaymentService(repo)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, uuid.New(), "", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Deposit(ctx, uuid.New(), "", -100)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	repo.AssertNotCalled(t, "Deposit")
}

func TestPaymentService_Withdraw_InsufficientFunds(t *testing.T) {
	repo := new(mockLedgerRepo)
	svc := NewPaymentService(repo)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("Withdraw", ctx, userID, models.FundKindNative, int64(5000), "Вывод средств").
		Return(nil, repository.ErrInsufficientFunds)

	_, err := svc.Withdraw(ctx, userID, "", 5000)
	assert.ErrorIs(t, err, repository.ErrInsufficientFunds)
	assert.Contains(t, err.Error(), "недостаточно средств")
}

func TestPaymentService_ListTransactions_DefaultLimit(t *testing.T) {
	repo := new(mockLedgerRepo)
	svc := NewPaymentService(repo)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("ListTransactions", ctx, userID, 20, 0).Return([]models.Transaction{}, nil)

	_, err := svc.ListTransactions(ctx, userID, 0, 0)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
