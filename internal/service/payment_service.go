package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
)

var ErrInvalidAmount = errors.New("amount must be positive")

// LedgerRepo описывает зависимости PaymentService от слоя хранилища.
type LedgerRepo interface {
	GetBalance(ctx context.Context, ownerID uuid.UUID, fundKind string) (*models.Account, error)
	Deposit(ctx context.Context, userID uuid.UUID, fundKind string, amount int64, description string) (*models.Transaction, error)
	Withdraw(ctx context.Context, userID uuid.UUID, fundKind string, amount int64, description string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Transaction, error)
}

// PaymentService — кошелёк пользователя: баланс, пополнение, вывод, история.
type PaymentService struct {
	repo LedgerRepo
}

func NewPaymentService(repo LedgerRepo) *PaymentService {
	return &PaymentService{repo: repo}
}

// GetBalance возвращает счёт пользователя в указанной валюте.
func (s *PaymentService) GetBalance(ctx context.Context, userID uuid.UUID, fundKind string) (*models.Account, error) {
	if fundKind == "" {
		fundKind = models.FundKindNative
	}
	return s.repo.GetBalance(ctx, userID, fundKind)
}

// Deposit пополняет счёт пользователя.
func (s *PaymentService) Deposit(ctx context.Context, userID uuid.UUID, fundKind string, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if fundKind == "" {
		fundKind = models.FundKindNative
	}
	return s.repo.Deposit(ctx, userID, fundKind, amount, "Пополнение баланса")
}

// Withdraw выводит средства со счёта пользователя.
func (s *PaymentService) Withdraw(ctx context.Context, userID uuid.UUID, fundKind string, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if fundKind == "" {
		fundKind = models.FundKindNative
	}
	transaction, err := s.repo.Withdraw(ctx, userID, fundKind, amount, "Вывод средств")
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, fmt.Errorf("payment service: недостаточно средств: %w", err)
		}
		return nil, err
	}
	return transaction, nil
}

// ListTransactions возвращает историю транзакций пользователя.
func (s *PaymentService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}
