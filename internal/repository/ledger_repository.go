package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/models"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountNotFound   = errors.New("account not found")
)

// LedgerRepository управляет счетами и перемещением средств.
// Каждый держатель средств (пользователь, escrow, платформа) — строка
// в таблице accounts с ключом (owner_id, fund_kind).
type LedgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// GetBalance возвращает счёт держателя, создаёт если не существует.
func (r *LedgerRepository) GetBalance(ctx context.Context, ownerID uuid.UUID, fundKind string) (*models.Account, error) {
	var account models.Account
	query := `
		INSERT INTO accounts (owner_id, fund_kind, balance)
		VALUES ($1, $2, 0)
		ON CONFLICT (owner_id, fund_kind) DO UPDATE SET updated_at = NOW()
		RETURNING owner_id, fund_kind, balance, updated_at
	`
	if err := r.db.GetContext(ctx, &account, query, ownerID, fundKind); err != nil {
		return nil, fmt.Errorf("ledger repository: get balance %w", err)
	}
	return &account, nil
}

// Deposit пополняет счёт пользователя.
func (r *LedgerRepository) Deposit(ctx context.Context, userID uuid.UUID, fundKind string, amount int64, description string) (*models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := creditAccount(ctx, tx, userID, fundKind, amount); err != nil {
		return nil, fmt.Errorf("ledger repository: deposit credit %w", err)
	}

	transaction, err := insertTransaction(ctx, tx, nil, &userID, nil, fundKind, models.TransactionTypeDeposit, amount, description)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: deposit create transaction %w", err)
	}

	return transaction, tx.Commit()
}

// Withdraw списывает средства со счёта пользователя.
func (r *LedgerRepository) Withdraw(ctx context.Context, userID uuid.UUID, fundKind string, amount int64, description string) (*models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := debitAccount(ctx, tx, userID, fundKind, amount); err != nil {
		return nil, err
	}

	transaction, err := insertTransaction(ctx, tx, &userID, nil, nil, fundKind, models.TransactionTypeWithdrawal, amount, description)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: withdraw create transaction %w", err)
	}

	return transaction, tx.Commit()
}

// ListTransactions возвращает историю транзакций по счёту держателя.
func (r *LedgerRepository) ListTransactions(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT id, from_id, to_id, job_id, fund_kind, type, amount, description, created_at
		FROM transactions WHERE from_id = $1 OR to_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	return transactions, err
}

// debitAccount списывает средства со счёта внутри транзакции.
// Списание условное: при нехватке средств ни одна строка не обновляется
// и возвращается ErrInsufficientFunds. Частичных списаний не бывает.
func debitAccount(ctx context.Context, tx *sqlx.Tx, ownerID uuid.UUID, fundKind string, amount int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance - $3, updated_at = NOW()
		WHERE owner_id = $1 AND fund_kind = $2 AND balance >= $3
	`, ownerID, fundKind, amount)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// creditAccount зачисляет средства на счёт внутри транзакции, создавая счёт при необходимости.
func creditAccount(ctx context.Context, tx *sqlx.Tx, ownerID uuid.UUID, fundKind string, amount int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (owner_id, fund_kind, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, fund_kind) DO UPDATE SET balance = accounts.balance + $3, updated_at = NOW()
	`, ownerID, fundKind, amount)
	return err
}

// insertTransaction записывает строку аудита перемещения средств.
func insertTransaction(ctx context.Context, tx *sqlx.Tx, fromID, toID, jobID *uuid.UUID, fundKind, txType string, amount int64, description string) (*models.Transaction, error) {
	var transaction models.Transaction
	var desc *string
	if description != "" {
		desc = &description
	}
	err := tx.GetContext(ctx, &transaction, `
		INSERT INTO transactions (from_id, to_id, job_id, fund_kind, type, amount, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, from_id, to_id, job_id, fund_kind, type, amount, description, created_at
	`, fromID, toID, jobID, fundKind, txType, amount, desc)
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// transferLeg выполняет одно плечо выплаты: условное списание, зачисление
// и строка аудита. Нулевые плечи пропускаются.
func transferLeg(ctx context.Context, tx *sqlx.Tx, fundKind string, jobID *uuid.UUID, leg models.TransferLeg, description string) error {
	if leg.Amount == 0 {
		return nil
	}
	if leg.Amount < 0 {
		return fmt.Errorf("ledger repository: отрицательная сумма плеча %d", leg.Amount)
	}
	if err := debitAccount(ctx, tx, leg.From, fundKind, leg.Amount); err != nil {
		return err
	}
	if err := creditAccount(ctx, tx, leg.To, fundKind, leg.Amount); err != nil {
		return err
	}
	from, to := leg.From, leg.To
	if _, err := insertTransaction(ctx, tx, &from, &to, jobID, fundKind, leg.Type, leg.Amount, description); err != nil {
		return err
	}
	return nil
}

// isNoRows упрощает проверку отсутствия строки в репозиториях.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
