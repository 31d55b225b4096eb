package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/models"
)

var (
	ErrEscrowNotFound       = errors.New("escrow not found")
	ErrEscrowNotActive      = errors.New("escrow not active")
	ErrEscrowLocked         = errors.New("escrow locked")
	ErrEscrowExists         = errors.New("escrow already exists")
	ErrMilestoneAlreadyPaid = errors.New("milestone already paid")
)

// EscrowRepository управляет жизненным циклом escrow: удержание средств
// при создании и выплаты при завершении. Все денежные операции выполняются
// в одной транзакции базы с блокировкой строки escrow.
type EscrowRepository struct {
	db *sqlx.DB
}

func NewEscrowRepository(db *sqlx.DB) *EscrowRepository {
	return &EscrowRepository{db: db}
}

// Create создаёт escrow и удерживает средства клиента (сумма + комиссия)
// на счёте escrow. Заказ блокируется на время проверки.
func (r *EscrowRepository) Create(ctx context.Context, escrow *models.Escrow) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Проверяем заказ под блокировкой: escrow по заказу может быть только один.
	var job models.Job
	err = tx.GetContext(ctx, &job, `SELECT * FROM jobs WHERE id = $1 FOR UPDATE`, escrow.JobID)
	if err != nil {
		if isNoRows(err) {
			return ErrJobNotFound
		}
		return err
	}
	if job.EscrowID != nil {
		return ErrEscrowExists
	}
	if job.Status != models.JobStatusInProgress {
		return ErrJobNotInProgress
	}

	escrow.ID = uuid.New()
	total := escrow.Amount + escrow.PlatformFee

	// Списываем сумму и комиссию со счёта клиента на счёт escrow.
	if err := debitAccount(ctx, tx, escrow.ClientID, escrow.FundKind, total); err != nil {
		return err
	}
	if err := creditAccount(ctx, tx, escrow.ID, escrow.FundKind, total); err != nil {
		return err
	}

	err = tx.GetContext(ctx, escrow, `
		INSERT INTO escrow (id, job_id, client_id, freelancer_id, amount, platform_fee, fund_kind, status, locked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
		RETURNING *
	`, escrow.ID, escrow.JobID, escrow.ClientID, escrow.FreelancerID,
		escrow.Amount, escrow.PlatformFee, escrow.FundKind, models.EscrowStatusActive)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE jobs SET escrow_id = $2, updated_at = NOW() WHERE id = $1`, escrow.JobID, escrow.ID); err != nil {
		return err
	}

	jobID := escrow.JobID
	clientID := escrow.ClientID
	escrowID := escrow.ID
	if _, err := insertTransaction(ctx, tx, &clientID, &escrowID, &jobID, escrow.FundKind,
		models.TransactionTypeEscrowHold, total, "Заморозка средств для заказа"); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID возвращает escrow по ID.
func (r *EscrowRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Escrow, error) {
	var escrow models.Escrow
	err := r.db.GetContext(ctx, &escrow, `SELECT * FROM escrow WHERE id = $1`, id)
	if isNoRows(err) {
		return nil, ErrEscrowNotFound
	}
	return &escrow, err
}

// GetByJobID возвращает escrow по ID заказа.
func (r *EscrowRepository) GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	var escrow models.Escrow
	err := r.db.GetContext(ctx, &escrow, `SELECT * FROM escrow WHERE job_id = $1`, jobID)
	if isNoRows(err) {
		return nil, ErrEscrowNotFound
	}
	return &escrow, err
}

// DisburseParams описывает одну атомарную выплату из escrow: набор плеч
// плюс переходы статусов escrow и заказа, выполняемые той же транзакцией.
type DisburseParams struct {
	EscrowID          uuid.UUID
	Legs              []models.TransferLeg
	EscrowStatus      string // пустая строка — статус не меняется
	JobStatus         string // пустая строка — статус не меняется
	MilestonePosition *int   // этап, отмечаемый выплаченным
	Description       string
}

// Disburse выполняет выплату из escrow. Строка escrow блокируется на время
// операции, поэтому конкурирующие выплаты сериализуются. Либо выполняются
// все плечи и переходы статусов, либо ни одного.
func (r *EscrowRepository) Disburse(ctx context.Context, params DisburseParams) (*models.Escrow, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var escrow models.Escrow
	err = tx.GetContext(ctx, &escrow, `SELECT * FROM escrow WHERE id = $1 FOR UPDATE`, params.EscrowID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrEscrowNotFound
		}
		return nil, err
	}
	if escrow.Status != models.EscrowStatusActive {
		return nil, ErrEscrowNotActive
	}
	if escrow.Locked {
		return nil, ErrEscrowLocked
	}

	// Повторная выплата этапа невозможна: строка этапа переводится в
	// completed условным обновлением.
	if params.MilestonePosition != nil {
		res, err := tx.ExecContext(ctx, `
			UPDATE milestones SET completed = TRUE
			WHERE job_id = $1 AND position = $2 AND completed = FALSE
		`, escrow.JobID, *params.MilestonePosition)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, ErrMilestoneAlreadyPaid
		}
	}

	jobID := escrow.JobID
	for _, leg := range params.Legs {
		if err := transferLeg(ctx, tx, escrow.FundKind, &jobID, leg, params.Description); err != nil {
			return nil, err
		}
	}

	if params.EscrowStatus != "" {
		now := time.Now()
		_, err = tx.ExecContext(ctx, `
			UPDATE escrow SET status = $2, released_at = $3, updated_at = NOW()
			WHERE id = $1
		`, escrow.ID, params.EscrowStatus, now)
		if err != nil {
			return nil, err
		}
		escrow.Status = params.EscrowStatus
		escrow.ReleasedAt = &now
	}

	if params.JobStatus != "" {
		query := `UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1`
		if params.JobStatus == models.JobStatusCompleted {
			query = `UPDATE jobs SET status = $2, completed_at = NOW(), updated_at = NOW() WHERE id = $1`
		}
		if _, err := tx.ExecContext(ctx, query, escrow.JobID, params.JobStatus); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &escrow, nil
}
