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
	ErrDisputeNotFound = errors.New("dispute not found")
	ErrDisputeExists   = errors.New("dispute already exists")
	ErrDisputeResolved = errors.New("dispute already resolved")
)

// DisputeRepository управляет спорами. Открытие спора блокирует escrow,
// разрешение выполняет выплаты и снимает блокировку в одной транзакции.
type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// Create открывает спор: escrow блокируется, заказ переходит в disputed.
// Повторное открытие спора по заблокированному escrow невозможно.
func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var escrow models.Escrow
	err = tx.GetContext(ctx, &escrow, `SELECT * FROM escrow WHERE id = $1 FOR UPDATE`, d.EscrowID)
	if err != nil {
		if isNoRows(err) {
			return ErrEscrowNotFound
		}
		return err
	}
	if escrow.Status != models.EscrowStatusActive {
		return ErrEscrowNotActive
	}
	if escrow.Locked {
		return ErrDisputeExists
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE escrow SET locked = TRUE, updated_at = NOW() WHERE id = $1
	`, escrow.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1
	`, escrow.JobID, models.JobStatusDisputed); err != nil {
		return err
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO disputes (job_id, escrow_id, client_id, freelancer_id, initiator_id, reason, evidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, d.JobID, d.EscrowID, escrow.ClientID, escrow.FreelancerID, d.InitiatorID, d.Reason, d.Evidence).
		Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return err
	}
	d.ClientID = escrow.ClientID
	d.FreelancerID = escrow.FreelancerID

	return tx.Commit()
}

// GetByID возвращает спор по ID.
func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `SELECT * FROM disputes WHERE id = $1`, id)
	if isNoRows(err) {
		return nil, ErrDisputeNotFound
	}
	return &d, err
}

// GetOpenByJobID возвращает открытый спор по заказу.
func (r *DisputeRepository) GetOpenByJobID(ctx context.Context, jobID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `
		SELECT * FROM disputes WHERE job_id = $1 AND resolved = FALSE
	`, jobID)
	if isNoRows(err) {
		return nil, ErrDisputeNotFound
	}
	return &d, err
}

// ListByUser возвращает споры, где пользователь является стороной.
func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes
		WHERE client_id = $1 OR freelancer_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return disputes, err
}

// ResolveParams описывает решение спора: вердикт и выплаты.
type ResolveParams struct {
	DisputeID  uuid.UUID
	Kind       string
	SplitRatio *int64
	Note       string
	ResolvedBy uuid.UUID
	Legs       []models.TransferLeg
}

// Resolve разрешает спор: выплаты, снятие блокировки, закрытие escrow
// и завершение заказа выполняются одной транзакцией. Спор разрешается
// ровно один раз.
func (r *DisputeRepository) Resolve(ctx context.Context, params ResolveParams) (*models.Dispute, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var d models.Dispute
	err = tx.GetContext(ctx, &d, `SELECT * FROM disputes WHERE id = $1 FOR UPDATE`, params.DisputeID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrDisputeNotFound
		}
		return nil, err
	}
	if d.Resolved {
		return nil, ErrDisputeResolved
	}

	var escrow models.Escrow
	err = tx.GetContext(ctx, &escrow, `SELECT * FROM escrow WHERE id = $1 FOR UPDATE`, d.EscrowID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrEscrowNotFound
		}
		return nil, err
	}
	if escrow.Status != models.EscrowStatusActive {
		return nil, ErrEscrowNotActive
	}

	jobID := d.JobID
	for _, leg := range params.Legs {
		if err := transferLeg(ctx, tx, escrow.FundKind, &jobID, leg, "Выплата по решению спора"); err != nil {
			return nil, err
		}
	}

	// Любое решение закрывает escrow как released: средства распределены
	// по вердикту, дальнейшие выплаты невозможны.
	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE escrow SET status = $2, locked = FALSE, released_at = $3, updated_at = NOW()
		WHERE id = $1
	`, escrow.ID, models.EscrowStatusReleased, now); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE jobs SET status = $2, completed_at = $3, updated_at = NOW() WHERE id = $1
	`, d.JobID, models.JobStatusCompleted, now); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE disputes SET resolved = TRUE, resolution_kind = $2, split_ratio = $3,
			resolution_note = $4, resolved_by = $5, resolved_at = $6
		WHERE id = $1
	`, d.ID, params.Kind, params.SplitRatio, params.Note, params.ResolvedBy, now); err != nil {
		return nil, err
	}

	d.Resolved = true
	d.ResolutionKind = &params.Kind
	d.SplitRatio = params.SplitRatio
	if params.Note != "" {
		d.ResolutionNote = &params.Note
	}
	resolvedBy := params.ResolvedBy
	d.ResolvedBy = &resolvedBy
	d.ResolvedAt = &now

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &d, nil
}
