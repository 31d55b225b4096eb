package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/models"
)

var (
	ErrJobNotFound           = errors.New("job not found")
	ErrJobNotOpen            = errors.New("job not open")
	ErrJobNotInProgress      = errors.New("job not in progress")
	ErrBidNotFound           = errors.New("bid not found")
	ErrInvalidMilestoneShare = errors.New("milestone shares exceed budget")
)

// JobRepository управляет заказами, ставками и этапами.
type JobRepository struct {
	db *sqlx.DB
}

func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create сохраняет новый заказ.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO jobs (client_id, title, description, budget, deadline, currency, category, skills, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		job.ClientID, job.Title, job.Description, job.Budget, job.Deadline,
		job.Currency, job.Category, job.Skills, job.Status).
		Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
}

// GetByID возвращает заказ по ID.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := r.db.GetContext(ctx, &job, `SELECT * FROM jobs WHERE id = $1`, id)
	if isNoRows(err) {
		return nil, ErrJobNotFound
	}
	return &job, err
}

// List возвращает заказы с фильтрами по статусу и категории.
func (r *JobRepository) List(ctx context.Context, status, category string, limit, offset int) ([]models.Job, error) {
	var jobs []models.Job
	query := `SELECT * FROM jobs WHERE 1=1`
	args := []interface{}{}
	idx := 1
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, status)
		idx++
	}
	if category != "" {
		query += fmt.Sprintf(" AND category = $%d", idx)
		args = append(args, category)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	err := r.db.SelectContext(ctx, &jobs, query, args...)
	return jobs, err
}

// ListByClient возвращает заказы клиента.
func (r *JobRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT * FROM jobs WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, clientID, limit, offset)
	return jobs, err
}

// ListByFreelancer возвращает заказы, где пользователь выбран исполнителем.
func (r *JobRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT * FROM jobs WHERE freelancer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, freelancerID, limit, offset)
	return jobs, err
}

// ListBids возвращает ставки заказа в порядке подачи.
func (r *JobRepository) ListBids(ctx context.Context, jobID uuid.UUID) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.db.SelectContext(ctx, &bids, `
		SELECT * FROM bids WHERE job_id = $1 ORDER BY position ASC
	`, jobID)
	return bids, err
}

// ListMilestones возвращает этапы заказа в порядке следования.
func (r *JobRepository) ListMilestones(ctx context.Context, jobID uuid.UUID) ([]models.Milestone, error) {
	var milestones []models.Milestone
	err := r.db.SelectContext(ctx, &milestones, `
		SELECT * FROM milestones WHERE job_id = $1 ORDER BY position ASC
	`, jobID)
	return milestones, err
}

// CreateBid добавляет ставку на открытый заказ вместе с предложенными этапами.
// Позиция ставки назначается внутри транзакции под блокировкой заказа,
// поэтому порядок подачи строго последовательный.
func (r *JobRepository) CreateBid(ctx context.Context, bid *models.Bid, milestones []models.BidMilestone) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var job models.Job
	err = tx.GetContext(ctx, &job, `SELECT * FROM jobs WHERE id = $1 FOR UPDATE`, bid.JobID)
	if err != nil {
		if isNoRows(err) {
			return ErrJobNotFound
		}
		return err
	}
	if job.Status != models.JobStatusOpen {
		return ErrJobNotOpen
	}

	var position int
	if err := tx.GetContext(ctx, &position, `SELECT COUNT(*) FROM bids WHERE job_id = $1`, bid.JobID); err != nil {
		return err
	}
	bid.Position = position
	bid.Status = models.BidStatusPending

	err = tx.GetContext(ctx, bid, `
		INSERT INTO bids (job_id, bidder_id, position, amount, completion_time, proposal, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, bid.JobID, bid.BidderID, bid.Position, bid.Amount, bid.CompletionTime, bid.Proposal, bid.Status)
	if err != nil {
		return err
	}

	for _, m := range milestones {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bid_milestones (bid_id, position, title, description, share_bps, deadline)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, bid.ID, m.Position, m.Title, m.Description, m.ShareBPS, m.Deadline)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// AcceptBid принимает ставку по позиции: остальные ставки отклоняются,
// этапы ставки копируются на заказ, заказ переходит в работу. Сумма долей
// этапов проверяется здесь, до перевода заказа в работу.
func (r *JobRepository) AcceptBid(ctx context.Context, jobID uuid.UUID, position int) (*models.Bid, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var job models.Job
	err = tx.GetContext(ctx, &job, `SELECT * FROM jobs WHERE id = $1 FOR UPDATE`, jobID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if job.Status != models.JobStatusOpen {
		return nil, ErrJobNotOpen
	}

	var bid models.Bid
	err = tx.GetContext(ctx, &bid, `SELECT * FROM bids WHERE job_id = $1 AND position = $2`, jobID, position)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrBidNotFound
		}
		return nil, err
	}

	var bidMilestones []models.BidMilestone
	err = tx.SelectContext(ctx, &bidMilestones, `
		SELECT * FROM bid_milestones WHERE bid_id = $1 ORDER BY position ASC
	`, bid.ID)
	if err != nil {
		return nil, err
	}

	var totalBPS int64
	for _, m := range bidMilestones {
		totalBPS += m.ShareBPS
	}
	if totalBPS > models.BasisPointsTotal {
		return nil, ErrInvalidMilestoneShare
	}

	if _, err := tx.ExecContext(ctx, `UPDATE bids SET status = $2 WHERE id = $1`, bid.ID, models.BidStatusAccepted); err != nil {
		return nil, err
	}
	bid.Status = models.BidStatusAccepted

	if _, err := tx.ExecContext(ctx, `
		UPDATE bids SET status = $3 WHERE job_id = $1 AND id <> $2 AND status = $4
	`, jobID, bid.ID, models.BidStatusRejected, models.BidStatusPending); err != nil {
		return nil, err
	}

	for _, m := range bidMilestones {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO milestones (job_id, position, title, description, share_bps, deadline, completed)
			VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		`, jobID, m.Position, m.Title, m.Description, m.ShareBPS, m.Deadline)
		if err != nil {
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE jobs SET freelancer_id = $2, status = $3, has_milestones = $4, updated_at = NOW()
		WHERE id = $1
	`, jobID, bid.BidderID, models.JobStatusInProgress, len(bidMilestones) > 0)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &bid, nil
}

// Cancel отменяет открытый заказ.
func (r *JobRepository) Cancel(ctx context.Context, jobID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var job models.Job
	err = tx.GetContext(ctx, &job, `SELECT * FROM jobs WHERE id = $1 FOR UPDATE`, jobID)
	if err != nil {
		if isNoRows(err) {
			return ErrJobNotFound
		}
		return err
	}
	if job.Status != models.JobStatusOpen {
		return ErrJobNotOpen
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1
	`, jobID, models.JobStatusCancelled); err != nil {
		return err
	}

	return tx.Commit()
}
