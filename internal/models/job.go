package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Статусы заказа
const (
	JobStatusOpen       = "open"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
	JobStatusDisputed   = "disputed"
)

// Статусы ставки
const (
	BidStatusPending  = "pending"
	BidStatusAccepted = "accepted"
	BidStatusRejected = "rejected"
)

// BasisPointsTotal — полная доля бюджета в базисных пунктах (100% = 10000).
const BasisPointsTotal = 10000

// Job описывает заказ с фиксированным бюджетом и выбором исполнителя через ставки.
// Бюджет хранится в минимальных единицах выбранной валюты (целое число).
type Job struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	ClientID      uuid.UUID      `db:"client_id" json:"client_id"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description"`
	Budget        int64          `db:"budget" json:"budget"`
	Deadline      time.Time      `db:"deadline" json:"deadline"`
	Currency      string         `db:"currency" json:"currency"`
	Category      string         `db:"category" json:"category"`
	Skills        pq.StringArray `db:"skills" json:"skills"`
	Status        string         `db:"status" json:"status"`
	FreelancerID  *uuid.UUID     `db:"freelancer_id" json:"freelancer_id,omitempty"`
	EscrowID      *uuid.UUID     `db:"escrow_id" json:"escrow_id,omitempty"`
	HasMilestones bool           `db:"has_milestones" json:"has_milestones"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
	CompletedAt   *time.Time     `db:"completed_at" json:"completed_at,omitempty"`

	Bids       []Bid       `json:"bids,omitempty"`
	Milestones []Milestone `json:"milestones,omitempty"`
}

// Bid представляет ставку фрилансера на заказ.
// Position фиксирует порядок подачи: ставки адресуются по индексу.
type Bid struct {
	ID             uuid.UUID `db:"id" json:"id"`
	JobID          uuid.UUID `db:"job_id" json:"job_id"`
	BidderID       uuid.UUID `db:"bidder_id" json:"bidder_id"`
	Position       int       `db:"position" json:"position"`
	Amount         int64     `db:"amount" json:"amount"`
	CompletionTime time.Time `db:"completion_time" json:"completion_time"`
	Proposal       string    `db:"proposal" json:"proposal"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Milestone описывает этап заказа. Доля бюджета задаётся в базисных
// пунктах; сумма долей всех этапов заказа не превышает 10000.
type Milestone struct {
	ID          uuid.UUID `db:"id" json:"id"`
	JobID       uuid.UUID `db:"job_id" json:"job_id"`
	Position    int       `db:"position" json:"position"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	ShareBPS    int64     `db:"share_bps" json:"share_bps"`
	Deadline    time.Time `db:"deadline" json:"deadline"`
	Completed   bool      `db:"completed" json:"completed"`
}

// BidMilestone — этап, предложенный в ставке. При принятии ставки
// этапы копируются на заказ.
type BidMilestone struct {
	ID          uuid.UUID `db:"id" json:"id"`
	BidID       uuid.UUID `db:"bid_id" json:"bid_id"`
	Position    int       `db:"position" json:"position"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	ShareBPS    int64     `db:"share_bps" json:"share_bps"`
	Deadline    time.Time `db:"deadline" json:"deadline"`
}
