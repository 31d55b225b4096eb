package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы уведомлений
const (
	NotificationBidPlaced          = "bid_placed"
	NotificationBidAccepted        = "bid_accepted"
	NotificationEscrowCreated      = "escrow_created"
	NotificationEscrowReleased     = "escrow_released"
	NotificationMilestoneCompleted = "milestone_completed"
	NotificationEscrowRefunded     = "escrow_refunded"
	NotificationDisputeInitiated   = "dispute_initiated"
	NotificationDisputeResolved    = "dispute_resolved"
	NotificationReviewReceived     = "review_received"
)

// Notification описывает уведомление пользователя. Помимо сохранения в базе
// уведомления рассылаются подключённым клиентам через websocket-хаб.
type Notification struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	Type      string     `db:"type" json:"type"`
	Title     string     `db:"title" json:"title"`
	Body      string     `db:"body" json:"body"`
	JobID     *uuid.UUID `db:"job_id" json:"job_id,omitempty"`
	IsRead    bool       `db:"is_read" json:"is_read"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
