package models

import (
	"time"

	"github.com/google/uuid"
)

// Варианты решения спора
const (
	ResolutionReleaseFreelancer = "release_freelancer"
	ResolutionRefundClient      = "refund_client"
	ResolutionSplit             = "split"
)

// Dispute представляет спор по заказу. Спор создаётся один раз,
// разрешается ровно один раз и никогда не удаляется.
type Dispute struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	JobID        uuid.UUID  `db:"job_id" json:"job_id"`
	EscrowID     uuid.UUID  `db:"escrow_id" json:"escrow_id"`
	ClientID     uuid.UUID  `db:"client_id" json:"client_id"`
	FreelancerID uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	InitiatorID  uuid.UUID  `db:"initiator_id" json:"initiator_id"`
	Reason       string     `db:"reason" json:"reason"`
	Evidence     string     `db:"evidence" json:"evidence"`
	Resolved     bool       `db:"resolved" json:"resolved"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`

	// Детали решения, заполняются при разрешении спора и далее неизменны.
	ResolutionKind *string    `db:"resolution_kind" json:"resolution_kind,omitempty"`
	SplitRatio     *int64     `db:"split_ratio" json:"split_ratio,omitempty"`
	ResolutionNote *string    `db:"resolution_note" json:"resolution_note,omitempty"`
	ResolvedBy     *uuid.UUID `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}
