package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы escrow
const (
	EscrowStatusActive   = "active"
	EscrowStatusReleased = "released"
	EscrowStatusRefunded = "refunded"
)

// FundKindNative обозначает базовую валюту платформы.
const FundKindNative = "native"

// Типы транзакций
const (
	TransactionTypeDeposit          = "deposit"
	TransactionTypeWithdrawal       = "withdrawal"
	TransactionTypeEscrowHold       = "escrow_hold"
	TransactionTypeEscrowRelease    = "escrow_release"
	TransactionTypeMilestonePayment = "milestone_payment"
	TransactionTypeEscrowRefund     = "escrow_refund"
	TransactionTypeDisputePayout    = "dispute_payout"
	TransactionTypePlatformFee      = "platform_fee"
)

// Account представляет счёт держателя средств. Держателем может быть
// пользователь, escrow или платформенный счёт комиссий.
type Account struct {
	OwnerID   uuid.UUID `db:"owner_id" json:"owner_id"`
	FundKind  string    `db:"fund_kind" json:"fund_kind"`
	Balance   int64     `db:"balance" json:"balance"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction фиксирует одно перемещение средств между счетами.
type Transaction struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	FromID      *uuid.UUID `db:"from_id" json:"from_id,omitempty"`
	ToID        *uuid.UUID `db:"to_id" json:"to_id,omitempty"`
	JobID       *uuid.UUID `db:"job_id" json:"job_id,omitempty"`
	FundKind    string     `db:"fund_kind" json:"fund_kind"`
	Type        string     `db:"type" json:"type"`
	Amount      int64      `db:"amount" json:"amount"`
	Description *string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// TransferLeg описывает одно плечо выплаты. Многоплечевые выплаты
// выполняются в одной транзакции базы: либо все плечи, либо ни одного.
type TransferLeg struct {
	From   uuid.UUID
	To     uuid.UUID
	Amount int64
	Type   string
}

// Escrow удерживает средства клиента по заказу до завершения работы.
// Поле Locked блокирует обычные выплаты на время открытого спора.
type Escrow struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	JobID        uuid.UUID  `db:"job_id" json:"job_id"`
	ClientID     uuid.UUID  `db:"client_id" json:"client_id"`
	FreelancerID uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	Amount       int64      `db:"amount" json:"amount"`
	PlatformFee  int64      `db:"platform_fee" json:"platform_fee"`
	FundKind     string     `db:"fund_kind" json:"fund_kind"`
	Status       string     `db:"status" json:"status"`
	Locked       bool       `db:"locked" json:"locked"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	ReleasedAt   *time.Time `db:"released_at" json:"released_at,omitempty"`
}
