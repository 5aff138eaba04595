package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Job belongs to exactly one contract. Paid is monotonic: once true it
// never reverts, and the payment fields are immutable from then on.
type Job struct {
	ID          uuid.UUID
	ContractID  uuid.UUID
	Description string
	Price       decimal.Decimal
	Paid        bool
	PaidDate    *time.Time
	CreatedAt   time.Time
}

// PaidJob is a settled job joined to the contractor profession that earned it.
type PaidJob struct {
	Job
	Profession string
}

// SettlementJob is the row-locked view of an unpaid job used inside a
// payment transaction.
type SettlementJob struct {
	JobID        uuid.UUID
	ContractID   uuid.UUID
	Description  string
	Price        decimal.Decimal
	ClientID     uuid.UUID
	ContractorID uuid.UUID
}

// Receipt carries everything needed to render a settled job document.
type Receipt struct {
	Job        Job
	Contract   Contract
	Client     Profile
	Contractor Profile
}
