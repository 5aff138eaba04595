package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProfessionEarnings is the summed price of settled jobs for one profession.
type ProfessionEarnings struct {
	Profession string
	Total      decimal.Decimal
}

// ClientSpend is the summed price of settled jobs paid by one client.
type ClientSpend struct {
	ID       uuid.UUID
	FullName string
	Paid     decimal.Decimal
}

// EarningsReport is the per-profession revenue breakdown over a period.
// Nil period bounds mean all time.
type EarningsReport struct {
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Best        *ProfessionEarnings
	Rows        []ProfessionEarnings
}
