package model

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleContractor Role = "contractor"
	RoleAdmin      Role = "admin"
)

// Profile is a marketplace participant. Balance is mutated only by the
// settlement engine and never goes negative.
type Profile struct {
	ID         uuid.UUID
	FirstName  string
	LastName   string
	Profession string
	Balance    decimal.Decimal
	Role       Role
}

func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
