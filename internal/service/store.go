package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aslanbek/gigpay/internal/model"
	"github.com/aslanbek/gigpay/internal/repository"
)

// QueryStore is the read surface the query service needs from the
// persistence layer.
type QueryStore interface {
	GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	ListContracts(ctx context.Context, profileID uuid.UUID) ([]model.Contract, error)
	ListUnpaidJobs(ctx context.Context, profileID uuid.UUID, statuses []model.ContractStatus) ([]model.Job, error)
	ListPaidJobsWithProfession(ctx context.Context, from, to *time.Time) ([]model.PaidJob, error)
}

// SettlementStore exposes the reads and the transaction scope the
// settlement engine runs on.
type SettlementStore interface {
	SumUnpaidJobs(ctx context.Context, profileID uuid.UUID, statuses []model.ContractStatus) (decimal.Decimal, error)
	GetReceipt(ctx context.Context, jobID, ownerID uuid.UUID) (*model.Receipt, error)
	Transact(ctx context.Context, fn func(tx repository.Tx) error) error
}

// ReportStore is the aggregation surface behind the reporting service.
type ReportStore interface {
	ProfessionTotals(ctx context.Context, from, to *time.Time) ([]model.ProfessionEarnings, error)
	ClientTotals(ctx context.Context, from, to *time.Time, limit int) ([]model.ClientSpend, error)
}
