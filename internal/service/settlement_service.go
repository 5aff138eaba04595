package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aslanbek/gigpay/internal/config"
	"github.com/aslanbek/gigpay/internal/model"
	"github.com/aslanbek/gigpay/internal/repository"
)

// depositStatuses are the contract states whose unpaid jobs count towards
// the deposit limit.
var depositStatuses = []model.ContractStatus{
	model.ContractStatusNew,
	model.ContractStatusInProgress,
}

type PDFGenerator interface {
	Generate(receipt model.Receipt) ([]byte, error)
}

type SettlementService struct {
	store      SettlementStore
	pdf        PDFGenerator
	limitRatio decimal.Decimal
}

func NewSettlementService(store SettlementStore, pdf PDFGenerator, cfg *config.Config) *SettlementService {
	return &SettlementService{
		store:      store,
		pdf:        pdf,
		limitRatio: cfg.Settlement.DepositLimitRatio,
	}
}

// PayJob settles an unpaid job: it credits the contractor, debits the
// client and marks the job paid inside one transaction. Missing, already
// paid and not-owned jobs all come back as ErrJobNotPayable; the caller
// cannot tell which applied. On any write failure the transaction rolls
// back fully and ErrSettlementFailed wraps the cause.
func (s *SettlementService) PayJob(ctx context.Context, payer *model.Profile, jobID uuid.UUID) (*model.Job, error) {
	if payer == nil {
		return nil, ErrUnauthorized
	}

	var settled *model.Job
	err := s.store.Transact(ctx, func(tx repository.Tx) error {
		job, err := tx.GetJobForSettlement(ctx, jobID, payer.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotPayable
			}
			return fmt.Errorf("load job for settlement: %w", err)
		}

		client, err := tx.GetProfileForUpdate(ctx, job.ClientID)
		if err != nil {
			return fmt.Errorf("lock client profile: %w", err)
		}
		if client.Balance.LessThan(job.Price) {
			return ErrInsufficientBalance
		}

		if err := tx.CreditBalance(ctx, job.ContractorID, job.Price); err != nil {
			return fmt.Errorf("%w: credit contractor: %v", ErrSettlementFailed, err)
		}
		if err := tx.DebitBalance(ctx, job.ClientID, job.Price); err != nil {
			return fmt.Errorf("%w: debit client: %v", ErrSettlementFailed, err)
		}

		paidAt := time.Now().UTC()
		if err := tx.MarkJobPaid(ctx, job.JobID, paidAt); err != nil {
			return fmt.Errorf("%w: mark job paid: %v", ErrSettlementFailed, err)
		}

		settled = &model.Job{
			ID:          job.JobID,
			ContractID:  job.ContractID,
			Description: job.Description,
			Price:       job.Price,
			Paid:        true,
			PaidDate:    &paidAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// DepositCheck reports the requested amount against the computed limit.
type DepositCheck struct {
	Amount decimal.Decimal
	Limit  decimal.Decimal
}

// ComputeDepositLimit checks a deposit amount against the limit: a client
// may deposit at most the configured ratio of their unpaid jobs in new or
// in-progress contracts. Pure read, no mutation. The returned check is
// populated even when the error is ErrInvalidAmount, so callers can report
// both amount and limit.
func (s *SettlementService) ComputeDepositLimit(
	ctx context.Context,
	clientID uuid.UUID,
	amount decimal.Decimal,
) (*DepositCheck, error) {
	total, err := s.store.SumUnpaidJobs(ctx, clientID, depositStatuses)
	if err != nil {
		return nil, fmt.Errorf("sum unpaid jobs: %w", err)
	}
	return s.depositCheck(amount, total)
}

// Deposit runs the limit check and, when it passes, credits the client
// balance. Check and credit share one transaction so a concurrent payment
// cannot widen the limit between them.
func (s *SettlementService) Deposit(
	ctx context.Context,
	client *model.Profile,
	amount decimal.Decimal,
) (*DepositCheck, error) {
	if client == nil {
		return nil, ErrUnauthorized
	}

	var check *DepositCheck
	err := s.store.Transact(ctx, func(tx repository.Tx) error {
		total, err := tx.SumUnpaidJobs(ctx, client.ID, depositStatuses)
		if err != nil {
			return fmt.Errorf("sum unpaid jobs: %w", err)
		}
		check, err = s.depositCheck(amount, total)
		if err != nil {
			return err
		}
		if err := tx.CreditBalance(ctx, client.ID, amount); err != nil {
			return fmt.Errorf("%w: credit client: %v", ErrSettlementFailed, err)
		}
		return nil
	})
	if err != nil {
		return check, err
	}
	return check, nil
}

func (s *SettlementService) depositCheck(amount, total decimal.Decimal) (*DepositCheck, error) {
	limit := total.Mul(s.limitRatio)
	check := &DepositCheck{Amount: amount, Limit: limit}
	if amount.Sign() <= 0 {
		return check, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if amount.GreaterThan(limit) {
		return check, fmt.Errorf("%w: amount %s exceeds limit %s", ErrInvalidAmount, amount, limit)
	}
	return check, nil
}

// ReceiptResult is a rendered settlement receipt.
type ReceiptResult struct {
	FileName string
	Content  []byte
}

// JobReceipt renders a PDF receipt for a settled job on one of the
// caller's contracts.
func (s *SettlementService) JobReceipt(ctx context.Context, caller *model.Profile, jobID uuid.UUID) (*ReceiptResult, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}

	receipt, err := s.store.GetReceipt(ctx, jobID, caller.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	if !receipt.Job.Paid {
		return nil, fmt.Errorf("%w: job is not settled", ErrInvalidInput)
	}

	content, err := s.pdf.Generate(*receipt)
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return &ReceiptResult{
		FileName: fmt.Sprintf("receipt-%s.pdf", receipt.Job.ID),
		Content:  content,
	}, nil
}
