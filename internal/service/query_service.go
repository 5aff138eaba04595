package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aslanbek/gigpay/internal/auth"
	"github.com/aslanbek/gigpay/internal/model"
)

type QueryService struct {
	store QueryStore
}

func NewQueryService(store QueryStore) *QueryService {
	return &QueryService{store: store}
}

// ContractByID returns the contract when the caller owns it (or is an
// admin). A denied ownership check is an explicit unauthorized outcome.
func (s *QueryService) ContractByID(ctx context.Context, caller *model.Profile, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.store.GetContract(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get contract: %w", err)
	}
	if !auth.IsOwner(caller, contract) && !auth.IsAdmin(caller) {
		return nil, ErrUnauthorized
	}
	return contract, nil
}

// Contracts returns the caller's non-terminated contracts on either side.
func (s *QueryService) Contracts(ctx context.Context, profileID uuid.UUID) ([]model.Contract, error) {
	contracts, err := s.store.ListContracts(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	return contracts, nil
}

// UnpaidJobs returns unpaid jobs on the profile's contracts whose status is
// in the given set. An empty status set matches nothing.
func (s *QueryService) UnpaidJobs(
	ctx context.Context,
	profileID uuid.UUID,
	statuses []model.ContractStatus,
) ([]model.Job, error) {
	if len(statuses) == 0 {
		return []model.Job{}, nil
	}
	jobs, err := s.store.ListUnpaidJobs(ctx, profileID, statuses)
	if err != nil {
		return nil, fmt.Errorf("list unpaid jobs: %w", err)
	}
	return jobs, nil
}

// PaidJobsByProfession returns settled jobs joined to contractor profession,
// optionally restricted to an inclusive created-at range. Nil bounds mean
// all time.
func (s *QueryService) PaidJobsByProfession(ctx context.Context, from, to *time.Time) ([]model.PaidJob, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	jobs, err := s.store.ListPaidJobsWithProfession(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list paid jobs: %w", err)
	}
	return jobs, nil
}

func validateRange(from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return fmt.Errorf("%w: start must be before or equal to end", ErrInvalidInput)
	}
	return nil
}
