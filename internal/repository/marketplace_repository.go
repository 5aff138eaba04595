package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aslanbek/gigpay/internal/model"
)

// Tx is the transactional view handed to Transact callbacks. Every method
// runs on the same database transaction; the whole callback commits or
// rolls back as one unit.
type Tx interface {
	GetJobForSettlement(ctx context.Context, jobID, ownerID uuid.UUID) (*model.SettlementJob, error)
	GetProfileForUpdate(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	SumUnpaidJobs(ctx context.Context, profileID uuid.UUID, statuses []model.ContractStatus) (decimal.Decimal, error)
	CreditBalance(ctx context.Context, profileID uuid.UUID, amount decimal.Decimal) error
	DebitBalance(ctx context.Context, profileID uuid.UUID, amount decimal.Decimal) error
	MarkJobPaid(ctx context.Context, jobID uuid.UUID, paidAt time.Time) error
}

type MarketplaceRepository struct {
	db *gorm.DB
}

func NewMarketplaceRepository(db *gorm.DB) *MarketplaceRepository {
	return &MarketplaceRepository{db: db}
}

// Transact runs fn inside a single transaction. Returning an error from fn
// rolls back every mutation made through the passed view.
func (r *MarketplaceRepository) Transact(ctx context.Context, fn func(tx Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&MarketplaceRepository{db: tx})
	})
}

func (r *MarketplaceRepository) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var row profileRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, first_name, last_name, profession, balance, role
		FROM profiles
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toModel(), nil
}

// GetProfileForUpdate locks the profile row for the rest of the transaction.
func (r *MarketplaceRepository) GetProfileForUpdate(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var row profileRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, first_name, last_name, profession, balance, role
		FROM profiles
		WHERE id = ?
		FOR UPDATE
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toModel(), nil
}

func (r *MarketplaceRepository) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, client_id, contractor_id, terms, status, created_at
		FROM contracts
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &contract, nil
}

// ListContracts returns the non-terminated contracts owned by the profile
// on either side.
func (r *MarketplaceRepository) ListContracts(ctx context.Context, profileID uuid.UUID) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, client_id, contractor_id, terms, status, created_at
		FROM contracts
		WHERE status <> 'terminated'
			AND (client_id = ? OR contractor_id = ?)
		ORDER BY created_at ASC
	`, profileID, profileID).Scan(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *MarketplaceRepository) ListUnpaidJobs(
	ctx context.Context,
	profileID uuid.UUID,
	statuses []model.ContractStatus,
) ([]model.Job, error) {
	baseQuery := `
		SELECT j.id, j.contract_id, j.description, j.price, j.paid, j.paid_date, j.created_at
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE j.paid = FALSE
			AND (c.client_id = ? OR c.contractor_id = ?)
	`
	args := []interface{}{profileID, profileID}
	baseQuery, args = appendStatusFilter(baseQuery, args, statuses)
	baseQuery += " ORDER BY j.created_at ASC"

	var rows []jobRow
	if err := r.db.WithContext(ctx).Raw(baseQuery, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	jobs := make([]model.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, row.toModel())
	}
	return jobs, nil
}

// SumUnpaidJobs totals the unpaid job prices visible to the profile under
// the given contract statuses.
func (r *MarketplaceRepository) SumUnpaidJobs(
	ctx context.Context,
	profileID uuid.UUID,
	statuses []model.ContractStatus,
) (decimal.Decimal, error) {
	baseQuery := `
		SELECT COALESCE(SUM(j.price), 0) AS total
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE j.paid = FALSE
			AND (c.client_id = ? OR c.contractor_id = ?)
	`
	args := []interface{}{profileID, profileID}
	baseQuery, args = appendStatusFilter(baseQuery, args, statuses)

	var row struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Raw(baseQuery, args...).Scan(&row).Error; err != nil {
		return decimal.Decimal{}, err
	}
	return row.Total, nil
}

// ListPaidJobsWithProfession returns settled jobs joined to the contractor
// profession, optionally restricted to an inclusive created-at range.
func (r *MarketplaceRepository) ListPaidJobsWithProfession(
	ctx context.Context,
	from, to *time.Time,
) ([]model.PaidJob, error) {
	baseQuery := `
		SELECT j.id, j.contract_id, j.description, j.price, j.paid, j.paid_date, j.created_at,
			p.profession
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		JOIN profiles p ON p.id = c.contractor_id
		WHERE j.paid = TRUE
	`
	args := []interface{}{}
	baseQuery, args = appendRangeFilter(baseQuery, args, from, to)
	baseQuery += " ORDER BY j.created_at ASC"

	var rows []paidJobRow
	if err := r.db.WithContext(ctx).Raw(baseQuery, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	jobs := make([]model.PaidJob, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, model.PaidJob{
			Job: model.Job{
				ID:          row.ID,
				ContractID:  row.ContractID,
				Description: row.Description,
				Price:       row.Price,
				Paid:        row.Paid,
				PaidDate:    row.PaidDate,
				CreatedAt:   row.CreatedAt,
			},
			Profession: row.Profession,
		})
	}
	return jobs, nil
}

// GetJobForSettlement fetches an unpaid job owned by the profile and locks
// the job row. Missing, already paid and not-owned rows are all reported
// as gorm.ErrRecordNotFound.
func (r *MarketplaceRepository) GetJobForSettlement(
	ctx context.Context,
	jobID, ownerID uuid.UUID,
) (*model.SettlementJob, error) {
	var row struct {
		JobID        uuid.UUID
		ContractID   uuid.UUID
		Description  string
		Price        decimal.Decimal
		ClientID     uuid.UUID
		ContractorID uuid.UUID
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			j.id AS job_id,
			j.contract_id,
			j.description,
			j.price,
			c.client_id,
			c.contractor_id
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE j.id = ?
			AND j.paid = FALSE
			AND (c.client_id = ? OR c.contractor_id = ?)
		FOR UPDATE OF j
	`, jobID, ownerID, ownerID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.JobID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.SettlementJob{
		JobID:        row.JobID,
		ContractID:   row.ContractID,
		Description:  row.Description,
		Price:        row.Price,
		ClientID:     row.ClientID,
		ContractorID: row.ContractorID,
	}, nil
}

// GetReceipt loads a job together with its contract and both profiles,
// restricted to contracts the profile owns.
func (r *MarketplaceRepository) GetReceipt(ctx context.Context, jobID, ownerID uuid.UUID) (*model.Receipt, error) {
	var row struct {
		JobID                uuid.UUID
		ContractID           uuid.UUID
		Description          string
		Price                decimal.Decimal
		Paid                 bool
		PaidDate             *time.Time
		JobCreatedAt         time.Time
		Terms                string
		Status               model.ContractStatus
		ContractCreatedAt    time.Time
		ClientID             uuid.UUID
		ClientFirstName      string
		ClientLastName       string
		ContractorID         uuid.UUID
		ContractorFirstName  string
		ContractorLastName   string
		ContractorProfession string
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			j.id AS job_id,
			j.contract_id,
			j.description,
			j.price,
			j.paid,
			j.paid_date,
			j.created_at AS job_created_at,
			c.terms,
			c.status,
			c.created_at AS contract_created_at,
			client.id AS client_id,
			client.first_name AS client_first_name,
			client.last_name AS client_last_name,
			contractor.id AS contractor_id,
			contractor.first_name AS contractor_first_name,
			contractor.last_name AS contractor_last_name,
			contractor.profession AS contractor_profession
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		JOIN profiles client ON client.id = c.client_id
		JOIN profiles contractor ON contractor.id = c.contractor_id
		WHERE j.id = ?
			AND (c.client_id = ? OR c.contractor_id = ?)
		LIMIT 1
	`, jobID, ownerID, ownerID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.JobID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	return &model.Receipt{
		Job: model.Job{
			ID:          row.JobID,
			ContractID:  row.ContractID,
			Description: row.Description,
			Price:       row.Price,
			Paid:        row.Paid,
			PaidDate:    row.PaidDate,
			CreatedAt:   row.JobCreatedAt,
		},
		Contract: model.Contract{
			ID:           row.ContractID,
			ClientID:     row.ClientID,
			ContractorID: row.ContractorID,
			Terms:        row.Terms,
			Status:       row.Status,
			CreatedAt:    row.ContractCreatedAt,
		},
		Client: model.Profile{
			ID:        row.ClientID,
			FirstName: row.ClientFirstName,
			LastName:  row.ClientLastName,
			Role:      model.RoleClient,
		},
		Contractor: model.Profile{
			ID:         row.ContractorID,
			FirstName:  row.ContractorFirstName,
			LastName:   row.ContractorLastName,
			Profession: row.ContractorProfession,
			Role:       model.RoleContractor,
		},
	}, nil
}

// CreditBalance adds amount to the profile balance.
func (r *MarketplaceRepository) CreditBalance(ctx context.Context, profileID uuid.UUID, amount decimal.Decimal) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE profiles
		SET balance = balance + ?
		WHERE id = ?
	`, amount, profileID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("credit balance: profile %s not found", profileID)
	}
	return nil
}

// DebitBalance subtracts amount from the profile balance. The balance
// guard keeps the row non-negative even if preconditions raced.
func (r *MarketplaceRepository) DebitBalance(ctx context.Context, profileID uuid.UUID, amount decimal.Decimal) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE profiles
		SET balance = balance - ?
		WHERE id = ? AND balance >= ?
	`, amount, profileID, amount)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("debit balance: guard rejected update for profile %s", profileID)
	}
	return nil
}

// MarkJobPaid flips the paid flag with a paid = FALSE compare-and-set, so a
// job settles at most once.
func (r *MarketplaceRepository) MarkJobPaid(ctx context.Context, jobID uuid.UUID, paidAt time.Time) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE jobs
		SET paid = TRUE, paid_date = ?
		WHERE id = ? AND paid = FALSE
	`, paidAt, jobID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("mark job paid: job %s already settled", jobID)
	}
	return nil
}

type profileRow struct {
	ID         uuid.UUID
	FirstName  string
	LastName   string
	Profession string
	Balance    decimal.Decimal
	Role       model.Role
}

func (row profileRow) toModel() *model.Profile {
	return &model.Profile{
		ID:         row.ID,
		FirstName:  row.FirstName,
		LastName:   row.LastName,
		Profession: row.Profession,
		Balance:    row.Balance,
		Role:       row.Role,
	}
}

type jobRow struct {
	ID          uuid.UUID
	ContractID  uuid.UUID
	Description string
	Price       decimal.Decimal
	Paid        bool
	PaidDate    *time.Time
	CreatedAt   time.Time
}

func (row jobRow) toModel() model.Job {
	return model.Job{
		ID:          row.ID,
		ContractID:  row.ContractID,
		Description: row.Description,
		Price:       row.Price,
		Paid:        row.Paid,
		PaidDate:    row.PaidDate,
		CreatedAt:   row.CreatedAt,
	}
}

type paidJobRow struct {
	ID          uuid.UUID
	ContractID  uuid.UUID
	Description string
	Price       decimal.Decimal
	Paid        bool
	PaidDate    *time.Time
	CreatedAt   time.Time
	Profession  string
}

func appendStatusFilter(baseQuery string, args []interface{}, statuses []model.ContractStatus) (string, []interface{}) {
	if len(statuses) == 0 {
		return baseQuery, args
	}

	placeholders := make([]string, len(statuses))
	for i := range statuses {
		placeholders[i] = "?"
	}
	baseQuery += fmt.Sprintf(" AND c.status IN (%s)", strings.Join(placeholders, ","))
	for _, status := range statuses {
		args = append(args, status)
	}
	return baseQuery, args
}

func appendRangeFilter(baseQuery string, args []interface{}, from, to *time.Time) (string, []interface{}) {
	if from != nil {
		baseQuery += " AND j.created_at >= ?"
		args = append(args, *from)
	}
	if to != nil {
		baseQuery += " AND j.created_at <= ?"
		args = append(args, *to)
	}
	return baseQuery, args
}
