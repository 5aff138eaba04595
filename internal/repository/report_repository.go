package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aslanbek/gigpay/internal/model"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ProfessionTotals sums settled-job prices per contractor profession over
// an optional inclusive created-at range.
func (r *ReportRepository) ProfessionTotals(ctx context.Context, from, to *time.Time) ([]model.ProfessionEarnings, error) {
	baseQuery := `
		SELECT p.profession, COALESCE(SUM(j.price), 0) AS total
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		JOIN profiles p ON p.id = c.contractor_id
		WHERE j.paid = TRUE
	`
	args := []interface{}{}
	baseQuery, args = appendRangeFilter(baseQuery, args, from, to)
	baseQuery += " GROUP BY p.profession ORDER BY total DESC, p.profession ASC"

	var rows []struct {
		Profession string
		Total      decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Raw(baseQuery, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make([]model.ProfessionEarnings, 0, len(rows))
	for _, row := range rows {
		totals = append(totals, model.ProfessionEarnings{Profession: row.Profession, Total: row.Total})
	}
	return totals, nil
}

// ClientTotals sums settled-job prices per paying client over an optional
// inclusive created-at range. Ordering is deterministic: total paid
// descending, then full name, then id.
func (r *ReportRepository) ClientTotals(ctx context.Context, from, to *time.Time, limit int) ([]model.ClientSpend, error) {
	baseQuery := `
		SELECT
			p.id,
			TRIM(p.first_name || ' ' || p.last_name) AS full_name,
			COALESCE(SUM(j.price), 0) AS paid
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		JOIN profiles p ON p.id = c.client_id
		WHERE j.paid = TRUE
	`
	args := []interface{}{}
	baseQuery, args = appendRangeFilter(baseQuery, args, from, to)
	baseQuery += " GROUP BY p.id, full_name ORDER BY paid DESC, full_name ASC, p.id ASC LIMIT ?"
	args = append(args, limit)

	var rows []struct {
		ID       uuid.UUID
		FullName string
		Paid     decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Raw(baseQuery, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	clients := make([]model.ClientSpend, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, model.ClientSpend{ID: row.ID, FullName: row.FullName, Paid: row.Paid})
	}
	return clients, nil
}
