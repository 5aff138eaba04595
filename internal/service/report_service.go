package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aslanbek/gigpay/internal/config"
	"github.com/aslanbek/gigpay/internal/model"
)

type ExcelGenerator interface {
	Generate(report model.EarningsReport) ([]byte, error)
}

type ReportService struct {
	store        ReportStore
	excel        ExcelGenerator
	clientsLimit int
}

func NewReportService(store ReportStore, excel ExcelGenerator, cfg *config.Config) *ReportService {
	return &ReportService{
		store:        store,
		excel:        excel,
		clientsLimit: cfg.Settlement.BestClientsLimit,
	}
}

// BestProfession returns the profession that earned the most over the
// period, nil when no jobs were settled in range. Equal totals resolve to
// the lexicographically smaller profession name, so the result is
// deterministic.
func (s *ReportService) BestProfession(ctx context.Context, from, to *time.Time) (*model.ProfessionEarnings, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	totals, err := s.store.ProfessionTotals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("profession totals: %w", err)
	}
	return bestEarnings(totals), nil
}

// BestClients returns the clients who paid the most over the period.
// A non-positive limit falls back to the configured default.
func (s *ReportService) BestClients(ctx context.Context, from, to *time.Time, limit int) ([]model.ClientSpend, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.clientsLimit
	}
	clients, err := s.store.ClientTotals(ctx, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("client totals: %w", err)
	}
	return clients, nil
}

// ProfessionEarnings builds the full per-profession breakdown for the
// period, including the best row.
func (s *ReportService) ProfessionEarnings(ctx context.Context, from, to *time.Time) (*model.EarningsReport, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	totals, err := s.store.ProfessionTotals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("profession totals: %w", err)
	}
	return &model.EarningsReport{
		PeriodStart: from,
		PeriodEnd:   to,
		Best:        bestEarnings(totals),
		Rows:        totals,
	}, nil
}

// ExportResult is a rendered report file.
type ExportResult struct {
	FileName string
	Content  []byte
}

// ExportProfessionEarnings renders the earnings breakdown as a workbook.
func (s *ReportService) ExportProfessionEarnings(ctx context.Context, from, to *time.Time) (*ExportResult, error) {
	report, err := s.ProfessionEarnings(ctx, from, to)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(*report)
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return &ExportResult{
		FileName: buildExportFileName(from, to),
		Content:  content,
	}, nil
}

func buildExportFileName(from, to *time.Time) string {
	if from == nil && to == nil {
		return "earnings-all-time.xlsx"
	}
	format := func(t *time.Time) string {
		if t == nil {
			return "open"
		}
		return t.Format("20060102")
	}
	return fmt.Sprintf("earnings-%s-%s.xlsx", format(from), format(to))
}

func bestEarnings(totals []model.ProfessionEarnings) *model.ProfessionEarnings {
	var best *model.ProfessionEarnings
	for i := range totals {
		row := totals[i]
		switch {
		case best == nil, row.Total.GreaterThan(best.Total):
			best = &row
		case row.Total.Equal(best.Total) && row.Profession < best.Profession:
			best = &row
		}
	}
	return best
}
