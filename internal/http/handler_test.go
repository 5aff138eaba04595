package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aslanbek/gigpay/internal/auth"
	"github.com/aslanbek/gigpay/internal/config"
	"github.com/aslanbek/gigpay/internal/http/middleware"
	"github.com/aslanbek/gigpay/internal/model"
	"github.com/aslanbek/gigpay/internal/repository"
	"github.com/aslanbek/gigpay/internal/service"
)

const testSecret = "handler-test-secret"

type stubStore struct {
	profiles map[uuid.UUID]*model.Profile
	contract *model.Contract
	jobs     []model.Job
	paidJobs []model.PaidJob
	totals   []model.ProfessionEarnings
	clients  []model.ClientSpend

	settleJob   *model.SettlementJob
	balances    map[uuid.UUID]decimal.Decimal
	unpaidTotal decimal.Decimal
	receipt     *model.Receipt
}

func (s *stubStore) GetProfile(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	profile, ok := s.profiles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return profile, nil
}

func (s *stubStore) GetContract(_ context.Context, id uuid.UUID) (*model.Contract, error) {
	if s.contract == nil || s.contract.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.contract, nil
}

func (s *stubStore) ListContracts(_ context.Context, _ uuid.UUID) ([]model.Contract, error) {
	if s.contract == nil {
		return nil, nil
	}
	return []model.Contract{*s.contract}, nil
}

func (s *stubStore) ListUnpaidJobs(_ context.Context, _ uuid.UUID, _ []model.ContractStatus) ([]model.Job, error) {
	return s.jobs, nil
}

func (s *stubStore) ListPaidJobsWithProfession(_ context.Context, _, _ *time.Time) ([]model.PaidJob, error) {
	return s.paidJobs, nil
}

func (s *stubStore) SumUnpaidJobs(_ context.Context, _ uuid.UUID, _ []model.ContractStatus) (decimal.Decimal, error) {
	return s.unpaidTotal, nil
}

func (s *stubStore) GetReceipt(_ context.Context, jobID, _ uuid.UUID) (*model.Receipt, error) {
	if s.receipt == nil || s.receipt.Job.ID != jobID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.receipt, nil
}

func (s *stubStore) Transact(_ context.Context, fn func(tx repository.Tx) error) error {
	return fn(s)
}

func (s *stubStore) GetJobForSettlement(_ context.Context, jobID, ownerID uuid.UUID) (*model.SettlementJob, error) {
	if s.settleJob == nil || s.settleJob.JobID != jobID {
		return nil, gorm.ErrRecordNotFound
	}
	if s.settleJob.ClientID != ownerID && s.settleJob.ContractorID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.settleJob, nil
}

func (s *stubStore) GetProfileForUpdate(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	balance, ok := s.balances[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.Profile{ID: id, Balance: balance}, nil
}

func (s *stubStore) CreditBalance(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	s.balances[id] = s.balances[id].Add(amount)
	return nil
}

func (s *stubStore) DebitBalance(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	s.balances[id] = s.balances[id].Sub(amount)
	return nil
}

func (s *stubStore) MarkJobPaid(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

func (s *stubStore) ProfessionTotals(_ context.Context, _, _ *time.Time) ([]model.ProfessionEarnings, error) {
	return s.totals, nil
}

func (s *stubStore) ClientTotals(_ context.Context, _, _ *time.Time, _ int) ([]model.ClientSpend, error) {
	return s.clients, nil
}

type stubPDF struct{}

func (stubPDF) Generate(_ model.Receipt) ([]byte, error) { return []byte("%PDF"), nil }

type stubExcel struct{}

func (stubExcel) Generate(_ model.EarningsReport) ([]byte, error) { return []byte("PK"), nil }

type fixture struct {
	router       http.Handler
	store        *stubStore
	clientID     uuid.UUID
	contractorID uuid.UUID
	adminID      uuid.UUID
	jobID        uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clientID := uuid.New()
	contractorID := uuid.New()
	adminID := uuid.New()
	jobID := uuid.New()
	contractID := uuid.New()

	store := &stubStore{
		profiles: map[uuid.UUID]*model.Profile{
			clientID:     {ID: clientID, FirstName: "Cora", LastName: "Lane", Role: model.RoleClient, Balance: decimal.NewFromInt(100)},
			contractorID: {ID: contractorID, FirstName: "Finn", LastName: "Ode", Profession: "plumber", Role: model.RoleContractor},
			adminID:      {ID: adminID, FirstName: "Ada", LastName: "Min", Role: model.RoleAdmin},
		},
		contract: &model.Contract{
			ID:           contractID,
			ClientID:     clientID,
			ContractorID: contractorID,
			Status:       model.ContractStatusInProgress,
		},
		jobs: []model.Job{
			{ID: jobID, ContractID: contractID, Description: "fix sink", Price: decimal.NewFromInt(50)},
		},
		settleJob: &model.SettlementJob{
			JobID:        jobID,
			ContractID:   contractID,
			Description:  "fix sink",
			Price:        decimal.NewFromInt(50),
			ClientID:     clientID,
			ContractorID: contractorID,
		},
		balances: map[uuid.UUID]decimal.Decimal{
			clientID:     decimal.NewFromInt(100),
			contractorID: decimal.Zero,
		},
		unpaidTotal: decimal.NewFromInt(300),
		totals: []model.ProfessionEarnings{
			{Profession: "plumber", Total: decimal.NewFromInt(150)},
		},
	}

	cfg := &config.Config{
		Settlement: config.SettlementConfig{
			DepositLimitRatio: decimal.New(25, -2),
			BestClientsLimit:  2,
		},
	}

	queries := service.NewQueryService(store)
	settlement := service.NewSettlementService(store, stubPDF{}, cfg)
	reports := service.NewReportService(store, stubExcel{}, cfg)

	log := zerolog.New(io.Discard)
	handler := NewHandler(queries, settlement, reports, log)
	parser := auth.NewParser(testSecret)
	router := NewRouter(handler, middleware.Auth(parser, store), "test")

	return &fixture{
		router:       router,
		store:        store,
		clientID:     clientID,
		contractorID: contractorID,
		adminID:      adminID,
		jobID:        jobID,
	}
}

func bearerToken(t *testing.T, profileID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   profileID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (f *fixture) do(t *testing.T, method, path string, body string, profileID *uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if profileID != nil {
		req.Header.Set("Authorization", bearerToken(t, *profileID))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/jobs/unpaid", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	unknown := uuid.New()
	rec = f.do(t, http.MethodGet, "/jobs/unpaid", "", &unknown)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListUnpaidJobs(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/jobs/unpaid", "", &f.clientID)
	require.Equal(t, http.StatusOK, rec.Code)

	var jobs []jobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, f.jobID, jobs[0].ID)
	assert.False(t, jobs[0].Paid)
}

func TestGetContract(t *testing.T) {
	f := newFixture(t)
	contractID := f.store.contract.ID

	rec := f.do(t, http.MethodGet, "/contracts/"+contractID.String(), "", &f.clientID)
	assert.Equal(t, http.StatusOK, rec.Code)

	stranger := uuid.New()
	f.store.profiles[stranger] = &model.Profile{ID: stranger, Role: model.RoleClient}
	rec = f.do(t, http.MethodGet, "/contracts/"+contractID.String(), "", &stranger)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/contracts/"+uuid.NewString(), "", &f.clientID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPayJob(t *testing.T) {
	f := newFixture(t)
	path := "/jobs/" + f.jobID.String() + "/pay"

	t.Run("contractor cannot pay", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, path, "", &f.contractorID)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("client pays and the job settles", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, path, "", &f.clientID)
		require.Equal(t, http.StatusOK, rec.Code)

		var job jobResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
		assert.True(t, job.Paid)
		assert.True(t, f.store.balances[f.contractorID].Equal(decimal.NewFromInt(50)))
		assert.True(t, f.store.balances[f.clientID].Equal(decimal.NewFromInt(50)))
	})

	t.Run("unknown job maps to not found", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/jobs/"+uuid.NewString()+"/pay", "", &f.clientID)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeposit(t *testing.T) {
	f := newFixture(t)
	path := "/balances/deposit/" + f.clientID.String()

	t.Run("accepted within the limit", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, path, `{"amount":"50"}`, &f.clientID)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, f.store.balances[f.clientID].Equal(decimal.NewFromInt(150)))
	})

	t.Run("rejected over the limit with both figures", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, path, `{"amount":"80"}`, &f.clientID)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var payload struct {
			Amount decimal.Decimal `json:"amount"`
			Limit  decimal.Decimal `json:"limit"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.True(t, payload.Amount.Equal(decimal.NewFromInt(80)))
		assert.True(t, payload.Limit.Equal(decimal.NewFromInt(75)))
	})

	t.Run("cannot deposit into another profile", func(t *testing.T) {
		other := "/balances/deposit/" + uuid.NewString()
		rec := f.do(t, http.MethodPost, other, `{"amount":"10"}`, &f.clientID)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAdminReports(t *testing.T) {
	f := newFixture(t)

	t.Run("client is denied", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/admin/best-profession", "", &f.clientID)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin reads the best profession", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/admin/best-profession", "", &f.adminID)
		require.Equal(t, http.StatusOK, rec.Code)

		var payload struct {
			Profession string `json:"profession"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "plumber", payload.Profession)
	})

	t.Run("invalid period is rejected", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/admin/best-profession?start=bogus", "", &f.adminID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("export returns a workbook", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/admin/best-profession/export", "", &f.adminID)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "earnings-all-time.xlsx")
	})
}

func TestJobReceipt(t *testing.T) {
	f := newFixture(t)
	paidAt := time.Now().UTC()
	f.store.receipt = &model.Receipt{
		Job: model.Job{
			ID:       f.jobID,
			Price:    decimal.NewFromInt(50),
			Paid:     true,
			PaidDate: &paidAt,
		},
		Contract: model.Contract{ClientID: f.clientID, ContractorID: f.contractorID},
	}

	rec := f.do(t, http.MethodGet, "/jobs/"+f.jobID.String()+"/receipt", "", &f.clientID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
}
