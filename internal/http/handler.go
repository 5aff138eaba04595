package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aslanbek/gigpay/internal/http/middleware"
	"github.com/aslanbek/gigpay/internal/model"
	"github.com/aslanbek/gigpay/internal/service"
)

type Handler struct {
	queries    *service.QueryService
	settlement *service.SettlementService
	reports    *service.ReportService
	log        zerolog.Logger
}

func NewHandler(
	queries *service.QueryService,
	settlement *service.SettlementService,
	reports *service.ReportService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		queries:    queries,
		settlement: settlement,
		reports:    reports,
		log:        log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.GET("/contracts/:id", h.getContract)
	protected.GET("/contracts", h.listContracts)
	protected.GET("/jobs/unpaid", h.listUnpaidJobs)
	protected.POST("/jobs/:job_id/pay", middleware.RequireClient(), h.payJob)
	protected.GET("/jobs/:job_id/receipt", h.jobReceipt)
	protected.POST("/balances/deposit/:profile_id", middleware.RequireClient(), h.deposit)

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/best-profession", h.bestProfession)
	admin.GET("/best-profession/export", h.exportBestProfession)
	admin.GET("/best-clients", h.bestClients)
}

type contractResponse struct {
	ID           uuid.UUID            `json:"id"`
	ClientID     uuid.UUID            `json:"client_id"`
	ContractorID uuid.UUID            `json:"contractor_id"`
	Terms        string               `json:"terms"`
	Status       model.ContractStatus `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
}

type jobResponse struct {
	ID          uuid.UUID       `json:"id"`
	ContractID  uuid.UUID       `json:"contract_id"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Paid        bool            `json:"paid"`
	PaidDate    *time.Time      `json:"paid_date,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (h *Handler) getContract(c *gin.Context) {
	profile, ok := middleware.MustProfile(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing profile"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	contract, err := h.queries.ContractByID(c.Request.Context(), profile, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContractResponse(*contract))
}

func (h *Handler) listContracts(c *gin.Context) {
	profile, ok := middleware.MustProfile(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing profile"})
		return
	}

	contracts, err := h.queries.Contracts(c.Request.Context(), profile.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response := make([]contractResponse, 0, len(contracts))
	for _, contract := range contracts {
		response = append(response, toContractResponse(contract))
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) listUnpaidJobs(c *gin.Context) {
	profile, ok := middleware.MustProfile(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing profile"})
		return
	}

	statuses, err := parseStatuses(c.Query("statuses"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid statuses"})
		return
	}

	jobs, err := h.queries.UnpaidJobs(c.Request.Context(), profile.ID, statuses)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		response = append(response, toJobResponse(job))
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) payJob(c *gin.Context) {
	profile, ok := middleware.MustProfile(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing profile"})
		return
	}

	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	job, err := h.settlement.PayJob(c.Request.Context(), profile, jobID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJobResponse(*job))
}

func (h *Handler) jobReceipt(c *gin.Context) {
	profile, ok := middleware.MustProfile(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing profile"})
		return
	}

	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	result, err := h.settlement.JobReceipt(c.Request.Context(), profile, jobID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

func (h *Handler) deposit(c *gin.Context) {
	profile, ok := middleware.MustProfile(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing profile"})
		return
	}

	targetID, err := uuid.Parse(c.Param("profile_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}
	if targetID != profile.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	check, err := h.settlement.Deposit(c.Request.Context(), profile, req.Amount)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) && check != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  err.Error(),
				"amount": check.Amount,
				"limit":  check.Limit,
			})
			return
		}
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"amount": check.Amount,
		"limit":  check.Limit,
	})
}

func (h *Handler) bestProfession(c *gin.Context) {
	from, to, err := parsePeriod(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	best, err := h.reports.BestProfession(c.Request.Context(), from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if best == nil {
		c.JSON(http.StatusOK, gin.H{"profession": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profession": best.Profession,
		"total":      best.Total,
	})
}

func (h *Handler) bestClients(c *gin.Context) {
	from, to, err := parsePeriod(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	clients, err := h.reports.BestClients(c.Request.Context(), from, to, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	type clientEntry struct {
		ID       uuid.UUID       `json:"id"`
		FullName string          `json:"full_name"`
		Paid     decimal.Decimal `json:"paid"`
	}
	response := make([]clientEntry, 0, len(clients))
	for _, client := range clients {
		response = append(response, clientEntry{ID: client.ID, FullName: client.FullName, Paid: client.Paid})
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) exportBestProfession(c *gin.Context) {
	from, to, err := parsePeriod(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.reports.ExportProfessionEarnings(c.Request.Context(), from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrJobNotPayable):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func toContractResponse(contract model.Contract) contractResponse {
	return contractResponse{
		ID:           contract.ID,
		ClientID:     contract.ClientID,
		ContractorID: contract.ContractorID,
		Terms:        contract.Terms,
		Status:       contract.Status,
		CreatedAt:    contract.CreatedAt,
	}
}

func toJobResponse(job model.Job) jobResponse {
	return jobResponse{
		ID:          job.ID,
		ContractID:  job.ContractID,
		Description: job.Description,
		Price:       job.Price,
		Paid:        job.Paid,
		PaidDate:    job.PaidDate,
		CreatedAt:   job.CreatedAt,
	}
}

// parseStatuses reads a comma-separated contract status list. Unpaid jobs
// default to active contracts when the parameter is absent.
func parseStatuses(raw string) ([]model.ContractStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []model.ContractStatus{model.ContractStatusInProgress}, nil
	}

	parts := strings.Split(raw, ",")
	statuses := make([]model.ContractStatus, 0, len(parts))
	for _, part := range parts {
		switch status := model.ContractStatus(strings.TrimSpace(part)); status {
		case model.ContractStatusNew, model.ContractStatusInProgress, model.ContractStatusTerminated:
			statuses = append(statuses, status)
		default:
			return nil, service.ErrInvalidInput
		}
	}
	return statuses, nil
}

func parsePeriod(c *gin.Context) (*time.Time, *time.Time, error) {
	from, err := parseOptionalDate(c.Query("start"))
	if err != nil {
		return nil, nil, err
	}
	to, err := parseOptionalDate(c.Query("end"))
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed, nil
		}
	}
	return nil, service.ErrInvalidInput
}
