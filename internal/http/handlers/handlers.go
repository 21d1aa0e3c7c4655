package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/pulsecheck/backend/internal/cache"
	"github.com/pulsecheck/backend/internal/db"
	"github.com/pulsecheck/backend/internal/models"
	"github.com/pulsecheck/backend/internal/service"
)

// Analyzer is the pipeline surface handlers depend on. *service.Orchestrator
// satisfies it; tests substitute a stub.
type Analyzer interface {
	Analyze(ctx context.Context, customerID uuid.UUID, periodDays int) (models.AnalysisResult, error)
	AnalyzeAll(ctx context.Context) ([]models.AnalysisResult, error)
}

type Handler struct {
	Store     *db.Store
	Analyzer  Analyzer
	Cache     cache.Cache
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type CreateCustomerRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	CompanyName string `json:"company_name" validate:"max=255"`
	Email       string `json:"email" validate:"omitempty,email"`
}

// @Summary Create customer
// @Tags customers
// @Accept json
// @Produce json
// @Param request body CreateCustomerRequest true "customer"
// @Success 201 {object} models.Customer
// @Failure 400 {object} map[string]any
// @Router /api/customers [post]
func (h *Handler) CreateCustomer(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	id, err := h.Store.CreateCustomer(c.Request.Context(), models.Customer{
		Name:        req.Name,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		IsActive:    true,
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create customer", err.Error())
		return
	}
	customer, err := h.Store.GetCustomer(c.Request.Context(), id)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load customer", err.Error())
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) CustomersList(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	items, err := h.Store.ListCustomers(c.Request.Context(), activeOnly)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list customers", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) CustomerDetails(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	customer, err := h.Store.GetCustomer(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get customer", err.Error())
		return
	}
	c.JSON(http.StatusOK, customer)
}

type IngestMessage struct {
	UserType  string    `json:"user_type" validate:"omitempty,oneof=customer internal bot"`
	Content   string    `json:"content" validate:"required"`
	Timestamp time.Time `json:"timestamp"`
}

type IngestMessagesRequest struct {
	Messages []IngestMessage `json:"messages" validate:"required,min=1,dive"`
}

// @Summary Ingest messages
// @Tags messages
// @Accept json
// @Produce json
// @Param id path string true "Customer ID"
// @Param request body IngestMessagesRequest true "messages"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/customers/{id}/messages [post]
func (h *Handler) IngestMessages(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req IngestMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	if _, err := h.Store.GetCustomer(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load customer", err.Error())
		return
	}

	messages := make([]models.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		userType := m.UserType
		if userType == "" {
			userType = models.UserTypeCustomer
		}
		ts := m.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		messages = append(messages, models.Message{
			CustomerID:       id,
			UserType:         userType,
			Content:          m.Content,
			MessageTimestamp: ts,
		})
	}

	inserted, err := h.Store.InsertMessages(c.Request.Context(), messages)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert messages", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}

// @Summary Analyze one customer
// @Tags analysis
// @Produce json
// @Param id path string true "Customer ID"
// @Param period_days query int false "Analysis window in days"
// @Success 200 {object} models.AnalysisResult
// @Failure 404 {object} map[string]any
// @Router /api/customers/{id}/analyze [post]
func (h *Handler) AnalyzeCustomer(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	periodDays, _ := strconv.Atoi(c.Query("period_days"))

	result, err := h.Analyzer.Analyze(c.Request.Context(), id, periodDays)
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
			return
		}
		h.Logger.Error().Err(err).Stringer("customer_id", id).Msg("analysis failed")
		writeError(c, http.StatusInternalServerError, "ANALYSIS_ERROR", "Analysis failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Analyze all active customers
// @Tags analysis
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/analyze [post]
func (h *Handler) AnalyzeAll(c *gin.Context) {
	runID, err := h.Store.CreateRun(c.Request.Context(), "RUNNING")
	if err != nil {
		h.Logger.Error().Err(err).Msg("failed to create run")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create run", err.Error())
		return
	}

	results, err := h.Analyzer.AnalyzeAll(c.Request.Context())
	status := "SUCCESS"
	if err != nil {
		status = "FAILED"
	}
	summary := service.SummarizeResults(results)
	b, _ := json.Marshal(summary)
	if finishErr := h.Store.FinishRun(c.Request.Context(), runID, status, b); finishErr != nil {
		h.Logger.Error().Err(finishErr).Msg("failed to finish run")
	}

	if err != nil {
		h.Logger.Error().Err(err).Msg("batch analysis failed")
		writeError(c, http.StatusInternalServerError, "ANALYSIS_ERROR", "Batch analysis failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "results": results})
}

func (h *Handler) HealthScoresList(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	items, err := h.Store.ListHealthScores(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list health scores", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// LatestAnalysis serves the cached result when present and falls back to the
// most recent persisted score.
func (h *Handler) LatestAnalysis(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if result, found, err := h.Cache.GetLatestAnalysis(c.Request.Context(), id); err != nil {
		h.Logger.Warn().Err(err).Stringer("customer_id", id).Msg("cache lookup failed")
	} else if found {
		c.JSON(http.StatusOK, gin.H{"source": "cache", "result": result})
		return
	}

	record, err := h.Store.GetLatestHealthScore(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No analysis found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load analysis", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": "db", "result": record})
}

func (h *Handler) ActionItemsList(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	status := c.Query("status")
	priority := c.Query("priority")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	items, err := h.Store.ListActionItems(c.Request.Context(), id, status, priority, limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list action items", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Latest run
// @Tags runs
// @Produce json
// @Success 200 {object} models.Run
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	result, err := h.Store.GetLatestRun(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid customer id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
