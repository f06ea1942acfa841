// Package handler exposes the analysis pipeline over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mealmetric/server/internal/module/analysis/history"
	"github.com/mealmetric/server/internal/module/analysis/meal"
	"github.com/mealmetric/server/internal/module/analysis/pipeline"
	"github.com/mealmetric/server/internal/module/analysis/quota"
	apperrors "github.com/mealmetric/server/internal/shared/errors"
)

// Handler serves the analysis API.
type Handler struct {
	pipeline *pipeline.Service
	quota    *quota.Manager
	history  history.Repository // nil when persistence is disabled
	logger   *zap.Logger
	now      func() time.Time
}

// New creates the analysis handler. History may be nil.
func New(p *pipeline.Service, q *quota.Manager, h history.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		pipeline: p,
		quota:    q,
		history:  h,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterRoutes registers analysis routes on the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/analyses", h.CreateAnalysis)
	r.GET("/analyses", h.ListAnalyses)
	r.GET("/usage", h.GetUsage)
}

// CreateAnalysisRequest is the analyze request body.
type CreateAnalysisRequest struct {
	ImageRef    string `json:"image_ref" binding:"required"`
	Description string `json:"description"`
	UserID      string `json:"user_id" binding:"required"`
	Tier        string `json:"tier"`
}

// CreateAnalysis runs one meal analysis.
// POST /v1/analyses
func (h *Handler) CreateAnalysis(c *gin.Context) {
	var req CreateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, apperrors.BadRequest(err.Error()))
		return
	}

	est, err := h.pipeline.Analyze(c.Request.Context(), &meal.Request{
		ImageRef:    req.ImageRef,
		Description: req.Description,
		UserID:      req.UserID,
		Tier:        meal.ParseTier(req.Tier),
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, est)
}

// ListAnalyses lists a user's analyses for one day.
// GET /v1/analyses?user_id=...&date=2026-08-30
func (h *Handler) ListAnalyses(c *gin.Context) {
	if h.history == nil {
		handleError(c, apperrors.NotFound("analysis history"))
		return
	}

	userID := c.Query("user_id")
	if userID == "" {
		handleError(c, apperrors.BadRequest("user_id is required"))
		return
	}
	day := c.Query("date")
	if day == "" {
		day = h.now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", day); err != nil {
		handleError(c, apperrors.BadRequest("date must be formatted as YYYY-MM-DD"))
		return
	}

	records, err := h.history.ListByUserAndDay(c.Request.Context(), userID, day)
	if err != nil {
		h.logger.Error("failed to list analysis records", zap.Error(err))
		handleError(c, apperrors.Internal("failed to list analyses", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   records,
	})
}

// UsageResponse reports today's quota consumption for a user.
type UsageResponse struct {
	UserID    string `json:"user_id"`
	Tier      string `json:"tier"`
	Date      string `json:"date"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}

// GetUsage reports the user's remaining daily quota.
// GET /v1/usage?user_id=...&tier=premium
func (h *Handler) GetUsage(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		handleError(c, apperrors.BadRequest("user_id is required"))
		return
	}
	tier := meal.ParseTier(c.Query("tier"))

	now := h.now()
	used, err := h.quota.Usage(c.Request.Context(), userID, now)
	if err != nil {
		h.logger.Error("failed to read usage counter", zap.Error(err))
		handleError(c, apperrors.Internal("failed to read usage", err))
		return
	}

	limit := tier.DailyLimit()
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	c.JSON(http.StatusOK, UsageResponse{
		UserID:    userID,
		Tier:      string(tier),
		Date:      now.UTC().Format("2006-01-02"),
		Used:      used,
		Limit:     limit,
		Remaining: remaining,
	})
}

// handleError maps application errors to HTTP responses.
func handleError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.StatusCode, appErr.ToResponse())
		return
	}
	if errors.Is(err, context.Canceled) {
		c.Status(499) // client closed request
		return
	}
	c.JSON(apperrors.GetStatusCode(err), apperrors.Internal("internal server error", err).ToResponse())
}
