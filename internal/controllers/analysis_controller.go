package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"portfolio-analytics-api/internal/repositories"
	"portfolio-analytics-api/internal/services"
)

type AnalysisController struct {
	service  *services.AnalysisService
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewAnalysisController(service *services.AnalysisService, logger *logrus.Logger) *AnalysisController {
	return &AnalysisController{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

func (c *AnalysisController) RegisterRoutes(r *gin.RouterGroup, admin *gin.RouterGroup) {
	r.GET("/portfolios/:id/analysis", c.GetLatest)
	r.GET("/portfolios/:id/analysis/history", c.GetHistory)
	r.POST("/portfolios/:id/analyze", c.Analyze)

	admin.POST("/analysis/batch", c.RunBatch)
	admin.POST("/portfolios/:id/returns/recompute", c.RecomputeReturns)
}

// BatchRequest is the optional payload for a batch run. When PortfolioIDs
// is empty the batch covers every active portfolio.
type BatchRequest struct {
	PortfolioIDs []string `json:"portfolio_ids" validate:"omitempty,max=500,dive,len=24,hexadecimal"`
	Reason       string   `json:"reason" validate:"omitempty,max=200"`
}

// GetLatest godoc
// @Summary Get the latest analysis of a portfolio
// @Description Returns the most recent stored analysis snapshot
// @Tags analysis
// @Produce json
// @Param id path string true "Portfolio ID"
// @Success 200 {object} models.AnalysisSnapshot
// @Failure 404 {object} map[string]string
// @Router /portfolios/{id}/analysis [get]
func (c *AnalysisController) GetLatest(ctx *gin.Context) {
	portfolioID, ok := c.portfolioID(ctx)
	if !ok {
		return
	}

	snapshot, err := c.service.GetLatestAnalysis(ctx.Request.Context(), portfolioID)
	if err != nil {
		c.renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, snapshot)
}

// GetHistory godoc
// @Summary Get recent analysis snapshots of a portfolio
// @Description Returns stored snapshots, newest first
// @Tags analysis
// @Produce json
// @Param id path string true "Portfolio ID"
// @Param limit query int false "Maximum snapshots to return" default(30)
// @Success 200 {array} models.AnalysisSnapshot
// @Router /portfolios/{id}/analysis/history [get]
func (c *AnalysisController) GetHistory(ctx *gin.Context) {
	portfolioID, ok := c.portfolioID(ctx)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "30"))

	snapshots, err := c.service.GetAnalysisHistory(ctx.Request.Context(), portfolioID, limit)
	if err != nil {
		c.renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"portfolio_id": portfolioID.Hex(),
		"count":        len(snapshots),
		"snapshots":    snapshots,
	})
}

// Analyze godoc
// @Summary Run an on-demand analysis of a portfolio
// @Description Runs the full analysis pipeline and stores today's snapshot
// @Tags analysis
// @Produce json
// @Param id path string true "Portfolio ID"
// @Success 200 {object} models.AnalysisSnapshot
// @Failure 404 {object} map[string]string
// @Router /portfolios/{id}/analyze [post]
func (c *AnalysisController) Analyze(ctx *gin.Context) {
	portfolioID, ok := c.portfolioID(ctx)
	if !ok {
		return
	}

	snapshot, err := c.service.AnalyzePortfolio(ctx.Request.Context(), portfolioID)
	if err != nil {
		c.renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, snapshot)
}

// RunBatch godoc
// @Summary Analyze a set of portfolios
// @Description Runs the analysis pipeline over the given portfolios, or all active portfolios when none are given
// @Tags admin
// @Accept json
// @Produce json
// @Param request body BatchRequest false "Batch options"
// @Success 200 {object} services.BatchResult
// @Router /admin/analysis/batch [post]
func (c *AnalysisController) RunBatch(ctx *gin.Context) {
	var req BatchRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := c.validate.Struct(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var portfolioIDs []primitive.ObjectID
	for _, raw := range req.PortfolioIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid portfolio ID: " + raw})
			return
		}
		portfolioIDs = append(portfolioIDs, id)
	}

	if req.Reason != "" {
		c.logger.Infof("Manual batch run requested: %s", req.Reason)
	}

	result, err := c.service.RunBatch(ctx.Request.Context(), portfolioIDs)
	if err != nil {
		c.renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// RecomputeReturns godoc
// @Summary Recompute stored daily returns of a portfolio
// @Tags admin
// @Produce json
// @Param id path string true "Portfolio ID"
// @Success 200 {object} map[string]interface{}
// @Router /admin/portfolios/{id}/returns/recompute [post]
func (c *AnalysisController) RecomputeReturns(ctx *gin.Context) {
	portfolioID, ok := c.portfolioID(ctx)
	if !ok {
		return
	}

	updated, err := c.service.RefreshDailyReturns(ctx.Request.Context(), portfolioID)
	if err != nil {
		c.renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"portfolio_id": portfolioID.Hex(),
		"updated":      updated,
	})
}

func (c *AnalysisController) portfolioID(ctx *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid portfolio ID"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func (c *AnalysisController) renderError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrPortfolioNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "portfolio not found"})
	case errors.Is(err, repositories.ErrAnalysisNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no analysis available for this portfolio"})
	default:
		c.logger.Errorf("Request failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
