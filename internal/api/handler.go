package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"feature-service/internal/models"
	"feature-service/internal/schema"
	"feature-service/internal/service"
	"feature-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	pipelineService *service.PipelineService
	segmentService  *service.SegmentService
}

// NewHandler creates a new HTTP handler
func NewHandler(pipelineService *service.PipelineService, segmentService *service.SegmentService) *Handler {
	return &Handler{
		pipelineService: pipelineService,
		segmentService:  segmentService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/runs", h.startRun)
		v1.GET("/runs/:id", h.getRun)
		v1.GET("/features/:customer", h.getFeatureRecord)
		v1.GET("/schema", h.getSchema)
		v1.POST("/segments", h.assignSegments)
		v1.GET("/segments/:customer", h.getSegment)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// StartRunRequest asks for a feature run at an as-of date
type StartRunRequest struct {
	AsOfDate string `json:"as_of_date" binding:"required"`
}

// startRun kicks off an asynchronous feature table materialization
func (h *Handler) startRun(c *gin.Context) {
	var req StartRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	asOf, err := time.Parse("2006-01-02", req.AsOfDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid as_of_date, expected YYYY-MM-DD",
			"details": err.Error(),
		})
		return
	}

	runID := h.pipelineService.NewRunID()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()
		if _, err := h.pipelineService.RunFeatureBuild(ctx, runID, asOf); err != nil {
			util.GetLogger().Sugar().Errorw("Feature run failed", "run_id", runID, "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"run_id": runID,
		"status": models.RunStatusRunning,
	})
}

// getRun returns run status and report counters
func (h *Handler) getRun(c *gin.Context) {
	run, err := h.pipelineService.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Run not found",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, run)
}

// getFeatureRecord serves a customer's published feature record
func (h *Handler) getFeatureRecord(c *gin.Context) {
	rec, err := h.pipelineService.GetFeatureRecord(c.Request.Context(), c.Param("customer"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Feature record not found",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// getSchema exposes the versioned feature schema contract
func (h *Handler) getSchema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":             schema.Version,
		"fingerprint":         schema.Fingerprint(),
		"columns":             schema.Columns(),
		"leakage_columns":     schema.LeakageColumns(),
		"model_input_columns": schema.ModelInputColumns(),
	})
}

// AssignSegmentsRequest carries a batch of scores to bucketize
type AssignSegmentsRequest struct {
	RunID  string                 `json:"run_id"`
	Scores []models.CustomerScore `json:"scores" binding:"required,min=1"`
}

// assignSegments bucketizes a score batch synchronously
func (h *Handler) assignSegments(c *gin.Context) {
	var req AssignSegmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	summary, err := h.segmentService.AssignSegments(c.Request.Context(), req.RunID, req.Scores)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to assign segments",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// getSegment returns the latest segment assignment for a customer
func (h *Handler) getSegment(c *gin.Context) {
	seg, err := h.segmentService.GetSegment(c.Request.Context(), c.Param("customer"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Segment not found",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, seg)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
