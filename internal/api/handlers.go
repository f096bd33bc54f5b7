package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dealgrade/server/internal/analysis"
	"dealgrade/server/internal/database"
	"dealgrade/server/internal/models"
	"dealgrade/server/internal/queue"
)

// Store is the persistence the handlers need.
type Store interface {
	SaveAnalysis(ctx context.Context, result *models.AnalysisResult) error
	GetAnalysis(ctx context.Context, id string) (*models.AnalysisResult, error)
	ListAnalyses(ctx context.Context, filter database.AnalysisFilter) ([]database.AnalysisSummary, error)
	GetProperty(ctx context.Context, id string) (*models.PropertyAttributes, error)
	SaveBuyer(ctx context.Context, buyer *models.BuyerProfile) error
	GetBuyer(ctx context.Context, id string) (*models.BuyerProfile, error)
	ListBuyers(ctx context.Context) ([]models.BuyerProfile, error)
	SaveMarketSnapshot(ctx context.Context, snap models.MarketSnapshot) error
	GetMarketSnapshot(ctx context.Context, state, city string) (*models.MarketSnapshot, error)
	ListMarketSnapshots(ctx context.Context) ([]models.MarketSnapshot, error)
}

// JobQueue accepts batch analysis jobs.
type JobQueue interface {
	Push(jobs []queue.Job) error
}

type Handler struct {
	analyzer     *analysis.Analyzer
	store        Store
	queue        JobQueue
	maxBatchSize int
	logger       *logrus.Logger
}

type BatchRequest struct {
	Inputs []analysis.Input `json:"inputs"`
}

// batchPayload defers decoding each input until it has been seeded with
// the analyzer defaults.
type batchPayload struct {
	Inputs []json.RawMessage `json:"inputs"`
}

type BatchResponse struct {
	JobIDs []string `json:"job_ids"`
}

type MatchRequest struct {
	OfferPrice *float64 `json:"offer_price"`
	// Buyers replaces the stored buyer registry for this request
	Buyers []models.BuyerProfile `json:"buyers"`
}

func NewHandler(analyzer *analysis.Analyzer, store Store, q JobQueue, maxBatchSize int, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Handler{
		analyzer:     analyzer,
		store:        store,
		queue:        q,
		maxBatchSize: maxBatchSize,
		logger:       logger,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps domain errors to status codes. Unexpected errors are
// logged and reported with msg only.
func (h *Handler) respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, analysis.ErrValidation), errors.Is(err, analysis.ErrInvalidAssumptions):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msg + ": not found"})
	case errors.Is(err, database.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrQueueClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// newInput starts a request from the analyzer defaults so a partial
// "assumptions" object only overrides the fields it names.
func (h *Handler) newInput() analysis.Input {
	defaults := h.analyzer.Assumptions()
	return analysis.Input{Assumptions: &defaults}
}

// withStoredMarket fills a missing market snapshot from the registry.
func (h *Handler) withStoredMarket(ctx context.Context, in *analysis.Input) {
	if in.Market != nil || in.Property.State == "" {
		return
	}
	snap, err := h.store.GetMarketSnapshot(ctx, in.Property.State, in.Property.City)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			h.logger.WithError(err).Warn("Failed to look up market snapshot")
		}
		return
	}
	in.Market = snap
}

func (h *Handler) Analyze(c *gin.Context) {
	in := h.newInput()
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	h.withStoredMarket(ctx, &in)

	result, err := h.analyzer.Analyze(in)
	if err != nil {
		h.respondError(c, err, "Failed to analyze property")
		return
	}

	if err := h.store.SaveAnalysis(ctx, result); err != nil {
		h.respondError(c, err, "Failed to save analysis")
		return
	}

	entry := h.logger.WithFields(logrus.Fields{
		"analysis_id": result.ID,
		"grade":       result.Grade.Letter,
	})
	if len(result.Warnings) > 0 {
		entry = entry.WithField("warnings", result.Warnings)
	}
	entry.Info("Analysis completed")

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) AnalyzeBatch(c *gin.Context) {
	var req batchPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(req.Inputs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "inputs must not be empty"})
		return
	}
	if h.maxBatchSize > 0 && len(req.Inputs) > h.maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many inputs, max " + strconv.Itoa(h.maxBatchSize)})
		return
	}

	ctx := c.Request.Context()
	jobs := make([]queue.Job, 0, len(req.Inputs))
	ids := make([]string, 0, len(req.Inputs))
	for i, raw := range req.Inputs {
		in := h.newInput()
		if err := json.Unmarshal(raw, &in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input at index " + strconv.Itoa(i)})
			return
		}
		h.withStoredMarket(ctx, &in)
		job := queue.NewJob(in)
		jobs = append(jobs, job)
		ids = append(ids, job.ID)
	}

	if err := h.queue.Push(jobs); err != nil {
		h.respondError(c, err, "Failed to queue batch")
		return
	}

	h.logger.WithField("batch_size", len(jobs)).Info("Queued analysis batch")
	c.JSON(http.StatusAccepted, BatchResponse{JobIDs: ids})
}

func (h *Handler) ListAnalyses(c *gin.Context) {
	filter := database.AnalysisFilter{
		Grade: c.Query("grade"),
		State: c.Query("state"),
		City:  c.Query("city"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		filter.Limit = limit
	}

	summaries, err := h.store.ListAnalyses(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err, "Failed to list analyses")
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *Handler) GetAnalysis(c *gin.Context) {
	result, err := h.store.GetAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Analysis")
		return
	}
	c.JSON(http.StatusOK, result)
}

// MatchBuyers ranks buyers against a stored analysis. The stored buyer
// registry is used unless the request supplies its own buyers.
func (h *Handler) MatchBuyers(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	result, err := h.store.GetAnalysis(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Analysis")
		return
	}

	buyers := req.Buyers
	if len(buyers) == 0 {
		buyers, err = h.store.ListBuyers(ctx)
		if err != nil {
			h.respondError(c, err, "Failed to list buyers")
			return
		}
	}

	c.JSON(http.StatusOK, h.analyzer.Match(result, buyers, req.OfferPrice))
}

func (h *Handler) GetProperty(c *gin.Context) {
	property, err := h.store.GetProperty(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Property")
		return
	}
	c.JSON(http.StatusOK, property)
}

func (h *Handler) GetAssumptions(c *gin.Context) {
	c.JSON(http.StatusOK, h.analyzer.Assumptions())
}
