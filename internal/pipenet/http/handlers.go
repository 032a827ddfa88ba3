package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/ingest/mapper"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/ingest/parser"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/service"
)

// asyncRunTimeout bounds background sizing runs that outlive the request.
const asyncRunTimeout = 10 * time.Minute

// SizeNetwork accepts a network document, opens a run and executes the
// sizing pipeline. Bad input (parse or mapping failure) rejects the request
// before a run is created; pipeline errors are recorded on the run.
func (h *Handler) SizeNetwork(c *gin.Context) {
	userID := c.GetHeader("X-User-Id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var body SizeNetworkRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	doc, err := parser.ParseYAMLBytes([]byte(body.NetworkYAML))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	net, err := mapper.ToNetwork(doc)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, domain.ErrData) && !errors.Is(err, domain.ErrConfiguration) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	run, err := h.svc.CreateRun(&domain.CreateRunRequest{
		UserID:    userID,
		NetworkID: net.ID,
		Metadata:  body.Metadata,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create run"})
		return
	}

	if body.Async {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), asyncRunTimeout)
			defer cancel()
			if err := h.svc.Execute(ctx, run, net); err != nil {
				log.Printf("[error] run_id=%s operation=size_network error=%v", run.RunID, err)
			}
		}()
		c.JSON(http.StatusAccepted, SizeNetworkResponse{Run: run})
		return
	}

	if err := h.svc.Execute(c.Request.Context(), run, net); err != nil {
		// The run record already carries the failure; surface both.
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "run": run})
		return
	}

	resp := SizeNetworkResponse{Run: run, State: run.FinalState}
	if report, err := h.svc.GetReport(run.RunID); err == nil {
		resp.Score = report.Score
		resp.Summary = &report.Summary
	}
	c.JSON(http.StatusCreated, resp)
}

// GetRun retrieves a sizing run by ID.
func (h *Handler) GetRun(c *gin.Context) {
	runID := c.Param("id")
	if runID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "run ID is required"})
		return
	}

	run, err := h.svc.GetRun(runID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get run"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"run": run})
}

// GetReport retrieves the persisted report for a completed run.
func (h *Handler) GetReport(c *gin.Context) {
	runID := c.Param("id")
	if runID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "run ID is required"})
		return
	}

	report, err := h.svc.GetReport(runID)
	if err != nil {
		if errors.Is(err, domain.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// ListRuns lists all run IDs for the current user.
func (h *Handler) ListRuns(c *gin.Context) {
	userID := c.GetHeader("X-User-Id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	runIDs, err := h.svc.ListRunsByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runIDs})
}

// Metrics exposes the pipeline counters.
func (h *Handler) Metrics(c *gin.Context) {
	m := service.GetMetrics()
	c.JSON(http.StatusOK, gin.H{
		"solver_calls":             m.SolverCalls(),
		"solver_error_rate_pct":    m.SolverErrorRate(),
		"solver_avg_latency_ms":    m.AverageSolverLatency(),
		"sizing_runs":              m.SizingRuns(),
		"sizing_failures":          m.SizingFailures(),
		"resize_iterations":        m.ResizeIterations(),
		"best_effort_terminations": m.BestEffortTerminations(),
	})
}
