package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
)

// SolverClient talks to the external hydraulic solver over HTTP. Every call
// is bounded by a wall-clock timeout and rate limited; a timeout is treated
// identically to non-convergence.
type SolverClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
}

// NewSolverClient creates a solver client. callsPerSecond bounds how often
// the solver may be invoked across concurrent sizing runs.
func NewSolverClient(baseURL string, timeout time.Duration, callsPerSecond float64) *SolverClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if callsPerSecond <= 0 {
		callsPerSecond = 2
	}
	return &SolverClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(callsPerSecond), 1),
		timeout: timeout,
	}
}

type solveRequest struct {
	Junctions []domain.Junction    `json:"junctions"`
	Pipes     []domain.PipeSegment `json:"pipes"`
	Boundary  BoundaryConditions   `json:"boundary"`
}

// Solve posts the network and boundary conditions to the solver. Transport
// timeouts and context deadlines come back as Converged=false, not errors,
// per the adapter contract.
func (c *SolverClient) Solve(ctx context.Context, net *domain.Network, bc BoundaryConditions) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(solveRequest{
		Junctions: net.Junctions,
		Pipes:     net.Pipes,
		Boundary:  bc,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal solve request: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/v1/solve", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) && ctx.Err() == nil {
			return &Result{Converged: false}, nil
		}
		return nil, fmt.Errorf("solver request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read solver response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("solver returned status %d: %s", resp.StatusCode, string(raw))
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("unmarshal solver response: %w", err)
	}
	return &res, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
