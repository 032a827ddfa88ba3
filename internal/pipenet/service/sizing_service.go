// Package service wires the sizing pipeline end to end: flow calculation,
// topology aggregation, reconciliation loop, and persistence of the
// terminal result.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/flow"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/reconcile"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/repository"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/simulation"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/sizing"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/standards"
	_ "github.com/heatgrid-dss/sizing-backend/internal/pipenet/standards/rules"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/topology"
)

// PipelineConfig is the full sizing profile for one analysis run. All
// state is explicit; independent networks can be sized concurrently with
// the same config.
type PipelineConfig struct {
	Flow            flow.Params
	Topology        topology.Options
	Bands           []domain.HierarchyLevel
	CatalogDN       []float64
	Costs           sizing.CostTable
	RuleSets        []standards.RuleSet
	Policy          reconcile.Policy
	PlantPressurePa float64
	Workers         int
}

// SizingService handles business logic for sizing runs.
type SizingService struct {
	cfg     PipelineConfig
	solver  simulation.Solver
	runs    *repository.RunRepository
	reports *repository.ReportRepository
}

// NewSizingService creates the service. runs and reports may be nil for
// offline (worker CLI) use.
func NewSizingService(cfg PipelineConfig, solver simulation.Solver, runs *repository.RunRepository, reports *repository.ReportRepository) *SizingService {
	return &SizingService{cfg: cfg, solver: solver, runs: runs, reports: reports}
}

// CreateRun opens a new pending sizing run record.
func (s *SizingService) CreateRun(req *domain.CreateRunRequest) (*domain.SizingRun, error) {
	run := &domain.SizingRun{
		UserID:    req.UserID,
		NetworkID: req.NetworkID,
		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Metadata:  req.Metadata,
	}
	if run.Metadata == nil {
		run.Metadata = make(map[string]interface{})
	}
	if err := s.runs.Create(run); err != nil {
		return nil, err
	}
	return run, nil
}

// GetRun retrieves a run by its ID.
func (s *SizingService) GetRun(runID string) (*domain.SizingRun, error) {
	return s.runs.GetByRunID(runID)
}

// ListRunsByUser retrieves all run IDs for a user.
func (s *SizingService) ListRunsByUser(userID string) ([]string, error) {
	return s.runs.ListByUserID(userID)
}

// GetReport loads the persisted report for a completed run.
func (s *SizingService) GetReport(runID string) (*domain.SizingReport, error) {
	return s.reports.GetByRunID(runID)
}

// Size runs the full pipeline on a network: design flows, aggregation,
// classification, then the reconciliation loop. The network arena is the
// mutable context threaded through every stage.
func (s *SizingService) Size(ctx context.Context, net *domain.Network) (*reconcile.Outcome, error) {
	logger := NewLogger(ctx)

	flowRes, err := flow.DesignFlows(net, s.cfg.Flow)
	if err != nil {
		logger.LogError("design_flows", err)
		return nil, err
	}
	for _, w := range flowRes.Warnings {
		logger.LogWarn("design_flows", w)
	}

	tree, err := topology.Build(net, s.cfg.Topology)
	if err != nil {
		logger.LogError("topology_build", err)
		return nil, err
	}
	for _, w := range tree.Warnings {
		logger.LogWarn("topology_build", w)
	}
	if err := topology.Aggregate(net, tree); err != nil {
		logger.LogError("topology_aggregate", err)
		return nil, err
	}
	if err := topology.Classify(net, s.cfg.Bands); err != nil {
		logger.LogError("topology_classify", err)
		return nil, err
	}

	catalog, err := sizing.NewCatalog(s.cfg.CatalogDN)
	if err != nil {
		return nil, err
	}
	engine, err := sizing.NewEngine(catalog, s.cfg.Costs, s.cfg.Flow.Fluid, s.cfg.Bands, s.cfg.Workers)
	if err != nil {
		return nil, err
	}

	loop := &reconcile.Loop{
		Engine:   engine,
		Solver:   &meteredSolver{inner: s.solver},
		RuleSets: s.cfg.RuleSets,
		Policy:   s.cfg.Policy,
	}
	bc := simulation.BoundaryConditions{
		PlantPressurePa: s.cfg.PlantPressurePa,
		SupplyTempC:     s.cfg.Flow.SupplyTempC,
		ReturnTempC:     s.cfg.Flow.ReturnTempC,
		DemandsKgS:      flowRes.Flows,
	}

	outcome, err := loop.Run(ctx, net, bc)
	recordSizingRun(err != nil || (outcome != nil && outcome.State == reconcile.StateFailed),
		outcome != nil && outcome.BestEffort,
		iterationsOf(outcome))
	if err != nil {
		logger.LogError("reconcile_loop", err)
		return nil, err
	}
	outcome.Warnings = append(flowRes.Warnings, outcome.Warnings...)
	outcome.Summary.ExcludedCount = len(tree.ExcludedBuildings)
	logger.LogInfof("reconcile_loop", "state=%s iterations=%d score=%.1f",
		outcome.State, outcome.Iterations, outcome.Report.Score)
	return outcome, nil
}

// Execute runs the pipeline for a tracked run and persists the terminal
// state. The report is written only on CONVERGED or budget exhaustion.
func (s *SizingService) Execute(ctx context.Context, run *domain.SizingRun, net *domain.Network) error {
	run.Status = domain.StatusRunning
	run.UpdatedAt = time.Now()
	if err := s.runs.Update(run); err != nil {
		return err
	}

	outcome, err := s.Size(ctx, net)
	now := time.Now()
	run.CompletedAt = &now
	if err != nil {
		run.Status = domain.StatusFailed
		run.Metadata["error"] = err.Error()
		if uerr := s.runs.Update(run); uerr != nil {
			return fmt.Errorf("update failed run: %v (original: %w)", uerr, err)
		}
		return err
	}

	run.Iterations = outcome.Iterations
	run.FinalState = finalState(outcome)
	if outcome.State == reconcile.StateFailed {
		run.Status = domain.StatusFailed
	} else {
		run.Status = domain.StatusCompleted
		report := buildReport(run, net, outcome)
		if err := s.reports.CreateOrUpdate(report); err != nil {
			return err
		}
	}
	return s.runs.Update(run)
}

func buildReport(run *domain.SizingRun, net *domain.Network, outcome *reconcile.Outcome) *domain.SizingReport {
	return &domain.SizingReport{
		RunID:           run.RunID,
		NetworkID:       net.ID,
		State:           string(outcome.State),
		BestEffort:      outcome.BestEffort,
		Iterations:      outcome.Iterations,
		Score:           outcome.Report.Score,
		Compliant:       outcome.Report.Compliant,
		Summary:         outcome.Summary,
		Results:         outcome.Results,
		Violations:      outcome.Report.Violations(),
		Recommendations: outcome.Report.Recommendations,
		Warnings:        outcome.Warnings,
	}
}

func finalState(outcome *reconcile.Outcome) string {
	switch {
	case outcome.State == reconcile.StateFailed:
		return "FAILED"
	case outcome.BestEffort:
		return "BUDGET_EXHAUSTED"
	default:
		return "CONVERGED"
	}
}

func iterationsOf(outcome *reconcile.Outcome) int {
	if outcome == nil {
		return 0
	}
	return outcome.Iterations
}

// meteredSolver wraps the solver with call metrics.
type meteredSolver struct {
	inner simulation.Solver
}

func (m *meteredSolver) Solve(ctx context.Context, net *domain.Network, bc simulation.BoundaryConditions) (*simulation.Result, error) {
	start := time.Now()
	res, err := m.inner.Solve(ctx, net, bc)
	recordSolverCall(time.Since(start), err)
	return res, err
}
