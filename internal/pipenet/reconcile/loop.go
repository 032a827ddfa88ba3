// Package reconcile orchestrates sizing, simulation and validation as an
// explicit finite-state machine until the network design converges or the
// iteration budget is exhausted.
package reconcile

import (
	"context"
	"fmt"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/simulation"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/sizing"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/standards"
)

type State string

const (
	StateInitialSize State = "INITIAL_SIZE"
	StateSimulate    State = "SIMULATE"
	StateValidate    State = "VALIDATE"
	StateResize      State = "RESIZE"
	StateConverged   State = "CONVERGED"
	StateFailed      State = "FAILED"
)

// Policy bounds the loop. Increases are always applied on violation;
// decreases only when CostOptimize is set.
type Policy struct {
	MaxIterations       int     // default 4
	CostOptimize        bool    // opt-in downsizing of under-utilized pipes
	DeltaTolerance      float64 // accept best-effort when worst overshoot moves less than this between iterations
	DownsizeUtilization float64 // utilization below this is a downsize candidate
}

func (p Policy) withDefaults() Policy {
	if p.MaxIterations <= 0 {
		p.MaxIterations = 4
	}
	if p.DeltaTolerance <= 0 {
		p.DeltaTolerance = 0.05
	}
	if p.DownsizeUtilization <= 0 {
		p.DownsizeUtilization = 0.6
	}
	return p
}

// Outcome is the terminal result of one loop run. Residual violations of a
// best-effort termination stay in the report; nothing is dropped.
type Outcome struct {
	State      State                    `json:"state"`
	BestEffort bool                     `json:"best_effort"`
	Iterations int                      `json:"iterations"`
	Trace      []State                  `json:"trace"`
	Results    []domain.SizingResult    `json:"results"`
	Report     *domain.ComplianceReport `json:"report"`
	Summary    domain.SizingSummary     `json:"summary"`
	LastSolve  *simulation.Result       `json:"last_solve,omitempty"`
	Warnings   []string                 `json:"warnings,omitempty"`
}

// Loop couples the sizing engine with a solver and the active rule sets.
// It is sequential by construction: each iteration depends on the previous
// full-network solve.
type Loop struct {
	Engine   *sizing.Engine
	Solver   simulation.Solver
	RuleSets []standards.RuleSet
	Policy   Policy
}

// Run drives InitialSize -> Simulate -> Validate -> {Converged | Resize |
// Failed}. The network arena is mutated in place and carries all state
// between stages.
func (l *Loop) Run(ctx context.Context, net *domain.Network, bc simulation.BoundaryConditions) (*Outcome, error) {
	policy := l.Policy.withDefaults()
	out := &Outcome{Trace: []State{StateInitialSize}}

	initial, err := l.Engine.SizeAll(ctx, net)
	if err != nil {
		return nil, err
	}
	ideal := make(map[string]float64, len(initial))
	for _, r := range initial {
		ideal[r.PipeID] = r.IdealDiameterMM
	}

	seen := map[string]int{seenKey(net): 0}
	prevWorst := -1.0
	everConverged := false
	improving := false

	for iter := 1; iter <= policy.MaxIterations; iter++ {
		out.Iterations = iter

		out.Trace = append(out.Trace, StateSimulate)
		solve, err := l.Solver.Solve(ctx, net, bc)
		if err != nil {
			return nil, fmt.Errorf("simulate (iteration %d): %w", iter, err)
		}
		out.LastSolve = solve
		if solve.Converged {
			everConverged = true
		} else {
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("iteration %d: solver did not converge (residual %g)", iter, solve.Residual))
		}
		simulation.Apply(net, solve)

		out.Trace = append(out.Trace, StateValidate)
		report, err := standards.Validate(net, l.RuleSets)
		if err != nil {
			return nil, err
		}
		out.Report = report

		worst := worstOvershoot(report)
		if prevWorst >= 0 && worst < prevWorst-policy.DeltaTolerance {
			improving = true
		}
		delta := worst - prevWorst
		if delta < 0 {
			delta = -delta
		}

		violations := report.Violations()
		if solve.Converged && len(violations) == 0 {
			return l.finish(net, out, ideal, StateConverged, false)
		}

		if iter == policy.MaxIterations {
			if !everConverged && !improving {
				out.Warnings = append(out.Warnings,
					"solver never converged and showed no improving trend; topology or demand review required")
				return l.finish(net, out, ideal, StateFailed, false)
			}
			out.Warnings = append(out.Warnings, fmt.Sprintf(
				"iteration budget (%d) exhausted with %d residual violations; accepting best-effort result",
				policy.MaxIterations, len(violations)))
			if prevWorst >= 0 && delta >= policy.DeltaTolerance {
				out.Warnings = append(out.Warnings,
					fmt.Sprintf("worst-case violation still moving by %.3f between iterations", delta))
			}
			return l.finish(net, out, ideal, StateConverged, true)
		}
		prevWorst = worst

		out.Trace = append(out.Trace, StateResize)
		actions, err := l.resize(net, report, ideal, policy)
		if err != nil {
			return nil, err
		}
		if actions == 0 {
			// Nothing left to move: every violating pipe is pinned at its
			// band bound. Further iterations cannot change the design.
			out.Warnings = append(out.Warnings,
				"no resize action possible for remaining violations; accepting best-effort result")
			return l.finish(net, out, ideal, StateConverged, true)
		}

		key := seenKey(net)
		if first, ok := seen[key]; ok {
			// Diameter assignment already visited: the design is
			// oscillating. Terminate instead of flip-flopping forever.
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("diameter oscillation detected (state of iteration %d revisited)", first))
			return l.finish(net, out, ideal, StateConverged, true)
		}
		seen[key] = iter
	}

	return l.finish(net, out, ideal, StateConverged, true)
}

// resize applies one resize pass: mandatory step-up for violating pipes,
// optional step-down for under-utilized ones, both bounded by the pipe's
// category range. Returns the number of diameters changed.
func (l *Loop) resize(net *domain.Network, report *domain.ComplianceReport, ideal map[string]float64, policy Policy) (int, error) {
	needUp := map[string]bool{}
	for _, v := range report.Violations() {
		switch v.Check {
		case "velocity_max", "pressure_drop_per_m":
			needUp[v.PipeID] = true
		}
	}

	catalog := l.Engine.Catalog()
	actions := 0
	for i := range net.Pipes {
		p := &net.Pipes[i]
		band, ok := l.Engine.Band(p.Category)
		if !ok {
			return 0, domain.NewConfigurationError("hierarchy_levels",
				"no constraint band for category %s (pipe %s)", p.Category, p.ID)
		}

		if needUp[p.ID] {
			next, ok := catalog.NextLarger(p.DiameterMM)
			if !ok || (band.MaxDiameterMM > 0 && next > band.MaxDiameterMM) {
				continue // pinned at the top of the allowed range
			}
			if err := l.Engine.Resize(p, next); err != nil {
				return 0, err
			}
			actions++
			continue
		}

		if policy.CostOptimize {
			util := 0.0
			if p.DiameterMM > 0 {
				util = ideal[p.ID] / p.DiameterMM
			}
			if util >= policy.DownsizeUtilization {
				continue
			}
			next, ok := catalog.NextSmaller(p.DiameterMM)
			if !ok || (band.MinDiameterMM > 0 && next < band.MinDiameterMM) {
				continue
			}
			// Never downsize below the ideal continuous diameter.
			if next < ideal[p.ID] {
				continue
			}
			if err := l.Engine.Resize(p, next); err != nil {
				return 0, err
			}
			actions++
		}
	}
	return actions, nil
}

func (l *Loop) finish(net *domain.Network, out *Outcome, ideal map[string]float64, state State, bestEffort bool) (*Outcome, error) {
	out.State = state
	out.BestEffort = bestEffort
	out.Trace = append(out.Trace, state)

	out.Results = make([]domain.SizingResult, len(net.Pipes))
	for i := range net.Pipes {
		p := net.Pipes[i]
		r := domain.SizingResult{
			PipeID:          p.ID,
			IdealDiameterMM: ideal[p.ID],
			DiameterMM:      p.DiameterMM,
			VelocityMS:      p.VelocityMS,
			PressureDropPaM: p.PressureDropPaM,
			Reynolds:        p.Reynolds,
			CostEUR:         p.CostEUR,
		}
		if p.DiameterMM > 0 {
			r.Utilization = ideal[p.ID] / p.DiameterMM
		}
		out.Results[i] = r
	}
	out.Summary = sizing.Summarize(net, out.Results)
	return out, nil
}

// worstOvershoot is the largest relative constraint excess in the report,
// the quantity whose iteration-to-iteration delta gates best-effort
// termination.
func worstOvershoot(report *domain.ComplianceReport) float64 {
	worst := 0.0
	for _, v := range report.Violations() {
		if v.Limit == 0 {
			continue
		}
		over := (v.Measured - v.Limit) / v.Limit
		if over < 0 {
			over = -over
		}
		if over > worst {
			worst = over
		}
	}
	return worst
}

func seenKey(net *domain.Network) string {
	key := make([]byte, 0, len(net.Pipes)*8)
	for i := range net.Pipes {
		key = append(key, fmt.Sprintf("%s=%g;", net.Pipes[i].ID, net.Pipes[i].DiameterMM)...)
	}
	return string(key)
}
