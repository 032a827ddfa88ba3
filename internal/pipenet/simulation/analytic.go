package simulation

import (
	"context"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/sizing"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/topology"
)

// AnalyticSolver is a deterministic closed-form solver: it routes the sink
// demands over the delivery tree and evaluates each pipe independently with
// Darcy-Weisbach. It exists so the reconcile loop can be unit tested
// without the external solver.
type AnalyticSolver struct {
	Fluid domain.FluidProperties

	// Perturbation scales the computed velocities to emulate cross-pipe
	// network interaction that independent sizing ignores. 1.0 = none.
	Perturbation float64

	// FailFirst makes the first N calls report Converged=false with a
	// partial result, for exercising the retry path.
	FailFirst int

	calls int
}

func (s *AnalyticSolver) Solve(ctx context.Context, net *domain.Network, bc BoundaryConditions) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.calls++

	work := net.Clone()
	for i := range work.Buildings {
		b := &work.Buildings[i]
		if d, ok := bc.DemandsKgS[b.ID]; ok {
			b.DesignFlowKgS = d
		}
	}
	tree, err := topology.Build(work, topology.Options{ExcludeUnreachable: true})
	if err != nil {
		return nil, err
	}
	if err := topology.Aggregate(work, tree); err != nil {
		return nil, err
	}

	perturb := s.Perturbation
	if perturb <= 0 {
		perturb = 1
	}

	res := &Result{
		Converged:  s.calls > s.FailFirst,
		Iterations: 1,
		Pipes:      make(map[string]PipeState, len(work.Pipes)),
		Junctions:  make(map[string]JunctionState, len(work.Junctions)),
	}
	for _, p := range work.Pipes {
		if p.DiameterMM <= 0 {
			continue
		}
		dM := p.DiameterMM / 1000
		v := sizing.Velocity(p.FlowKgS, s.Fluid.DensityKgM3, dM) * perturb
		re := sizing.Reynolds(v, dM, s.Fluid.KinViscosityM2S)
		f := sizing.FrictionFactor(re, p.RoughnessMM/p.DiameterMM)
		res.Pipes[p.ID] = PipeState{
			FlowKgS:         p.FlowKgS,
			VelocityMS:      v,
			PressureDropPaM: sizing.PressureDropPerM(f, s.Fluid.DensityKgM3, v, dM),
		}
	}

	// Pressure falls along the delivery path; temperature is the supply
	// setpoint everywhere in this closed form.
	pressure := make([]float64, len(work.Junctions))
	for _, j := range tree.Order {
		pi := tree.ParentPipe[j]
		if pi < 0 {
			pressure[j] = bc.PlantPressurePa
		} else {
			p := work.Pipes[pi]
			parent := p.From
			if parent == j {
				parent = p.To
			}
			pressure[j] = pressure[parent] - res.Pipes[p.ID].PressureDropPaM*p.LengthM
		}
		res.Junctions[work.Junctions[j].ID] = JunctionState{
			PressurePa:   pressure[j],
			TemperatureC: bc.SupplyTempC,
		}
	}
	return res, nil
}
