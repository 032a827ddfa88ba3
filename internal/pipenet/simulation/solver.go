// Package simulation is the boundary to the external nonlinear hydraulic
// network solver.
package simulation

import (
	"context"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
)

// BoundaryConditions for one solve: pressure source at the plant, sink
// demands per building, carrier setpoints.
type BoundaryConditions struct {
	PlantPressurePa float64            `json:"plant_pressure_pa"`
	SupplyTempC     float64            `json:"supply_temp_c"`
	ReturnTempC     float64            `json:"return_temp_c"`
	DemandsKgS      map[string]float64 `json:"demands_kg_s"` // building id -> mass flow
}

// PipeState is the solver's view of one pipe.
type PipeState struct {
	FlowKgS         float64 `json:"flow_kg_s"`
	VelocityMS      float64 `json:"velocity_m_s"`
	PressureDropPaM float64 `json:"pressure_drop_pa_m"`
}

// JunctionState is the solver's view of one junction.
type JunctionState struct {
	PressurePa   float64 `json:"pressure_pa"`
	TemperatureC float64 `json:"temperature_c"`
}

// Result of one solver invocation. A non-converged solve is NOT an error:
// the partial result is returned with Converged=false so the caller decides
// whether to retry or resize. A timeout is reported the same way.
type Result struct {
	Converged  bool                     `json:"converged"`
	Iterations int                      `json:"iterations"`
	Residual   float64                  `json:"residual"`
	Pipes      map[string]PipeState     `json:"pipes"`
	Junctions  map[string]JunctionState `json:"junctions"`
}

// Solver is the external-solver contract. Implementations must honor ctx
// cancellation, never return an error for non-convergence, and bound every
// invocation with a wall-clock timeout.
type Solver interface {
	Solve(ctx context.Context, net *domain.Network, bc BoundaryConditions) (*Result, error)
}

// Apply writes a solver result back onto the network arena so validation
// runs against simulated state, not the idealized per-pipe estimate.
func Apply(net *domain.Network, res *Result) {
	for i := range net.Pipes {
		p := &net.Pipes[i]
		st, ok := res.Pipes[p.ID]
		if !ok {
			continue
		}
		p.VelocityMS = st.VelocityMS
		p.PressureDropPaM = st.PressureDropPaM
	}
	for i := range net.Junctions {
		j := &net.Junctions[i]
		st, ok := res.Junctions[j.ID]
		if !ok {
			continue
		}
		j.PressurePa = st.PressurePa
		j.TemperatureC = st.TemperatureC
	}
}
