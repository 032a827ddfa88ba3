package rules

import (
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/standards"
)

type pressureGradient struct{}

func (pressureGradient) Name() string { return "pressure_gradient" }

func (pressureGradient) Evaluate(net *domain.Network, pipeIdx int, rs standards.RuleSet) []domain.Violation {
	p := net.Pipes[pipeIdx]
	lim, ok := rs.Limits[p.Category]
	if !ok || lim.MaxPressureDropPaM <= 0 {
		return nil
	}
	if p.PressureDropPaM <= lim.MaxPressureDropPaM {
		return nil
	}
	return []domain.Violation{{
		PipeID:     p.ID,
		StandardID: rs.ID,
		Check:      "pressure_drop_per_m",
		Measured:   p.PressureDropPaM,
		Limit:      lim.MaxPressureDropPaM,
		Severity:   rs.SeverityFor(p.PressureDropPaM-lim.MaxPressureDropPaM, lim.MaxPressureDropPaM),
	}}
}

func init() { standards.Register(pressureGradient{}) }
