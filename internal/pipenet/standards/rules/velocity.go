package rules

import (
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/standards"
)

type velocity struct{}

func (velocity) Name() string { return "velocity" }

func (velocity) Evaluate(net *domain.Network, pipeIdx int, rs standards.RuleSet) []domain.Violation {
	p := net.Pipes[pipeIdx]
	lim, ok := rs.Limits[p.Category]
	if !ok {
		return nil
	}

	var out []domain.Violation
	if lim.MaxVelocityMS > 0 && p.VelocityMS > lim.MaxVelocityMS {
		out = append(out, domain.Violation{
			PipeID:     p.ID,
			StandardID: rs.ID,
			Check:      "velocity_max",
			Measured:   p.VelocityMS,
			Limit:      lim.MaxVelocityMS,
			Severity:   rs.SeverityFor(p.VelocityMS-lim.MaxVelocityMS, lim.MaxVelocityMS),
		})
	}
	if lim.MinVelocityMS > 0 && p.VelocityMS < lim.MinVelocityMS {
		out = append(out, domain.Violation{
			PipeID:     p.ID,
			StandardID: rs.ID,
			Check:      "velocity_min",
			Measured:   p.VelocityMS,
			Limit:      lim.MinVelocityMS,
			Severity:   rs.SeverityFor(lim.MinVelocityMS-p.VelocityMS, lim.MinVelocityMS),
		})
	}
	return out
}

func init() { standards.Register(velocity{}) }
