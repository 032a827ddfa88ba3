package rules

import (
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/standards"
)

// temperature checks the simulated supply temperature at a pipe's
// downstream junction. Skipped when the junction state has not been filled
// in by simulation.
type temperature struct{}

func (temperature) Name() string { return "temperature" }

func (temperature) Evaluate(net *domain.Network, pipeIdx int, rs standards.RuleSet) []domain.Violation {
	if rs.SupplyTempMaxC <= 0 && rs.MinDeltaTK <= 0 {
		return nil
	}
	p := net.Pipes[pipeIdx]
	j := net.Junctions[p.To]
	if j.TemperatureC == 0 {
		return nil
	}

	var out []domain.Violation
	if rs.SupplyTempMaxC > 0 && j.TemperatureC > rs.SupplyTempMaxC {
		out = append(out, domain.Violation{
			PipeID:     p.ID,
			StandardID: rs.ID,
			Check:      "supply_temp_max",
			Measured:   j.TemperatureC,
			Limit:      rs.SupplyTempMaxC,
			Severity:   rs.SeverityFor(j.TemperatureC-rs.SupplyTempMaxC, rs.SupplyTempMaxC),
			Detail:     "junction " + j.ID,
		})
	}
	if rs.SupplyTempMinC > 0 && j.TemperatureC < rs.SupplyTempMinC {
		out = append(out, domain.Violation{
			PipeID:     p.ID,
			StandardID: rs.ID,
			Check:      "supply_temp_min",
			Measured:   j.TemperatureC,
			Limit:      rs.SupplyTempMinC,
			Severity:   rs.SeverityFor(rs.SupplyTempMinC-j.TemperatureC, rs.SupplyTempMinC),
			Detail:     "junction " + j.ID,
		})
	}
	if rs.MinDeltaTK > 0 && rs.DesignReturnTempC > 0 {
		deltaT := j.TemperatureC - rs.DesignReturnTempC
		if deltaT < rs.MinDeltaTK {
			out = append(out, domain.Violation{
				PipeID:     p.ID,
				StandardID: rs.ID,
				Check:      "min_delta_t",
				Measured:   deltaT,
				Limit:      rs.MinDeltaTK,
				Severity:   rs.SeverityFor(rs.MinDeltaTK-deltaT, rs.MinDeltaTK),
				Detail:     "junction " + j.ID,
			})
		}
	}
	return out
}

func init() { standards.Register(temperature{}) }
