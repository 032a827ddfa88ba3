package standards

import "github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"

// Limits are the per-category bounds one rule set enforces.
// Boundary values are inclusive: measured == limit is compliant.
type Limits struct {
	MinVelocityMS      float64 `json:"min_velocity_m_s"`
	MaxVelocityMS      float64 `json:"max_velocity_m_s"`
	MaxPressureDropPaM float64 `json:"max_pressure_drop_pa_m"`
}

// RuleSet is one engineering standard. Several may be active concurrently;
// every pipe is checked against each active set.
type RuleSet struct {
	ID     string                       `json:"id"`
	Limits map[domain.Category]Limits   `json:"limits"`

	// Temperature checks apply only where junction state is filled in by
	// simulation.
	SupplyTempMinC   float64 `json:"supply_temp_min_c,omitempty"`
	SupplyTempMaxC   float64 `json:"supply_temp_max_c,omitempty"`
	DesignReturnTempC float64 `json:"design_return_temp_c,omitempty"`
	MinDeltaTK       float64 `json:"min_delta_t_k,omitempty"`

	// ToleranceBand sets the width of one severity step as a fraction of
	// the limit. Exceeding the limit by up to one band is LOW, two bands
	// MEDIUM, three HIGH, beyond that CRITICAL.
	ToleranceBand float64 `json:"tolerance_band,omitempty"`

	// SeverityThreshold: the network is compliant iff there are zero
	// violations at or above this severity. Default HIGH.
	SeverityThreshold domain.Severity `json:"severity_threshold,omitempty"`
}

func (rs RuleSet) toleranceBand() float64 {
	if rs.ToleranceBand <= 0 {
		return 0.1
	}
	return rs.ToleranceBand
}

func (rs RuleSet) severityThreshold() domain.Severity {
	if rs.SeverityThreshold == "" {
		return domain.SeverityHigh
	}
	return rs.SeverityThreshold
}

// SeverityFor grades how far measured exceeds limit relative to the
// tolerance band. overshoot must already be non-negative.
func (rs RuleSet) SeverityFor(overshoot, limit float64) domain.Severity {
	band := rs.toleranceBand()
	rel := 0.0
	if limit != 0 {
		rel = overshoot / (limit * band)
	} else {
		rel = overshoot / band
	}
	switch {
	case rel <= 1:
		return domain.SeverityLow
	case rel <= 2:
		return domain.SeverityMedium
	case rel <= 3:
		return domain.SeverityHigh
	default:
		return domain.SeverityCritical
	}
}

// Check evaluates one concern for one pipe against one rule set.
type Check interface {
	Name() string
	Evaluate(net *domain.Network, pipeIdx int, rs RuleSet) []domain.Violation
}
