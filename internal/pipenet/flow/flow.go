// Package flow converts per-building heat-demand series into design mass
// flow rates (kg/s).
package flow

import (
	"fmt"
	"sort"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
)

// Params configures one flow calculation pass.
type Params struct {
	SupplyTempC     float64
	ReturnTempC     float64
	Fluid           domain.FluidProperties
	SafetyFactor    float64
	DiversityFactor float64
	Method          domain.DesignHourMethod
	TopN            int     // top_n_hours_average
	FullLoadHours   float64 // full_load_hours_equivalent
}

// Result holds one design flow per building plus non-fatal warnings
// (e.g. negative demand samples clipped to zero).
type Result struct {
	Flows    map[string]float64 `json:"flows"`
	Warnings []string           `json:"warnings,omitempty"`
}

// DesignFlows computes the design mass flow for every building and writes it
// back onto the building records. The demand series itself is never mutated.
func DesignFlows(net *domain.Network, p Params) (*Result, error) {
	deltaT := p.SupplyTempC - p.ReturnTempC
	if deltaT <= 0 {
		return nil, domain.NewConfigurationError("delta_t",
			"supply temperature %.1f must exceed return temperature %.1f", p.SupplyTempC, p.ReturnTempC)
	}
	if p.Fluid.SpecificHeatJKgK <= 0 {
		return nil, domain.NewConfigurationError("specific_heat", "must be positive, got %g", p.Fluid.SpecificHeatJKgK)
	}
	if p.SafetyFactor <= 0 {
		p.SafetyFactor = 1
	}
	if p.DiversityFactor <= 0 {
		p.DiversityFactor = 1
	}

	res := &Result{Flows: make(map[string]float64, len(net.Buildings))}
	for i := range net.Buildings {
		b := &net.Buildings[i]
		demandW, warns, err := designDemandW(b, p)
		if err != nil {
			return nil, err
		}
		res.Warnings = append(res.Warnings, warns...)

		massFlow := demandW / (p.Fluid.SpecificHeatJKgK * deltaT)
		massFlow *= p.SafetyFactor * p.DiversityFactor
		b.DesignFlowKgS = massFlow
		res.Flows[b.ID] = massFlow
	}
	return res, nil
}

// designDemandW extracts the design heat demand (W) from a building's
// series according to the configured design-hour method. Negative samples
// are clipped to zero with a recorded warning, not a fault.
func designDemandW(b *domain.Building, p Params) (float64, []string, error) {
	if len(b.DemandW) == 0 {
		return 0, nil, domain.NewDataError(b.ID, "demand series is empty or missing")
	}

	var warnings []string
	series := make([]float64, len(b.DemandW))
	clipped := 0
	for i, v := range b.DemandW {
		if v < 0 {
			v = 0
			clipped++
		}
		series[i] = v
	}
	if clipped > 0 {
		warnings = append(warnings,
			fmt.Sprintf("building %s: clipped %d negative demand samples to zero", b.ID, clipped))
	}

	switch p.Method {
	case domain.MethodPeakHour, "":
		return maxOf(series), warnings, nil

	case domain.MethodTopNHours:
		n := p.TopN
		if n <= 0 {
			n = 10
		}
		if n > len(series) {
			n = len(series)
		}
		sorted := append([]float64(nil), series...)
		sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
		sum := 0.0
		for _, v := range sorted[:n] {
			sum += v
		}
		return sum / float64(n), warnings, nil

	case domain.MethodFullLoadHours:
		if p.FullLoadHours <= 0 {
			return 0, nil, domain.NewConfigurationError("full_load_hours",
				"must be positive for method %q", p.Method)
		}
		// Hourly series: the sum of W samples is the annual energy in Wh.
		energyWh := 0.0
		for _, v := range series {
			energyWh += v
		}
		return energyWh / p.FullLoadHours, warnings, nil

	default:
		return 0, nil, domain.NewConfigurationError("design_hour_method", "unknown method %q", p.Method)
	}
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, v := range xs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
