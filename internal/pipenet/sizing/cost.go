package sizing

import "github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"

// CostRate is the per-metre cost decomposition for one nominal diameter.
type CostRate struct {
	MaterialPerM   float64 `json:"material_per_m"`
	InstallPerM    float64 `json:"install_per_m"`
	InsulationPerM float64 `json:"insulation_per_m"`
}

// PerM is the total per-metre rate.
func (r CostRate) PerM() float64 {
	return r.MaterialPerM + r.InstallPerM + r.InsulationPerM
}

// CostTable maps nominal diameter (mm) to its cost rate.
type CostTable map[float64]CostRate

// PipeCost returns the installed cost of length metres of the given DN.
// A missing catalog entry is a ConfigurationError and aborts the run.
func (t CostTable) PipeCost(dnMM, lengthM float64) (float64, error) {
	rate, ok := t[dnMM]
	if !ok {
		return 0, domain.NewConfigurationError("cost_table", "no cost entry for DN %g", dnMM)
	}
	return rate.PerM() * lengthM, nil
}
