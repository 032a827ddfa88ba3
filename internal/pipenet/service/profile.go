package service

import (
	"github.com/heatgrid-dss/sizing-backend/config"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/flow"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/reconcile"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/sizing"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/standards"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/topology"
)

// Default engineering profile for pre-insulated bonded steel district
// heating pipes. Flow bands in kg/s, velocities in m/s, gradients in Pa/m.

func DefaultBands() []domain.HierarchyLevel {
	return []domain.HierarchyLevel{
		{Category: domain.CategoryService, MinFlowKgS: 0, MaxFlowKgS: 1, MinVelocityMS: 0.3, MaxVelocityMS: 1.0, MaxPressureDropPaM: 300, MinDiameterMM: 20, MaxDiameterMM: 50},
		{Category: domain.CategoryStreet, MinFlowKgS: 1, MaxFlowKgS: 5, MinVelocityMS: 0.4, MaxVelocityMS: 1.5, MaxPressureDropPaM: 250, MinDiameterMM: 40, MaxDiameterMM: 125},
		{Category: domain.CategoryArea, MinFlowKgS: 5, MaxFlowKgS: 20, MinVelocityMS: 0.5, MaxVelocityMS: 2.0, MaxPressureDropPaM: 200, MinDiameterMM: 100, MaxDiameterMM: 250},
		{Category: domain.CategoryMain, MinFlowKgS: 20, MaxFlowKgS: 80, MinVelocityMS: 0.6, MaxVelocityMS: 2.5, MaxPressureDropPaM: 150, MinDiameterMM: 200, MaxDiameterMM: 400},
		{Category: domain.CategoryPrimary, MinFlowKgS: 80, MaxFlowKgS: 0, MinVelocityMS: 0.8, MaxVelocityMS: 3.0, MaxPressureDropPaM: 100, MinDiameterMM: 300, MaxDiameterMM: 800},
	}
}

func DefaultCatalog() []float64 {
	return []float64{20, 25, 32, 40, 50, 65, 80, 100, 125, 150, 200, 250, 300, 350, 400, 450, 500, 600, 700, 800}
}

// DefaultCostTable is the built-in fallback when the costbook feed is
// disabled. EUR per metre, rough 2024 central-European rates.
func DefaultCostTable() sizing.CostTable {
	t := sizing.CostTable{}
	for _, dn := range DefaultCatalog() {
		// Material grows roughly linearly with DN, trenching dominates
		// installation, insulation tracks surface area.
		t[dn] = sizing.CostRate{
			MaterialPerM:   30 + dn*1.6,
			InstallPerM:    180 + dn*0.9,
			InsulationPerM: 20 + dn*0.5,
		}
	}
	return t
}

// DefaultRuleSets derives the default standard from the hierarchy bands so
// validation and sizing agree on limits out of the box.
func DefaultRuleSets(cfg *config.Config, bands []domain.HierarchyLevel) []standards.RuleSet {
	limits := make(map[domain.Category]standards.Limits, len(bands))
	for _, b := range bands {
		limits[b.Category] = standards.Limits{
			MinVelocityMS:      b.MinVelocityMS,
			MaxVelocityMS:      b.MaxVelocityMS,
			MaxPressureDropPaM: b.MaxPressureDropPaM,
		}
	}
	return []standards.RuleSet{{
		ID:                "EN13941",
		Limits:            limits,
		SupplyTempMinC:    cfg.Sizing.ReturnTempC + 10,
		SupplyTempMaxC:    cfg.Sizing.SupplyTempC + 15,
		DesignReturnTempC: cfg.Sizing.ReturnTempC,
		MinDeltaTK:        20,
		ToleranceBand:     0.1,
		SeverityThreshold: domain.SeverityHigh,
	}}
}

// HotWater returns carrier properties for the configured supply setpoint.
// Values are for water around 70-80 C.
func HotWater() domain.FluidProperties {
	return domain.FluidProperties{
		SpecificHeatJKgK: 4190,
		DensityKgM3:      975,
		KinViscosityM2S:  4.1e-7,
	}
}

// PipelineFromConfig assembles the full sizing profile from the process
// configuration. costs may be nil to use the built-in table.
func PipelineFromConfig(cfg *config.Config, costs sizing.CostTable) PipelineConfig {
	if len(costs) == 0 {
		costs = DefaultCostTable()
	}
	bands := DefaultBands()
	return PipelineConfig{
		Flow: flow.Params{
			SupplyTempC:     cfg.Sizing.SupplyTempC,
			ReturnTempC:     cfg.Sizing.ReturnTempC,
			Fluid:           HotWater(),
			SafetyFactor:    cfg.Sizing.SafetyFactor,
			DiversityFactor: cfg.Sizing.DiversityFactor,
			Method:          domain.DesignHourMethod(cfg.Sizing.DesignHourMethod),
			TopN:            cfg.Sizing.TopNHours,
			FullLoadHours:   cfg.Sizing.FullLoadHours,
		},
		Topology:  topology.Options{},
		Bands:     bands,
		CatalogDN: DefaultCatalog(),
		Costs:     costs,
		RuleSets:  DefaultRuleSets(cfg, bands),
		Policy: reconcile.Policy{
			MaxIterations: cfg.Sizing.MaxIterations,
			CostOptimize:  cfg.Sizing.CostOptimize,
		},
		PlantPressurePa: cfg.Sizing.PlantPressurePa,
		Workers:         cfg.Sizing.Workers,
	}
}
