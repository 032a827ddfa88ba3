package sizing

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
)

var engineFluid = domain.FluidProperties{
	SpecificHeatJKgK: 4190,
	DensityKgM3:      975,
	KinViscosityM2S:  4.1e-7,
}

func engineBands() []domain.HierarchyLevel {
	return []domain.HierarchyLevel{
		{Category: domain.CategoryService, MinFlowKgS: 0, MaxFlowKgS: 1,
			MinVelocityMS: 0.3, MaxVelocityMS: 1.0, MaxPressureDropPaM: 300,
			MinDiameterMM: 20, MaxDiameterMM: 50},
		{Category: domain.CategoryMain, MinFlowKgS: 20, MaxFlowKgS: 0,
			MinVelocityMS: 0.6, MaxVelocityMS: 2.5, MaxPressureDropPaM: 150,
			MinDiameterMM: 200, MaxDiameterMM: 400},
	}
}

func engineCatalogDNs() []float64 {
	return []float64{20, 25, 32, 40, 50, 200, 250, 300, 350, 400}
}

func engineCosts() CostTable {
	t := CostTable{}
	for _, dn := range engineCatalogDNs() {
		t[dn] = CostRate{MaterialPerM: dn, InstallPerM: 100, InsulationPerM: 10}
	}
	return t
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	catalog, err := NewCatalog(engineCatalogDNs())
	require.NoError(t, err)
	e, err := NewEngine(catalog, engineCosts(), engineFluid, engineBands(), 2)
	require.NoError(t, err)
	return e
}

func TestNewEngine_Validation(t *testing.T) {
	catalog, err := NewCatalog([]float64{50})
	require.NoError(t, err)

	_, err = NewEngine(nil, engineCosts(), engineFluid, engineBands(), 1)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = NewEngine(catalog, engineCosts(), domain.FluidProperties{}, engineBands(), 1)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	bad := engineBands()
	bad[0].MaxVelocityMS = 0
	_, err = NewEngine(catalog, engineCosts(), engineFluid, bad, 1)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSizePipe(t *testing.T) {
	e := newTestEngine(t)

	t.Run("selects the smallest feasible catalog diameter", func(t *testing.T) {
		// 50 kg/s in the MAIN band: continuous ideal diameter is ~205 mm,
		// so DN200 is too small and DN250 is the minimal feasible choice.
		p := &domain.PipeSegment{ID: "trunk", Category: domain.CategoryMain,
			FlowKgS: 50, LengthM: 120, RoughnessMM: 0.05}
		res, err := e.SizePipe(p)
		require.NoError(t, err)

		assert.Equal(t, 250.0, res.DiameterMM)
		assert.InDelta(t, 205.3, res.IdealDiameterMM, 1.0)
		assert.InDelta(t, 1.045, res.VelocityMS, 0.01)
		assert.LessOrEqual(t, res.PressureDropPaM, 150.0)
		assert.Greater(t, res.Reynolds, 2300.0)
		assert.InDelta(t, res.IdealDiameterMM/250, res.Utilization, 1e-9)
		assert.InDelta(t, (250.0+100+10)*120, res.CostEUR, 1e-9)
		assert.Nil(t, res.Violation)
	})

	t.Run("falls back to the largest in-range diameter under overload", func(t *testing.T) {
		// 5 kg/s through a SERVICE connection exceeds every catalog option.
		p := &domain.PipeSegment{ID: "svc", Category: domain.CategoryService,
			FlowKgS: 5, LengthM: 10, RoughnessMM: 0.05}
		res, err := e.SizePipe(p)
		require.NoError(t, err)

		assert.Equal(t, 50.0, res.DiameterMM)
		require.NotNil(t, res.Violation)
		assert.Equal(t, "sizing_fallback_pressure", res.Violation.Check)
		assert.Equal(t, domain.SeverityHigh, res.Violation.Severity)
		assert.Greater(t, res.VelocityMS, 1.0)
	})

	t.Run("ideal beyond the catalog is not a violation when limits hold", func(t *testing.T) {
		// 200 kg/s pushes the continuous ideal (~410 mm) past DN400, but
		// the band maximum still meets both limits.
		p := &domain.PipeSegment{ID: "big", Category: domain.CategoryMain,
			FlowKgS: 200, LengthM: 60, RoughnessMM: 0.05}
		res, err := e.SizePipe(p)
		require.NoError(t, err)

		assert.Equal(t, 400.0, res.DiameterMM)
		assert.Nil(t, res.Violation)
		assert.Greater(t, res.Utilization, 1.0)
		assert.LessOrEqual(t, res.VelocityMS, 2.5)
		assert.LessOrEqual(t, res.PressureDropPaM, 150.0)
	})

	t.Run("zero flow selects the smallest in-range diameter", func(t *testing.T) {
		p := &domain.PipeSegment{ID: "stub", Category: domain.CategoryMain,
			FlowKgS: 0, LengthM: 5, RoughnessMM: 0.05}
		res, err := e.SizePipe(p)
		require.NoError(t, err)
		assert.Equal(t, 200.0, res.DiameterMM)
		assert.Zero(t, res.IdealDiameterMM)
		assert.Zero(t, res.VelocityMS)
	})

	t.Run("unknown category is a configuration error", func(t *testing.T) {
		p := &domain.PipeSegment{ID: "x", Category: "TRANSMISSION", FlowKgS: 1}
		_, err := e.SizePipe(p)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("negative flow is a data error", func(t *testing.T) {
		p := &domain.PipeSegment{ID: "x", Category: domain.CategoryMain, FlowKgS: -1}
		_, err := e.SizePipe(p)
		assert.ErrorIs(t, err, domain.ErrData)
	})
}

func TestSizePipe_DenserCatalogIsMonotone(t *testing.T) {
	// Adding catalog entries can only refine the choice: the selected
	// diameter and cost for a fixed flow and category never grow.
	base := newTestEngine(t)

	extended := append(engineCatalogDNs(), 220, 450, 500)
	catalog, err := NewCatalog(extended)
	require.NoError(t, err)
	costs := engineCosts()
	for _, dn := range []float64{220, 450, 500} {
		costs[dn] = CostRate{MaterialPerM: dn, InstallPerM: 100, InsulationPerM: 10}
	}
	dense, err := NewEngine(catalog, costs, engineFluid, engineBands(), 2)
	require.NoError(t, err)

	trunk := func() *domain.PipeSegment {
		return &domain.PipeSegment{ID: "trunk", Category: domain.CategoryMain,
			FlowKgS: 50, LengthM: 120, RoughnessMM: 0.05}
	}

	baseRes, err := base.SizePipe(trunk())
	require.NoError(t, err)
	denseRes, err := dense.SizePipe(trunk())
	require.NoError(t, err)

	assert.LessOrEqual(t, denseRes.DiameterMM, baseRes.DiameterMM)
	assert.LessOrEqual(t, denseRes.CostEUR, baseRes.CostEUR)
	assert.Nil(t, denseRes.Violation)
	// DN220 becomes the new smallest feasible choice above the ~205 mm ideal.
	assert.Equal(t, 220.0, denseRes.DiameterMM)
}

func TestSizeAll(t *testing.T) {
	e := newTestEngine(t)

	buildNet := func() *domain.Network {
		net := domain.NewNetwork("all")
		net.AddJunction(domain.Junction{ID: "plant", Role: domain.RolePlant})
		net.AddJunction(domain.Junction{ID: "j1"})
		net.AddPipe(domain.PipeSegment{ID: "p1", From: 0, To: 1, LengthM: 100,
			RoughnessMM: 0.05, Category: domain.CategoryMain, FlowKgS: 50})
		net.AddPipe(domain.PipeSegment{ID: "p2", From: 0, To: 1, LengthM: 30,
			RoughnessMM: 0.05, Category: domain.CategoryService, FlowKgS: 0.5})
		return net
	}

	t.Run("writes selected state back onto the pipes", func(t *testing.T) {
		net := buildNet()
		results, err := e.SizeAll(context.Background(), net)
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, "p1", results[0].PipeID)
		assert.Equal(t, results[0].DiameterMM, net.Pipes[0].DiameterMM)
		assert.Equal(t, results[0].VelocityMS, net.Pipes[0].VelocityMS)
		assert.Equal(t, results[1].DiameterMM, net.Pipes[1].DiameterMM)
		assert.Positive(t, net.Pipes[0].CostEUR)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := e.SizeAll(ctx, buildNet())
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("propagates per-pipe errors", func(t *testing.T) {
		net := buildNet()
		net.Pipes[1].Category = "TRANSMISSION"
		_, err := e.SizeAll(context.Background(), net)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
}

func TestResize(t *testing.T) {
	e := newTestEngine(t)

	p := &domain.PipeSegment{ID: "trunk", Category: domain.CategoryMain,
		FlowKgS: 50, LengthM: 120, RoughnessMM: 0.05}
	_, err := e.SizePipe(p)
	require.NoError(t, err)

	t.Run("re-evaluates state at the new diameter", func(t *testing.T) {
		require.NoError(t, e.Resize(p, 300))
		assert.Equal(t, 300.0, p.DiameterMM)
		assert.InDelta(t, 0.7255, p.VelocityMS, 0.01)
		assert.InDelta(t, (300.0+100+10)*120, p.CostEUR, 1e-9)
	})

	t.Run("rejects non-catalog diameters", func(t *testing.T) {
		err := e.Resize(p, 275)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
}

func TestSummarize(t *testing.T) {
	net := domain.NewNetwork("sum")
	net.AddJunction(domain.Junction{ID: "plant", Role: domain.RolePlant})
	net.AddJunction(domain.Junction{ID: "j1"})
	net.AddPipe(domain.PipeSegment{ID: "p1", From: 0, To: 1, LengthM: 100,
		Category: domain.CategoryMain, DiameterMM: 250})
	net.AddPipe(domain.PipeSegment{ID: "p2", From: 0, To: 1, LengthM: 40,
		Category: domain.CategoryMain, DiameterMM: 250})

	s := Summarize(net, []domain.SizingResult{{CostEUR: 1000}, {CostEUR: 500}})
	assert.Equal(t, 2, s.TotalPipes)
	assert.InDelta(t, 140, s.TotalLengthM, 1e-9)
	assert.InDelta(t, 1500, s.TotalCostEUR, 1e-9)
	assert.Equal(t, 2, s.ByCategory[domain.CategoryMain])
	assert.Equal(t, 2, s.ByDiameterMM[250])

	// The rollup is part of persisted reports and API payloads.
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"by_diameter_mm":{"250":2}`)
}
