// Package sizing selects discrete standard diameters per pipe under
// velocity and pressure-drop constraints at near-minimal cost.
package sizing

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
)

// Engine sizes pipes against a catalog, a cost table and per-category
// constraint bands. It has no mutable state of its own, so one engine can
// size independent networks concurrently.
type Engine struct {
	catalog *Catalog
	costs   CostTable
	fluid   domain.FluidProperties
	bands   map[domain.Category]domain.HierarchyLevel
	workers int
}

// NewEngine validates the configuration up front so sizing itself can only
// fail on per-pipe data problems.
func NewEngine(catalog *Catalog, costs CostTable, fluid domain.FluidProperties, bands []domain.HierarchyLevel, workers int) (*Engine, error) {
	if catalog == nil {
		return nil, domain.NewConfigurationError("diameter_catalog", "catalog is required")
	}
	if fluid.DensityKgM3 <= 0 || fluid.KinViscosityM2S <= 0 {
		return nil, domain.NewConfigurationError("fluid", "density and viscosity must be positive")
	}
	byCat := make(map[domain.Category]domain.HierarchyLevel, len(bands))
	for _, b := range bands {
		if b.MaxVelocityMS <= 0 {
			return nil, domain.NewConfigurationError("hierarchy_levels", "band %s has no max velocity", b.Category)
		}
		byCat[b.Category] = b
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{catalog: catalog, costs: costs, fluid: fluid, bands: byCat, workers: workers}, nil
}

// SizePipe sizes one pipe from its aggregated flow and category. It always
// produces a result: when no in-range catalog diameter at or above the ideal
// satisfies both constraints, the largest in-range diameter is selected, and
// a Violation is recorded on the result if that diameter still breaks a
// limit.
func (e *Engine) SizePipe(p *domain.PipeSegment) (domain.SizingResult, error) {
	band, ok := e.bands[p.Category]
	if !ok {
		return domain.SizingResult{}, domain.NewConfigurationError("hierarchy_levels",
			"no constraint band for category %s (pipe %s)", p.Category, p.ID)
	}
	if p.FlowKgS < 0 {
		return domain.SizingResult{}, domain.NewDataError(p.ID, "negative aggregated flow %g", p.FlowKgS)
	}

	targetVel := (band.MinVelocityMS + band.MaxVelocityMS) / 2
	idealM := 0.0
	if p.FlowKgS > 0 {
		idealM = DiameterFor(p.FlowKgS, e.fluid.DensityKgM3, targetVel)
	}
	idealMM := idealM * 1000

	candidates := e.catalog.InRange(band.MinDiameterMM, band.MaxDiameterMM)
	if len(candidates) == 0 {
		return domain.SizingResult{}, domain.NewConfigurationError("diameter_catalog",
			"no catalog diameters inside the %s band range [%g, %g]", p.Category, band.MinDiameterMM, band.MaxDiameterMM)
	}

	res := domain.SizingResult{PipeID: p.ID, IdealDiameterMM: idealMM}
	selected := 0.0
	for _, dn := range candidates {
		if dn < idealMM {
			continue
		}
		v, dpm, re := e.evaluate(p.FlowKgS, dn, p.RoughnessMM)
		if v <= band.MaxVelocityMS && dpm <= band.MaxPressureDropPaM {
			selected = dn
			res.VelocityMS, res.PressureDropPaM, res.Reynolds = v, dpm, re
			break
		}
	}

	if selected == 0 {
		// Fallback: largest in-range diameter. The ideal diameter exceeding
		// the catalog does not by itself violate anything; a violation is
		// recorded only when the evaluated state actually breaks a limit.
		selected = candidates[len(candidates)-1]
		v, dpm, re := e.evaluate(p.FlowKgS, selected, p.RoughnessMM)
		res.VelocityMS, res.PressureDropPaM, res.Reynolds = v, dpm, re
		switch {
		case dpm > band.MaxPressureDropPaM:
			res.Violation = &domain.Violation{
				PipeID:   p.ID,
				Check:    "sizing_fallback_pressure",
				Measured: dpm,
				Limit:    band.MaxPressureDropPaM,
				Severity: domain.SeverityHigh,
				Detail: fmt.Sprintf("largest in-range diameter DN %g exceeds the gradient limit: %.1f > %g Pa/m",
					selected, dpm, band.MaxPressureDropPaM),
			}
		case v > band.MaxVelocityMS:
			res.Violation = &domain.Violation{
				PipeID:   p.ID,
				Check:    "sizing_fallback",
				Measured: v,
				Limit:    band.MaxVelocityMS,
				Severity: domain.SeverityHigh,
				Detail: fmt.Sprintf("largest in-range diameter DN %g exceeds the velocity limit: %.2f > %g m/s",
					selected, v, band.MaxVelocityMS),
			}
		}
	}

	res.DiameterMM = selected
	if selected > 0 {
		res.Utilization = idealMM / selected
	}

	cost, err := e.costs.PipeCost(selected, p.LengthM)
	if err != nil {
		return domain.SizingResult{}, err
	}
	res.CostEUR = cost
	return res, nil
}

func (e *Engine) evaluate(flowKgS, dnMM, roughnessMM float64) (velocity, dpPerM, re float64) {
	dM := dnMM / 1000
	velocity = Velocity(flowKgS, e.fluid.DensityKgM3, dM)
	re = Reynolds(velocity, dM, e.fluid.KinViscosityM2S)
	f := FrictionFactor(re, roughnessMM/dnMM)
	dpPerM = PressureDropPerM(f, e.fluid.DensityKgM3, velocity, dM)
	return velocity, dpPerM, re
}

// SizeAll sizes every pipe in the network, fanning the independent per-pipe
// work across a bounded worker pool, and writes the selected diameter and
// derived state back onto the pipe records. Result order matches pipe order.
func (e *Engine) SizeAll(ctx context.Context, net *domain.Network) ([]domain.SizingResult, error) {
	results := make([]domain.SizingResult, len(net.Pipes))
	errs := make([]error, len(net.Pipes))

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := e.workers
	if workers > len(net.Pipes) && len(net.Pipes) > 0 {
		workers = len(net.Pipes)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = e.SizePipe(&net.Pipes[i])
			}
		}()
	}

loop:
	for i := range net.Pipes {
		select {
		case <-ctx.Done():
			break loop
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	for i := range net.Pipes {
		applyResult(&net.Pipes[i], results[i])
	}
	return results, nil
}

func applyResult(p *domain.PipeSegment, r domain.SizingResult) {
	p.DiameterMM = r.DiameterMM
	p.VelocityMS = r.VelocityMS
	p.PressureDropPaM = r.PressureDropPaM
	p.Reynolds = r.Reynolds
	p.CostEUR = r.CostEUR
}

// Resize re-evaluates one pipe at an explicit diameter, keeping the derived
// velocity/pressure state and cost consistent. Used by the reconcile loop.
func (e *Engine) Resize(p *domain.PipeSegment, dnMM float64) error {
	if !e.catalog.Contains(dnMM) {
		return domain.NewConfigurationError("diameter_catalog", "DN %g is not a catalog member", dnMM)
	}
	v, dpm, re := e.evaluate(p.FlowKgS, dnMM, p.RoughnessMM)
	cost, err := e.costs.PipeCost(dnMM, p.LengthM)
	if err != nil {
		return err
	}
	p.DiameterMM = dnMM
	p.VelocityMS = v
	p.PressureDropPaM = dpm
	p.Reynolds = re
	p.CostEUR = cost
	return nil
}

// Catalog exposes the configured DN catalog.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// Band returns the constraint band for a category.
func (e *Engine) Band(c domain.Category) (domain.HierarchyLevel, bool) {
	b, ok := e.bands[c]
	return b, ok
}

// Summarize rolls up a sized network for downstream consumers.
func Summarize(net *domain.Network, results []domain.SizingResult) domain.SizingSummary {
	s := domain.SizingSummary{
		TotalPipes:   len(net.Pipes),
		ByCategory:   map[domain.Category]int{},
		ByDiameterMM: map[int]int{},
	}
	for i := range net.Pipes {
		p := net.Pipes[i]
		s.TotalLengthM += p.LengthM
		s.ByCategory[p.Category]++
		s.ByDiameterMM[int(p.DiameterMM)]++
	}
	for _, r := range results {
		s.TotalCostEUR += r.CostEUR
	}
	return s
}
