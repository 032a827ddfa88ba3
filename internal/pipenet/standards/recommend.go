package standards

import (
	"fmt"
	"sort"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
)

// Recommend derives free-text recommendations from violation patterns.
// Thresholds are fractions of the pipe population.
const (
	systematicShare = 0.25
)

func Recommend(net *domain.Network, report *domain.ComplianceReport) []string {
	if len(net.Pipes) == 0 {
		return nil
	}

	byCheck := map[string]int{}
	byCategory := map[domain.Category]int{}
	pipeCategory := make(map[string]domain.Category, len(net.Pipes))
	for _, p := range net.Pipes {
		pipeCategory[p.ID] = p.Category
	}
	for _, v := range report.Violations() {
		byCheck[v.Check]++
		byCategory[pipeCategory[v.PipeID]]++
	}

	total := float64(len(net.Pipes))
	var out []string

	if float64(byCheck["velocity_max"])/total >= systematicShare ||
		float64(byCheck["pressure_drop_per_m"])/total >= systematicShare {
		out = append(out, "Systematic undersizing: a large share of pipes exceeds velocity or pressure-drop limits; consider shifting the diameter catalog one DN step up for the affected categories.")
	}
	if float64(byCheck["velocity_min"])/total >= systematicShare {
		out = append(out, "Systematic oversizing: many pipes run below the minimum recommended velocity; enable cost-optimized downsizing or reduce the initial safety factor.")
	}
	if byCheck["min_delta_t"] > 0 {
		out = append(out, "Low temperature spread detected; review building substation return setpoints before resizing pipes.")
	}

	// Concentration in a single category points at its constraint band.
	cats := make([]domain.Category, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, c := range cats {
		n := byCategory[c]
		catPipes := 0
		for _, p := range net.Pipes {
			if p.Category == c {
				catPipes++
			}
		}
		if catPipes > 0 && float64(n)/float64(catPipes) >= 0.5 {
			out = append(out, fmt.Sprintf("Violations cluster in the %s level (%d of %d pipes); review that level's allowed diameter range and velocity band.", c, n, catPipes))
		}
	}
	return out
}
