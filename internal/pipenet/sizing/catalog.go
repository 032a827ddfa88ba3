package sizing

import (
	"sort"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
)

// Catalog is the fixed ascending list of standard nominal diameters (mm).
// Every selected diameter is drawn from here.
type Catalog struct {
	dns []float64
}

// NewCatalog validates and sorts the DN list.
func NewCatalog(dns []float64) (*Catalog, error) {
	if len(dns) == 0 {
		return nil, domain.NewConfigurationError("diameter_catalog", "catalog is empty")
	}
	sorted := append([]float64(nil), dns...)
	sort.Float64s(sorted)
	for i, d := range sorted {
		if d <= 0 {
			return nil, domain.NewConfigurationError("diameter_catalog", "non-positive diameter %g", d)
		}
		if i > 0 && sorted[i-1] == d {
			return nil, domain.NewConfigurationError("diameter_catalog", "duplicate diameter %g", d)
		}
	}
	return &Catalog{dns: sorted}, nil
}

// All returns the full ascending DN list.
func (c *Catalog) All() []float64 {
	return append([]float64(nil), c.dns...)
}

// Contains reports whether d is a catalog member.
func (c *Catalog) Contains(d float64) bool {
	i := sort.SearchFloat64s(c.dns, d)
	return i < len(c.dns) && c.dns[i] == d
}

// SmallestAtLeast returns the smallest catalog diameter >= d.
func (c *Catalog) SmallestAtLeast(d float64) (float64, bool) {
	i := sort.SearchFloat64s(c.dns, d)
	if i == len(c.dns) {
		return 0, false
	}
	return c.dns[i], true
}

// NextLarger returns the catalog diameter one step above d.
func (c *Catalog) NextLarger(d float64) (float64, bool) {
	i := sort.SearchFloat64s(c.dns, d)
	if i < len(c.dns) && c.dns[i] == d {
		i++
	}
	if i >= len(c.dns) {
		return 0, false
	}
	return c.dns[i], true
}

// NextSmaller returns the catalog diameter one step below d.
func (c *Catalog) NextSmaller(d float64) (float64, bool) {
	i := sort.SearchFloat64s(c.dns, d)
	if i == 0 {
		return 0, false
	}
	return c.dns[i-1], true
}

// InRange returns the ascending catalog diameters within [min, max].
// max <= 0 means unbounded above; min <= 0 unbounded below.
func (c *Catalog) InRange(min, max float64) []float64 {
	var out []float64
	for _, d := range c.dns {
		if min > 0 && d < min {
			continue
		}
		if max > 0 && d > max {
			break
		}
		out = append(out, d)
	}
	return out
}
