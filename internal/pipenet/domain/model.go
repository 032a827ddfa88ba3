package domain

import "time"

// Building couples a demand series to its service junction.
type Building struct {
	ID         string    `json:"id"`
	JunctionID string    `json:"junction_id"`
	DemandW    []float64 `json:"demand_w,omitempty"` // ordered, fixed-length series (W)
	// DesignFlowKgS is filled by the flow calculation engine.
	DesignFlowKgS float64 `json:"design_flow_kg_s"`
}

// Junction is a node in the network arena. Pressure and temperature state
// is filled in by simulation, not by sizing.
type Junction struct {
	ID           string       `json:"id"`
	X            float64      `json:"x"`
	Y            float64      `json:"y"`
	Role         JunctionRole `json:"role"`
	PressurePa   float64      `json:"pressure_pa,omitempty"`
	TemperatureC float64      `json:"temperature_c,omitempty"`
}

// PipeSegment is an edge in the arena. From/To are junction indices, not
// pointers, so aggregation and resize passes can mutate segments in place.
type PipeSegment struct {
	ID          string  `json:"id"`
	From        int     `json:"from"`
	To          int     `json:"to"`
	LengthM     float64 `json:"length_m"`
	RoughnessMM float64 `json:"roughness_mm"`

	Category        Category `json:"category,omitempty"`
	FlowKgS         float64  `json:"flow_kg_s"` // aggregated design flow
	DiameterMM      float64  `json:"diameter_mm,omitempty"`
	VelocityMS      float64  `json:"velocity_m_s,omitempty"`
	PressureDropPaM float64  `json:"pressure_drop_pa_m,omitempty"`
	Reynolds        float64  `json:"reynolds,omitempty"`
	CostEUR         float64  `json:"cost_eur,omitempty"`
}

// Network is an arena of junction/pipe/building records addressed by
// integer indices. All sizing state lives here and is passed explicitly
// stage to stage; there is no global state.
type Network struct {
	ID        string        `json:"id"`
	Junctions []Junction    `json:"junctions"`
	Pipes     []PipeSegment `json:"pipes"`
	Buildings []Building    `json:"buildings"`
	PlantIdx  int           `json:"plant_idx"`

	junctionIdx map[string]int
	adjacent    map[int][]int // junction idx -> incident pipe indices
}

func NewNetwork(id string) *Network {
	return &Network{
		ID:          id,
		PlantIdx:    -1,
		junctionIdx: map[string]int{},
		adjacent:    map[int][]int{},
	}
}

// AddJunction appends a junction and returns its index.
func (n *Network) AddJunction(j Junction) int {
	idx := len(n.Junctions)
	n.Junctions = append(n.Junctions, j)
	n.junctionIdx[j.ID] = idx
	if j.Role == RolePlant && n.PlantIdx < 0 {
		n.PlantIdx = idx
	}
	return idx
}

// AddPipe appends a pipe and indexes it on both endpoints.
func (n *Network) AddPipe(p PipeSegment) int {
	idx := len(n.Pipes)
	n.Pipes = append(n.Pipes, p)
	n.adjacent[p.From] = append(n.adjacent[p.From], idx)
	n.adjacent[p.To] = append(n.adjacent[p.To], idx)
	return idx
}

func (n *Network) AddBuilding(b Building) int {
	n.Buildings = append(n.Buildings, b)
	return len(n.Buildings) - 1
}

// JunctionIndex resolves a junction ID to its arena index.
func (n *Network) JunctionIndex(id string) (int, bool) {
	idx, ok := n.junctionIdx[id]
	return idx, ok
}

// IncidentPipes returns the indices of pipes touching junction j.
func (n *Network) IncidentPipes(j int) []int {
	return n.adjacent[j]
}

// Reindex rebuilds the internal lookup maps, e.g. after deserialization.
func (n *Network) Reindex() {
	n.junctionIdx = make(map[string]int, len(n.Junctions))
	n.adjacent = make(map[int][]int, len(n.Junctions))
	n.PlantIdx = -1
	for i, j := range n.Junctions {
		n.junctionIdx[j.ID] = i
		if j.Role == RolePlant && n.PlantIdx < 0 {
			n.PlantIdx = i
		}
	}
	for i, p := range n.Pipes {
		n.adjacent[p.From] = append(n.adjacent[p.From], i)
		n.adjacent[p.To] = append(n.adjacent[p.To], i)
	}
}

// Clone returns a deep copy so resize iterations can work on scratch state.
func (n *Network) Clone() *Network {
	out := NewNetwork(n.ID)
	out.Junctions = append([]Junction(nil), n.Junctions...)
	out.Buildings = make([]Building, len(n.Buildings))
	for i, b := range n.Buildings {
		cb := b
		cb.DemandW = append([]float64(nil), b.DemandW...)
		out.Buildings[i] = cb
	}
	for _, p := range n.Pipes {
		out.Pipes = append(out.Pipes, p)
	}
	out.Reindex()
	return out
}

// FluidProperties of the heat carrier.
type FluidProperties struct {
	SpecificHeatJKgK float64 `json:"specific_heat_j_kg_k"`
	DensityKgM3      float64 `json:"density_kg_m3"`
	KinViscosityM2S  float64 `json:"kinematic_viscosity_m2_s"`
}

// HierarchyLevel is one ordered flow band. Bands must cover the flow axis
// without overlap or gaps; MaxFlowKgS of one band equals MinFlowKgS of the
// next (half-open intervals [min, max)).
type HierarchyLevel struct {
	Category           Category `json:"category"`
	MinFlowKgS         float64  `json:"min_flow_kg_s"`
	MaxFlowKgS         float64  `json:"max_flow_kg_s"` // <=0 means unbounded
	MinVelocityMS      float64  `json:"min_velocity_m_s"`
	MaxVelocityMS      float64  `json:"max_velocity_m_s"`
	MaxPressureDropPaM float64  `json:"max_pressure_drop_pa_m"`
	MinDiameterMM      float64  `json:"min_diameter_mm"`
	MaxDiameterMM      float64  `json:"max_diameter_mm"`
}

// Contains reports whether flow falls inside this band.
func (h HierarchyLevel) Contains(flow float64) bool {
	if flow < h.MinFlowKgS {
		return false
	}
	return h.MaxFlowKgS <= 0 || flow < h.MaxFlowKgS
}

// Violation is one failed check against one rule set. Never silently
// dropped: every violation ends up in the compliance report.
type Violation struct {
	PipeID     string   `json:"pipe_id"`
	StandardID string   `json:"standard_id"`
	Check      string   `json:"check"`
	Measured   float64  `json:"measured"`
	Limit      float64  `json:"limit"`
	Severity   Severity `json:"severity"`
	Detail     string   `json:"detail,omitempty"`
}

// ComplianceResult is the per-pipe, per-standard verdict.
type ComplianceResult struct {
	PipeID     string      `json:"pipe_id"`
	StandardID string      `json:"standard_id"`
	Violations []Violation `json:"violations"`
	Passed     bool        `json:"passed"`
}

// ComplianceReport aggregates all checks for a sized or simulated network.
type ComplianceReport struct {
	Results         []ComplianceResult `json:"results"`
	PassedChecks    int                `json:"passed_checks"`
	TotalChecks     int                `json:"total_checks"`
	Score           float64            `json:"score"` // passed/total * 100
	Compliant       bool               `json:"compliant"`
	Recommendations []string           `json:"recommendations,omitempty"`
}

// Violations flattens all violations across results.
func (r *ComplianceReport) Violations() []Violation {
	var out []Violation
	for _, res := range r.Results {
		out = append(out, res.Violations...)
	}
	return out
}

// SizingResult is the per-pipe outcome of one sizing pass.
type SizingResult struct {
	PipeID          string  `json:"pipe_id"`
	IdealDiameterMM float64 `json:"ideal_diameter_mm"`
	DiameterMM      float64 `json:"diameter_mm"`
	VelocityMS      float64 `json:"velocity_m_s"`
	PressureDropPaM float64 `json:"pressure_drop_pa_m"`
	Reynolds        float64 `json:"reynolds"`
	Utilization     float64 `json:"utilization"` // ideal / selected
	CostEUR         float64 `json:"cost_eur"`
	// Violation is set when no in-range catalog diameter satisfied the
	// constraints and the largest in-range diameter was selected instead.
	Violation *Violation `json:"violation,omitempty"`
}

// SizingSummary is the rollup consumed by downstream comparison components.
type SizingSummary struct {
	TotalPipes    int                  `json:"total_pipes"`
	TotalLengthM  float64              `json:"total_length_m"`
	TotalCostEUR  float64              `json:"total_cost_eur"`
	ByCategory    map[Category]int     `json:"by_category"`
	ByDiameterMM  map[int]int          `json:"by_diameter_mm"`
	FlowByBand    map[Category]float64 `json:"flow_by_band,omitempty"`
	ExcludedCount int                  `json:"excluded_count,omitempty"`
}

// SizingRun tracks one sizing request through its lifecycle.
type SizingRun struct {
	RunID       string                 `json:"run_id"`
	UserID      string                 `json:"user_id"`
	NetworkID   string                 `json:"network_id"`
	Status      string                 `json:"status"`
	Iterations  int                    `json:"iterations"`
	FinalState  string                 `json:"final_state,omitempty"` // CONVERGED / FAILED / BUDGET_EXHAUSTED
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// CreateRunRequest represents data needed to open a new sizing run.
type CreateRunRequest struct {
	UserID    string
	NetworkID string
	Metadata  map[string]interface{}
}

// UpdateRunRequest carries partial updates to a sizing run.
type UpdateRunRequest struct {
	Status     *string
	FinalState *string
	Iterations *int
	Metadata   map[string]interface{}
}
