// Package topology validates the junction/pipe graph and aggregates
// building design flows along their paths to the plant.
package topology

import (
	"container/heap"
	"fmt"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
)

// Options controls graph validation policy.
type Options struct {
	// AssumeTree makes cycles a hard InvalidTopologyError; otherwise a
	// shortest-path tree (by pipe length) is constructed first.
	AssumeTree bool
	// ExcludeUnreachable downgrades unreachable buildings from a hard
	// UnreachableBuildingError to exclude-and-warn.
	ExcludeUnreachable bool
}

// Tree is the flow tree rooted at the plant. ParentPipe[j] is the pipe used
// to reach junction j from the plant (-1 for the plant itself and for
// unreached junctions).
type Tree struct {
	ParentPipe        []int
	Order             []int // junctions in visit order from the plant
	Reached           []bool
	ExcludedBuildings []string
	Warnings          []string
}

// Build verifies connectivity and constructs the flow tree. For tree
// topologies a plain BFS is used and any extra edge is a cycle; for general
// graphs Dijkstra over pipe lengths picks the delivery path per junction.
func Build(net *domain.Network, opts Options) (*Tree, error) {
	if net.PlantIdx < 0 {
		return nil, domain.NewDataError(net.ID, "network has no plant junction")
	}

	var t *Tree
	var err error
	if opts.AssumeTree {
		t, err = buildBFS(net)
	} else {
		t, err = buildShortestPath(net)
	}
	if err != nil {
		return nil, err
	}

	for _, b := range net.Buildings {
		j, ok := net.JunctionIndex(b.JunctionID)
		if !ok {
			return nil, domain.NewDataError(b.ID, "service junction %q does not exist", b.JunctionID)
		}
		if t.Reached[j] {
			continue
		}
		if !opts.ExcludeUnreachable {
			return nil, &domain.UnreachableBuildingError{BuildingID: b.ID}
		}
		t.ExcludedBuildings = append(t.ExcludedBuildings, b.ID)
		t.Warnings = append(t.Warnings,
			fmt.Sprintf("building %s excluded: no path to the plant", b.ID))
	}
	return t, nil
}

func buildBFS(net *domain.Network) (*Tree, error) {
	n := len(net.Junctions)
	t := &Tree{
		ParentPipe: make([]int, n),
		Reached:    make([]bool, n),
	}
	for i := range t.ParentPipe {
		t.ParentPipe[i] = -1
	}

	queue := []int{net.PlantIdx}
	t.Reached[net.PlantIdx] = true
	for len(queue) > 0 {
		j := queue[0]
		queue = queue[1:]
		t.Order = append(t.Order, j)

		for _, pi := range net.IncidentPipes(j) {
			p := net.Pipes[pi]
			next := p.To
			if next == j {
				next = p.From
			}
			if t.Reached[next] {
				if pi != t.ParentPipe[j] {
					return nil, &domain.InvalidTopologyError{
						Detail: fmt.Sprintf("pipe %s closes a cycle in a tree topology", p.ID),
						Nodes:  []string{net.Junctions[p.From].ID, net.Junctions[p.To].ID},
					}
				}
				continue
			}
			t.Reached[next] = true
			t.ParentPipe[next] = pi
			queue = append(queue, next)
		}
	}
	return t, nil
}

// pqItem is a lazy-decrease-key entry for the Dijkstra heap.
type pqItem struct {
	junction int
	dist     float64
}

type pq []pqItem

func (q pq) Len() int            { return len(q) }
func (q pq) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q pq) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *pq) Push(x any)         { *q = append(*q, x.(pqItem)) }
func (q *pq) Pop() any           { old := *q; it := old[len(old)-1]; *q = old[:len(old)-1]; return it }

func buildShortestPath(net *domain.Network) (*Tree, error) {
	n := len(net.Junctions)
	t := &Tree{
		ParentPipe: make([]int, n),
		Reached:    make([]bool, n),
	}
	dist := make([]float64, n)
	for i := range t.ParentPipe {
		t.ParentPipe[i] = -1
		dist[i] = -1
	}

	q := &pq{{junction: net.PlantIdx, dist: 0}}
	dist[net.PlantIdx] = 0
	for q.Len() > 0 {
		it := heap.Pop(q).(pqItem)
		j := it.junction
		if t.Reached[j] {
			continue // stale heap entry
		}
		t.Reached[j] = true
		t.Order = append(t.Order, j)

		for _, pi := range net.IncidentPipes(j) {
			p := net.Pipes[pi]
			if p.LengthM < 0 {
				return nil, domain.NewDataError(p.ID, "negative pipe length %g", p.LengthM)
			}
			next := p.To
			if next == j {
				next = p.From
			}
			nd := it.dist + p.LengthM
			if dist[next] < 0 || nd < dist[next] {
				dist[next] = nd
				t.ParentPipe[next] = pi
				heap.Push(q, pqItem{junction: next, dist: nd})
			}
		}
	}

	inTree := make(map[int]bool, n)
	for _, pi := range t.ParentPipe {
		if pi >= 0 {
			inTree[pi] = true
		}
	}
	for pi, p := range net.Pipes {
		if !inTree[pi] && t.Reached[p.From] && t.Reached[p.To] {
			t.Warnings = append(t.Warnings,
				fmt.Sprintf("pipe %s is outside the delivery tree; aggregated flow set to zero", p.ID))
		}
	}
	return t, nil
}

// Aggregate computes, for every pipe, the sum of design flows of all
// buildings whose path to the plant traverses it. Processing junctions in
// reverse visit order makes this a single bottom-up pass.
func Aggregate(net *domain.Network, t *Tree) error {
	for i := range net.Pipes {
		net.Pipes[i].FlowKgS = 0
	}

	excluded := make(map[string]bool, len(t.ExcludedBuildings))
	for _, id := range t.ExcludedBuildings {
		excluded[id] = true
	}

	local := make([]float64, len(net.Junctions))
	for _, b := range net.Buildings {
		if excluded[b.ID] {
			continue
		}
		j, ok := net.JunctionIndex(b.JunctionID)
		if !ok {
			return domain.NewDataError(b.ID, "service junction %q does not exist", b.JunctionID)
		}
		local[j] += b.DesignFlowKgS
	}

	subtree := make([]float64, len(net.Junctions))
	for i := len(t.Order) - 1; i >= 0; i-- {
		j := t.Order[i]
		subtree[j] += local[j]
		pi := t.ParentPipe[j]
		if pi < 0 {
			continue
		}
		net.Pipes[pi].FlowKgS = subtree[j]
		p := net.Pipes[pi]
		parent := p.From
		if parent == j {
			parent = p.To
		}
		subtree[parent] += subtree[j]
	}
	return nil
}

// ValidateBands checks that hierarchy bands are ascending, non-overlapping
// and gap-free, with the last band unbounded.
func ValidateBands(bands []domain.HierarchyLevel) error {
	if len(bands) == 0 {
		return domain.NewConfigurationError("hierarchy_levels", "no bands configured")
	}
	prev := 0.0
	for i, b := range bands {
		if b.MinFlowKgS != prev {
			return domain.NewConfigurationError("hierarchy_levels",
				"band %s starts at %g, expected %g (bands must be contiguous)", b.Category, b.MinFlowKgS, prev)
		}
		last := i == len(bands)-1
		if last {
			if b.MaxFlowKgS > 0 {
				return domain.NewConfigurationError("hierarchy_levels",
					"last band %s must be unbounded", b.Category)
			}
			continue
		}
		if b.MaxFlowKgS <= b.MinFlowKgS {
			return domain.NewConfigurationError("hierarchy_levels",
				"band %s has empty flow range", b.Category)
		}
		prev = b.MaxFlowKgS
	}
	return nil
}

// Classify assigns each pipe a hierarchy level from its aggregated flow.
// Band coverage is validated first, so every flow maps to exactly one band.
func Classify(net *domain.Network, bands []domain.HierarchyLevel) error {
	if err := ValidateBands(bands); err != nil {
		return err
	}
	for i := range net.Pipes {
		p := &net.Pipes[i]
		assigned := false
		for _, b := range bands {
			if b.Contains(p.FlowKgS) {
				p.Category = b.Category
				assigned = true
				break
			}
		}
		if !assigned {
			// ValidateBands guarantees coverage of [0, inf); only negative
			// flow can get here.
			return domain.NewDataError(p.ID, "aggregated flow %g outside all hierarchy bands", p.FlowKgS)
		}
	}
	return nil
}
