package mapper

import (
	"strings"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/ingest/parser"
)

const defaultRoughnessMM = 0.05 // welded steel, district heating grade

// ToNetwork maps the parsed file onto the domain arena, validating every
// cross-reference. Malformed input is a DataError naming the entity.
func ToNetwork(y *parser.YNetwork) (*domain.Network, error) {
	id := y.ID
	if id == "" {
		id = "network"
	}
	net := domain.NewNetwork(id)

	seen := map[string]bool{}
	for _, j := range y.Junctions {
		if j.ID == "" {
			return nil, domain.NewDataError(id, "junction with empty id")
		}
		if seen[j.ID] {
			return nil, domain.NewDataError(j.ID, "duplicate junction id")
		}
		seen[j.ID] = true
		net.AddJunction(domain.Junction{
			ID:   j.ID,
			X:    j.X,
			Y:    j.Y,
			Role: roleOf(j.Role),
		})
	}
	if net.PlantIdx < 0 {
		return nil, domain.NewDataError(id, "no junction with role plant")
	}

	for _, p := range y.Pipes {
		from, ok := net.JunctionIndex(p.From)
		if !ok {
			return nil, domain.NewDataError(p.ID, "unknown from-junction %q", p.From)
		}
		to, ok := net.JunctionIndex(p.To)
		if !ok {
			return nil, domain.NewDataError(p.ID, "unknown to-junction %q", p.To)
		}
		if p.LengthM <= 0 {
			return nil, domain.NewDataError(p.ID, "pipe length must be positive, got %g", p.LengthM)
		}
		rough := p.RoughnessMM
		if rough <= 0 {
			rough = defaultRoughnessMM
		}
		net.AddPipe(domain.PipeSegment{
			ID:          p.ID,
			From:        from,
			To:          to,
			LengthM:     p.LengthM,
			RoughnessMM: rough,
		})
	}

	for _, b := range y.Buildings {
		if _, ok := net.JunctionIndex(b.Junction); !ok {
			return nil, domain.NewDataError(b.ID, "unknown service junction %q", b.Junction)
		}
		demand := b.DemandW
		if len(demand) == 0 && b.ConstantLoadW > 0 {
			hours := b.Hours
			if hours <= 0 {
				hours = 8760
			}
			demand = make([]float64, hours)
			for i := range demand {
				demand[i] = b.ConstantLoadW
			}
		}
		net.AddBuilding(domain.Building{
			ID:         b.ID,
			JunctionID: b.Junction,
			DemandW:    demand,
		})
	}
	return net, nil
}

func roleOf(s string) domain.JunctionRole {
	switch strings.ToLower(s) {
	case "plant":
		return domain.RolePlant
	case "building":
		return domain.RoleBuilding
	default:
		return domain.RoleBranch
	}
}
