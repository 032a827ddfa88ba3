// Package export renders a network as Graphviz DOT for quick inspection of
// topology and sizing state.
package export

import (
	"fmt"
	"strings"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
)

func ToDOT(net *domain.Network, title string) string {
	var b strings.Builder
	b.WriteString("graph G {\n  layout=neato;\n  node [shape=circle, fontsize=10];\n")
	if title != "" {
		b.WriteString(fmt.Sprintf(`  labelloc="t"; label="%s"; fontname="Helvetica";`, title))
		b.WriteString("\n")
	}

	served := map[string]bool{}
	for _, bl := range net.Buildings {
		served[bl.JunctionID] = true
	}

	for _, j := range net.Junctions {
		style := `style="filled",fillcolor="#eef6ff"`
		switch {
		case j.Role == domain.RolePlant:
			style = `shape=doublecircle,style="filled",fillcolor="#ffd6d6"`
		case served[j.ID]:
			style = `shape=house,style="filled",fillcolor="#e2f0d9"`
		}
		b.WriteString(fmt.Sprintf(`  "%s" [%s];`+"\n", j.ID, style))
	}

	for _, p := range net.Pipes {
		lbl := fmt.Sprintf("%s\\n%.0fm", p.ID, p.LengthM)
		if p.DiameterMM > 0 {
			lbl = fmt.Sprintf("%s\\nDN%.0f %.2fkg/s", lbl, p.DiameterMM, p.FlowKgS)
		}
		b.WriteString(fmt.Sprintf(`  "%s" -- "%s" [label="%s", fontsize=8];`+"\n",
			net.Junctions[p.From].ID, net.Junctions[p.To].ID, lbl))
	}

	b.WriteString("}\n")
	return b.String()
}
