package framegraph

import (
	"fmt"
	"io"
	"strings"
)

// Stats summarizes the current frame.
type Stats struct {
	Passes          int // declared passes, including present passes
	CulledPasses    int
	Resources       int // logical resources, including forwarded ones
	CulledResources int // resources no surviving pass accesses
	ResourceNodes   int // versions across all resources
	Edges           int
	ArenaBytes      int
}

// Stats returns counters for the current frame. Culling counters reflect
// the last Compile.
func (fg *FrameGraph) Stats() Stats {
	s := Stats{
		Passes:        len(fg.arena.passes),
		Resources:     len(fg.arena.resources),
		ResourceNodes: len(fg.arena.nodes),
		Edges:         fg.graph.EdgeCount(),
		ArenaBytes:    fg.arena.used,
	}
	if !fg.compiled {
		return s
	}
	for i := range fg.arena.passes {
		if fg.graph.IsCulled(fg.arena.passes[i].gid) {
			s.CulledPasses++
		}
	}
	for _, r := range fg.arena.resources {
		if b := r.base(); b.refs == 0 && b.forwardedTo < 0 {
			s.CulledResources++
		}
	}
	return s
}

// WriteGraphviz writes the dependency graph of the current frame in DOT
// format. Passes are orange and resource versions blue; culled nodes are
// drawn dark and their edges dashed. Compile first to see culling.
func (fg *FrameGraph) WriteGraphviz(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("digraph \"framegraph\" {\n")
	sb.WriteString("rankdir = LR\n")
	sb.WriteString("bgcolor = white\n")
	sb.WriteString("node [shape=rectangle, fontname=\"helvetica\", fontsize=10]\n\n")

	for i := range fg.arena.passes {
		p := &fg.arena.passes[i]
		culled := fg.graph.IsCulled(p.gid)
		color := "darkorange"
		if culled {
			color = "darkorange4"
		}
		fmt.Fprintf(&sb, "\"N%d\" [label=\"%s\\nrefs: %d, id: %d\", style=filled, fillcolor=%s]\n",
			p.gid, escapeDOT(p.name), fg.graph.RefCount(p.gid), p.id, color)
	}

	sb.WriteString("\n")
	for i := range fg.arena.nodes {
		n := &fg.arena.nodes[i]
		r := fg.arena.resources[fg.resolve(n.rid)]
		b := r.base()
		color := "skyblue"
		if fg.graph.IsCulled(n.gid) {
			color = "skyblue4"
		}
		fmt.Fprintf(&sb, "\"N%d\" [label=\"%s\\nrefs: %d, id: %d\\nversion: %d, imported: %t\\nusage: 0x%x\", style=filled, fillcolor=%s]\n",
			n.gid, escapeDOT(b.name), fg.graph.RefCount(n.gid), b.id, n.version, b.imported,
			r.usageBits(), color)
	}

	sb.WriteString("\n")
	for _, e := range fg.graph.Edges() {
		style := "solid"
		if fg.graph.IsCulled(e.From) || fg.graph.IsCulled(e.To) {
			style = "dashed"
		}
		fmt.Fprintf(&sb, "\"N%d\" -> \"N%d\" [style=%s]\n", e.From, e.To, style)
	}
	sb.WriteString("}\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeDOT(s string) string {
	return dotEscaper.Replace(s)
}
