package visualization

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/anggasct/stoplight"
	"github.com/anggasct/stoplight/pkg/core"
)

// DOTGenerator generates Graphviz DOT format representations of a route
// table: one node per route, one edge per pair of routes sharing a quadrant
type DOTGenerator struct {
	routes  *stoplight.RouteTable
	options DOTOptions
}

// DOTOptions configures the DOT generation
type DOTOptions struct {
	ShowSharedQuadrants bool
	ShowOrderConflicts  bool
	ShowQuadrants       bool
	CompactMode         bool
	RankDirection       string // "TB", "LR", "BT", "RL"
	NodeShape           string
	OverlapStyle        string
	ConflictColor       string
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		ShowSharedQuadrants: true,
		ShowOrderConflicts:  true,
		ShowQuadrants:       false,
		CompactMode:         false,
		RankDirection:       "LR",
		NodeShape:           "box",
		OverlapStyle:        "solid",
		ConflictColor:       "red",
	}
}

// NewDOTGenerator creates a new DOT generator for the given route table
func NewDOTGenerator(routes *stoplight.RouteTable, options ...DOTOptions) *DOTGenerator {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &DOTGenerator{
		routes:  routes,
		options: opts,
	}
}

// Generate creates a DOT representation of the route table
func (g *DOTGenerator) Generate() (string, error) {
	if g.routes == nil {
		return "", fmt.Errorf("no route table to render")
	}

	var dot strings.Builder

	dot.WriteString("graph RouteConflicts {\n")
	dot.WriteString(fmt.Sprintf("  rankdir=%s;\n", g.options.RankDirection))
	dot.WriteString(fmt.Sprintf("  node [shape=%s];\n", g.options.NodeShape))
	dot.WriteString("  edge [fontsize=10];\n\n")

	routes := g.routes.Routes()
	if len(routes) == 0 {
		return "", fmt.Errorf("route table is empty")
	}

	g.generateRoutes(&dot, routes)
	if g.options.ShowQuadrants {
		g.generateQuadrants(&dot, routes)
	}
	g.generateOverlaps(&dot, routes)

	dot.WriteString("}\n")

	return dot.String(), nil
}

// generateRoutes generates a node per route, coloured by maneuver
func (g *DOTGenerator) generateRoutes(dot *strings.Builder, routes []core.Route) {
	dot.WriteString("  // Routes\n")

	for _, route := range routes {
		label := route.Key()
		if !g.options.CompactMode {
			label += "\\n" + quadrantLabel(route.Quadrants)
		}

		dot.WriteString(fmt.Sprintf("  \"%s\" [style=\"filled\" fillcolor=%s label=\"%s\"];\n",
			route.Key(), maneuverColor(route.Maneuver), label))
	}
}

// generateQuadrants adds the four quadrants and links each route to them
func (g *DOTGenerator) generateQuadrants(dot *strings.Builder, routes []core.Route) {
	dot.WriteString("\n  // Quadrants\n")

	for _, q := range core.AllQuadrants {
		dot.WriteString(fmt.Sprintf("  \"%s\" [shape=circle style=\"filled\" fillcolor=lightgrey];\n", q))
	}
	for _, route := range routes {
		for i, q := range route.Quadrants {
			dot.WriteString(fmt.Sprintf("  \"%s\" -- \"%s\" [style=dotted label=\"%d\"];\n", route.Key(), q, i+1))
		}
	}
}

// generateOverlaps generates an edge per pair of routes sharing a quadrant.
// Pairs that take two shared quadrants in opposite order are highlighted.
func (g *DOTGenerator) generateOverlaps(dot *strings.Builder, routes []core.Route) {
	dot.WriteString("\n  // Overlaps\n")

	conflicting := make(map[[2]string]bool)
	if g.options.ShowOrderConflicts {
		for _, c := range g.routes.OrderConflicts() {
			conflicting[[2]string{c.A.Key(), c.B.Key()}] = true
		}
	}

	for i := 0; i < len(routes); i++ {
		for j := i + 1; j < len(routes); j++ {
			a, b := routes[i], routes[j]
			shared := stoplight.Overlap(a, b)
			if len(shared) == 0 {
				continue
			}

			attrs := []string{fmt.Sprintf("style=%s", g.options.OverlapStyle)}
			if g.options.ShowSharedQuadrants && !g.options.CompactMode {
				attrs = append(attrs, fmt.Sprintf("label=\"%s\"", quadrantLabel(shared)))
			}
			if conflicting[[2]string{a.Key(), b.Key()}] {
				attrs = append(attrs, fmt.Sprintf("color=%s", g.options.ConflictColor), "penwidth=2")
			}

			dot.WriteString(fmt.Sprintf("  \"%s\" -- \"%s\" [%s];\n", a.Key(), b.Key(), strings.Join(attrs, " ")))
		}
	}
}

func quadrantLabel(quadrants []core.Quadrant) string {
	names := make([]string, len(quadrants))
	for i, q := range quadrants {
		names[i] = q.String()
	}
	return strings.Join(names, ",")
}

func maneuverColor(m core.Maneuver) string {
	switch m {
	case core.Right:
		return "lightgreen"
	case core.Straight:
		return "lightblue"
	default:
		return "lightcoral"
	}
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}

	return os.WriteFile(filename, []byte(content), 0644)
}

// SVGGenerator generates SVG representations by calling Graphviz
type SVGGenerator struct {
	dotGenerator *DOTGenerator
}

// NewSVGGenerator creates a new SVG generator
func NewSVGGenerator(routes *stoplight.RouteTable, options ...DOTOptions) *SVGGenerator {
	return &SVGGenerator{
		dotGenerator: NewDOTGenerator(routes, options...),
	}
}

// Generate creates an SVG representation of the route table
func (g *SVGGenerator) Generate() (string, error) {
	dotContent, err := g.dotGenerator.Generate()
	if err != nil {
		return "", err
	}

	cmd := exec.Command("dot", "-Tsvg")
	cmd.Stdin = strings.NewReader(dotContent)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to execute dot command: %w (make sure Graphviz is installed)", err)
	}

	return out.String(), nil
}

// GenerateSVG creates an SVG representation of the route table
func (g *DOTGenerator) GenerateSVG() (string, error) {
	svgGen := &SVGGenerator{dotGenerator: g}
	return svgGen.Generate()
}
