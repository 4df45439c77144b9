package filtergraph

import (
	"fmt"
	"strings"
)

// Pad is a stream label such as "0:v" or "bg". Render adds the brackets.
type Pad string

func (p Pad) String() string { return "[" + string(p) + "]" }

type chain struct {
	inputs  []Pad
	filters []Filter
	output  Pad
}

// Graph is an ordered list of labelled filter chains. It is rendered to text
// exactly once, by String.
type Graph struct {
	chains []chain
	seq    map[string]int
}

// Label returns a fresh pad label with the given prefix.
func (g *Graph) Label(prefix string) Pad {
	if g.seq == nil {
		g.seq = make(map[string]int)
	}
	n := g.seq[prefix]
	g.seq[prefix] = n + 1
	return Pad(fmt.Sprintf("%s%d", prefix, n))
}

// Chain appends a chain reading inputs, applying filters in order, and
// writing output. It returns output for chaining.
func (g *Graph) Chain(inputs []Pad, output Pad, filters ...Filter) Pad {
	if len(filters) == 0 {
		filters = []Filter{Null{}}
	}
	g.chains = append(g.chains, chain{
		inputs:  append([]Pad(nil), inputs...),
		filters: append([]Filter(nil), filters...),
		output:  output,
	})
	return output
}

// Len reports the number of chains.
func (g *Graph) Len() int { return len(g.chains) }

// String renders the graph in ffmpeg -filter_complex syntax.
func (g *Graph) String() string {
	parts := make([]string, 0, len(g.chains))
	for _, c := range g.chains {
		var b strings.Builder
		for _, in := range c.inputs {
			b.WriteString(in.String())
		}
		for i, f := range c.filters {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(f.Render())
		}
		b.WriteString(c.output.String())
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ";")
}
