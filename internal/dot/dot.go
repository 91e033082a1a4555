// Package dot renders a graph's nodes and edges as Graphviz DOT text.
// Producing an image from the text is left to external tooling.
package dot

import (
	"fmt"
	"sort"
	"strings"
)

// Graph is any graph that can expose its nodes and edges.
type Graph interface {
	Nodes() []string
	Edges() [][2]string
}

// Marshal renders the graph as a named digraph. Nodes and edges are sorted so
// the output is byte-stable across runs.
func Marshal(g Graph, name string) []byte {
	nodes := append([]string{}, g.Nodes()...)
	sort.Strings(nodes)
	edges := append([][2]string{}, g.Edges()...)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", name)
	for _, n := range nodes {
		fmt.Fprintf(&b, "    %q\n", n)
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "    %q -> %q\n", e[0], e[1])
	}
	b.WriteString("}\n")
	return []byte(b.String())
}
