package datastructure

// ConnectedComponents returns the node sets of the connected components of g, in order of their
// lowest node id. Nodes inside a component are in discovery order.
func (g *RoadGraph) ConnectedComponents() [][]Index {
	n := len(g.nodes)
	visited := make([]bool, n)
	components := make([][]Index, 0, 10)

	stack := make([]Index, 0, 64)
	for s := Index(0); s < Index(n); s++ {
		if visited[s] {
			continue
		}

		component := make([]Index, 0, 16)
		visited[s] = true
		stack = append(stack[:0], s)
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, u)

			g.ForEdgesOf(u, func(e *Edge, head Index) {
				if !visited[head] {
					visited[head] = true
					stack = append(stack, head)
				}
			})
		}
		components = append(components, component)
	}
	return components
}

// LargestComponent returns the subgraph induced by the component with the most nodes. On a tie
// the component found first wins.
func (g *RoadGraph) LargestComponent() *RoadGraph {
	components := g.ConnectedComponents()
	if len(components) == 0 {
		return NewRoadGraph(g.precision)
	}

	largest := 0
	for i, c := range components {
		if len(c) > len(components[largest]) {
			largest = i
		}
	}
	return g.Subgraph(components[largest])
}
