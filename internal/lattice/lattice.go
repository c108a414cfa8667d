// Package lattice implements component D: the row-major index/(x,y) mapping
// and the distance metric overlay constraints are checked against. Distance
// is computed as an unweighted breadth-first search over a grid graph built
// with github.com/katalvlaran/lvlath, rather than a hand-rolled Manhattan
// formula, so an obstructed or non-rectangular lattice would fall out of the
// same code path without a rewrite.
package lattice

import (
	"fmt"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/gridgraph"
)

// Lattice is the (cols, rows) grid a workspace's qubits and semantic fields
// are laid out on. It is immutable once built.
type Lattice struct {
	cols, rows int
	grid       *gridgraph.GridGraph
	graph      *core.Graph
}

// New builds a Lattice for a cols×rows grid. Every cell is land (value 1)
// with Conn4 connectivity: the DSL has no notion of obstructed cells, so the
// grid graph is fully connected and BFS distance reduces to Manhattan
// distance, but goes through the real graph machinery rather than assuming
// that reduction in the caller.
func New(cols, rows int) (*Lattice, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("lattice: cols and rows must be positive, got (%d,%d)", cols, rows)
	}
	values := make([][]int, rows)
	for y := range values {
		row := make([]int, cols)
		for x := range row {
			row[x] = 1
		}
		values[y] = row
	}
	grid, err := gridgraph.NewGridGraph(values, gridgraph.GridOptions{LandThreshold: 1, Conn: gridgraph.Conn4})
	if err != nil {
		return nil, fmt.Errorf("lattice: %w", err)
	}

	// Build our own unweighted core.Graph rather than grid.ToCoreGraph,
	// which produces a weighted graph that bfs.BFS refuses to run on.
	g := core.NewGraph()
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			if err := g.AddVertex(vertexID(x, y)); err != nil {
				return nil, fmt.Errorf("lattice: %w", err)
			}
		}
	}
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			uID := vertexID(x, y)
			for _, d := range grid.NeighborOffsets() {
				nx, ny := x+d[0], y+d[1]
				if !grid.InBounds(nx, ny) {
					continue
				}
				if _, err := g.AddEdge(uID, vertexID(nx, ny), 0); err != nil {
					return nil, fmt.Errorf("lattice: %w", err)
				}
			}
		}
	}

	return &Lattice{cols: cols, rows: rows, grid: grid, graph: g}, nil
}

func vertexID(x, y int) string {
	return fmt.Sprintf("%d,%d", x, y)
}

// Cols and Rows report the grid dimensions.
func (l *Lattice) Cols() int { return l.cols }
func (l *Lattice) Rows() int { return l.rows }

// Coord maps a row-major qubit index to its (x,y) grid position.
func (l *Lattice) Coord(index int) (x, y int) {
	return index % l.cols, index / l.cols
}

// Distance returns the BFS hop count between two row-major indices, which on
// this fully-connected unobstructed grid equals their Manhattan distance.
func (l *Lattice) Distance(i, j int) (int, error) {
	if i == j {
		return 0, nil
	}
	xi, yi := l.Coord(i)
	xj, yj := l.Coord(j)
	startID := vertexID(xi, yi)
	result, err := bfs.BFS(l.graph, startID)
	if err != nil {
		return 0, fmt.Errorf("lattice: distance: %w", err)
	}
	depth, ok := result.Depth[vertexID(xj, yj)]
	if !ok {
		return 0, fmt.Errorf("lattice: distance: %s unreachable from %s", vertexID(xj, yj), startID)
	}
	return depth, nil
}
