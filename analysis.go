package geompack

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/flywave/go3d/vec3"
)

// Edge is an undirected edge with the smaller vertex index first.
type Edge [2]uint32

func makeEdge(a, b uint32) Edge {
	if a > b {
		return Edge{b, a}
	}
	return Edge{a, b}
}

// Info summarises the geometry and topology of a mesh.
type Info struct {
	Vertices         int        `json:"vertices"`
	Faces            int        `json:"faces"`
	HasUVs           bool       `json:"has_uvs"`
	BoundsMin        [3]float64 `json:"bounds_min"`
	BoundsMax        [3]float64 `json:"bounds_max"`
	Extents          [3]float64 `json:"extents"`
	MaxExtent        float64    `json:"max_extent"`
	SurfaceArea      float64    `json:"surface_area"`
	Edges            int        `json:"edges"`
	OpenEdges        int        `json:"open_edges"`
	NonManifoldEdges int        `json:"non_manifold_edges"`
	OpenEdgeFaces    []int      `json:"open_edge_faces,omitempty"`
	DegenerateFaces  []int      `json:"degenerate_faces,omitempty"`
	Components       int        `json:"components"`
	Watertight       bool       `json:"watertight"`
}

// EdgeFaceCounts maps every undirected edge to the number of faces using it.
func EdgeFaceCounts(m *Mesh) map[Edge]int {
	counts := make(map[Edge]int, len(m.Faces)*3/2)
	for _, f := range m.Faces {
		counts[makeEdge(f[0], f[1])]++
		counts[makeEdge(f[1], f[2])]++
		counts[makeEdge(f[2], f[0])]++
	}
	return counts
}

// IsWatertight reports whether every edge is shared by exactly two faces.
func IsWatertight(m *Mesh) bool {
	if len(m.Faces) == 0 {
		return false
	}
	for _, c := range EdgeFaceCounts(m) {
		if c != 2 {
			return false
		}
	}
	return true
}

// OpenEdges returns the boundary edges, those used by a single face, sorted.
func OpenEdges(m *Mesh) []Edge {
	var open []Edge
	for e, c := range EdgeFaceCounts(m) {
		if c == 1 {
			open = append(open, e)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if open[i][0] != open[j][0] {
			return open[i][0] < open[j][0]
		}
		return open[i][1] < open[j][1]
	})
	return open
}

func triangleArea(v0, v1, v2 vec3.T) float64 {
	e1 := vec3.Sub(&v1, &v0)
	e2 := vec3.Sub(&v2, &v0)
	c := vec3.Cross(&e1, &e2)
	return float64(c.Length()) / 2
}

// DegenerateFaces returns the indices of faces with repeated vertex indices
// or an area at or below eps.
func DegenerateFaces(m *Mesh, eps float64) []int {
	var out []int
	for i, f := range m.Faces {
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			out = append(out, i)
			continue
		}
		if triangleArea(m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]) <= eps {
			out = append(out, i)
		}
	}
	return out
}

// ConnectedComponents labels each face with the index of the face-connected
// component it belongs to and returns the number of components.
func ConnectedComponents(m *Mesh) (labels []int, count int) {
	parent := make([]int, len(m.Vertices))
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, f := range m.Faces {
		union(int(f[0]), int(f[1]))
		union(int(f[1]), int(f[2]))
	}

	ids := make(map[int]int)
	labels = make([]int, len(m.Faces))
	for i, f := range m.Faces {
		root := find(int(f[0]))
		id, ok := ids[root]
		if !ok {
			id = len(ids)
			ids[root] = id
		}
		labels[i] = id
	}
	return labels, len(ids)
}

// Analyze computes the Info summary of a valid mesh.
func Analyze(m *Mesh) Info {
	info := Info{
		Vertices: len(m.Vertices),
		Faces:    len(m.Faces),
		HasUVs:   m.HasUVs(),
	}
	if len(m.Vertices) > 0 {
		box := m.Bounds()
		for i := 0; i < 3; i++ {
			info.BoundsMin[i] = box.Min[i]
			info.BoundsMax[i] = box.Max[i]
			info.Extents[i] = box.Max[i] - box.Min[i]
			info.MaxExtent = math.Max(info.MaxExtent, info.Extents[i])
		}
	}

	counts := EdgeFaceCounts(m)
	info.Edges = len(counts)
	open := make(map[Edge]bool)
	for e, c := range counts {
		switch {
		case c == 1:
			info.OpenEdges++
			open[e] = true
		case c > 2:
			info.NonManifoldEdges++
		}
	}
	for i, f := range m.Faces {
		info.SurfaceArea += triangleArea(m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]])
		if open[makeEdge(f[0], f[1])] || open[makeEdge(f[1], f[2])] || open[makeEdge(f[2], f[0])] {
			info.OpenEdgeFaces = append(info.OpenEdgeFaces, i)
		}
	}
	info.DegenerateFaces = DegenerateFaces(m, 1e-12)
	_, info.Components = ConnectedComponents(m)
	info.Watertight = len(m.Faces) > 0 && info.OpenEdges == 0 && info.NonManifoldEdges == 0
	return info
}

func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Vertices: %d\n", i.Vertices)
	fmt.Fprintf(&sb, "Faces: %d\n", i.Faces)
	fmt.Fprintf(&sb, "Edges: %d\n", i.Edges)
	fmt.Fprintf(&sb, "Bounds: [%.3f, %.3f, %.3f] - [%.3f, %.3f, %.3f]\n",
		i.BoundsMin[0], i.BoundsMin[1], i.BoundsMin[2], i.BoundsMax[0], i.BoundsMax[1], i.BoundsMax[2])
	fmt.Fprintf(&sb, "Extents: [%.3f, %.3f, %.3f]\n", i.Extents[0], i.Extents[1], i.Extents[2])
	fmt.Fprintf(&sb, "Surface area: %.4f\n", i.SurfaceArea)
	fmt.Fprintf(&sb, "Watertight: %t\n", i.Watertight)
	fmt.Fprintf(&sb, "Open edges: %d (%d faces)\n", i.OpenEdges, len(i.OpenEdgeFaces))
	fmt.Fprintf(&sb, "Non-manifold edges: %d\n", i.NonManifoldEdges)
	fmt.Fprintf(&sb, "Degenerate faces: %d\n", len(i.DegenerateFaces))
	fmt.Fprintf(&sb, "Components: %d\n", i.Components)
	fmt.Fprintf(&sb, "UVs: %t", i.HasUVs)
	return sb.String()
}
