// Package mesh turns a carved volume into surface meshes: one cube per kept
// voxel for PLY, and a greedy-merged triangle mesh for GLB and STL.
package mesh

import "math"

type Vertex struct {
	Position [3]float32
	Color    [3]uint8
}

// Mesh is an indexed triangle list in world space.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Triangles returns the number of triangles.
func (m *Mesh) Triangles() int { return len(m.Indices) / 3 }

// Positions returns the vertex positions.
func (m *Mesh) Positions() [][3]float32 {
	out := make([][3]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		out[i] = v.Position
	}
	return out
}

// Colors returns the vertex colors with an opaque alpha channel.
func (m *Mesh) Colors() [][4]uint8 {
	out := make([][4]uint8, len(m.Vertices))
	for i, v := range m.Vertices {
		out[i] = [4]uint8{v.Color[0], v.Color[1], v.Color[2], 255}
	}
	return out
}

// FlatNormals computes one normal per triangle and assigns it to the
// triangle's vertices. Quads never share vertices, so every vertex gets the
// normal of its face.
func (m *Mesh) FlatNormals() [][3]float32 {
	normals := make([][3]float32, len(m.Vertices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		v0, v1, v2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		p0, p1, p2 := m.Vertices[v0].Position, m.Vertices[v1].Position, m.Vertices[v2].Position
		e1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
		e2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}
		n := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		if l := float32(math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]))); l > 0 {
			n[0] /= l
			n[1] /= l
			n[2] /= l
		}
		normals[v0], normals[v1], normals[v2] = n, n, n
	}
	return normals
}
