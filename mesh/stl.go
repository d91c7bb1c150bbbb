package mesh

import (
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ToTriangles converts the mesh to sdfx triangles, dropping color.
func (m *Mesh) ToTriangles() []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, m.Triangles())
	vec := func(i uint32) v3.Vec {
		p := m.Vertices[i].Position
		return v3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		out = append(out, &sdf.Triangle3{vec(m.Indices[i]), vec(m.Indices[i+1]), vec(m.Indices[i+2])})
	}
	return out
}

// SaveSTL writes the mesh as a binary STL.
func SaveSTL(m *Mesh, path string) error {
	return render.SaveSTL(path, m.ToTriangles())
}
