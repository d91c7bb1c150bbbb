package mesh

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deadsy/sdfx/render"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxelsplace/carve/volume"
)

func cube2(t *testing.T) *volume.Volume {
	t.Helper()
	v, err := volume.New(1, r3.Vec{X: 0, Y: 2, Z: 0}, r3.Vec{X: 2, Y: 0, Z: -2})
	require.NoError(t, err)
	return v
}

// single keeps only voxel (0,0,0).
func single(t *testing.T, c volume.Color) *volume.Volume {
	v := cube2(t)
	for i := 1; i < v.Len(); i++ {
		x, y, z := v.Coords(i)
		v.Get(x, y, z).Carve()
	}
	v.Get(0, 0, 0).SetColor(c)
	return v
}

func TestWritePLYSingleCube(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePLY(&buf, single(t, volume.Color{R: 0.2, G: 0.4, B: 0.6})))

	want := `ply
format ascii 1.0
element vertex 8
property float x
property float y
property float z
property uchar diffuse_red
property uchar diffuse_green
property uchar diffuse_blue
element face 6
property list uchar int vertex_indices
end_header
0 1 -1 51 102 153
1 1 -1 51 102 153
0 2 -1 51 102 153
1 2 -1 51 102 153
0 1 0 51 102 153
1 1 0 51 102 153
0 2 0 51 102 153
1 2 0 51 102 153
4 6 7 3 2
4 4 5 1 0
4 5 1 3 7
4 4 0 2 6
4 4 5 7 6
4 0 1 3 2
`
	assert.Equal(t, want, buf.String())
}

func TestWritePLYStates(t *testing.T) {
	v := cube2(t)
	v.Get(1, 0, 0).Carve()
	v.Get(0, 1, 1).Carve()
	v.Get(1, 1, 1).SetColor(volume.Color{R: 0.8, G: 0.8, B: 0.8})

	var buf bytes.Buffer
	require.NoError(t, WritePLY(&buf, v))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Contains(t, lines, "element vertex 48")
	assert.Contains(t, lines, "element face 36")

	body := lines[12:]
	require.Len(t, body, 48+36)
	var magenta, gray int
	for _, l := range body[:48] {
		switch {
		case strings.HasSuffix(l, " 255 0 255"):
			magenta++
		case strings.HasSuffix(l, " 204 204 204"):
			gray++
		}
	}
	assert.Equal(t, 40, magenta)
	assert.Equal(t, 8, gray)
	assert.Equal(t, "4 46 47 43 42", body[48+30])
}

func TestWritePLYEmptyVolume(t *testing.T) {
	v := cube2(t)
	for i := 0; i < v.Len(); i++ {
		x, y, z := v.Coords(i)
		v.Get(x, y, z).Carve()
	}
	path := filepath.Join(t.TempDir(), "empty.ply")
	require.NoError(t, SavePLY(v, path))
	assert.Empty(t, Cubes(v))
}

func TestGreedyMergesUniformBlock(t *testing.T) {
	v := cube2(t)
	for i := 0; i < v.Len(); i++ {
		x, y, z := v.Coords(i)
		v.Get(x, y, z).SetColor(volume.Color{R: 1})
	}
	m := Greedy(v)
	assert.Len(t, m.Vertices, 24)
	assert.Equal(t, 12, m.Triangles())

	lo, hi := bounds(m)
	assert.Equal(t, [3]float32{0, 0, -2}, lo)
	assert.Equal(t, [3]float32{2, 2, 0}, hi)
	for _, vx := range m.Vertices {
		assert.Equal(t, [3]uint8{255, 0, 0}, vx.Color)
	}
}

func TestGreedyKeepsColorsApart(t *testing.T) {
	v := cube2(t)
	for i := 0; i < v.Len(); i++ {
		x, y, z := v.Coords(i)
		c := volume.Color{R: 1}
		if x == 1 {
			c = volume.Color{B: 1}
		}
		v.Get(x, y, z).SetColor(c)
	}
	m := Greedy(v)
	// x faces stay whole, the other four split in two
	assert.Equal(t, 2*(2+4*2), m.Triangles())
}

func TestGreedyNormalsPointOutwards(t *testing.T) {
	m := Greedy(single(t, volume.Color{G: 1}))
	require.Equal(t, 12, m.Triangles())
	center := [3]float32{0.5, 1.5, -0.5}
	normals := m.FlatNormals()
	for i := 0; i < len(m.Indices); i += 3 {
		var fc [3]float32
		for _, idx := range m.Indices[i : i+3] {
			for a := 0; a < 3; a++ {
				fc[a] += m.Vertices[idx].Position[a] / 3
			}
		}
		n := normals[m.Indices[i]]
		dot := n[0]*(fc[0]-center[0]) + n[1]*(fc[1]-center[1]) + n[2]*(fc[2]-center[2])
		assert.Greater(t, dot, float32(0), "triangle %d", i/3)
	}
}

func bounds(m *Mesh) (lo, hi [3]float32) {
	lo, hi = m.Vertices[0].Position, m.Vertices[0].Position
	for _, v := range m.Vertices {
		for a := 0; a < 3; a++ {
			lo[a] = min(lo[a], v.Position[a])
			hi[a] = max(hi[a], v.Position[a])
		}
	}
	return lo, hi
}

func TestEncodeGLB(t *testing.T) {
	m := Greedy(single(t, volume.Color{G: 1}))
	var buf bytes.Buffer
	require.NoError(t, EncodeGLB(&buf, "test", Node{Name: "a", Mesh: m}, Node{Name: "empty", Mesh: &Mesh{}, Translation: [3]float64{2, 0, 0}}))

	doc := new(gltf.Document)
	require.NoError(t, gltf.NewDecoder(bytes.NewReader(buf.Bytes())).Decode(doc))
	assert.Equal(t, "test", doc.Asset.Generator)
	require.Len(t, doc.Nodes, 2)
	require.Len(t, doc.Meshes, 1)
	assert.Nil(t, doc.Nodes[1].Mesh)
	assert.Equal(t, [3]float64{2, 0, 0}, doc.Nodes[1].Translation)

	prim := doc.Meshes[0].Primitives[0]
	pos, err := modeler.ReadPosition(doc, doc.Accessors[prim.Attributes[gltf.POSITION]], nil)
	require.NoError(t, err)
	assert.Equal(t, m.Positions(), pos)
	colors, err := modeler.ReadColor(doc, doc.Accessors[prim.Attributes[gltf.COLOR_0]], nil)
	require.NoError(t, err)
	assert.Equal(t, [4]uint8{0, 255, 0, 255}, colors[0])
}

func TestSaveSTL(t *testing.T) {
	m := Greedy(single(t, volume.Color{G: 1}))
	path := filepath.Join(t.TempDir(), "cube.stl")
	require.NoError(t, SaveSTL(m, path))

	tris, err := render.LoadSTL(path)
	require.NoError(t, err)
	assert.Len(t, tris, 12)
}

func TestFrameNodes(t *testing.T) {
	v := cube2(t)
	pack := volume.NewPack(v)
	_, err := FrameNodes(pack)
	assert.Error(t, err, "empty pack")

	for i := 0; i < 5; i++ {
		require.NoError(t, pack.Add(string(rune('a'+i)), v))
		x, y, z := v.Coords(i)
		v.Get(x, y, z).Carve()
	}
	nodes, err := FrameNodes(pack)
	require.NoError(t, err)
	require.Len(t, nodes, 5)
	// three columns of 2-unit wide volumes
	assert.Equal(t, [3]float64{4, 0, 0}, nodes[2].Translation)
	assert.Equal(t, [3]float64{0, 0, 2}, nodes[3].Translation)
	assert.Equal(t, "d", nodes[3].Name)
	assert.Greater(t, nodes[0].Mesh.Triangles(), 0)
}
