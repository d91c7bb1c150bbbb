package mesh

import "github.com/voxelsplace/carve/volume"

type dirSpec struct {
	normal [3]float32
	u, v   int
	du, dv [3]int
}

// directions are in grid index space, where +y and +z point away from the
// front-top-left corner.
var directions = []dirSpec{
	{[3]float32{1, 0, 0}, 1, 2, [3]int{0, 1, 0}, [3]int{0, 0, 1}},
	{[3]float32{-1, 0, 0}, 1, 2, [3]int{0, 1, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, 1, 0}, 0, 2, [3]int{1, 0, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, -1, 0}, 0, 2, [3]int{1, 0, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, 0, 1}, 0, 1, [3]int{1, 0, 0}, [3]int{0, 1, 0}},
	{[3]float32{0, 0, -1}, 0, 1, [3]int{1, 0, 0}, [3]int{0, 1, 0}},
}

// faceKey is 0 for empty cells, otherwise the 24-bit color plus one.
type faceKey uint32

func keyOf(vox volume.Voxel) faceKey {
	if !vox.IsPresent() {
		return 0
	}
	c := vox.DisplayColor().RGB8()
	return faceKey(uint32(c[0])<<16|uint32(c[1])<<8|uint32(c[2])) + 1
}

func (k faceKey) color() [3]uint8 {
	c := uint32(k - 1)
	return [3]uint8{uint8(c >> 16), uint8(c >> 8), uint8(c)}
}

type grid struct {
	vol  *volume.Volume
	dims [3]int
}

func (g grid) key(pos [3]int) faceKey {
	if !g.vol.InBounds(pos[0], pos[1], pos[2]) {
		return 0
	}
	return keyOf(g.vol.At(pos[0], pos[1], pos[2]))
}

// corner maps a lattice corner in index space to world space.
func (g grid) corner(c [3]int) [3]float32 {
	p := g.vol.CornerToPosition(float64(c[0]), float64(c[1]), float64(c[2]))
	return [3]float32{float32(p.X), float32(p.Y), float32(p.Z)}
}

func (g grid) addQuad(mesh *Mesh, dir dirSpec, start [3]int, w, h int, key faceKey, perp int) {
	var base [3]int
	base[perp] = start[0]
	if dir.normal[perp] > 0 {
		base[perp]++
	}
	base[dir.u] = start[1]
	base[dir.v] = start[2]

	corners := [4][3]int{base, base, base, base}
	for i := 0; i < 3; i++ {
		corners[1][i] += dir.du[i] * h
		corners[2][i] += dir.du[i]*h + dir.dv[i]*w
		corners[3][i] += dir.dv[i] * w
	}
	// du×dv is +x, -y or +z; flip quads facing the other way
	if (dir.normal[perp] < 0) != (perp == 1) {
		corners[1], corners[3] = corners[3], corners[1]
	}

	color := key.color()
	baseIdx := uint32(len(mesh.Vertices))
	for _, c := range corners {
		mesh.Vertices = append(mesh.Vertices, Vertex{Position: g.corner(c), Color: color})
	}
	mesh.Indices = append(mesh.Indices, baseIdx, baseIdx+1, baseIdx+2, baseIdx, baseIdx+2, baseIdx+3)
}

// Greedy builds a surface mesh of the kept voxels, merging coplanar
// neighbor faces of equal 8-bit color into rectangles. The index to world
// map keeps handedness (it flips y and z), so the winding stays outward.
func Greedy(vol *volume.Volume) *Mesh {
	mesh := &Mesh{}
	g := grid{vol: vol, dims: [3]int{vol.Width, vol.Height, vol.Depth}}
	dims := g.dims

	for _, dir := range directions {
		perp := 3 - dir.u - dir.v

		mask := make([][]faceKey, dims[dir.u])
		visited := make([][]bool, dims[dir.u])
		for i := range mask {
			mask[i] = make([]faceKey, dims[dir.v])
			visited[i] = make([]bool, dims[dir.v])
		}

		for p := 0; p < dims[perp]; p++ {
			for u := 0; u < dims[dir.u]; u++ {
				clear(mask[u])
				clear(visited[u])
				for v := 0; v < dims[dir.v]; v++ {
					var pos [3]int
					pos[dir.u] = u
					pos[dir.v] = v
					pos[perp] = p

					key := g.key(pos)
					if key == 0 {
						continue
					}
					adj := pos
					if dir.normal[perp] < 0 {
						adj[perp] = p - 1
					} else {
						adj[perp] = p + 1
					}
					if g.key(adj) == 0 {
						mask[u][v] = key
					}
				}
			}

			for u := 0; u < dims[dir.u]; u++ {
				for v := 0; v < dims[dir.v]; {
					if mask[u][v] == 0 || visited[u][v] {
						v++
						continue
					}
					key := mask[u][v]
					width := 1
					for w := v + 1; w < dims[dir.v] && mask[u][w] == key && !visited[u][w]; w++ {
						width++
					}
					height := 1
					stop := false
					for h := u + 1; h < dims[dir.u] && !stop; h++ {
						for w := v; w < v+width; w++ {
							if mask[h][w] != key || visited[h][w] {
								stop = true
								break
							}
						}
						if !stop {
							height++
						}
					}
					for hu := u; hu < u+height; hu++ {
						for hv := v; hv < v+width; hv++ {
							visited[hu][hv] = true
						}
					}
					g.addQuad(mesh, dir, [3]int{p, u, v}, width, height, key, perp)
					v += width
				}
			}
		}
	}
	return mesh
}
