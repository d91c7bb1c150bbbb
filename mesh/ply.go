package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/voxelsplace/carve/volume"
)

const plyHeader = `ply
format ascii 1.0
element vertex %d
property float x
property float y
property float z
property uchar diffuse_red
property uchar diffuse_green
property uchar diffuse_blue
element face %d
property list uchar int vertex_indices
end_header
`

// cube corner k has offset -s/+s on x, y, z from bits 0, 1, 2 of k
const (
	backBottomLeft = iota
	backBottomRight
	backTopLeft
	backTopRight
	frontBottomLeft
	frontBottomRight
	frontTopLeft
	frontTopRight
)

// cubeFaces are the quads of one cube, seen looking towards -z.
var cubeFaces = [6][4]int{
	{frontTopLeft, frontTopRight, backTopRight, backTopLeft},             // top
	{frontBottomLeft, frontBottomRight, backBottomRight, backBottomLeft}, // bottom
	{frontBottomRight, backBottomRight, backTopRight, frontTopRight},     // right
	{frontBottomLeft, backBottomLeft, backTopLeft, frontTopLeft},         // left
	{frontBottomLeft, frontBottomRight, frontTopRight, frontTopLeft},     // front
	{backBottomLeft, backBottomRight, backTopRight, backTopLeft},         // back
}

// Cube is the axis-aligned box exported for one kept voxel.
type Cube struct {
	Center [3]float64
	Color  [3]uint8
}

// Cubes lists every voxel that is not Carved, in z, y, x order. Untouched
// voxels are magenta.
func Cubes(vol *volume.Volume) []Cube {
	var out []Cube
	vol.Each(func(x, y, z int, vox volume.Voxel) {
		if !vox.IsPresent() {
			return
		}
		p := vol.VoxelToPosition(x, y, z)
		out = append(out, Cube{Center: [3]float64{p.X, p.Y, p.Z}, Color: vox.DisplayColor().RGB8()})
	})
	return out
}

// WritePLY writes the kept voxels as an ASCII PLY of colored cubes: 8
// vertices and 6 quads per voxel.
func WritePLY(w io.Writer, vol *volume.Volume) error {
	cubes := Cubes(vol)
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, plyHeader, 8*len(cubes), 6*len(cubes)); err != nil {
		return err
	}
	s := vol.VoxelSize / 2
	line := make([]byte, 0, 64)
	for _, c := range cubes {
		for k := 0; k < 8; k++ {
			line = line[:0]
			for axis := 0; axis < 3; axis++ {
				off := -s
				if k&(1<<axis) != 0 {
					off = s
				}
				line = strconv.AppendFloat(line, float64(float32(c.Center[axis]+off)), 'f', -1, 32)
				line = append(line, ' ')
			}
			line = strconv.AppendUint(line, uint64(c.Color[0]), 10)
			line = append(line, ' ')
			line = strconv.AppendUint(line, uint64(c.Color[1]), 10)
			line = append(line, ' ')
			line = strconv.AppendUint(line, uint64(c.Color[2]), 10)
			line = append(line, '\n')
			if _, err := bw.Write(line); err != nil {
				return err
			}
		}
	}
	for i := range cubes {
		base := 8 * i
		for _, f := range cubeFaces {
			if _, err := fmt.Fprintf(bw, "4 %d %d %d %d\n", base+f[0], base+f[1], base+f[2], base+f[3]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// SavePLY writes the volume to a PLY file.
func SavePLY(vol *volume.Volume, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePLY(f, vol); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
