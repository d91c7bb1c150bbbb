// Package volume holds the voxel grid carved by the space-carving engine,
// its world-space geometry, and the binary formats used to persist it.
package volume

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// MaxVoxels bounds the voxel count so every voxel id fits the int32 owner
// entries of a view's occlusion mask.
const MaxVoxels = math.MaxInt32

var (
	ErrTooManyVoxels     = errors.New("volume: too many voxels")
	ErrInvalidVoxelSize  = errors.New("volume: voxel size must be positive and finite")
	ErrDegenerateBounds  = errors.New("volume: bounding box has zero extent")
	errNonFiniteBoundary = errors.New("volume: bounding box corner is not finite")
)

// Volume is a dense grid of voxels spanning an axis-aligned bounding box.
//
// Voxels are stored flattened in [y][x][z] order. Index x grows with world x
// from FrontTopLeft, while y and z grow away from it towards smaller world
// coordinates (camera above, looking down).
type Volume struct {
	VoxelSize       float64
	FrontTopLeft    r3.Vec
	BackBottomRight r3.Vec
	Width           int
	Height          int
	Depth           int

	data []Voxel
}

// New creates a volume with every voxel Untouched. Each dimension is
// ceil(|extent|/voxelSize) rounded up to an even number so the origin never
// falls on a voxel boundary.
func New(voxelSize float64, frontTopLeft, backBottomRight r3.Vec) (*Volume, error) {
	if !(voxelSize > 0) || math.IsInf(voxelSize, 0) {
		return nil, ErrInvalidVoxelSize
	}
	for _, c := range []float64{frontTopLeft.X, frontTopLeft.Y, frontTopLeft.Z, backBottomRight.X, backBottomRight.Y, backBottomRight.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, errNonFiniteBoundary
		}
	}
	width := cells(backBottomRight.X-frontTopLeft.X, voxelSize)
	height := cells(backBottomRight.Y-frontTopLeft.Y, voxelSize)
	depth := cells(backBottomRight.Z-frontTopLeft.Z, voxelSize)
	if width == 0 || height == 0 || depth == 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d voxels", ErrDegenerateBounds, width, height, depth)
	}
	if n := float64(width) * float64(height) * float64(depth); n > MaxVoxels {
		return nil, fmt.Errorf("%w: %dx%dx%d exceeds %d", ErrTooManyVoxels, width, height, depth, MaxVoxels)
	}
	return &Volume{
		VoxelSize:       voxelSize,
		FrontTopLeft:    frontTopLeft,
		BackBottomRight: backBottomRight,
		Width:           width,
		Height:          height,
		Depth:           depth,
		data:            make([]Voxel, width*height*depth),
	}, nil
}

func cells(extent, size float64) int {
	n := int(math.Ceil(math.Abs(extent) / size))
	if n%2 == 1 {
		n++
	}
	return n
}

// Len returns the number of voxels.
func (v *Volume) Len() int { return len(v.data) }

// InBounds reports whether (x,y,z) addresses a voxel.
func (v *Volume) InBounds(x, y, z int) bool {
	return x >= 0 && x < v.Width && y >= 0 && y < v.Height && z >= 0 && z < v.Depth
}

// Linear returns the flat index of (x,y,z). It panics when out of range.
func (v *Volume) Linear(x, y, z int) int {
	if !v.InBounds(x, y, z) {
		panic(fmt.Sprintf("volume: voxel (%d,%d,%d) out of bounds %dx%dx%d", x, y, z, v.Width, v.Height, v.Depth))
	}
	return (y*v.Width+x)*v.Depth + z
}

// Coords is the inverse of Linear.
func (v *Volume) Coords(i int) (x, y, z int) {
	z = i % v.Depth
	rem := i / v.Depth
	x = rem % v.Width
	y = rem / v.Width
	return
}

// VoxelToPosition returns the world-space center of voxel (x,y,z).
func (v *Volume) VoxelToPosition(x, y, z int) r3.Vec {
	half := v.VoxelSize / 2
	return r3.Vec{
		X: v.FrontTopLeft.X + float64(x)*v.VoxelSize + half,
		Y: v.FrontTopLeft.Y - float64(y)*v.VoxelSize - half,
		Z: v.FrontTopLeft.Z - float64(z)*v.VoxelSize - half,
	}
}

// CornerToPosition maps a lattice corner (voxel boundary) index to world
// space. Corner (x,y,z) is the front-top-left corner of voxel (x,y,z).
func (v *Volume) CornerToPosition(x, y, z float64) r3.Vec {
	return r3.Vec{
		X: v.FrontTopLeft.X + x*v.VoxelSize,
		Y: v.FrontTopLeft.Y - y*v.VoxelSize,
		Z: v.FrontTopLeft.Z - z*v.VoxelSize,
	}
}

// PositionToVoxel returns the voxel containing p.
func (v *Volume) PositionToVoxel(p r3.Vec) (x, y, z int, ok bool) {
	x = int(math.Floor((p.X - v.FrontTopLeft.X) / v.VoxelSize))
	y = int(math.Floor((v.FrontTopLeft.Y - p.Y) / v.VoxelSize))
	z = int(math.Floor((v.FrontTopLeft.Z - p.Z) / v.VoxelSize))
	return x, y, z, v.InBounds(x, y, z)
}

// VoxelVisible reports whether the voxel is on the carving frontier: on an
// outer face of the grid or next to a Carved voxel.
func (v *Volume) VoxelVisible(x, y, z int) bool {
	if !v.InBounds(x, y, z) {
		panic(fmt.Sprintf("volume: voxel (%d,%d,%d) out of bounds %dx%dx%d", x, y, z, v.Width, v.Height, v.Depth))
	}
	if x == 0 || y == 0 || z == 0 || x == v.Width-1 || y == v.Height-1 || z == v.Depth-1 {
		return true
	}
	for _, n := range [6][3]int{
		{x - 1, y, z}, {x + 1, y, z},
		{x, y - 1, z}, {x, y + 1, z},
		{x, y, z - 1}, {x, y, z + 1},
	} {
		if v.data[(n[1]*v.Width+n[0])*v.Depth+n[2]].IsCarved() {
			return true
		}
	}
	return false
}

// Get returns a mutable handle to voxel (x,y,z).
func (v *Volume) Get(x, y, z int) *Voxel {
	return &v.data[v.Linear(x, y, z)]
}

// At returns a copy of voxel (x,y,z).
func (v *Volume) At(x, y, z int) Voxel {
	return v.data[v.Linear(x, y, z)]
}

// AtLinear returns the voxel at flat index i.
func (v *Volume) AtLinear(i int) Voxel { return v.data[i] }

// Counts tallies voxels per state.
func (v *Volume) Counts() map[State]int {
	out := map[State]int{Untouched: 0, Carved: 0, Colored: 0}
	for _, vox := range v.data {
		out[vox.state]++
	}
	return out
}

// Each calls fn for every voxel in z, y, x loop order, the order the PLY
// exporter emits cubes in.
func (v *Volume) Each(fn func(x, y, z int, vox Voxel)) {
	for z := 0; z < v.Depth; z++ {
		for y := 0; y < v.Height; y++ {
			for x := 0; x < v.Width; x++ {
				fn(x, y, z, v.data[(y*v.Width+x)*v.Depth+z])
			}
		}
	}
}

// Clone returns a deep copy.
func (v *Volume) Clone() *Volume {
	c := *v
	c.data = append([]Voxel(nil), v.data...)
	return &c
}
