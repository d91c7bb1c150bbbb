package volume

import "gonum.org/v1/gonum/spatial/r3"

// Header holds the geometry fields shared by a snapshot and every frame of
// a pack. The per-snapshot encoding byte is not part of it because it
// varies per entry.
type Header struct {
	Ver             uint8
	Width           uint32
	Height          uint32
	Depth           uint32
	VoxelSize       float64
	FrontTopLeft    [3]float64
	BackBottomRight [3]float64
}

// HeaderOf returns the header describing v.
func HeaderOf(v *Volume) Header {
	return Header{
		Ver:             snapshotVersion,
		Width:           uint32(v.Width),
		Height:          uint32(v.Height),
		Depth:           uint32(v.Depth),
		VoxelSize:       v.VoxelSize,
		FrontTopLeft:    [3]float64{v.FrontTopLeft.X, v.FrontTopLeft.Y, v.FrontTopLeft.Z},
		BackBottomRight: [3]float64{v.BackBottomRight.X, v.BackBottomRight.Y, v.BackBottomRight.Z},
	}
}

// Len is the number of voxels the header describes.
func (h Header) Len() int { return int(h.Width) * int(h.Height) * int(h.Depth) }

func (h Header) tooLarge() bool {
	return uint64(h.Width)*uint64(h.Height)*uint64(h.Depth) > MaxVoxels
}

// SameGeometry reports whether two headers describe the same grid.
func (h Header) SameGeometry(o Header) bool {
	return h.Width == o.Width && h.Height == o.Height && h.Depth == o.Depth &&
		h.VoxelSize == o.VoxelSize && h.FrontTopLeft == o.FrontTopLeft && h.BackBottomRight == o.BackBottomRight
}

// empty returns an all-Untouched volume with the header's geometry.
func (h Header) empty() *Volume {
	return &Volume{
		VoxelSize:       h.VoxelSize,
		FrontTopLeft:    r3.Vec{X: h.FrontTopLeft[0], Y: h.FrontTopLeft[1], Z: h.FrontTopLeft[2]},
		BackBottomRight: r3.Vec{X: h.BackBottomRight[0], Y: h.BackBottomRight[1], Z: h.BackBottomRight[2]},
		Width:           int(h.Width),
		Height:          int(h.Height),
		Depth:           int(h.Depth),
		data:            make([]Voxel, h.Len()),
	}
}
