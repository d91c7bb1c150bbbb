package carve

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxelsplace/carve/view"
	"github.com/voxelsplace/carve/volume"
)

// Axis names the grid axis a sweep plane is perpendicular to.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", uint8(a))
}

// Sweep visits the planes perpendicular to Axis in increasing index order,
// or decreasing order when Reverse is set. Increasing y index is top-down.
type Sweep struct {
	Axis    Axis
	Reverse bool
}

func (s Sweep) String() string {
	if s.Reverse {
		return s.Axis.String() + "-"
	}
	return s.Axis.String() + "+"
}

// TopDown is the single sweep of the legacy one-pass carver.
var TopDown = Sweep{Axis: AxisY}

// direction is the sign of the sweep's travel in world space. Index x grows
// with world x, while y and z indices grow towards smaller world values.
func (s Sweep) direction() float64 {
	d := -1.0
	if s.Axis == AxisX {
		d = 1
	}
	if s.Reverse {
		d = -d
	}
	return d
}

func (s Sweep) planes(vol *volume.Volume) int {
	switch s.Axis {
	case AxisX:
		return vol.Width
	case AxisY:
		return vol.Height
	}
	return vol.Depth
}

// plane returns the index of the i-th plane visited.
func (s Sweep) plane(vol *volume.Volume, i int) int {
	if s.Reverse {
		return s.planes(vol) - 1 - i
	}
	return i
}

// position is the world coordinate of plane a along the sweep axis.
func (s Sweep) position(vol *volume.Volume, a int) float64 {
	switch s.Axis {
	case AxisX:
		return vol.VoxelToPosition(a, 0, 0).X
	case AxisY:
		return vol.VoxelToPosition(0, a, 0).Y
	}
	return vol.VoxelToPosition(0, 0, a).Z
}

// voxel maps plane a and in-plane coordinates (b,c) to grid coordinates.
func (s Sweep) voxel(a, b, c int) (x, y, z int) {
	switch s.Axis {
	case AxisX:
		return a, c, b
	case AxisY:
		return b, a, c
	}
	return c, b, a
}

// extent returns the in-plane loop bounds matching voxel.
func (s Sweep) extent(vol *volume.Volume) (int, int) {
	switch s.Axis {
	case AxisX:
		return vol.Depth, vol.Height
	case AxisY:
		return vol.Width, vol.Depth
	}
	return vol.Height, vol.Width
}

func (s Sweep) component(t r3.Vec) float64 {
	switch s.Axis {
	case AxisX:
		return t.X
	case AxisY:
		return t.Y
	}
	return t.Z
}

// SideRule decides which cameras may contribute evidence for a plane.
type SideRule uint8

const (
	// SideBehind accepts cameras on the side the sweep comes from, so the
	// planes between camera and voxel are already resolved.
	SideBehind SideRule = iota
	// SideAhead accepts cameras the sweep is moving towards.
	SideAhead
)

func (r SideRule) String() string {
	if r == SideAhead {
		return "ahead"
	}
	return "behind"
}

// ParseSideRule accepts "behind" or "ahead".
func ParseSideRule(s string) (SideRule, error) {
	switch s {
	case "behind", "":
		return SideBehind, nil
	case "ahead":
		return SideAhead, nil
	}
	return 0, fmt.Errorf("unknown side rule %q (want behind or ahead)", s)
}

// valid reports whether a camera at coordinate cam may see plane at
// coordinate plane during a sweep travelling in direction dir.
func (r SideRule) valid(cam, plane, dir float64) bool {
	if r == SideAhead {
		return (cam-plane)*dir > 0
	}
	return (cam-plane)*dir < 0
}

// DefaultSweeps returns the six directional sweeps of a full pass. The
// top-down sweep always runs first. For x and z the direction whose first
// plane is seen by more cameras goes first.
func DefaultSweeps(vol *volume.Volume, views []*view.View, rule SideRule, pos CameraPosition) []Sweep {
	sweeps := []Sweep{TopDown, {Axis: AxisY, Reverse: true}}
	for _, axis := range []Axis{AxisX, AxisZ} {
		fwd, rev := Sweep{Axis: axis}, Sweep{Axis: axis, Reverse: true}
		if startViews(vol, views, rule, pos, rev) > startViews(vol, views, rule, pos, fwd) {
			fwd, rev = rev, fwd
		}
		sweeps = append(sweeps, fwd, rev)
	}
	return sweeps
}

func startViews(vol *volume.Volume, views []*view.View, rule SideRule, pos CameraPosition, s Sweep) int {
	p := s.position(vol, s.plane(vol, 0))
	n := 0
	for _, v := range views {
		if rule.valid(s.component(pos.of(v.Camera)), p, s.direction()) {
			n++
		}
	}
	return n
}

// CameraPosition selects the point standing in for a camera in the side test
// and in observation rays.
type CameraPosition uint8

const (
	// PositionTranslation uses the extrinsic translation t as is.
	PositionTranslation CameraPosition = iota
	// PositionCenter uses the optical center -Rᵀt.
	PositionCenter
)

func (p CameraPosition) String() string {
	if p == PositionCenter {
		return "center"
	}
	return "translation"
}

// ParseCameraPosition accepts "translation" or "center".
func ParseCameraPosition(s string) (CameraPosition, error) {
	switch s {
	case "translation", "":
		return PositionTranslation, nil
	case "center":
		return PositionCenter, nil
	}
	return 0, fmt.Errorf("unknown camera position %q (want translation or center)", s)
}

func (p CameraPosition) of(c *view.Camera) r3.Vec {
	if p == PositionCenter {
		return c.Center()
	}
	return c.Translation()
}
