// Package consistency decides whether the colors a voxel projects to across
// several views could come from a single Lambertian surface point.
package consistency

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxelsplace/carve/volume"
)

// Observation is one view's evidence for a voxel: the pixel color it sees
// and the ray from the voxel towards the camera.
type Observation struct {
	Color volume.Color
	Ray   r3.Vec
}

// Checker is a photo-consistency test. Check is only called with at least
// one observation; it returns the representative color when the
// observations are consistent.
type Checker interface {
	Check(obs []Observation) (volume.Color, bool)
}

const (
	// backgroundLevel is the channel value below which a sample counts as
	// the black background; only a raw 0 byte qualifies.
	backgroundLevel = 0.5 / 255
	// darkMean rejects voxels whose mean color is this dark in every channel.
	darkMean = 0.2
)

// VoxelColoring is the classic voxel-coloring test. Observations are
// consistent when, per channel, the population variance E[X²]-E[X]² is
// strictly below Threshold².
type VoxelColoring struct {
	Threshold float64
}

func (vc VoxelColoring) Check(obs []Observation) (volume.Color, bool) {
	if len(obs) == 0 {
		panic("consistency: no observations to check")
	}
	var sum, sumSq [3]float64
	for _, o := range obs {
		c := [3]float64{o.Color.R, o.Color.G, o.Color.B}
		if IsBackground(o.Color) {
			return volume.Color{}, false
		}
		for i, v := range c {
			sum[i] += v
			sumSq[i] += v * v
		}
	}
	n := float64(len(obs))
	var mean, variance [3]float64
	for i := range sum {
		mean[i] = sum[i] / n
		variance[i] = sumSq[i]/n - mean[i]*mean[i]
	}
	if mean[0] < darkMean && mean[1] < darkMean && mean[2] < darkMean {
		return volume.Color{}, false
	}
	limit := vc.Threshold * vc.Threshold
	for _, v := range variance {
		if !(v < limit) {
			return volume.Color{}, false
		}
	}
	return volume.Color{R: mean[0], G: mean[1], B: mean[2]}, true
}

// IsBackground reports whether c is the black background color.
func IsBackground(c volume.Color) bool {
	return c.R < backgroundLevel && c.G < backgroundLevel && c.B < backgroundLevel
}

// Func adapts a plain function to the Checker interface.
type Func func(obs []Observation) (volume.Color, bool)

func (f Func) Check(obs []Observation) (volume.Color, bool) { return f(obs) }
