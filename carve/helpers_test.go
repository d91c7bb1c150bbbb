package carve

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxelsplace/carve/view"
	"github.com/voxelsplace/carve/volume"
)

// Camera positions used across the scenarios: A above, B below, C below but
// on the same x/z side as A.
var (
	camA = r3.Vec{X: -8, Y: 8, Z: 8}
	camB = r3.Vec{X: 8, Y: -8, Z: -8}
	camC = r3.Vec{X: -8, Y: -8, Z: 8}
)

// affineCamera builds a camera whose projection is the affine map
// u = row0·(p,1), v = row1·(p,1) regardless of its translation t, which then
// only matters for the side tests. t.Z must be a non-zero power of two so the
// construction stays exact.
func affineCamera(t r3.Vec, row0, row1 [4]float64) *view.Camera {
	k := [9]float64{
		1, 0, (row0[3] - t.X) / t.Z,
		0, 1, (row1[3] - t.Y) / t.Z,
		0, 0, 1 / t.Z,
	}
	r := [9]float64{
		row0[0], row0[1], row0[2],
		row1[0], row1[1], row1[2],
		0, 0, 0,
	}
	return view.NewCamera(k, r, t)
}

// obliqueCamera maps every voxel of the test volumes to its own pixel.
func obliqueCamera(t r3.Vec) *view.Camera {
	return affineCamera(t, [4]float64{32, 0, 4, 0}, [4]float64{0, 32, 4, 0})
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

func whiteViews(cams ...r3.Vec) []*view.View {
	views := make([]*view.View, len(cams))
	for i, t := range cams {
		views[i] = view.New(obliqueCamera(t), solidImage(64, 64, white))
	}
	return views
}

func cube2(t *testing.T) *volume.Volume {
	t.Helper()
	v, err := volume.New(1, r3.Vec{X: 0, Y: 2, Z: 0}, r3.Vec{X: 2, Y: 0, Z: -2})
	require.NoError(t, err)
	require.Equal(t, 8, v.Len())
	return v
}

func cube4(t *testing.T) *volume.Volume {
	t.Helper()
	v, err := volume.New(0.5, r3.Vec{X: 0, Y: 2, Z: 0}, r3.Vec{X: 2, Y: 0, Z: -2})
	require.NoError(t, err)
	require.Equal(t, 64, v.Len())
	return v
}

func carvedSet(v *volume.Volume) map[int]bool {
	out := map[int]bool{}
	for i := 0; i < v.Len(); i++ {
		if v.AtLinear(i).IsCarved() {
			out[i] = true
		}
	}
	return out
}
