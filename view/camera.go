// Package view pairs a calibrated pinhole camera with the photograph it took
// and the per-pixel occlusion mask used while carving.
package view

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Camera holds the calibration of one photograph: intrinsics K, rotation R
// and translation t.
type Camera struct {
	K *mat.Dense
	R *mat.Dense
	T r3.Vec

	p [3][4]float64
}

// NewCamera builds a camera from row-major K and R and the translation t.
func NewCamera(k, r [9]float64, t r3.Vec) *Camera {
	c := &Camera{
		K: mat.NewDense(3, 3, k[:]),
		R: mat.NewDense(3, 3, r[:]),
		T: t,
	}
	p := c.ProjectionMatrix()
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			c.p[i][j] = p.At(i, j)
		}
	}
	return c
}

// ProjectionMatrix returns the 3x4 matrix K·[R|t].
func (c *Camera) ProjectionMatrix() *mat.Dense {
	rt := mat.NewDense(3, 4, nil)
	rt.Augment(c.R, mat.NewVecDense(3, []float64{c.T.X, c.T.Y, c.T.Z}))
	var p mat.Dense
	p.Mul(c.K, rt)
	return &p
}

// Translation returns t, used as the camera position when deciding which
// side of a sweep plane the camera is on.
func (c *Camera) Translation() r3.Vec { return c.T }

// Center returns the optical center -Rᵀt in world space.
func (c *Camera) Center() r3.Vec {
	var o mat.VecDense
	o.MulVec(c.R.T(), mat.NewVecDense(3, []float64{c.T.X, c.T.Y, c.T.Z}))
	return r3.Vec{X: -o.AtVec(0), Y: -o.AtVec(1), Z: -o.AtVec(2)}
}

// ImagePoint projects a world point onto the image plane. ok is false when
// the homogeneous coordinate vanishes or the result is not finite.
func (c *Camera) ImagePoint(p r3.Vec) (u, v float64, ok bool) {
	var h [3]float64
	for i, row := range c.p {
		h[i] = row[0]*p.X + row[1]*p.Y + row[2]*p.Z + row[3]
	}
	if h[2] == 0 {
		return 0, 0, false
	}
	u, v = h[0]/h[2], h[1]/h[2]
	if math.IsNaN(u) || math.IsNaN(v) || math.IsInf(u, 0) || math.IsInf(v, 0) {
		return 0, 0, false
	}
	return u, v, true
}
