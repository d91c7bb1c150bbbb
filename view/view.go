package view

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxelsplace/carve/volume"
)

// View is one camera, its image and its occlusion mask.
//
// Mask entries hold the id of the voxel that claimed the pixel, plus one, so
// that zero means unclaimed. Ids fit because volumes hold at most
// volume.MaxVoxels voxels.
type View struct {
	Camera *Camera

	img  *image.RGBA
	mask []int32
}

// New wraps img for carving. The image is copied into RGBA form.
func New(cam *Camera, img image.Image) *View {
	rgba := clone.AsRGBA(img)
	b := rgba.Bounds()
	// pixel coordinates are relative to the top-left corner
	rgba.Rect = b.Sub(b.Min)
	return &View{
		Camera: cam,
		img:    rgba,
		mask:   make([]int32, b.Dx()*b.Dy()),
	}
}

func (v *View) Width() int  { return v.img.Rect.Dx() }
func (v *View) Height() int { return v.img.Rect.Dy() }

// Image returns the underlying pixels.
func (v *View) Image() *image.RGBA { return v.img }

// Project maps a world point to integer pixel coordinates. ok is false when
// the point falls outside the image, which is not an error: the view just
// has no evidence for that point.
func (v *View) Project(p r3.Vec) (x, y int, ok bool) {
	u, w, ok := v.Camera.ImagePoint(p)
	if !ok {
		return 0, 0, false
	}
	fu, fw := math.Floor(u), math.Floor(w)
	if fu < 0 || fw < 0 || fu >= float64(v.Width()) || fw >= float64(v.Height()) {
		return 0, 0, false
	}
	return int(fu), int(fw), true
}

// Pixel returns the normalized color at (x,y).
func (v *View) Pixel(x, y int) volume.Color {
	i := v.img.PixOffset(x, y)
	px := v.img.Pix[i : i+3 : i+3]
	return volume.ColorFromRGB8(px[0], px[1], px[2])
}

func (v *View) index(x, y int) int {
	if x < 0 || y < 0 || x >= v.Width() || y >= v.Height() {
		panic(fmt.Sprintf("view: pixel (%d,%d) outside %dx%d image", x, y, v.Width(), v.Height()))
	}
	return y*v.Width() + x
}

// IsPixelClaimed reports whether any voxel has claimed (x,y) since the last reset.
func (v *View) IsPixelClaimed(x, y int) bool {
	return v.mask[v.index(x, y)] != 0
}

// ClaimedBy returns the id of the voxel that claimed (x,y).
func (v *View) ClaimedBy(x, y int) (owner int, ok bool) {
	m := v.mask[v.index(x, y)]
	return int(m) - 1, m != 0
}

// ClaimPixel records owner as the voxel explaining the ray through (x,y).
// The first claim since the last reset wins; it reports whether this call
// took the pixel.
func (v *View) ClaimPixel(x, y, owner int) bool {
	i := v.index(x, y)
	if v.mask[i] != 0 {
		return v.mask[i] == int32(owner+1)
	}
	v.mask[i] = int32(owner + 1)
	return true
}

// TakePixel records owner for (x,y) regardless of any earlier claim. The
// caller decides when an earlier owner no longer blocks the ray.
func (v *View) TakePixel(x, y, owner int) {
	v.mask[v.index(x, y)] = int32(owner + 1)
}

// ResetMask clears every claim.
func (v *View) ResetMask() {
	clear(v.mask)
}
