package utils

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxelsplace/carve/dataset"
)

// SyntheticOptions describes a rendered test scene: an axis-aligned box with
// one flat color per face, photographed by a ring of cameras alternating
// above and below it, on a black background.
type SyntheticOptions struct {
	Dir        string
	Prefix     string
	Views      int
	ImageSize  int     // square images
	HalfExtent r3.Vec  // box half sizes, centered on the origin
	Bound      float64 // half size of the carving bounding box
	Distance   float64 // camera distance from the origin
	Elevation  float64 // degrees above/below the horizon
	Noise      float64 // uniform per-channel pixel noise in [0,1]
	Seed       int64
}

// DefaultSyntheticOptions renders eight 64x64 views of a unit cube.
func DefaultSyntheticOptions(dir string) SyntheticOptions {
	return SyntheticOptions{
		Dir:        dir,
		Prefix:     "synth",
		Views:      8,
		ImageSize:  64,
		HalfExtent: r3.Vec{X: 0.5, Y: 0.5, Z: 0.5},
		Bound:      1,
		Distance:   4,
		Elevation:  35,
	}
}

// face colors indexed by axis*2 + (1 if positive side)
var faceColors = [6]color.RGBA{
	{R: 230, G: 230, B: 60, A: 255}, // -x
	{R: 60, G: 60, B: 230, A: 255},  // +x
	{R: 60, G: 230, B: 60, A: 255},  // -y
	{R: 230, G: 60, B: 60, A: 255},  // +y
	{R: 230, G: 60, B: 230, A: 255}, // -z
	{R: 60, G: 230, B: 230, A: 255}, // +z
}

type synthCamera struct {
	center r3.Vec
	r      [3]r3.Vec // rows: right, down, forward
	focal  float64
	c      float64 // principal point, both axes
}

func lookAt(center r3.Vec, focal, c float64) synthCamera {
	f := r3.Unit(r3.Scale(-1, center))
	right := r3.Unit(r3.Cross(f, r3.Vec{Y: 1}))
	down := r3.Cross(f, right)
	return synthCamera{center: center, r: [3]r3.Vec{right, down, f}, focal: focal, c: c}
}

func (sc synthCamera) params(name string) dataset.CameraParams {
	p := dataset.CameraParams{
		Name: name,
		K:    [9]float64{sc.focal, 0, sc.c, 0, sc.focal, sc.c, 0, 0, 1},
	}
	for i, row := range sc.r {
		p.R[3*i], p.R[3*i+1], p.R[3*i+2] = row.X, row.Y, row.Z
		p.T[i] = -r3.Dot(row, sc.center)
	}
	return p
}

// ray returns the world direction through the center of pixel (px,py).
func (sc synthCamera) ray(px, py int) r3.Vec {
	u := (float64(px) + 0.5 - sc.c) / sc.focal
	v := (float64(py) + 0.5 - sc.c) / sc.focal
	return r3.Add(r3.Add(r3.Scale(u, sc.r[0]), r3.Scale(v, sc.r[1])), sc.r[2])
}

// hitBox intersects a ray with the box [-h,h] and returns the face it enters
// through.
func hitBox(o, d, h r3.Vec) (face int, ok bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	face = -1
	oc := [3]float64{o.X, o.Y, o.Z}
	dc := [3]float64{d.X, d.Y, d.Z}
	hc := [3]float64{h.X, h.Y, h.Z}
	for a := 0; a < 3; a++ {
		if dc[a] == 0 {
			if math.Abs(oc[a]) > hc[a] {
				return 0, false
			}
			continue
		}
		t0 := (-hc[a] - oc[a]) / dc[a]
		t1 := (hc[a] - oc[a]) / dc[a]
		near := 2 * a // entering through the negative face
		if t0 > t1 {
			t0, t1 = t1, t0
			near++
		}
		if t0 > tmin {
			tmin, face = t0, near
		}
		tmax = math.Min(tmax, t1)
	}
	if tmin > tmax || tmax < 0 || face < 0 {
		return 0, false
	}
	return face, true
}

func (o SyntheticOptions) render(sc synthCamera, rng *rand.Rand) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, o.ImageSize, o.ImageSize))
	for py := 0; py < o.ImageSize; py++ {
		for px := 0; px < o.ImageSize; px++ {
			face, ok := hitBox(sc.center, sc.ray(px, py), o.HalfExtent)
			if !ok {
				img.SetRGBA(px, py, color.RGBA{A: 255})
				continue
			}
			c := faceColors[face]
			if o.Noise > 0 {
				c.R = jitter(c.R, o.Noise, rng)
				c.G = jitter(c.G, o.Noise, rng)
				c.B = jitter(c.B, o.Noise, rng)
			}
			img.SetRGBA(px, py, c)
		}
	}
	return img
}

func jitter(v uint8, amount float64, rng *rand.Rand) uint8 {
	f := float64(v) + (rng.Float64()*2-1)*amount*255
	return uint8(math.Max(0, math.Min(255, math.Round(f))))
}

func (o SyntheticOptions) cameras() []synthCamera {
	el := o.Elevation * math.Pi / 180
	cams := make([]synthCamera, o.Views)
	for i := range cams {
		az := 2 * math.Pi * float64(i) / float64(o.Views)
		e := el
		if i%2 == 1 {
			e = -el
		}
		center := r3.Vec{
			X: o.Distance * math.Cos(e) * math.Cos(az),
			Y: o.Distance * math.Sin(e),
			Z: o.Distance * math.Cos(e) * math.Sin(az),
		}
		cams[i] = lookAt(center, float64(o.ImageSize), float64(o.ImageSize)/2)
	}
	return cams
}

func (o SyntheticOptions) validate() error {
	switch {
	case o.Dir == "":
		return fmt.Errorf("no output directory")
	case o.Prefix == "":
		return fmt.Errorf("no image prefix")
	case o.Views < 1:
		return fmt.Errorf("need at least one view, got %d", o.Views)
	case o.ImageSize < 1:
		return fmt.Errorf("image size must be positive, got %d", o.ImageSize)
	case !(o.Bound > 0):
		return fmt.Errorf("bound must be positive, got %v", o.Bound)
	case !(o.Distance > o.Bound*math.Sqrt(3)):
		return fmt.Errorf("cameras at distance %v would sit inside the bounding box", o.Distance)
	}
	return nil
}

// RunGenerateSynthetic renders the scene and writes a complete dataset:
// numbered images, the calibration file and <prefix>.json. It returns the
// path of the dataset file.
func RunGenerateSynthetic(o SyntheticOptions) (string, error) {
	if err := o.validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return "", err
	}
	cfg := &dataset.Config{
		Directory:       ".",
		Prefix:          o.Prefix,
		FrontTopLeft:    [3]float64{-o.Bound, o.Bound, o.Bound},
		BackBottomRight: [3]float64{o.Bound, -o.Bound, -o.Bound},
	}
	cams := o.cameras()

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, sc := range cams {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(o.Seed + int64(i)))
			name := filepath.Join(o.Dir, filepath.Base(cfg.ImagePath(cfg.GetFirstImage()+i)))
			return imgio.Save(name, o.render(sc, rng), imgio.PNGEncoder())
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d\n", len(cams))
	for i, sc := range cams {
		p := sc.params(filepath.Base(cfg.ImagePath(cfg.GetFirstImage() + i)))
		sb.WriteString(p.Name)
		for _, v := range append(append(p.K[:], p.R[:]...), p.T[:]...) {
			sb.WriteByte(' ')
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		sb.WriteByte('\n')
	}
	calib := filepath.Join(o.Dir, o.Prefix+"_par.txt")
	if err := os.WriteFile(calib, []byte(sb.String()), 0o644); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(o.Dir, o.Prefix+".json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
