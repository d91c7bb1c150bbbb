package utils

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/voxelsplace/carve/carve"
)

var (
	carvedColor  = color.RGBA{R: 217, G: 72, B: 65, A: 255}
	coloredColor = color.RGBA{R: 60, G: 120, B: 216, A: 255}
)

// PlotConvergence charts carved and colored voxels per sweep over the whole
// run. The format follows the file extension (.png, .svg, .pdf, ...).
func PlotConvergence(st carve.Stats, path string) error {
	var carved, colored plotter.XYs
	i := 0
	for _, ps := range st.Passes {
		for _, sw := range ps.Sweeps {
			carved = append(carved, plotter.XY{X: float64(i), Y: float64(sw.Carved)})
			colored = append(colored, plotter.XY{X: float64(i), Y: float64(sw.Colored)})
			i++
		}
	}
	if i == 0 {
		return fmt.Errorf("no sweeps to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Space carving: %d passes, %d voxels carved", len(st.Passes), st.Carved)
	p.X.Label.Text = "Sweep"
	p.Y.Label.Text = "Voxels"

	for _, s := range []struct {
		label string
		pts   plotter.XYs
		color color.Color
	}{
		{"carved", carved, carvedColor},
		{"colored", colored, coloredColor},
	} {
		line, err := plotter.NewLine(s.pts)
		if err != nil {
			return fmt.Errorf("%s line: %w", s.label, err)
		}
		line.Color = s.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.label, line)
	}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p.Save(14*vg.Inch, 6*vg.Inch, path)
}
