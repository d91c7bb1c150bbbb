package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/voxelsplace/carve/carve"
	"github.com/voxelsplace/carve/dataset"
	"github.com/voxelsplace/carve/volume"
)

// CarveOptions collects everything RunCarve needs besides the dataset itself.
type CarveOptions struct {
	Dataset   string // path to the .json or .toml dataset file
	NumImages int    // <= 0 uses every calibrated camera
	Output    string // .ply, .glb, .stl or .cvol
	VoxelSize float64
	Threshold float64

	Snapshot string // optional .cvol written next to Output
	Frames   string // optional .cvpack with one frame per sweep
	Plot     string // optional convergence chart (.png, .svg, .pdf)

	MaxPasses   int
	Side        carve.SideRule
	Position    carve.CameraPosition
	MaskReset   carve.MaskReset
	Empty       carve.EmptyEvidence
	SingleSweep bool
}

// DefaultCarveOptions mirrors the CLI defaults.
func DefaultCarveOptions() CarveOptions {
	return CarveOptions{
		Output:    "carved.ply",
		VoxelSize: 0.001,
		Threshold: 0.3,
	}
}

func (o CarveOptions) engineOptions() []carve.Option {
	opts := []carve.Option{
		carve.WithSideRule(o.Side),
		carve.WithCameraPosition(o.Position),
		carve.WithMaskReset(o.MaskReset),
		carve.WithEmptyEvidence(o.Empty),
		carve.WithMaxPasses(o.MaxPasses),
	}
	if o.SingleSweep {
		opts = append(opts, carve.WithSweeps(carve.TopDown))
	}
	return opts
}

// RunCarve loads a dataset, carves it to convergence and writes the results.
func RunCarve(ctx context.Context, o CarveOptions) (carve.Stats, error) {
	var st carve.Stats
	log := carve.Logger()
	if err := CheckOutputFormat(o.Output); err != nil {
		return st, err
	}
	if !(o.Threshold > 0) {
		return st, fmt.Errorf("threshold must be positive, got %v", o.Threshold)
	}

	cfg, err := dataset.LoadConfig(o.Dataset)
	if err != nil {
		return st, err
	}
	ftl, bbr := cfg.Bounds()
	vol, err := volume.New(o.VoxelSize, ftl, bbr)
	if err != nil {
		return st, err
	}
	log.Info("volume created", "width", vol.Width, "height", vol.Height, "depth", vol.Depth, "voxel_size", vol.VoxelSize)

	views, err := dataset.LoadViews(ctx, cfg, o.NumImages)
	if err != nil {
		return st, err
	}

	opts := o.engineOptions()
	var frames *FrameRecorder
	if o.Frames != "" {
		frames = NewFrameRecorder(vol)
		opts = append(opts, carve.WithObserver(frames.Observe))
	}

	start := time.Now()
	st = carve.Carve(vol, views, o.Threshold, opts...)
	log.Info("carve took", "ms", time.Since(start).Milliseconds())

	if err := SaveVolume(vol, o.Output); err != nil {
		return st, fmt.Errorf("writing %s: %w", o.Output, err)
	}
	if o.Snapshot != "" {
		if err := volume.SaveSnapshot(vol, o.Snapshot); err != nil {
			return st, err
		}
	}
	if frames != nil {
		if err := frames.Save(o.Frames); err != nil {
			return st, err
		}
	}
	if o.Plot != "" {
		if err := PlotConvergence(st, o.Plot); err != nil {
			return st, fmt.Errorf("plot: %w", err)
		}
	}
	return st, nil
}
