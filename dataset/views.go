package dataset

import (
	"context"
	"fmt"
	"runtime"

	"github.com/anthonynsimon/bild/imgio"
	"golang.org/x/sync/errgroup"

	"github.com/voxelsplace/carve/carve"
	"github.com/voxelsplace/carve/view"
)

// LoadViews loads n calibrated views: calibration line i is paired with
// image number FirstImage+i. n <= 0 loads one view per calibration line.
// Images are decoded in parallel.
func LoadViews(ctx context.Context, cfg *Config, n int) ([]*view.View, error) {
	params, err := LoadCalibration(cfg.CalibrationPath())
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = len(params)
	}
	if n > len(params) {
		return nil, fmt.Errorf("%w: %d images requested, calibration has %d cameras", ErrCalibration, n, len(params))
	}

	views := make([]*view.View, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := cfg.ImagePath(cfg.GetFirstImage() + i)
			img, err := imgio.Open(path)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			views[i] = view.New(params[i].Camera(), img)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log := carve.Logger()
	for i, v := range views {
		log.Debug("loaded view", "index", i, "camera", params[i].Name, "width", v.Width(), "height", v.Height())
	}
	log.Info("views loaded", "count", n, "directory", cfg.Directory)
	return views, nil
}
