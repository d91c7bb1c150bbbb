package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voxelsplace/carve/carve"
	"github.com/voxelsplace/carve/mesh"
	"github.com/voxelsplace/carve/volume"
)

// FrameRecorder keeps a snapshot of the volume after every sweep.
type FrameRecorder struct {
	pack *volume.Pack
	err  error
}

func NewFrameRecorder(vol *volume.Volume) *FrameRecorder {
	return &FrameRecorder{pack: volume.NewPack(vol)}
}

// Observe is a carve.Observer.
func (r *FrameRecorder) Observe(st carve.SweepStats, vol *volume.Volume) {
	if r.err != nil {
		return
	}
	name := fmt.Sprintf("pass%03d_%s", st.Pass, st.Sweep)
	r.err = r.pack.Add(name, vol)
}

// Len returns the number of recorded frames.
func (r *FrameRecorder) Len() int { return len(r.pack.Entries) }

// Pack returns the recorded frames.
func (r *FrameRecorder) Pack() *volume.Pack { return r.pack }

// Save writes the frames as a .cvpack.
func (r *FrameRecorder) Save(path string) error {
	if r.err != nil {
		return r.err
	}
	start := time.Now()
	data, err := r.pack.Marshal()
	if err != nil {
		return err
	}
	carve.Logger().Info("frames packed", "frames", r.Len(), "bytes", len(data), "ms", time.Since(start).Milliseconds())
	return os.WriteFile(path, data, 0o644)
}

// LoadFrames reads a .cvpack.
func LoadFrames(path string) (*volume.Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pack, _, err := volume.UnmarshalPack(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pack, nil
}

// RunFramesToPLY writes every frame of a .cvpack as outDir/carve_NNNN.ply.
func RunFramesToPLY(packPath, outDir string) error {
	pack, err := LoadFrames(packPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range pack.Entries {
		g.Go(func() error {
			vol, err := pack.Volume(i)
			if err != nil {
				return err
			}
			return mesh.SavePLY(vol, filepath.Join(outDir, fmt.Sprintf("carve_%04d.ply", i)))
		})
	}
	return g.Wait()
}

// RunFramesToGLB converts a .cvpack into a single .glb, one node per frame.
func RunFramesToGLB(packPath, outPath string) error {
	pack, err := LoadFrames(packPath)
	if err != nil {
		return err
	}
	nodes, err := mesh.FrameNodes(pack)
	if err != nil {
		return err
	}
	return mesh.SaveGLB(outPath, "carve frames", nodes...)
}
