// Package carve reconstructs a colored voxel volume from calibrated views by
// repeated occlusion-aware plane sweeps (space carving).
package carve

import (
	"context"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxelsplace/carve/consistency"
	"github.com/voxelsplace/carve/view"
	"github.com/voxelsplace/carve/volume"
)

// Engine owns a volume and its views for the duration of a carve. Neither
// may be touched by anyone else until Run returns.
type Engine struct {
	vol     *volume.Volume
	views   []*view.View
	checker consistency.Checker

	side      SideRule
	position  CameraPosition
	reset     MaskReset
	sweeps    []Sweep
	maxPasses int
	empty     EmptyEvidence
	observer  Observer

	pass int

	// scratch reused across voxels
	obs    []consistency.Observation
	claims []claim
}

// claim is a pixel an accepted voxel takes in one view.
type claim struct {
	view int
	x, y int
}

// New prepares an engine. Without WithSweeps a pass runs DefaultSweeps.
func New(vol *volume.Volume, views []*view.View, checker consistency.Checker, opts ...Option) *Engine {
	e := &Engine{
		vol:       vol,
		views:     views,
		checker:   checker,
		maxPasses: vol.Len(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sweeps == nil {
		e.sweeps = DefaultSweeps(vol, views, e.side, e.position)
	}
	return e
}

// Sweeps returns the sweeps run by each pass.
func (e *Engine) Sweeps() []Sweep { return e.sweeps }

// Carve runs the default engine with the voxel-coloring test to convergence.
func Carve(vol *volume.Volume, views []*view.View, threshold float64, opts ...Option) Stats {
	return New(vol, views, consistency.VoxelColoring{Threshold: threshold}, opts...).Run()
}

// Run repeats full passes until one carves nothing or the pass limit is hit.
func (e *Engine) Run() Stats {
	log := Logger()
	var st Stats
	for len(st.Passes) < e.maxPasses {
		ps := e.Pass()
		st.Passes = append(st.Passes, ps)
		st.Carved += ps.Carved
		if ps.Carved == 0 {
			st.Converged = true
			break
		}
	}
	if !st.Converged {
		log.Warn("pass limit reached before convergence", "passes", len(st.Passes))
	}
	log.Info("carving finished", "passes", len(st.Passes), "carved", st.Carved, "converged", st.Converged)
	return st
}

// Pass runs every configured sweep once.
func (e *Engine) Pass() PassStats {
	e.pass++
	ps := PassStats{Pass: e.pass}
	if e.reset == ResetPerPass {
		e.resetMasks()
	}
	for i, s := range e.sweeps {
		if e.reset == ResetPerSweep {
			e.resetMasks()
		}
		ss := e.Sweep(s)
		ss.Index = i
		ps.Sweeps = append(ps.Sweeps, ss)
		ps.Carved += ss.Carved
		if e.observer != nil {
			e.observer(ss, e.vol)
		}
	}
	Logger().Info("pass complete", "pass", e.pass, "carved", ps.Carved)
	return ps
}

func (e *Engine) resetMasks() {
	for _, v := range e.views {
		v.ResetMask()
	}
}

// Sweep runs one directional plane sweep. Masks are not reset.
func (e *Engine) Sweep(s Sweep) SweepStats {
	log := Logger()
	st := SweepStats{Pass: e.pass, Sweep: s}
	valid := make([]int, len(e.views))
	cams := make([]r3.Vec, len(e.views))
	for i, v := range e.views {
		valid[i] = i
		cams[i] = e.position.of(v.Camera)
	}
	nb, nc := s.extent(e.vol)
	for i, n := 0, s.planes(e.vol); i < n; i++ {
		a := s.plane(e.vol, i)
		pos := s.position(e.vol, a)
		// a view dropped for one plane stays dropped for the rest of the sweep
		kept := valid[:0]
		for _, vi := range valid {
			if e.side.valid(s.component(cams[vi]), pos, s.direction()) {
				kept = append(kept, vi)
			}
		}
		valid = kept
		if log.Enabled(context.Background(), slog.LevelDebug) {
			log.Debug("carving plane", "sweep", s.String(), "plane", a, "position", pos, "views", len(valid))
		}
		for b := 0; b < nb; b++ {
			for c := 0; c < nc; c++ {
				x, y, z := s.voxel(a, b, c)
				vox := e.vol.Get(x, y, z)
				if vox.IsCarved() || !e.vol.VoxelVisible(x, y, z) {
					continue
				}
				st.Evaluated++
				next, claims, ok := e.evaluate(x, y, z, valid, cams)
				if !ok {
					continue
				}
				vox.Apply(next)
				if next.IsCarved() {
					st.Carved++
					continue
				}
				st.Colored++
				// evaluate only kept pixels that are free, already ours or
				// left by a carved voxel, so ownership passes to this voxel
				id := e.vol.Linear(x, y, z)
				for _, cl := range claims {
					e.views[cl.view].TakePixel(cl.x, cl.y, id)
				}
			}
		}
	}
	log.Info("sweep complete", "pass", e.pass, "sweep", s.String(), "evaluated", st.Evaluated, "carved", st.Carved)
	return st
}

// evaluate tests voxel (x,y,z) against the valid views. It reads the views
// but does not modify them or the volume: it returns the voxel's new state
// and, when kept, the pixels it should claim. ok is false when the voxel
// is to be left as it is.
func (e *Engine) evaluate(x, y, z int, valid []int, cams []r3.Vec) (next volume.Voxel, claims []claim, ok bool) {
	pos := e.vol.VoxelToPosition(x, y, z)
	id := e.vol.Linear(x, y, z)
	e.obs, e.claims = e.obs[:0], e.claims[:0]
	for _, vi := range valid {
		v := e.views[vi]
		px, py, inside := v.Project(pos)
		if !inside {
			continue
		}
		if e.occluded(v, px, py, id) {
			continue
		}
		e.obs = append(e.obs, consistency.Observation{
			Color: v.Pixel(px, py),
			Ray:   r3.Sub(cams[vi], pos),
		})
		e.claims = append(e.claims, claim{view: vi, x: px, y: py})
	}
	if len(e.obs) == 0 {
		if e.empty == EmptyKeep {
			return volume.Voxel{}, nil, false
		}
		return volume.NewCarved(), nil, true
	}
	c, consistent := e.checker.Check(e.obs)
	if !consistent {
		return volume.NewCarved(), nil, true
	}
	return volume.NewColored(c), e.claims, true
}

// occluded reports whether pixel (px,py) of v already belongs to another
// voxel that is still present. Claims left by the voxel itself or by voxels
// carved since do not block it.
func (e *Engine) occluded(v *view.View, px, py, id int) bool {
	owner, claimed := v.ClaimedBy(px, py)
	if !claimed || owner == id {
		return false
	}
	return e.vol.AtLinear(owner).IsPresent()
}
