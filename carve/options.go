package carve

import (
	"fmt"

	"github.com/voxelsplace/carve/volume"
)

// MaskReset selects when the views' occlusion masks are cleared.
type MaskReset uint8

const (
	// ResetPerPass clears masks once at the start of every full pass.
	ResetPerPass MaskReset = iota
	// ResetPerSweep clears masks before each directional sweep.
	ResetPerSweep
)

func (m MaskReset) String() string {
	if m == ResetPerSweep {
		return "sweep"
	}
	return "pass"
}

// ParseMaskReset accepts "pass" or "sweep".
func ParseMaskReset(s string) (MaskReset, error) {
	switch s {
	case "pass", "":
		return ResetPerPass, nil
	case "sweep":
		return ResetPerSweep, nil
	}
	return 0, fmt.Errorf("unknown mask reset %q (want pass or sweep)", s)
}

// EmptyEvidence is the fate of a frontier voxel no valid view can see.
type EmptyEvidence uint8

const (
	// EmptyCarve removes voxels without evidence.
	EmptyCarve EmptyEvidence = iota
	// EmptyKeep leaves them in their current state.
	EmptyKeep
)

// Observer is called after every sweep with its statistics and the volume
// as it stands. It must not modify the volume.
type Observer func(SweepStats, *volume.Volume)

type Option func(*Engine)

// WithSideRule sets the camera side test. Default SideBehind.
func WithSideRule(r SideRule) Option {
	return func(e *Engine) { e.side = r }
}

// WithCameraPosition sets which point represents a camera. Default
// PositionTranslation.
func WithCameraPosition(p CameraPosition) Option {
	return func(e *Engine) { e.position = p }
}

// WithMaskReset sets when occlusion masks are cleared. Default ResetPerPass.
func WithMaskReset(m MaskReset) Option {
	return func(e *Engine) { e.reset = m }
}

// WithSweeps replaces the six default sweeps of a pass.
func WithSweeps(s ...Sweep) Option {
	return func(e *Engine) { e.sweeps = append([]Sweep(nil), s...) }
}

// WithMaxPasses caps the convergence loop. Values below 1 keep the default
// of width·height·depth.
func WithMaxPasses(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxPasses = n
		}
	}
}

// WithEmptyEvidence sets the policy for voxels no view can see. Default EmptyCarve.
func WithEmptyEvidence(p EmptyEvidence) Option {
	return func(e *Engine) { e.empty = p }
}

// WithObserver registers fn to run after each sweep.
func WithObserver(fn Observer) Option {
	return func(e *Engine) { e.observer = fn }
}
