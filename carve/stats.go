package carve

// SweepStats summarizes one directional sweep.
type SweepStats struct {
	Pass      int
	Index     int // position of the sweep within its pass
	Sweep     Sweep
	Evaluated int
	Carved    int
	Colored   int
}

// PassStats summarizes one full pass.
type PassStats struct {
	Pass   int
	Carved int
	Sweeps []SweepStats
}

// Stats summarizes a whole carve.
type Stats struct {
	Passes    []PassStats
	Carved    int
	Converged bool
}

// SweepCarved flattens the per-sweep carved counts in run order.
func (s Stats) SweepCarved() []int {
	var out []int
	for _, p := range s.Passes {
		for _, sw := range p.Sweeps {
			out = append(out, sw.Carved)
		}
	}
	return out
}
