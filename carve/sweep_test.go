package carve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelsplace/carve/view"
)

func TestDefaultSweepOrder(t *testing.T) {
	vol := cube2(t)
	got := DefaultSweeps(vol, whiteViews(camA, camB, camC), SideBehind, PositionTranslation)
	assert.Equal(t, []Sweep{
		{AxisY, false}, {AxisY, true},
		{AxisX, false}, {AxisX, true},
		{AxisZ, false}, {AxisZ, true},
	}, got)

	got = DefaultSweeps(vol, whiteViews(camB), SideBehind, PositionTranslation)
	assert.Equal(t, []Sweep{
		{AxisY, false}, {AxisY, true},
		{AxisX, true}, {AxisX, false},
		{AxisZ, true}, {AxisZ, false},
	}, got)

	got = DefaultSweeps(vol, whiteViews(camB), SideAhead, PositionTranslation)
	assert.Equal(t, Sweep{AxisX, false}, got[2])

	// t like camA, optical center -t like camB
	id := [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	v := []*view.View{view.New(view.NewCamera(id, id, camA), solidImage(4, 4, white))}
	assert.Equal(t, Sweep{AxisX, false}, DefaultSweeps(vol, v, SideBehind, PositionTranslation)[2])
	assert.Equal(t, Sweep{AxisX, true}, DefaultSweeps(vol, v, SideBehind, PositionCenter)[2])
}

func TestSweepVisitsEveryVoxelOnce(t *testing.T) {
	vol := cube4(t)
	for _, s := range DefaultSweeps(vol, nil, SideBehind, PositionTranslation) {
		seen := map[int]int{}
		nb, nc := s.extent(vol)
		for i := 0; i < s.planes(vol); i++ {
			a := s.plane(vol, i)
			for b := 0; b < nb; b++ {
				for c := 0; c < nc; c++ {
					x, y, z := s.voxel(a, b, c)
					seen[vol.Linear(x, y, z)]++
				}
			}
		}
		require.Len(t, seen, vol.Len(), "sweep %s", s)
		for _, n := range seen {
			require.Equal(t, 1, n)
		}
	}
}

func TestSweepDirection(t *testing.T) {
	vol := cube4(t)
	for _, s := range DefaultSweeps(vol, nil, SideBehind, PositionTranslation) {
		first := s.position(vol, s.plane(vol, 0))
		second := s.position(vol, s.plane(vol, 1))
		assert.Equal(t, s.direction() > 0, second > first, "sweep %s", s)
	}
	assert.Equal(t, "y+", TopDown.String())
	assert.Equal(t, "x-", Sweep{Axis: AxisX, Reverse: true}.String())
}

func TestParseOptions(t *testing.T) {
	r, err := ParseSideRule("ahead")
	require.NoError(t, err)
	assert.Equal(t, SideAhead, r)
	_, err = ParseSideRule("left")
	assert.Error(t, err)

	m, err := ParseMaskReset("sweep")
	require.NoError(t, err)
	assert.Equal(t, ResetPerSweep, m)
	m, err = ParseMaskReset("")
	require.NoError(t, err)
	assert.Equal(t, ResetPerPass, m)
	_, err = ParseMaskReset("never")
	assert.Error(t, err)

	p, err := ParseCameraPosition("center")
	require.NoError(t, err)
	assert.Equal(t, PositionCenter, p)
	_, err = ParseCameraPosition("origin")
	assert.Error(t, err)
}
