package utils

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxelsplace/carve/carve"
	"github.com/voxelsplace/carve/dataset"
	"github.com/voxelsplace/carve/mesh"
	"github.com/voxelsplace/carve/volume"
)

// smallVolume is a 2x2x2 grid with one voxel of each state and the rest
// colored.
func smallVolume(t *testing.T) *volume.Volume {
	t.Helper()
	vol, err := volume.New(1, r3.Vec{Y: 2}, r3.Vec{X: 2, Z: -2})
	require.NoError(t, err)
	vol.Each(func(x, y, z int, _ volume.Voxel) {
		vol.Get(x, y, z).SetColor(volume.ColorFromRGB8(uint8(40*x+10), uint8(40*y+20), uint8(40*z+30)))
	})
	vol.Get(0, 0, 0).Carve()
	*vol.Get(1, 1, 1) = volume.Voxel{}
	return vol
}

func nonEmptyFile(t *testing.T, path string) {
	t.Helper()
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, fi.Size(), int64(0), path)
}

func TestSaveVolumeFormats(t *testing.T) {
	dir := t.TempDir()
	vol := smallVolume(t)
	for _, name := range []string{"out.ply", "out.glb", "out.stl", "out.cvol", "OUT.PLY"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveVolume(vol, path), name)
		nonEmptyFile(t, path)
	}

	back, err := volume.LoadSnapshot(filepath.Join(dir, "out.cvol"))
	require.NoError(t, err)
	assert.Equal(t, vol.Counts(), back.Counts())

	err = SaveVolume(vol, filepath.Join(dir, "out.obj"))
	assert.ErrorContains(t, err, ".obj")
}

func TestRunExportMatchesDirectPLY(t *testing.T) {
	dir := t.TempDir()
	vol := smallVolume(t)
	snap := filepath.Join(dir, "vol.cvol")
	require.NoError(t, volume.SaveSnapshot(vol, snap))

	out := filepath.Join(dir, "vol.ply")
	require.NoError(t, RunExport(snap, out))
	got, err := os.ReadFile(out)
	require.NoError(t, err)

	var want bytes.Buffer
	require.NoError(t, mesh.WritePLY(&want, vol))
	assert.Equal(t, want.String(), string(got))

	assert.Error(t, RunExport(filepath.Join(dir, "missing.cvol"), out))
}

func recordFrames(t *testing.T, vol *volume.Volume) *FrameRecorder {
	t.Helper()
	rec := NewFrameRecorder(vol)
	sweeps := []carve.Sweep{carve.TopDown, {Axis: carve.AxisY, Reverse: true}, {Axis: carve.AxisX}}
	for i, s := range sweeps {
		vol.Get(i%2, 1, i/2).Carve()
		rec.Observe(carve.SweepStats{Pass: 1, Index: i, Sweep: s, Carved: 1}, vol)
	}
	return rec
}

func TestFrameRecorder(t *testing.T) {
	dir := t.TempDir()
	vol := smallVolume(t)
	rec := recordFrames(t, vol)
	require.Equal(t, 3, rec.Len())

	path := filepath.Join(dir, "frames.cvpack")
	require.NoError(t, rec.Save(path))
	pack, err := LoadFrames(path)
	require.NoError(t, err)
	require.Len(t, pack.Entries, 3)
	assert.Equal(t, "pass001_y+", pack.Entries[0].Name)
	assert.Equal(t, "pass001_x+", pack.Entries[2].Name)

	carved := []int{2, 3, 4}
	for i := range pack.Entries {
		v, err := pack.Volume(i)
		require.NoError(t, err)
		assert.Equal(t, carved[i], v.Counts()[volume.Carved], "frame %d", i)
	}
	last, err := pack.Volume(2)
	require.NoError(t, err)
	assert.Equal(t, vol.Counts(), last.Counts())
}

func TestFramesToPLY(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frames.cvpack")
	require.NoError(t, recordFrames(t, smallVolume(t)).Save(path))

	out := filepath.Join(dir, "ply")
	require.NoError(t, RunFramesToPLY(path, out))
	for _, name := range []string{"carve_0000.ply", "carve_0001.ply", "carve_0002.ply"} {
		nonEmptyFile(t, filepath.Join(out, name))
	}
	_, err := os.Stat(filepath.Join(out, "carve_0003.ply"))
	assert.True(t, os.IsNotExist(err))
}

func TestFramesToGLB(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frames.cvpack")
	require.NoError(t, recordFrames(t, smallVolume(t)).Save(path))

	out := filepath.Join(dir, "frames.glb")
	require.NoError(t, RunFramesToGLB(path, out))
	doc, err := gltf.Open(out)
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 3)
	// two columns, volumes are 2 units wide and deep
	assert.Equal(t, [3]float64{0, 0, 0}, doc.Nodes[0].Translation)
	assert.Equal(t, [3]float64{2, 0, 0}, doc.Nodes[1].Translation)
	assert.Equal(t, [3]float64{0, 0, 2}, doc.Nodes[2].Translation)
	assert.Equal(t, "pass001_y-", doc.Nodes[1].Name)
}

func TestPlotConvergence(t *testing.T) {
	dir := t.TempDir()
	st := carve.Stats{
		Passes: []carve.PassStats{
			{Pass: 1, Carved: 7, Sweeps: []carve.SweepStats{{Carved: 5, Colored: 2}, {Carved: 2, Colored: 3}}},
			{Pass: 2, Sweeps: []carve.SweepStats{{Colored: 3}, {Colored: 3}}},
		},
		Carved:    7,
		Converged: true,
	}
	path := filepath.Join(dir, "plot.png")
	require.NoError(t, PlotConvergence(st, path))
	nonEmptyFile(t, path)

	assert.Error(t, PlotConvergence(carve.Stats{}, filepath.Join(dir, "empty.png")))
}

func TestRunInfo(t *testing.T) {
	dir := t.TempDir()
	vol := smallVolume(t)
	snap := filepath.Join(dir, "vol.cvol")
	require.NoError(t, volume.SaveSnapshot(vol, snap))

	var buf bytes.Buffer
	require.NoError(t, RunInfo(snap, &buf))
	out := buf.String()
	assert.Contains(t, out, "dimensions: 2x2x2 (8 voxels)")
	assert.Contains(t, out, "untouched: 1\ncarved: 1\ncolored: 6\n")

	frames := filepath.Join(dir, "frames.cvpack")
	require.NoError(t, recordFrames(t, vol).Save(frames))
	buf.Reset()
	require.NoError(t, RunInfo(frames, &buf))
	assert.Contains(t, buf.String(), "frame 2: pass001_x+")

	assert.Error(t, RunInfo(filepath.Join(dir, "nope.cvol"), &buf))
}

func TestGenerateSynthetic(t *testing.T) {
	o := DefaultSyntheticOptions(t.TempDir())
	path, err := RunGenerateSynthetic(o)
	require.NoError(t, err)

	cfg, err := dataset.LoadConfig(path)
	require.NoError(t, err)
	views, err := dataset.LoadViews(context.Background(), cfg, 0)
	require.NoError(t, err)
	require.Len(t, views, o.Views)

	for i, v := range views {
		assert.InDelta(t, o.Distance, r3.Norm(v.Camera.Center()), 1e-9, "view %d", i)

		// the box center is on screen and lit
		x, y, ok := v.Project(r3.Vec{})
		require.True(t, ok, "view %d", i)
		assert.InDelta(t, o.ImageSize/2, x, 1)
		assert.InDelta(t, o.ImageSize/2, y, 1)
		c := v.Pixel(x, y)
		assert.Greater(t, c.R+c.G+c.B, 0.5, "view %d", i)
	}
	// cameras alternate above and below the box
	assert.Greater(t, views[0].Camera.Center().Y, 0.0)
	assert.Less(t, views[1].Camera.Center().Y, 0.0)
}

func TestGenerateSyntheticRejects(t *testing.T) {
	o := DefaultSyntheticOptions(t.TempDir())
	o.Distance = 1
	_, err := RunGenerateSynthetic(o)
	assert.Error(t, err)

	o = DefaultSyntheticOptions("")
	_, err = RunGenerateSynthetic(o)
	assert.Error(t, err)
}

func TestHitBox(t *testing.T) {
	h := r3.Vec{X: 1, Y: 1, Z: 1}
	face, ok := hitBox(r3.Vec{Y: 5}, r3.Vec{Y: -1}, h)
	require.True(t, ok)
	assert.Equal(t, 3, face, "+y face")

	face, ok = hitBox(r3.Vec{X: -5}, r3.Vec{X: 1}, h)
	require.True(t, ok)
	assert.Equal(t, 0, face, "-x face")

	_, ok = hitBox(r3.Vec{X: -5, Y: 3}, r3.Vec{X: 1}, h)
	assert.False(t, ok)
	_, ok = hitBox(r3.Vec{X: 5}, r3.Vec{X: 1}, h)
	assert.False(t, ok, "box behind the ray")
}

func TestRunCarveSynthetic(t *testing.T) {
	dir := t.TempDir()
	path, err := RunGenerateSynthetic(DefaultSyntheticOptions(filepath.Join(dir, "data")))
	require.NoError(t, err)

	o := DefaultCarveOptions()
	o.Dataset = path
	o.VoxelSize = 0.25
	o.Position = carve.PositionCenter
	o.Output = filepath.Join(dir, "carved.ply")
	o.Snapshot = filepath.Join(dir, "carved.cvol")
	o.Frames = filepath.Join(dir, "frames.cvpack")
	o.Plot = filepath.Join(dir, "convergence.png")

	st, err := RunCarve(context.Background(), o)
	require.NoError(t, err)
	assert.True(t, st.Converged)
	assert.Greater(t, st.Carved, 0)
	assert.Equal(t, 0, st.Passes[len(st.Passes)-1].Carved)

	for _, p := range []string{o.Output, o.Snapshot, o.Frames, o.Plot} {
		nonEmptyFile(t, p)
	}
	vol, err := volume.LoadSnapshot(o.Snapshot)
	require.NoError(t, err)
	assert.Equal(t, 8, vol.Width)
	assert.Equal(t, st.Carved, vol.Counts()[volume.Carved])

	pack, err := LoadFrames(o.Frames)
	require.NoError(t, err)
	assert.Len(t, pack.Entries, 6*len(st.Passes))
}

func TestRunCarveErrors(t *testing.T) {
	dir := t.TempDir()
	path, err := RunGenerateSynthetic(DefaultSyntheticOptions(dir))
	require.NoError(t, err)

	o := DefaultCarveOptions()
	o.Dataset = path
	o.VoxelSize = 0.25
	o.Output = filepath.Join(dir, "out.obj")
	_, err = RunCarve(context.Background(), o)
	assert.ErrorContains(t, err, "unsupported output format")

	o.Output = filepath.Join(dir, "out.ply")
	o.NumImages = 9
	_, err = RunCarve(context.Background(), o)
	assert.ErrorIs(t, err, dataset.ErrCalibration)

	o.NumImages = 0
	o.VoxelSize = 0
	_, err = RunCarve(context.Background(), o)
	assert.ErrorIs(t, err, volume.ErrInvalidVoxelSize)

	o.VoxelSize = 0.25
	o.Threshold = 0
	_, err = RunCarve(context.Background(), o)
	assert.Error(t, err)

	o.Threshold = 0.3
	o.Dataset = filepath.Join(dir, "missing.json")
	_, err = RunCarve(context.Background(), o)
	assert.Error(t, err)
}
