package api

import (
	"bytes"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxelsplace/carve/volume"
)

func frame(t *testing.T, carved int) []byte {
	t.Helper()
	v, err := volume.New(1, r3.Vec{Y: 2}, r3.Vec{X: 2, Z: -2})
	require.NoError(t, err)
	for i := 0; i < v.Len(); i++ {
		x, y, z := v.Coords(i)
		if i < carved {
			v.Get(x, y, z).Carve()
		} else {
			v.Get(x, y, z).SetColor(volume.ColorFromRGB8(200, 100, 50))
		}
	}
	return volume.MarshalSnapshot(v)
}

func TestSnapshotToPLY(t *testing.T) {
	out, err := SnapshotToPLY(frame(t, 6))
	require.NoError(t, err)
	s := string(out)
	assert.True(t, strings.HasPrefix(s, "ply\n"))
	assert.Contains(t, s, "element vertex 16\n")
	assert.Contains(t, s, " 200 100 50\n")

	_, err = SnapshotToPLY([]byte("garbage"))
	assert.ErrorIs(t, err, volume.ErrBadSnapshot)
}

func TestSnapshotToGLB(t *testing.T) {
	out, err := SnapshotToGLB(frame(t, 0))
	require.NoError(t, err)
	doc := new(gltf.Document)
	require.NoError(t, gltf.NewDecoder(bytes.NewReader(out)).Decode(doc))
	require.Len(t, doc.Meshes, 1)
	assert.Equal(t, "carve", doc.Asset.Generator)
}

func TestPackRoundTrip(t *testing.T) {
	files := map[string][]byte{
		"f1.cvol": frame(t, 1),
		"f0.cvol": frame(t, 0),
		"f2.cvol": frame(t, 2),
	}
	packed, err := PackSnapshots(files)
	require.NoError(t, err)

	pack, _, err := volume.UnmarshalPack(packed)
	require.NoError(t, err)
	require.Len(t, pack.Entries, 3)
	assert.Equal(t, "f0.cvol", pack.Entries[0].Name)

	back, err := UnpackToMemory(packed)
	require.NoError(t, err)
	require.Len(t, back, 3)
	for name, want := range files {
		got, err := volume.UnmarshalSnapshot(back[name])
		require.NoError(t, err, name)
		orig, err := volume.UnmarshalSnapshot(want)
		require.NoError(t, err)
		assert.Equal(t, orig.Counts(), got.Counts(), name)
	}

	glb, err := PackToGLB(packed)
	require.NoError(t, err)
	doc := new(gltf.Document)
	require.NoError(t, gltf.NewDecoder(bytes.NewReader(glb)).Decode(doc))
	assert.Len(t, doc.Nodes, 3)
}

func TestPackSnapshotsRejects(t *testing.T) {
	_, err := PackSnapshots(nil)
	assert.Error(t, err)

	other, err := volume.New(0.5, r3.Vec{Y: 2}, r3.Vec{X: 2, Z: -2})
	require.NoError(t, err)
	_, err = PackSnapshots(map[string][]byte{"a": frame(t, 0), "b": volume.MarshalSnapshot(other)})
	assert.Error(t, err, "geometry mismatch")

	_, err = PackToGLB([]byte("nope"))
	assert.Error(t, err)
}
