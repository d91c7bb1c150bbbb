// Package api converts carving results entirely in memory, for callers that
// have no filesystem such as the wasm build.
package api

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/voxelsplace/carve/mesh"
	"github.com/voxelsplace/carve/volume"
)

const generator = "carve"

// SnapshotToPLY takes .cvol bytes and returns the ASCII PLY cube model.
func SnapshotToPLY(snapshot []byte) ([]byte, error) {
	vol, err := volume.UnmarshalSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := mesh.WritePLY(&out, vol); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// SnapshotToGLB takes .cvol bytes and returns a .glb of the greedy mesh.
func SnapshotToGLB(snapshot []byte) ([]byte, error) {
	vol, err := volume.UnmarshalSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := mesh.EncodeGLB(&out, generator, mesh.Node{Name: "volume", Mesh: mesh.Greedy(vol)}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// PackSnapshots builds a .cvpack from named .cvol blobs, ordered by name.
// All snapshots must share one geometry.
func PackSnapshots(files map[string][]byte) ([]byte, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files")
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var pack *volume.Pack
	for _, name := range names {
		vol, err := volume.UnmarshalSnapshot(files[name])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if pack == nil {
			pack = volume.NewPack(vol)
		}
		if err := pack.Add(name, vol); err != nil {
			return nil, err
		}
	}
	return pack.Marshal()
}

// UnpackToMemory returns a map of frame name to .cvol bytes from a .cvpack blob.
func UnpackToMemory(packBytes []byte) (map[string][]byte, error) {
	pack, _, err := volume.UnmarshalPack(packBytes)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(pack.Entries))
	for i, e := range pack.Entries {
		out[e.Name] = pack.Snapshot(i)
	}
	return out, nil
}

// PackToGLB turns every frame of a .cvpack into one node of a .glb, laid
// out on a grid.
func PackToGLB(packBytes []byte) ([]byte, error) {
	pack, _, err := volume.UnmarshalPack(packBytes)
	if err != nil {
		return nil, err
	}
	nodes, err := mesh.FrameNodes(pack)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := mesh.EncodeGLB(&out, generator+" frames", nodes...); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
