package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/voxelsplace/carve/mesh"
	"github.com/voxelsplace/carve/volume"
)

const glbGenerator = "carve"

var outputFormats = map[string]bool{".ply": true, ".glb": true, ".stl": true, ".cvol": true}

// CheckOutputFormat reports an error for extensions SaveVolume cannot write.
func CheckOutputFormat(path string) error {
	if ext := strings.ToLower(filepath.Ext(path)); !outputFormats[ext] {
		return fmt.Errorf("unsupported output format %q (want .ply, .glb, .stl or .cvol)", ext)
	}
	return nil
}

// SaveVolume writes vol in the format named by the file extension:
// .ply (one cube per kept voxel), .glb (greedy mesh), .stl (greedy mesh,
// no color) or .cvol (snapshot).
func SaveVolume(vol *volume.Volume, path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".ply":
		return mesh.SavePLY(vol, path)
	case ".glb":
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return mesh.SaveGLB(path, glbGenerator, mesh.Node{Name: name, Mesh: mesh.Greedy(vol)})
	case ".stl":
		return mesh.SaveSTL(mesh.Greedy(vol), path)
	case ".cvol":
		return volume.SaveSnapshot(vol, path)
	default:
		return fmt.Errorf("unsupported output format %q (want .ply, .glb, .stl or .cvol)", ext)
	}
}

// RunExport converts a .cvol snapshot into any format SaveVolume knows.
func RunExport(inPath, outPath string) error {
	vol, err := volume.LoadSnapshot(inPath)
	if err != nil {
		return err
	}
	return SaveVolume(vol, outPath)
}
