package utils

import (
	"fmt"
	"io"

	"github.com/voxelsplace/carve/volume"
)

// Describe writes a short human-readable summary of vol.
func Describe(w io.Writer, vol *volume.Volume) error {
	c := vol.Counts()
	_, err := fmt.Fprintf(w,
		"dimensions: %dx%dx%d (%d voxels)\nvoxel size: %g\nfront top left: (%g, %g, %g)\nback bottom right: (%g, %g, %g)\nuntouched: %d\ncarved: %d\ncolored: %d\n",
		vol.Width, vol.Height, vol.Depth, vol.Len(),
		vol.VoxelSize,
		vol.FrontTopLeft.X, vol.FrontTopLeft.Y, vol.FrontTopLeft.Z,
		vol.BackBottomRight.X, vol.BackBottomRight.Y, vol.BackBottomRight.Z,
		c[volume.Untouched], c[volume.Carved], c[volume.Colored],
	)
	return err
}

// RunInfo describes a .cvol snapshot, or every frame of a .cvpack.
func RunInfo(path string, w io.Writer) error {
	if pack, err := LoadFrames(path); err == nil {
		for i, e := range pack.Entries {
			vol, err := pack.Volume(i)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "frame %d: %s\n", i, e.Name); err != nil {
				return err
			}
			if err := Describe(w, vol); err != nil {
				return err
			}
		}
		return nil
	}
	vol, err := volume.LoadSnapshot(path)
	if err != nil {
		return err
	}
	return Describe(w, vol)
}
