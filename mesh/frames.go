package mesh

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/voxelsplace/carve/volume"
)

// FrameNodes meshes every frame and lays them out side by side on a square
// grid in the x/z plane.
func FrameNodes(pack *volume.Pack) ([]Node, error) {
	n := len(pack.Entries)
	if n == 0 {
		return nil, fmt.Errorf("empty frame pack")
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	h := pack.Header
	stepX := float64(h.Width) * h.VoxelSize
	stepZ := float64(h.Depth) * h.VoxelSize

	nodes := make([]Node, n)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, e := range pack.Entries {
		g.Go(func() error {
			vol, err := pack.Volume(i)
			if err != nil {
				return err
			}
			r, c := i/cols, i%cols
			nodes[i] = Node{
				Name:        e.Name,
				Mesh:        Greedy(vol),
				Translation: [3]float64{float64(c) * stepX, 0, float64(r) * stepZ},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return nodes, nil
}
