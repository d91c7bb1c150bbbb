package volume

import (
	"math/bits"
	"sort"
)

// Morton3D interleaves the low 21 bits of x, y and z.
func Morton3D(x, y, z uint32) uint64 {
	return part1By2(uint64(x)) |
		(part1By2(uint64(y)) << 1) |
		(part1By2(uint64(z)) << 2)
}

// MortonDecode3D is the inverse of Morton3D.
func MortonDecode3D(index uint64) (x, y, z uint32) {
	x = uint32(compact1By2(index))
	y = uint32(compact1By2(index >> 1))
	z = uint32(compact1By2(index >> 2))
	return
}

func part1By2(x uint64) uint64 {
	x &= 0x1fffff
	x = (x | (x << 32)) & 0x1f00000000ffff
	x = (x | (x << 16)) & 0x1f0000ff0000ff
	x = (x | (x << 8)) & 0x100f00f00f00f00f
	x = (x | (x << 4)) & 0x10c30c30c30c30c3
	x = (x | (x << 2)) & 0x1249249249249249
	return x
}

func compact1By2(x uint64) uint64 {
	x &= 0x1249249249249249
	x = (x ^ (x >> 2)) & 0x10c30c30c30c30c3
	x = (x ^ (x >> 4)) & 0x100f00f00f00f00f
	x = (x ^ (x >> 8)) & 0x1f0000ff0000ff
	x = (x ^ (x >> 16)) & 0x1f00000000ffff
	x = (x ^ (x >> 32)) & 0x1fffff
	return x
}

// MortonBits returns the number of interleaved bits needed to address the
// largest dimension.
func MortonBits(w, h, d int) int {
	m := max(w-1, h-1, d-1, 0)
	return bits.Len(uint(m)) * 3
}

// mortonOrder lists the flat indices of a w×h×d volume sorted by Morton key.
// Carved regions of a reconstruction are spatially coherent, so this order
// keeps runs of equal state together for the encoders.
func mortonOrder(w, h, d int) []int {
	type kv struct {
		key uint64
		i   int
	}
	idx := make([]kv, 0, w*h*d)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for z := 0; z < d; z++ {
				idx = append(idx, kv{Morton3D(uint32(x), uint32(y), uint32(z)), (y*w+x)*d + z})
			}
		}
	}
	sort.Slice(idx, func(a, b int) bool { return idx[a].key < idx[b].key })
	order := make([]int, len(idx))
	for i := range idx {
		order[i] = idx[i].i
	}
	return order
}
