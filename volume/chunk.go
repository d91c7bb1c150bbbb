package volume

import (
	"bytes"
	"encoding/binary"
	"math/bits"

	xxhash "github.com/cespare/xxhash/v2"
)

// chunker splits payloads at content-defined boundaries with a gear rolling
// hash, so frames that differ in a few voxels share most of their chunks.
type chunker struct {
	target, min, max int
	mask             uint64
}

var defaultChunker = newChunker(1024, 256, 8192)

// gear is derived from xxhash so the table is stable across builds.
var gear = func() (g [256]uint64) {
	seed := xxhash.Sum64String("cvol-cdc-gear-seed")
	var b [16]byte
	for i := range g {
		binary.LittleEndian.PutUint64(b[:8], seed+uint64(i)*0x9E3779B185EBCA87)
		binary.LittleEndian.PutUint64(b[8:], ^(seed + uint64(i)*0xC2B2AE3D27D4EB4F))
		if g[i] = xxhash.Sum64(b[:]); g[i] == 0 {
			g[i] = 0x9E3779B185EBCA87
		}
	}
	return g
}()

// newChunker rounds target down to a power of two; cuts happen on average
// every target bytes, never before min and always by max.
func newChunker(target, min, max int) chunker {
	pow := 1 << (bits.Len(uint(target)) - 1)
	return chunker{target: pow, min: min, max: max, mask: uint64(pow - 1)}
}

func (c chunker) split(data []byte) [][]byte {
	var out [][]byte
	var h uint64
	start := 0
	for pos, b := range data {
		h = h<<1 + gear[b]
		n := pos - start + 1
		if n < c.min {
			continue
		}
		if h&c.mask == 0 || n >= c.max {
			out = append(out, data[start:pos+1])
			start, h = pos+1, 0
		}
	}
	if start < len(data) {
		out = append(out, data[start:])
	}
	return out
}

// chunkDict interns chunks by content.
type chunkDict struct {
	chunks [][]byte
	index  map[uint64][]int
}

func (d *chunkDict) add(b []byte) int {
	if d.index == nil {
		d.index = make(map[uint64][]int)
	}
	h := xxhash.Sum64(b)
	for _, i := range d.index[h] {
		if bytes.Equal(d.chunks[i], b) {
			return i
		}
	}
	d.chunks = append(d.chunks, b)
	d.index[h] = append(d.index[h], len(d.chunks)-1)
	return len(d.chunks) - 1
}
