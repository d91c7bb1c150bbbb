package volume

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// PackCompression indicates the compression used for the pack content section.
type PackCompression uint8

const (
	PackCompNone PackCompression = 0
	PackCompZstd PackCompression = 2
)

const (
	packMagic   = "CVOLPACK"
	packVersion = 1
)

var ErrBadPack = errors.New("volume: invalid frame pack")

// PackLayout specifies how the content section encodes entries.
type PackLayout uint8

const (
	// LayoutRaw stores entries as independent payload blobs.
	LayoutRaw PackLayout = 0
	// LayoutCDC stores a content-defined chunk dictionary and entries as
	// sequences of chunk refs.
	LayoutCDC PackLayout = 1
)

// PackEntry is a single snapshot payload inside the pack.
type PackEntry struct {
	Name    string
	Enc     uint8
	Payload []byte
}

// Pack is an ordered series of snapshots sharing one geometry.
type Pack struct {
	Header  Header
	Entries []PackEntry
}

// NewPack starts an empty pack for volumes shaped like v.
func NewPack(v *Volume) *Pack {
	return &Pack{Header: HeaderOf(v)}
}

// Add encodes v and appends it as a new entry.
func (p *Pack) Add(name string, v *Volume) error {
	if h := HeaderOf(v); !h.SameGeometry(p.Header) {
		return fmt.Errorf("pack entry %s: geometry %dx%dx%d does not match pack %dx%dx%d",
			name, h.Width, h.Height, h.Depth, p.Header.Width, p.Header.Height, p.Header.Depth)
	}
	if len(name) > 0xFFFF {
		return fmt.Errorf("pack entry name too long (%d bytes)", len(name))
	}
	// frames stay dense and uncompressed so consecutive ones chunk alike
	payload := encodeDense(v, mortonOrder(v.Width, v.Height, v.Depth))
	p.Entries = append(p.Entries, PackEntry{Name: name, Enc: encDense, Payload: payload})
	return nil
}

// Snapshot rebuilds entry i as a complete .cvol file.
func (p *Pack) Snapshot(i int) []byte {
	e := p.Entries[i]
	return BuildSnapshot(p.Header, e.Enc, e.Payload)
}

// Volume decodes entry i.
func (p *Pack) Volume(i int) (*Volume, error) {
	v := p.Header.empty()
	if err := decodePayload(v, p.Entries[i].Enc, p.Entries[i].Payload); err != nil {
		return nil, fmt.Errorf("entry %d (%s): %w", i, p.Entries[i].Name, err)
	}
	return v, nil
}

// Marshal encodes the pack with the CDC layout and zstd compression.
func (p *Pack) Marshal() ([]byte, error) {
	return p.MarshalEx(LayoutCDC, PackCompZstd)
}

// MarshalEx encodes the pack with the given layout and compression.
//
// File layout: magic, version, compression byte, then the (possibly
// compressed) content: geometry, layout byte and the layout body.
func (p *Pack) MarshalEx(layout PackLayout, comp PackCompression) ([]byte, error) {
	var w packWriter
	w.header(p.Header)
	w.u8(uint8(layout))
	switch layout {
	case LayoutRaw:
		w.u32(uint32(len(p.Entries)))
		for _, e := range p.Entries {
			w.name(e.Name)
			w.u8(e.Enc)
			w.blob(e.Payload)
		}
	case LayoutCDC:
		c := defaultChunker
		w.u32(uint32(c.target))
		w.u32(uint32(c.min))
		w.u32(uint32(c.max))
		var dict chunkDict
		seqs := make([][]int, len(p.Entries))
		for i, e := range p.Entries {
			for _, chunk := range c.split(e.Payload) {
				seqs[i] = append(seqs[i], dict.add(chunk))
			}
		}
		w.u32(uint32(len(dict.chunks)))
		for _, chunk := range dict.chunks {
			w.blob(chunk)
		}
		w.u32(uint32(len(p.Entries)))
		for i, e := range p.Entries {
			w.name(e.Name)
			w.u8(e.Enc)
			w.u32(uint32(len(e.Payload)))
			w.u32(uint32(len(seqs[i])))
			for _, ref := range seqs[i] {
				w.u32(uint32(ref))
			}
		}
	default:
		return nil, fmt.Errorf("unsupported pack layout: %d", layout)
	}

	content := w.buf.Bytes()
	switch comp {
	case PackCompNone:
	case PackCompZstd:
		content = zstdCompress(content)
	default:
		return nil, fmt.Errorf("unsupported pack compression: %d", comp)
	}
	out := make([]byte, 0, len(packMagic)+2+len(content))
	out = append(out, packMagic...)
	out = append(out, packVersion, uint8(comp))
	return append(out, content...), nil
}

// UnmarshalPack parses a .cvpack and returns the pack and the compression used.
func UnmarshalPack(data []byte) (*Pack, PackCompression, error) {
	if len(data) < len(packMagic)+2 || string(data[:len(packMagic)]) != packMagic {
		return nil, 0, fmt.Errorf("%w: missing %s magic", ErrBadPack, packMagic)
	}
	if v := data[len(packMagic)]; v != packVersion {
		return nil, 0, fmt.Errorf("%w: unsupported version %d", ErrBadPack, v)
	}
	comp := PackCompression(data[len(packMagic)+1])
	content := data[len(packMagic)+2:]
	switch comp {
	case PackCompNone:
	case PackCompZstd:
		b, err := zstdDecompress(content)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrBadPack, err)
		}
		content = b
	default:
		return nil, 0, fmt.Errorf("%w: unsupported compression %d", ErrBadPack, comp)
	}

	r := &packReader{data: content}
	pack := &Pack{Header: r.header()}
	switch layout := PackLayout(r.u8()); layout {
	case LayoutRaw:
		pack.Entries = readRawEntries(r)
	case LayoutCDC:
		pack.Entries = readCDCEntries(r)
	default:
		if r.err == nil {
			r.fail("unknown layout %d", layout)
		}
	}
	if r.err != nil {
		return nil, 0, r.err
	}
	return pack, comp, nil
}

func readRawEntries(r *packReader) []PackEntry {
	n := r.count(7)
	entries := make([]PackEntry, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		e := PackEntry{Name: r.name(), Enc: r.u8()}
		e.Payload = append([]byte(nil), r.blob()...)
		entries = append(entries, e)
	}
	return entries
}

func readCDCEntries(r *packReader) []PackEntry {
	r.skip(12) // chunker parameters, informational
	chunks := make([][]byte, r.count(4))
	for i := range chunks {
		chunks[i] = r.blob()
	}
	n := r.count(11)
	entries := make([]PackEntry, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		e := PackEntry{Name: r.name(), Enc: r.u8()}
		rawLen := int(r.u32())
		refs := r.count(4)
		e.Payload = make([]byte, 0, rawLen)
		for j := 0; j < refs && r.err == nil; j++ {
			ref := int(r.u32())
			if ref >= len(chunks) {
				r.fail("entry %s: chunk ref %d of %d", e.Name, ref, len(chunks))
				break
			}
			if len(e.Payload)+len(chunks[ref]) > rawLen {
				r.fail("entry %s: chunks exceed %d bytes", e.Name, rawLen)
				break
			}
			e.Payload = append(e.Payload, chunks[ref]...)
		}
		if r.err == nil && len(e.Payload) != rawLen {
			r.fail("entry %s: rebuilt %d bytes, want %d", e.Name, len(e.Payload), rawLen)
		}
		entries = append(entries, e)
	}
	return entries
}

// packWriter appends little-endian fields to a buffer. Writes to a
// bytes.Buffer cannot fail.
type packWriter struct {
	buf bytes.Buffer
}

func (w *packWriter) u8(v uint8) { w.buf.WriteByte(v) }

func (w *packWriter) u32(v uint32) {
	w.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}

func (w *packWriter) f64(v float64) {
	w.buf.Write(binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)))
}

// name writes a u16 length-prefixed string. Add bounds the length.
func (w *packWriter) name(s string) {
	w.buf.Write(binary.LittleEndian.AppendUint16(nil, uint16(len(s))))
	w.buf.WriteString(s)
}

// blob writes a u32 length-prefixed byte string.
func (w *packWriter) blob(b []byte) {
	w.u32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *packWriter) header(h Header) {
	w.u8(snapshotVersion)
	w.u32(h.Width)
	w.u32(h.Height)
	w.u32(h.Depth)
	w.f64(h.VoxelSize)
	for _, c := range [2][3]float64{h.FrontTopLeft, h.BackBottomRight} {
		for _, v := range c {
			w.f64(v)
		}
	}
}

// packReader consumes little-endian fields. The first failure sticks: later
// reads return zero values and err keeps the original cause.
type packReader struct {
	data []byte
	off  int
	err  error
}

func (r *packReader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s", ErrBadPack, fmt.Sprintf(format, args...))
	}
}

func (r *packReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data)-r.off < n {
		r.fail("truncated at byte %d", r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *packReader) skip(n int) { r.take(n) }

func (r *packReader) u8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *packReader) u32() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *packReader) f64() float64 {
	if b := r.take(8); b != nil {
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return 0
}

// count reads an element count and rejects it when the remaining bytes
// cannot hold that many elements of at least minSize bytes each.
func (r *packReader) count(minSize int) int {
	n := int(r.u32())
	if r.err == nil && n > (len(r.data)-r.off)/minSize {
		r.fail("count %d exceeds remaining %d bytes", n, len(r.data)-r.off)
		return 0
	}
	return n
}

func (r *packReader) name() string {
	b := r.take(2)
	if b == nil {
		return ""
	}
	return string(r.take(int(binary.LittleEndian.Uint16(b))))
}

func (r *packReader) blob() []byte {
	n := int(r.u32())
	return r.take(n)
}

func (r *packReader) header() Header {
	h := Header{Ver: r.u8()}
	h.Width, h.Height, h.Depth = r.u32(), r.u32(), r.u32()
	h.VoxelSize = r.f64()
	for i := range h.FrontTopLeft {
		h.FrontTopLeft[i] = r.f64()
	}
	for i := range h.BackBottomRight {
		h.BackBottomRight[i] = r.f64()
	}
	if r.err == nil && (h.Width == 0 || h.Height == 0 || h.Depth == 0 || !(h.VoxelSize > 0)) {
		r.fail("degenerate geometry %dx%dx%d", h.Width, h.Height, h.Depth)
	}
	if r.err == nil && h.tooLarge() {
		r.fail("geometry %dx%dx%d exceeds %d voxels", h.Width, h.Height, h.Depth, MaxVoxels)
	}
	return h
}
