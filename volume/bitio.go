package volume

import "io"

type bitWriter struct {
	buf []byte
	acc uint64
	n   uint8
}

func newBitWriter(capacity int) *bitWriter { return &bitWriter{buf: make([]byte, 0, capacity)} }

func (w *bitWriter) writeBits(v uint64, bits uint8) {
	w.acc |= (v & ((1 << bits) - 1)) << w.n
	w.n += bits
	for w.n >= 8 {
		w.buf = append(w.buf, byte(w.acc&0xFF))
		w.acc >>= 8
		w.n -= 8
	}
}

func (w *bitWriter) writeRGB(c [3]uint8) {
	w.writeBits(uint64(c[0])|uint64(c[1])<<8|uint64(c[2])<<16, 24)
}

// bytes flushes the partial trailing byte and returns the stream.
func (w *bitWriter) bytes() []byte {
	if w.n > 0 {
		w.buf = append(w.buf, byte(w.acc&0xFF))
		w.acc = 0
		w.n = 0
	}
	return w.buf
}

type bitReader struct {
	data []byte
	acc  uint64
	n    uint8
	pos  int
}

func newBitReader(b []byte) *bitReader { return &bitReader{data: b} }

func (r *bitReader) readBits(bits uint8) (uint64, error) {
	for r.n < bits {
		if r.pos >= len(r.data) {
			return 0, io.ErrUnexpectedEOF
		}
		r.acc |= uint64(r.data[r.pos]) << r.n
		r.n += 8
		r.pos++
	}
	mask := uint64((1 << bits) - 1)
	v := r.acc & mask
	r.acc >>= bits
	r.n -= bits
	return v, nil
}

func (r *bitReader) readRGB() ([3]uint8, error) {
	v, err := r.readBits(24)
	if err != nil {
		return [3]uint8{}, err
	}
	return [3]uint8{uint8(v), uint8(v >> 8), uint8(v >> 16)}, nil
}
