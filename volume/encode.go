package volume

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

const (
	encDense  = 0 // 2-bit state per voxel, then RGB8 per colored voxel
	encSparse = 1 // kept bitmap, colored flag per kept voxel, then RGB8 per colored voxel

	encZstd = 0x80
)

type encoded struct {
	encoding uint8
	payload  []byte
}

func encodeDense(v *Volume, order []int) []byte {
	bw := newBitWriter(len(order)/4 + 1)
	for _, i := range order {
		bw.writeBits(uint64(v.data[i].state), 2)
	}
	for _, i := range order {
		if vox := v.data[i]; vox.state == Colored {
			bw.writeRGB(vox.color.RGB8())
		}
	}
	return bw.bytes()
}

func encodeSparse(v *Volume, order []int) []byte {
	bw := newBitWriter(len(order)/8 + 1)
	for _, i := range order {
		if v.data[i].IsPresent() {
			bw.writeBits(1, 1)
		} else {
			bw.writeBits(0, 1)
		}
	}
	for _, i := range order {
		switch v.data[i].state {
		case Colored:
			bw.writeBits(1, 1)
		case Untouched:
			bw.writeBits(0, 1)
		}
	}
	for _, i := range order {
		if vox := v.data[i]; vox.state == Colored {
			bw.writeRGB(vox.color.RGB8())
		}
	}
	return bw.bytes()
}

func decodeDense(v *Volume, order []int, payload []byte) error {
	br := newBitReader(payload)
	for _, i := range order {
		s, err := br.readBits(2)
		if err != nil {
			return err
		}
		if State(s) > Colored {
			return fmt.Errorf("%w: invalid voxel state %d", ErrBadSnapshot, s)
		}
		v.data[i].state = State(s)
	}
	return readColors(v, order, br)
}

func decodeSparse(v *Volume, order []int, payload []byte) error {
	br := newBitReader(payload)
	for _, i := range order {
		kept, err := br.readBits(1)
		if err != nil {
			return err
		}
		if kept == 0 {
			v.data[i].state = Carved
		}
	}
	for _, i := range order {
		if v.data[i].state == Carved {
			continue
		}
		colored, err := br.readBits(1)
		if err != nil {
			return err
		}
		if colored == 1 {
			v.data[i].state = Colored
		}
	}
	return readColors(v, order, br)
}

func readColors(v *Volume, order []int, br *bitReader) error {
	for _, i := range order {
		if v.data[i].state != Colored {
			continue
		}
		c, err := br.readRGB()
		if err != nil {
			return err
		}
		v.data[i].color = ColorFromRGB8(c[0], c[1], c[2])
	}
	return nil
}

func zstdCompress(b []byte) []byte {
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	defer enc.Close()
	return enc.EncodeAll(b, nil)
}

func zstdDecompress(b []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(b, nil)
}

func bestEncoding(v *Volume, order []int) encoded {
	candidates := []encoded{
		{encoding: encDense, payload: encodeDense(v, order)},
		{encoding: encSparse, payload: encodeSparse(v, order)},
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if len(c.payload) < len(best.payload) {
			best = c
		}
	}
	// also compare compressed versions of each
	for _, c := range candidates {
		zb := zstdCompress(c.payload)
		if len(zb) < len(best.payload) {
			best = encoded{encoding: c.encoding | encZstd, payload: zb}
		}
	}
	return best
}

func decodePayload(v *Volume, encByte uint8, payload []byte) error {
	if encByte&encZstd != 0 {
		var err error
		payload, err = zstdDecompress(payload)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
	}
	order := mortonOrder(v.Width, v.Height, v.Depth)
	var err error
	switch encByte &^ encZstd {
	case encDense:
		err = decodeDense(v, order, payload)
	case encSparse:
		err = decodeSparse(v, order, payload)
	default:
		return fmt.Errorf("%w: unknown encoding %d", ErrBadSnapshot, encByte)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	return nil
}
