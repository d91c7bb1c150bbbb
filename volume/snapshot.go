package volume

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	xxhash "github.com/cespare/xxhash/v2"
)

const (
	snapshotMagic   = "CVOL"
	snapshotVersion = 1
	// magic, ver, enc, w/h/d, voxel size, two corners, payload length, checksum
	snapshotHeaderLen = 4 + 1 + 1 + 3*4 + 8 + 6*8 + 4 + 8
)

var (
	ErrBadSnapshot = errors.New("volume: invalid snapshot")
	ErrChecksum    = errors.New("volume: snapshot checksum mismatch")
)

// MarshalSnapshot encodes the volume as a .cvol file, choosing the smallest
// of the available encodings.
func MarshalSnapshot(v *Volume) []byte {
	enc := bestEncoding(v, mortonOrder(v.Width, v.Height, v.Depth))
	return BuildSnapshot(HeaderOf(v), enc.encoding, enc.payload)
}

// BuildSnapshot assembles a full .cvol file from a header and an encoded payload.
func BuildSnapshot(h Header, enc uint8, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(snapshotHeaderLen + len(payload))
	buf.WriteString(snapshotMagic)
	_ = binary.Write(&buf, binary.LittleEndian, uint8(snapshotVersion))
	_ = binary.Write(&buf, binary.LittleEndian, enc)
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint32{h.Width, h.Height, h.Depth})
	_ = binary.Write(&buf, binary.LittleEndian, h.VoxelSize)
	_ = binary.Write(&buf, binary.LittleEndian, h.FrontTopLeft)
	_ = binary.Write(&buf, binary.LittleEndian, h.BackBottomRight)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))
	_ = binary.Write(&buf, binary.LittleEndian, xxhash.Sum64(payload))
	_, _ = buf.Write(payload)
	return buf.Bytes()
}

// ParseSnapshotHeader validates a .cvol file and splits it into header,
// encoding byte and payload. The payload checksum is verified.
func ParseSnapshotHeader(data []byte) (Header, uint8, []byte, error) {
	var h Header
	if len(data) < snapshotHeaderLen || string(data[:4]) != snapshotMagic {
		return h, 0, nil, fmt.Errorf("%w: missing %s magic", ErrBadSnapshot, snapshotMagic)
	}
	r := bytes.NewReader(data[4:snapshotHeaderLen])
	var (
		enc  uint8
		dims [3]uint32
		plen uint32
		sum  uint64
	)
	fields := []any{&h.Ver, &enc, &dims, &h.VoxelSize, &h.FrontTopLeft, &h.BackBottomRight, &plen, &sum}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return h, 0, nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
	}
	if h.Ver != snapshotVersion {
		return h, 0, nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, h.Ver)
	}
	h.Width, h.Height, h.Depth = dims[0], dims[1], dims[2]
	if h.Width == 0 || h.Height == 0 || h.Depth == 0 || !(h.VoxelSize > 0) {
		return h, 0, nil, fmt.Errorf("%w: degenerate geometry %dx%dx%d", ErrBadSnapshot, h.Width, h.Height, h.Depth)
	}
	if h.tooLarge() {
		return h, 0, nil, fmt.Errorf("%w: %dx%dx%d: %w", ErrBadSnapshot, h.Width, h.Height, h.Depth, ErrTooManyVoxels)
	}
	payload := data[snapshotHeaderLen:]
	if uint32(len(payload)) != plen {
		return h, 0, nil, fmt.Errorf("%w: payload length %d, header says %d", ErrBadSnapshot, len(payload), plen)
	}
	if xxhash.Sum64(payload) != sum {
		return h, 0, nil, ErrChecksum
	}
	return h, enc, payload, nil
}

// UnmarshalSnapshot decodes a .cvol file. Colors come back quantized to
// 8 bits per channel.
func UnmarshalSnapshot(data []byte) (*Volume, error) {
	h, enc, payload, err := ParseSnapshotHeader(data)
	if err != nil {
		return nil, err
	}
	v := h.empty()
	if err := decodePayload(v, enc, payload); err != nil {
		return nil, err
	}
	return v, nil
}

func SaveSnapshot(v *Volume, filename string) error {
	return os.WriteFile(filename, MarshalSnapshot(v), 0o644)
}

func LoadSnapshot(filename string) (*Volume, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	v, err := UnmarshalSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return v, nil
}
