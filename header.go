package streambloom

import (
	"encoding/binary"

	streamerrors "github.com/tamirms/streambloom/errors"
	intbits "github.com/tamirms/streambloom/internal/bits"
)

const (
	// magic number for serialized filters
	// "SBLM" in big-endian reading order
	magic = uint32(0x53424C4D)

	// version is the current format version
	version = uint8(0x01)

	// HeaderSize is the exact size of the serialized header (24 bytes).
	HeaderSize = 24
)

// header is the 24-byte blob header.
//
// Layout:
//
//	Offset  Size  Field        Type
//	0       4     Magic        0x53424C4D ("SBLM")
//	4       1     Version      0x01
//	5       1     HashScheme   uint8 (0=xxh3, 1=murmur3)
//	6       2     NumHashes    uint16_le
//	8       8     NumBits      uint64_le (multiple of 64)
//	16      8     PayloadHash  uint64_le (xxHash64 of payload)
//
// The payload follows immediately: NumBits/8 bytes, the bit array's 64-bit
// words in little-endian order, so bit j is bit j%8 of byte j/8.
type header struct {
	Magic       uint32     // 4 bytes
	Version     uint8      // 1 byte
	Scheme      HashScheme // 1 byte
	NumHashes   uint16     // 2 bytes
	NumBits     uint64     // 8 bytes
	PayloadHash uint64     // 8 bytes
}

// encodeTo serializes the header to an existing buffer.
func (h *header) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.Version
	buf[5] = uint8(h.Scheme)
	binary.LittleEndian.PutUint16(buf[6:8], h.NumHashes)
	binary.LittleEndian.PutUint64(buf[8:16], h.NumBits)
	binary.LittleEndian.PutUint64(buf[16:24], h.PayloadHash)
}

// decodeHeader parses a 24-byte header and validates its fields.
// It does not look at the payload.
func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < HeaderSize {
		return nil, streamerrors.ErrTruncatedBlob
	}

	h := &header{
		Magic:       binary.LittleEndian.Uint32(buf[0:4]),
		Version:     buf[4],
		Scheme:      HashScheme(buf[5]),
		NumHashes:   binary.LittleEndian.Uint16(buf[6:8]),
		NumBits:     binary.LittleEndian.Uint64(buf[8:16]),
		PayloadHash: binary.LittleEndian.Uint64(buf[16:24]),
	}

	if h.Magic != magic {
		return nil, streamerrors.ErrInvalidMagic
	}
	if h.Version != version {
		return nil, streamerrors.ErrInvalidVersion
	}
	if _, ok := h.Scheme.hasher(); !ok {
		return nil, streamerrors.ErrBlobHashScheme
	}
	if h.NumHashes == 0 {
		return nil, streamerrors.ErrCorruptedHeader
	}
	if h.NumBits == 0 || h.NumBits > MaxNumBits || h.NumBits%intbits.WordBits != 0 {
		return nil, streamerrors.ErrCorruptedHeader
	}

	return h, nil
}

// payloadSize returns the payload length the header declares.
func (h *header) payloadSize() uint64 {
	return intbits.PayloadBytes(h.NumBits)
}
