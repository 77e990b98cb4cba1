package streambloom

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"

	streamerrors "github.com/tamirms/streambloom/errors"
	intbits "github.com/tamirms/streambloom/internal/bits"
)

const (
	// MaxNumBits is the largest bit array a filter may allocate (8 GiB).
	MaxNumBits = uint64(1) << 36

	// MaxNumHashes is the largest hash count the header can encode.
	MaxNumHashes = math.MaxUint16
)

// Filter is a Bloom filter over arbitrary byte items.
//
// Thread Safety: a Filter is not safe for concurrent use. Insert mutates the
// bit array without synchronization; callers that share a filter across
// goroutines must serialize access.
type Filter struct {
	bits      *bitset.BitSet
	numBits   uint64 // multiple of 64
	numHashes uint32
	scheme    HashScheme
	hasher    Hasher
}

// New returns an empty filter of at least numBits bits using ceil(numHashes)
// hash positions per item.
//
// numBits is rounded up to a whole number of 64-bit words. numHashes may be
// fractional (sizing math upstream produces fractional counts) but the
// filter always probes an integer number of positions.
func New(numBits uint64, numHashes float64, opts ...Option) (*Filter, error) {
	cfg := defaultFilterConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if numBits == 0 || numBits > MaxNumBits {
		return nil, fmt.Errorf("%w: %d", streamerrors.ErrBadBitCount, numBits)
	}
	k, err := resolveHashCount(numHashes)
	if err != nil {
		return nil, err
	}
	hasher, ok := cfg.scheme.hasher()
	if !ok {
		return nil, fmt.Errorf("%w: %d", streamerrors.ErrUnknownHashScheme, uint8(cfg.scheme))
	}

	m := intbits.RoundUpToWord(numBits)
	return &Filter{
		bits:      bitset.New(uint(m)),
		numBits:   m,
		numHashes: k,
		scheme:    cfg.scheme,
		hasher:    hasher,
	}, nil
}

// resolveHashCount validates a requested hash count and rounds it up.
func resolveHashCount(numHashes float64) (uint32, error) {
	if !(numHashes > 0) || math.IsInf(numHashes, 0) {
		return 0, fmt.Errorf("%w: %v", streamerrors.ErrBadHashCount, numHashes)
	}
	k := math.Ceil(numHashes)
	if k > MaxNumHashes {
		return 0, fmt.Errorf("%w: %v", streamerrors.ErrBadHashCount, numHashes)
	}
	return uint32(k), nil
}

// Insert adds item to the filter. Inserting the same item again leaves the
// bit array unchanged.
func (f *Filter) Insert(item []byte) {
	h1, h2 := f.baseHashes(item)
	for i := uint32(0); i < f.numHashes; i++ {
		f.bits.Set(uint(h1 % f.numBits))
		h1 += h2
	}
}

// Test reports whether item may be in the set. A false result is certain;
// a true result is a false positive with probability depending on how full
// the filter is.
func (f *Filter) Test(item []byte) bool {
	h1, h2 := f.baseHashes(item)
	for i := uint32(0); i < f.numHashes; i++ {
		if !f.bits.Test(uint(h1 % f.numBits)) {
			return false
		}
		h1 += h2
	}
	return true
}

// baseHashes returns h1, h2 for double hashing. Position i is
// (h1 + i*h2) mod numBits, evaluated in wrapping uint64 arithmetic.
// h2 is forced non-zero so the k positions are not all the same bit.
func (f *Filter) baseHashes(item []byte) (uint64, uint64) {
	h1, h2 := f.hasher(item)
	if h2 == 0 {
		h2 = 1
	}
	return h1, h2
}

// NumBits returns the size of the bit array after rounding.
func (f *Filter) NumBits() uint64 { return f.numBits }

// NumHashes returns the integer hash count used for Insert and Test.
func (f *Filter) NumHashes() uint32 { return f.numHashes }

// Scheme returns the filter's hash scheme.
func (f *Filter) Scheme() HashScheme { return f.scheme }

// Count returns the number of set bits.
func (f *Filter) Count() uint64 { return uint64(f.bits.Count()) }

// FillRatio returns the fraction of bits that are set.
func (f *Filter) FillRatio() float64 {
	return float64(f.Count()) / float64(f.numBits)
}

// EstimatedFalsePositiveRate returns fill^k, the false positive probability
// implied by the filter's current occupancy.
func (f *Filter) EstimatedFalsePositiveRate() float64 {
	return math.Pow(f.FillRatio(), float64(f.numHashes))
}

// Equal reports whether f and other have the same geometry, hash scheme and
// bit contents, and therefore answer every Test identically.
func (f *Filter) Equal(other *Filter) bool {
	if other == nil {
		return false
	}
	return f.numBits == other.numBits &&
		f.numHashes == other.numHashes &&
		f.scheme == other.scheme &&
		f.bits.Equal(other.bits)
}

// SerializedSize returns the exact length of Serialize's output.
func (f *Filter) SerializedSize() int {
	return HeaderSize + int(intbits.PayloadBytes(f.numBits))
}

// Serialize encodes the filter as header followed by the packed bit array.
func (f *Filter) Serialize() []byte {
	buf := make([]byte, f.SerializedSize())
	f.encodeTo(buf)
	return buf
}

// encodeTo writes the serialized filter into buf, which must be at least
// SerializedSize bytes.
func (f *Filter) encodeTo(buf []byte) {
	payload := buf[HeaderSize:f.SerializedSize()]
	for i, w := range f.bits.Bytes() {
		binary.LittleEndian.PutUint64(payload[i*8:], w)
	}
	h := header{
		Magic:       magic,
		Version:     version,
		Scheme:      f.scheme,
		NumHashes:   uint16(f.numHashes),
		NumBits:     f.numBits,
		PayloadHash: xxhash.Sum64(payload),
	}
	h.encodeTo(buf[:HeaderSize])
}

// WriteTo writes the serialized filter to w.
func (f *Filter) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Serialize())
	return int64(n), err
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (f *Filter) MarshalBinary() ([]byte, error) {
	return f.Serialize(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. On error f is left
// unchanged.
func (f *Filter) UnmarshalBinary(data []byte) error {
	decoded, err := Deserialize(data)
	if err != nil {
		return err
	}
	*f = *decoded
	return nil
}

// Deserialize reconstructs a filter from a blob produced by Serialize.
// The returned filter does not retain blob.
func Deserialize(blob []byte) (*Filter, error) {
	h, err := decodeHeader(blob)
	if err != nil {
		return nil, err
	}
	payload := blob[HeaderSize:]
	if uint64(len(payload)) != h.payloadSize() {
		return nil, fmt.Errorf("%w: header declares %d bytes, got %d",
			streamerrors.ErrPayloadSizeMismatch, h.payloadSize(), len(payload))
	}
	if xxhash.Sum64(payload) != h.PayloadHash {
		return nil, streamerrors.ErrChecksumFailed
	}

	words := make([]uint64, intbits.Words(h.NumBits))
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(payload[i*8:])
	}
	hasher, _ := h.Scheme.hasher() // validated by decodeHeader
	return &Filter{
		bits:      bitset.From(words),
		numBits:   h.NumBits,
		numHashes: uint32(h.NumHashes),
		scheme:    h.Scheme,
		hasher:    hasher,
	}, nil
}
