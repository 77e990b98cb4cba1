package streambloom

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

// newTestRNG returns a PCG generator seeded from the test name, so every
// test sees a stable but distinct stream.
func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// fillFromRNG fills buf with pseudo-random bytes from rng.
func fillFromRNG(rng *rand.Rand, buf []byte) {
	for i := 0; i+8 <= len(buf); i += 8 {
		binary.LittleEndian.PutUint64(buf[i:], rng.Uint64())
	}
	if tail := len(buf) % 8; tail > 0 {
		v := rng.Uint64()
		start := len(buf) - tail
		for j := 0; j < tail; j++ {
			buf[start+j] = byte(v >> (j * 8))
		}
	}
}

// generateRandomKeys creates n deterministic pseudo-random keys of the specified size.
func generateRandomKeys(rng *rand.Rand, n, keySize int) [][]byte {
	keys := make([][]byte, n)
	for i := range keys {
		keys[i] = make([]byte, keySize)
		fillFromRNG(rng, keys[i])
	}
	return keys
}

// buildFilter creates a filter and inserts every key.
func buildFilter(t testing.TB, numBits uint64, numHashes float64, keys [][]byte, opts ...Option) *Filter {
	t.Helper()
	f, err := New(numBits, numHashes, opts...)
	require.NoError(t, err)
	for _, key := range keys {
		f.Insert(key)
	}
	return f
}
