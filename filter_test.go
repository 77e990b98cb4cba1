package streambloom

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeebo/xxh3"

	streamerrors "github.com/tamirms/streambloom/errors"
)

var allSchemes = []HashScheme{HashXXH3, HashMurmur3}

func TestNoFalseNegatives(t *testing.T) {
	for _, scheme := range allSchemes {
		for _, numKeys := range []int{1, 100, 10000} {
			t.Run(fmt.Sprintf("%s/N=%d", scheme, numKeys), func(t *testing.T) {
				rng := newTestRNG(t)
				keys := generateRandomKeys(rng, numKeys, 24)

				// Deliberately undersized as well as well-sized filters.
				for _, bitsPerKey := range []uint64{1, 4, 16} {
					f := buildFilter(t, uint64(numKeys)*bitsPerKey, 7, keys, WithHashScheme(scheme))
					for i, key := range keys {
						require.True(t, f.Test(key), "key %d missing with %d bits/key", i, bitsPerKey)
					}
				}
			})
		}
	}
}

func TestEmptyFilterRejectsEverything(t *testing.T) {
	rng := newTestRNG(t)
	f, err := New(80000, 5.7)
	require.NoError(t, err)

	for _, key := range generateRandomKeys(rng, 1000, 16) {
		require.False(t, f.Test(key))
	}
	require.False(t, f.Test(nil))
	require.Zero(t, f.Count())
	require.Zero(t, f.EstimatedFalsePositiveRate())
}

func TestInsertIdempotent(t *testing.T) {
	rng := newTestRNG(t)
	keys := generateRandomKeys(rng, 500, 20)

	once := buildFilter(t, 8192, 6, keys)
	twice := buildFilter(t, 8192, 6, keys)
	for _, key := range keys {
		twice.Insert(key)
	}

	require.True(t, once.Equal(twice))
	require.Equal(t, once.Serialize(), twice.Serialize())
}

func TestInsertIsMonotonic(t *testing.T) {
	rng := newTestRNG(t)
	f, err := New(4096, 4)
	require.NoError(t, err)

	prev := f.Count()
	for _, key := range generateRandomKeys(rng, 300, 12) {
		before := f.Serialize()[HeaderSize:]
		f.Insert(key)
		after := f.Serialize()[HeaderSize:]
		for i := range before {
			require.Equal(t, before[i], before[i]&after[i], "byte %d lost bits", i)
		}
		require.GreaterOrEqual(t, f.Count(), prev)
		prev = f.Count()
	}
}

// TestDoubleHashingPositions checks that Insert sets exactly the bits
// (h1 + i*h2) mod m for i in [0, k).
func TestDoubleHashingPositions(t *testing.T) {
	item := []byte("double hashing")
	f, err := New(1000, 5)
	require.NoError(t, err)
	f.Insert(item)

	h := xxh3.Hash128(item)
	want := make(map[uint64]bool)
	for i := uint64(0); i < 5; i++ {
		want[(h.Lo+i*h.Hi)%f.NumBits()] = true
	}
	for pos := range want {
		require.True(t, f.bits.Test(uint(pos)), "bit %d not set", pos)
	}
	require.Equal(t, uint64(len(want)), f.Count())
}

func TestNewRounding(t *testing.T) {
	cases := []struct {
		bits, hashes float64
		wantBits     uint64
		wantHashes   uint32
	}{
		{1, 1, 64, 1},
		{64, 1, 64, 1},
		{65, 2, 128, 2},
		{80000, 5.7, 80000, 6},
		{16384 * 8, 6, 16384 * 8, 6},
		{1437759, 10.06, 1437760, 11},
		{100, 0.01, 128, 1},
		{100, 3.0000001, 128, 4},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("m=%v,k=%v", tc.bits, tc.hashes), func(t *testing.T) {
			f, err := New(uint64(tc.bits), tc.hashes)
			require.NoError(t, err)
			require.Equal(t, tc.wantBits, f.NumBits())
			require.Equal(t, tc.wantHashes, f.NumHashes())
			require.Equal(t, HeaderSize+int(tc.wantBits/8), f.SerializedSize())
			require.Len(t, f.Serialize(), f.SerializedSize())
		})
	}
}

func TestNewInvalidArguments(t *testing.T) {
	cases := []struct {
		name   string
		bits   uint64
		hashes float64
		opts   []Option
		want   error
	}{
		{"zero bits", 0, 3, nil, streamerrors.ErrBadBitCount},
		{"too many bits", MaxNumBits + 1, 3, nil, streamerrors.ErrBadBitCount},
		{"zero hashes", 100, 0, nil, streamerrors.ErrBadHashCount},
		{"negative hashes", 100, -1, nil, streamerrors.ErrBadHashCount},
		{"NaN hashes", 100, math.NaN(), nil, streamerrors.ErrBadHashCount},
		{"infinite hashes", 100, math.Inf(1), nil, streamerrors.ErrBadHashCount},
		{"too many hashes", 100, MaxNumHashes + 0.5, nil, streamerrors.ErrBadHashCount},
		{"unknown scheme", 100, 3, []Option{WithHashScheme(HashScheme(42))}, streamerrors.ErrUnknownHashScheme},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.bits, tc.hashes, tc.opts...)
			require.ErrorIs(t, err, tc.want)
			require.ErrorIs(t, err, streamerrors.ErrInvalidArgument)
		})
	}
}

// TestFalsePositiveRateNearPrediction inserts a calculated number of keys
// and checks that non-member probes hit at roughly the predicted rate.
func TestFalsePositiveRateNearPrediction(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}
	const (
		numKeys   = 20000
		numProbes = 200000
	)
	for _, scheme := range allSchemes {
		t.Run(scheme.String(), func(t *testing.T) {
			rng := newTestRNG(t)
			calc, err := Calculate(numKeys, 0.01, WithCalcHashScheme(scheme))
			require.NoError(t, err)

			keys := generateRandomKeys(rng, numKeys, 16)
			f := buildFilter(t, calc.Requested.NumBits, calc.Requested.NumHashes, keys, WithHashScheme(scheme))

			// Probes are 17 bytes long so they can never equal a member.
			hits := 0
			for _, probe := range generateRandomKeys(rng, numProbes, 17) {
				if f.Test(probe) {
					hits++
				}
			}
			observed := float64(hits) / numProbes
			predicted := calc.Actual.FalsePositiveRate
			require.Less(t, observed, predicted*2, "observed %.5f predicted %.5f", observed, predicted)
			require.Greater(t, observed, predicted/2, "observed %.5f predicted %.5f", observed, predicted)
			require.InDelta(t, predicted, f.EstimatedFalsePositiveRate(), predicted)
		})
	}
}

func TestSchemesDisagree(t *testing.T) {
	rng := newTestRNG(t)
	keys := generateRandomKeys(rng, 100, 16)
	a := buildFilter(t, 4096, 4, keys, WithHashScheme(HashXXH3))
	b := buildFilter(t, 4096, 4, keys, WithHashScheme(HashMurmur3))

	require.False(t, a.Equal(b))
	require.NotEqual(t, a.Serialize()[HeaderSize:], b.Serialize()[HeaderSize:])
}

func TestParseHashScheme(t *testing.T) {
	for _, scheme := range allSchemes {
		got, err := ParseHashScheme(scheme.String())
		require.NoError(t, err)
		require.Equal(t, scheme, got)
	}

	got, err := ParseHashScheme("")
	require.NoError(t, err)
	require.Equal(t, HashXXH3, got)

	got, err = ParseHashScheme(" MURMUR3 ")
	require.NoError(t, err)
	require.Equal(t, HashMurmur3, got)

	_, err = ParseHashScheme("sha1")
	require.ErrorIs(t, err, streamerrors.ErrUnknownHashScheme)
	require.Equal(t, "HashScheme(9)", HashScheme(9).String())
}
