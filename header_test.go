package streambloom

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	streamerrors "github.com/tamirms/streambloom/errors"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := header{
		Magic:       magic,
		Version:     version,
		Scheme:      HashMurmur3,
		NumHashes:   11,
		NumBits:     1437760,
		PayloadHash: 0xDEADBEEFCAFEF00D,
	}
	buf := make([]byte, HeaderSize)
	h.encodeTo(buf)

	require.Equal(t, []byte("MLBS"), buf[0:4], "magic is little-endian on the wire")
	got, err := decodeHeader(buf)
	require.NoError(t, err)
	require.Equal(t, h, *got)
	require.Equal(t, uint64(179720), got.payloadSize())
}

func TestRoundTripFidelity(t *testing.T) {
	for _, scheme := range allSchemes {
		t.Run(scheme.String(), func(t *testing.T) {
			rng := newTestRNG(t)
			keys := generateRandomKeys(rng, 2000, 24)
			f := buildFilter(t, 20000, 7, keys, WithHashScheme(scheme))

			g, err := Deserialize(f.Serialize())
			require.NoError(t, err)
			require.True(t, f.Equal(g))
			require.Equal(t, f.NumBits(), g.NumBits())
			require.Equal(t, f.NumHashes(), g.NumHashes())
			require.Equal(t, scheme, g.Scheme())

			for _, key := range keys {
				require.True(t, g.Test(key))
			}
			for _, probe := range generateRandomKeys(rng, 5000, 24) {
				require.Equal(t, f.Test(probe), g.Test(probe))
			}
			require.Equal(t, f.Serialize(), g.Serialize())
		})
	}
}

func TestDeserializeDoesNotAliasBlob(t *testing.T) {
	f := buildFilter(t, 256, 3, [][]byte{[]byte("a")})
	blob := f.Serialize()
	g, err := Deserialize(blob)
	require.NoError(t, err)

	clear(blob)
	require.True(t, g.Test([]byte("a")))
}

func TestBinaryMarshaler(t *testing.T) {
	f := buildFilter(t, 1024, 4, [][]byte{[]byte("x"), []byte("y")})
	data, err := f.MarshalBinary()
	require.NoError(t, err)

	var g Filter
	require.NoError(t, g.UnmarshalBinary(data))
	require.True(t, f.Equal(&g))

	require.ErrorIs(t, g.UnmarshalBinary(data[:10]), streamerrors.ErrMalformedBlob)
	require.True(t, f.Equal(&g), "failed unmarshal must not modify the filter")
}

// TestDeserializeMalformed corrupts a valid blob one field at a time. Every
// failure must surface as ErrMalformedBlob as well as its specific cause.
func TestDeserializeMalformed(t *testing.T) {
	valid := buildFilter(t, 1024, 4, [][]byte{[]byte("k")}).Serialize()

	mutate := func(fn func(b []byte) []byte) []byte {
		b := append([]byte(nil), valid...)
		return fn(b)
	}

	cases := []struct {
		name string
		blob []byte
		want error
	}{
		{"empty", nil, streamerrors.ErrTruncatedBlob},
		{"short header", valid[:HeaderSize-1], streamerrors.ErrTruncatedBlob},
		{"bad magic", mutate(func(b []byte) []byte { b[0] ^= 0xFF; return b }), streamerrors.ErrInvalidMagic},
		{"bad version", mutate(func(b []byte) []byte { b[4] = 9; return b }), streamerrors.ErrInvalidVersion},
		{"unknown scheme", mutate(func(b []byte) []byte { b[5] = 200; return b }), streamerrors.ErrBlobHashScheme},
		{"zero hashes", mutate(func(b []byte) []byte {
			binary.LittleEndian.PutUint16(b[6:8], 0)
			return b
		}), streamerrors.ErrCorruptedHeader},
		{"zero bits", mutate(func(b []byte) []byte {
			binary.LittleEndian.PutUint64(b[8:16], 0)
			return b
		}), streamerrors.ErrCorruptedHeader},
		{"unaligned bits", mutate(func(b []byte) []byte {
			binary.LittleEndian.PutUint64(b[8:16], 1000)
			return b
		}), streamerrors.ErrCorruptedHeader},
		{"oversized bits", mutate(func(b []byte) []byte {
			binary.LittleEndian.PutUint64(b[8:16], MaxNumBits*2)
			return b
		}), streamerrors.ErrCorruptedHeader},
		{"header only", valid[:HeaderSize], streamerrors.ErrPayloadSizeMismatch},
		{"truncated payload", valid[:len(valid)-1], streamerrors.ErrPayloadSizeMismatch},
		{"trailing bytes", append(append([]byte(nil), valid...), 0), streamerrors.ErrPayloadSizeMismatch},
		{"declares more bits", mutate(func(b []byte) []byte {
			binary.LittleEndian.PutUint64(b[8:16], 2048)
			return b
		}), streamerrors.ErrPayloadSizeMismatch},
		{"flipped payload bit", mutate(func(b []byte) []byte { b[HeaderSize+3] ^= 0x10; return b }), streamerrors.ErrChecksumFailed},
		{"bad checksum", mutate(func(b []byte) []byte { b[16] ^= 0x01; return b }), streamerrors.ErrChecksumFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Deserialize(tc.blob)
			require.Nil(t, f)
			require.ErrorIs(t, err, tc.want)
			require.ErrorIs(t, err, streamerrors.ErrMalformedBlob)
		})
	}
}
