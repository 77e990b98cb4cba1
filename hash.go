package streambloom

import (
	"fmt"
	"strings"

	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"

	streamerrors "github.com/tamirms/streambloom/errors"
)

// HashScheme identifies the base hash function a filter derives its bit
// positions from. The scheme is recorded in the serialized header, so a
// blob is always probed with the function it was built with.
type HashScheme uint8

const (
	// HashXXH3 uses xxHash3-128. This is the default.
	HashXXH3 HashScheme = 0
	// HashMurmur3 uses MurmurHash3 x64-128.
	HashMurmur3 HashScheme = 1
)

// Hasher maps an item to the two base hash values used for double hashing.
type Hasher func(item []byte) (h1, h2 uint64)

var hashers = map[HashScheme]Hasher{
	HashXXH3:    hashXXH3,
	HashMurmur3: hashMurmur3,
}

func hashXXH3(item []byte) (uint64, uint64) {
	h := xxh3.Hash128(item)
	return h.Lo, h.Hi
}

func hashMurmur3(item []byte) (uint64, uint64) {
	return murmur3.Sum128(item)
}

// hasher returns the Hasher for s, or false if s is not a known scheme.
func (s HashScheme) hasher() (Hasher, bool) {
	h, ok := hashers[s]
	return h, ok
}

// String returns the CLI name of the scheme.
func (s HashScheme) String() string {
	switch s {
	case HashXXH3:
		return "xxh3"
	case HashMurmur3:
		return "murmur3"
	default:
		return fmt.Sprintf("HashScheme(%d)", uint8(s))
	}
}

// ParseHashScheme converts a CLI name ("xxh3", "murmur3") into a HashScheme.
func ParseHashScheme(name string) (HashScheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "xxh3":
		return HashXXH3, nil
	case "murmur3":
		return HashMurmur3, nil
	default:
		return 0, fmt.Errorf("%w: %q", streamerrors.ErrUnknownHashScheme, name)
	}
}
