// Package bits provides low-level helpers for sizing word-backed bit arrays.
package bits

// WordBits is the storage granularity of the filter bit array.
const WordBits = 64

// CeilDiv returns ceil(a/b). b must be non-zero.
func CeilDiv(a, b uint64) uint64 {
	return a/b + min(a%b, 1)
}

// Words returns the number of 64-bit words needed to hold n bits.
func Words(n uint64) uint64 {
	return CeilDiv(n, WordBits)
}

// RoundUpToWord rounds n up to the next multiple of WordBits.
// Zero stays zero. Callers must keep n at least WordBits below the
// uint64 limit.
func RoundUpToWord(n uint64) uint64 {
	return Words(n) * WordBits
}

// PayloadBytes returns the packed byte length of an n-bit array, ceil(n/8).
func PayloadBytes(n uint64) uint64 {
	return CeilDiv(n, 8)
}
