package streambloom

import (
	"fmt"
	"math"

	streamerrors "github.com/tamirms/streambloom/errors"
)

// DefaultHashRatio is the hash-count to bits-per-item ratio used when no
// hash hint is given, slightly above the theoretical ln 2.
const DefaultHashRatio = 0.7

// FilterParameters is the requested sizing of a filter.
type FilterParameters struct {
	NumBits           uint64  `json:"num_bits"`
	NumHashes         float64 `json:"num_hashes"`
	ItemCount         uint64  `json:"num_items"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
	BitsPerItem       float64 `json:"bits_per_item"`
	HashRatio         float64 `json:"num_hashes_to_bits_per_item_ratio"`
}

// ActualFilterParameters is what a filter built from FilterParameters really
// looks like once the engine rounds bit and hash counts.
type ActualFilterParameters struct {
	NumBits           uint64  `json:"num_bits"`
	NumHashes         uint32  `json:"num_hashes"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
	SerializedSize    int     `json:"serialized_size_bytes"`
}

// Calculation is the fully resolved result of Calculate.
type Calculation struct {
	Requested FilterParameters       `json:"requested"`
	Actual    ActualFilterParameters `json:"actual"`
}

// CalcOption selects how Calculate resolves the hash count. At most one may
// be passed.
type CalcOption func(*calcConfig)

type hashHint uint8

const (
	hintDefault hashHint = iota
	hintExplicit
	hintRatio
	hintOptimal
)

type calcConfig struct {
	hints     int
	hint      hashHint
	numHashes float64
	ratio     float64
	scheme    HashScheme
}

// WithNumHashes fixes the hash count.
func WithNumHashes(k float64) CalcOption {
	return func(c *calcConfig) {
		c.hints++
		c.hint = hintExplicit
		c.numHashes = k
	}
}

// WithHashRatio derives the hash count as ratio * bits per item.
func WithHashRatio(ratio float64) CalcOption {
	return func(c *calcConfig) {
		c.hints++
		c.hint = hintRatio
		c.ratio = ratio
	}
}

// WithOptimalHashCount derives the hash count as ln 2 * bits per item.
func WithOptimalHashCount() CalcOption {
	return func(c *calcConfig) {
		c.hints++
		c.hint = hintOptimal
	}
}

// WithCalcHashScheme sets the hash scheme of the trial filter. The scheme
// does not change sizing; it is carried so the trial matches the filter the
// caller will build.
func WithCalcHashScheme(s HashScheme) CalcOption {
	return func(c *calcConfig) {
		c.scheme = s
	}
}

func newCalcConfig(opts []CalcOption) (*calcConfig, error) {
	cfg := &calcConfig{scheme: HashXXH3}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.hints > 1 {
		return nil, streamerrors.ErrConflictingHashHints
	}
	return cfg, nil
}

// Calculate sizes a filter for itemCount items at the target false positive
// rate: m = n*ln(1/p)/(ln 2)^2.
func Calculate(itemCount uint64, falsePositiveRate float64, opts ...CalcOption) (Calculation, error) {
	cfg, err := newCalcConfig(opts)
	if err != nil {
		return Calculation{}, err
	}
	if itemCount == 0 {
		return Calculation{}, streamerrors.ErrZeroItems
	}
	if !(falsePositiveRate > 0 && falsePositiveRate <= 0.5) {
		return Calculation{}, fmt.Errorf("%w: %v", streamerrors.ErrFalsePositiveRange, falsePositiveRate)
	}

	n := float64(itemCount)
	m := n * math.Log(1/falsePositiveRate) / (math.Ln2 * math.Ln2)
	if m > float64(MaxNumBits) {
		return Calculation{}, fmt.Errorf("%w: %.0f bits needed", streamerrors.ErrBadBitCount, m)
	}
	bitsPerItem := m / n

	var k, ratio float64
	switch cfg.hint {
	case hintExplicit:
		k = cfg.numHashes
		ratio = k / bitsPerItem
	case hintOptimal:
		k = bitsPerItem * math.Ln2
		ratio = math.Ln2
	default:
		ratio = DefaultHashRatio
		if cfg.hint == hintRatio {
			ratio = cfg.ratio
		}
		if !(ratio > 0) || math.IsInf(ratio, 0) {
			return Calculation{}, fmt.Errorf("%w: %v", streamerrors.ErrBadHashRatio, ratio)
		}
		k = ratio * bitsPerItem
	}

	req := FilterParameters{
		NumBits:           max(uint64(math.Round(m)), 1),
		NumHashes:         k,
		ItemCount:         itemCount,
		FalsePositiveRate: falsePositiveRate,
		BitsPerItem:       bitsPerItem,
		HashRatio:         ratio,
	}
	actual, err := measure(req, cfg.scheme)
	if err != nil {
		return Calculation{}, err
	}
	return Calculation{Requested: req, Actual: actual}, nil
}

// FromBitsAndHashes resolves explicitly chosen m and k. The item count is
// not known, so one byte per item (n = m/8) is assumed for reporting.
func FromBitsAndHashes(numBits uint64, numHashes float64, opts ...CalcOption) (Calculation, error) {
	cfg, err := newCalcConfig(opts)
	if err != nil {
		return Calculation{}, err
	}
	if numBits == 0 || numBits > MaxNumBits {
		return Calculation{}, fmt.Errorf("%w: %d", streamerrors.ErrBadBitCount, numBits)
	}

	n := max(numBits/8, 1)
	bitsPerItem := float64(numBits) / float64(n)
	req := FilterParameters{
		NumBits:           numBits,
		NumHashes:         numHashes,
		ItemCount:         n,
		FalsePositiveRate: falsePositive(numHashes, n, numBits),
		BitsPerItem:       bitsPerItem,
		HashRatio:         numHashes / bitsPerItem,
	}
	actual, err := measure(req, cfg.scheme)
	if err != nil {
		return Calculation{}, err
	}
	return Calculation{Requested: req, Actual: actual}, nil
}

// measure builds a trial filter and reads its real footprint, so engine
// rounding is observed rather than assumed.
func measure(req FilterParameters, scheme HashScheme) (ActualFilterParameters, error) {
	trial, err := New(req.NumBits, req.NumHashes, WithHashScheme(scheme))
	if err != nil {
		return ActualFilterParameters{}, err
	}
	size := trial.SerializedSize()
	bits := uint64(size-HeaderSize) * 8
	k := trial.NumHashes()
	return ActualFilterParameters{
		NumBits:           bits,
		NumHashes:         k,
		FalsePositiveRate: falsePositive(float64(k), req.ItemCount, bits),
		SerializedSize:    size,
	}, nil
}

// falsePositive is the standard estimate (1 - e^(-k*n/m))^k.
func falsePositive(k float64, n, m uint64) float64 {
	return math.Pow(1-math.Exp(-k*float64(n)/float64(m)), k)
}
