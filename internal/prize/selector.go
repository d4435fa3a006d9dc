package prize

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/sirupsen/logrus"
)

// Source yields uniform floats in [0,1). *math/rand.Rand satisfies it, which
// makes seeded draws reproducible in tests.
type Source interface {
	Float64() float64
}

const float53 = 1 << 53

// cryptoSource draws from a CSPRNG reader, crypto/rand by default.
type cryptoSource struct {
	r io.Reader
}

// Float64 panics when the reader fails. Drawing a fixed value instead would
// bias every spin toward the first entry.
func (s cryptoSource) Float64() float64 {
	n, err := rand.Int(s.r, big.NewInt(float53))
	if err != nil {
		logrus.WithField("error", err.Error()).Panic("Random source failed, refusing to draw")
	}
	return float64(n.Int64()) / float53
}

// CryptoSource returns the default CSPRNG-backed source.
func CryptoSource() Source {
	return cryptoSource{r: rand.Reader}
}

// Selector draws outcomes proportionally to their weight.
type Selector struct {
	src Source
}

// NewSelector returns a selector using src, or the crypto source when src is nil.
func NewSelector(src Source) *Selector {
	if src == nil {
		src = CryptoSource()
	}
	return &Selector{src: src}
}

// Select draws one outcome. See SelectIndex.
func (s *Selector) Select(entries []Outcome) Outcome {
	_, o := s.SelectIndex(entries)
	return o
}

// SelectIndex draws r in [0, Σweight) and returns the first entry whose
// cumulative weight exceeds r. When rounding leaves r at or past the final
// cumulative sum the last entry is returned. An empty slice yields -1.
func (s *Selector) SelectIndex(entries []Outcome) (int, Outcome) {
	if len(entries) == 0 {
		return -1, Outcome{}
	}
	r := s.src.Float64() * totalWeight(entries)
	var cumulative float64
	for i, e := range entries {
		cumulative += e.Weight
		if r < cumulative {
			return i, e
		}
	}
	last := len(entries) - 1
	return last, entries[last]
}
