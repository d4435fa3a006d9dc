package prize

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func TestSelectConvergesToWeights(t *testing.T) {
	tests := []struct {
		name    string
		entries []Outcome
	}{
		{
			name:    "reference wheel",
			entries: DefaultTable().Entries(),
		},
		{
			name: "weights not summing to 100",
			entries: []Outcome{
				{Label: "a", Weight: 1},
				{Label: "b", Weight: 3},
				{Label: "c", Weight: 6, IsJackpot: true},
			},
		},
	}

	const trials = 400000
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewSelector(rand.New(rand.NewSource(7)))
			counts := make([]int, len(tt.entries))
			for i := 0; i < trials; i++ {
				idx, _ := sel.SelectIndex(tt.entries)
				counts[idx]++
			}
			total := totalWeight(tt.entries)
			for i, e := range tt.entries {
				want := e.Weight / total
				got := float64(counts[i]) / trials
				assert.InDelta(t, want, got, 0.005, "entry %s", e.Label)
			}
		})
	}
}

func TestSelectBoundaries(t *testing.T) {
	entries := []Outcome{
		{Label: "a", Weight: 1},
		{Label: "b", Weight: 1},
		{Label: "c", Weight: 2, IsJackpot: true},
	}

	tests := []struct {
		name string
		r    float64
		want string
	}{
		{"zero picks first", 0, "a"},
		{"exact cumulative edge moves on", 0.25, "b"},
		{"middle", 0.49, "b"},
		{"top of range", 0.999999, "c"},
		{"drift past total falls back to last", 1.0, "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSelector(fixedSource(tt.r)).Select(entries)
			assert.Equal(t, tt.want, got.Label)
		})
	}
}

func TestSelectEmpty(t *testing.T) {
	idx, o := NewSelector(fixedSource(0.5)).SelectIndex(nil)
	assert.Equal(t, -1, idx)
	assert.Equal(t, Outcome{}, o)
}

func TestSelectReproducibleWithSeed(t *testing.T) {
	entries := DefaultTable().Entries()
	a := NewSelector(rand.New(rand.NewSource(99)))
	b := NewSelector(rand.New(rand.NewSource(99)))
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Select(entries), b.Select(entries))
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy unavailable") }

func TestCryptoSourcePanicsWhenReaderFails(t *testing.T) {
	src := cryptoSource{r: failingReader{}}
	assert.Panics(t, func() { src.Float64() })
}

func TestCryptoSourceRange(t *testing.T) {
	src := CryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Float64()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestNewTableValidation(t *testing.T) {
	_, err := NewTable(nil)
	assert.Error(t, err)

	_, err = NewTable([]Outcome{{Label: "x", Weight: 0, IsJackpot: true}})
	assert.Error(t, err)

	_, err = NewTable([]Outcome{{Label: "x", Weight: 101, IsJackpot: true}})
	assert.Error(t, err)

	_, err = NewTable([]Outcome{{Label: "x", Weight: 10}})
	assert.Error(t, err, "a table needs a jackpot entry")

	tbl, err := NewTable([]Outcome{{Label: "x", Weight: 10, IsJackpot: true}})
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
}

func TestDefaultTable(t *testing.T) {
	tbl := DefaultTable()
	assert.Equal(t, 8, tbl.Len())
	assert.InDelta(t, 100, tbl.TotalWeight(), 1e-9)

	entries := tbl.Entries()
	entries[0].BaseValue = 999
	assert.Equal(t, int64(2), tbl.Entries()[0].BaseValue, "Entries must return a copy")
	assert.True(t, entries[len(entries)-1].IsJackpot)
}
