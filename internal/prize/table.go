// Package prize holds the wheel's weighted prize catalog and the outcome selector.
package prize

import (
	"errors"
	"fmt"
)

// Outcome is one segment of the wheel.
type Outcome struct {
	Label     string  `json:"label"`
	BaseValue int64   `json:"base_value"`
	Weight    float64 `json:"weight"`
	IsJackpot bool    `json:"is_jackpot"`
	Color     string  `json:"color"`
}

// Table is an immutable, validated list of outcomes in wheel order.
type Table struct {
	entries []Outcome
}

// NewTable validates entries and returns a table owning a copy of them.
func NewTable(entries []Outcome) (*Table, error) {
	if len(entries) == 0 {
		return nil, errors.New("prize table is empty")
	}
	hasJackpot := false
	for i, e := range entries {
		if e.Weight <= 0 || e.Weight > 100 {
			return nil, fmt.Errorf("entry %d (%s): weight %v outside (0,100]", i, e.Label, e.Weight)
		}
		if e.BaseValue < 0 {
			return nil, fmt.Errorf("entry %d (%s): negative value", i, e.Label)
		}
		hasJackpot = hasJackpot || e.IsJackpot
	}
	if !hasJackpot {
		return nil, errors.New("prize table has no jackpot entry")
	}
	own := make([]Outcome, len(entries))
	copy(own, entries)
	return &Table{entries: own}, nil
}

// DefaultTable returns the reference wheel.
func DefaultTable() *Table {
	t, err := NewTable([]Outcome{
		{Label: "2 XD", BaseValue: 2, Weight: 37, Color: "#2C3E50"},
		{Label: "4 XD", BaseValue: 4, Weight: 30, Color: "#34495E"},
		{Label: "10 XD", BaseValue: 10, Weight: 10, Color: "#F39C12"},
		{Label: "20 XD", BaseValue: 20, Weight: 5, Color: "#F1C40F"},
		{Label: "16 XD", BaseValue: 16, Weight: 15, Color: "#3498DB"},
		{Label: "50 XD", BaseValue: 50, Weight: 2, Color: "#E74C3C"},
		{Label: "100 XD", BaseValue: 100, Weight: 0.9, Color: "#9B59B6"},
		{Label: "Jackpot", BaseValue: 0, Weight: 0.1, IsJackpot: true, Color: "#FFD700"},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// Entries returns a copy of the outcomes in wheel order.
func (t *Table) Entries() []Outcome {
	out := make([]Outcome, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len is the number of segments.
func (t *Table) Len() int {
	return len(t.entries)
}

// TotalWeight is the sum of all weights.
func (t *Table) TotalWeight() float64 {
	return totalWeight(t.entries)
}

func totalWeight(entries []Outcome) float64 {
	var total float64
	for _, e := range entries {
		total += e.Weight
	}
	return total
}
