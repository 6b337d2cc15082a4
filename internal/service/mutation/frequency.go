package mutation

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"glycomotif/internal/model/glycoword"
)

// FrequencyTable counts glycoword occurrences, remembering first-seen order
type FrequencyTable struct {
	counts map[string]int
	order  []string
	total  int
}

// Summary describes the shape of a frequency table
type Summary struct {
	Distinct  int     `json:"distinct"`
	Total     int     `json:"total"`
	MaxCount  int     `json:"max_count"`
	MeanCount float64 `json:"mean_count"`
	Entropy   float64 `json:"entropy"`
}

// NewFrequencyTable returns an empty table
func NewFrequencyTable() *FrequencyTable {
	return &FrequencyTable{
		counts: make(map[string]int),
	}
}

// Add counts each glycoword once
func (ft *FrequencyTable) Add(words ...glycoword.Glycoword) {
	for _, word := range words {
		key := word.String()
		if _, seen := ft.counts[key]; !seen {
			ft.order = append(ft.order, key)
		}
		ft.counts[key]++
		ft.total++
	}
}

func (ft *FrequencyTable) Count(key string) int {
	return ft.counts[key]
}

func (ft *FrequencyTable) Len() int {
	return len(ft.order)
}

func (ft *FrequencyTable) Total() int {
	return ft.total
}

// Keys returns the distinct glycoword keys in first-seen order
func (ft *FrequencyTable) Keys() []string {
	return append([]string(nil), ft.order...)
}

// Map returns a copy of the counts keyed by glycoword
func (ft *FrequencyTable) Map() map[string]int {
	out := make(map[string]int, len(ft.counts))
	for key, count := range ft.counts {
		out[key] = count
	}
	return out
}

// Summary computes count statistics; entropy is in nats
func (ft *FrequencyTable) Summary() Summary {
	summary := Summary{
		Distinct: len(ft.order),
		Total:    ft.total,
	}
	if ft.total == 0 {
		return summary
	}

	counts := make([]float64, len(ft.order))
	for i, key := range ft.order {
		counts[i] = float64(ft.counts[key])
	}
	summary.MaxCount = int(floats.Max(counts))
	summary.MeanCount = stat.Mean(counts, nil)

	probs := make([]float64, len(counts))
	copy(probs, counts)
	floats.Scale(1/floats.Sum(counts), probs)
	summary.Entropy = stat.Entropy(probs)

	return summary
}
