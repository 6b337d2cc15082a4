package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"glycomotif/internal/service/graph"
	"glycomotif/internal/service/mutation"
	"glycomotif/internal/service/profile"
)

type SequenceRequest struct {
	Sequence string `json:"sequence"`
}

type FindMotifsResponse struct {
	Motifs []string `json:"motifs"`
}

type SmallMotifResponse struct {
	SmallMotif string `json:"small_motif"`
}

// Count is an integer request field that also accepts a quoted integer,
// as form-driven clients send "3" rather than 3
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		*c = Count(n)
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = Count(n)
	return nil
}

// MutateRequest mirrors the sampler parameters; defaults are filled before binding
type MutateRequest struct {
	Sequence string `json:"sequence"`
	NMut     Count  `json:"n_mut"`
	N        Count  `json:"n"`
	Mode     string `json:"mode"`
}

type MutateResponse struct {
	RunID            string           `json:"run_id,omitempty"`
	MotifFrequencies map[string]int   `json:"motif_frequencies"`
	MutatedSequences []string         `json:"mutated_sequences"`
	Summary          mutation.Summary `json:"summary"`
}

type KnownMotifsResponse struct {
	MotifsDetected []string `json:"motifs_detected"`
}

type EncodeResponse struct {
	Glycowords []string `json:"glycowords"`
	Labels     []int    `json:"labels"`
	Edges      [][2]int `json:"edges"`
}

type LookupRequest struct {
	Sequence string `json:"sequence"`
	Limit    Count  `json:"limit"`
}

type NeighborsResponse struct {
	Sequence   string                      `json:"sequence"`
	Neighbors  []graph.Neighbor            `json:"neighbors"`
	Glycowords []graph.GlycowordOccurrence `json:"glycowords"`
}

type SimilarResponse struct {
	Sequence string          `json:"sequence"`
	Results  []profile.Match `json:"results"`
}
