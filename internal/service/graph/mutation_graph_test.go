package graph

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"glycomotif/internal/config"
)

func newKuzuMutationGraph(t *testing.T) *MutationGraph {
	t.Helper()
	cfg := config.Default()
	cfg.Graph.Backend = config.GraphBackendKuzu

	mg, err := NewMutationGraph(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create mutation graph with Kuzu: %v", err)
	}
	t.Cleanup(func() { mg.Close(context.Background()) })
	return mg
}

func TestNewMutationGraph_Disabled(t *testing.T) {
	mg, err := NewMutationGraph(context.Background(), config.Default(), zap.NewNop())
	if err != nil {
		t.Fatalf("Expected no error for disabled backend, got %v", err)
	}
	if mg != nil {
		t.Fatal("Expected nil mutation graph when no backend is configured")
	}
}

func TestMutationGraph_RecordRunAndNeighbors(t *testing.T) {
	mg := newKuzuMutationGraph(t)
	ctx := context.Background()

	run := Run{
		ID:        "run-1",
		WildType:  "Gal*b1-4*Glc*a1-2*Man",
		Mutants:   []string{"Fuc*b1-4*Glc*a1-2*Man", "Gal*b1-4*Glc*a1-3*Man", "Fuc*b1-4*Glc*a1-2*Man"},
		Mutations: 1,
		Glycowords: map[string]int{
			"Gal*b1-4*Glc*a1-2*Man": 1,
		},
	}
	if err := mg.RecordRun(ctx, run); err != nil {
		t.Fatalf("Failed to record run: %v", err)
	}

	neighbors, err := mg.Neighbors(ctx, run.WildType, 10)
	if err != nil {
		t.Fatalf("Failed to query neighbors: %v", err)
	}

	if len(neighbors) != 2 {
		t.Fatalf("Expected 2 distinct neighbors, got %v", neighbors)
	}
	if neighbors[0].Label != "Fuc*b1-4*Glc*a1-2*Man" || neighbors[0].Count != 2 {
		t.Fatalf("Expected most frequent neighbor first, got %+v", neighbors[0])
	}

	words, err := mg.Glycowords(ctx, run.WildType)
	if err != nil {
		t.Fatalf("Failed to read glycowords: %v", err)
	}
	if len(words) != 1 || words[0].Word != "Gal*b1-4*Glc*a1-2*Man" || words[0].Occurrences != 1 {
		t.Fatalf("Unexpected glycowords: %+v", words)
	}
}

func TestMutationGraph_RecordRunManyMutants(t *testing.T) {
	mg := newKuzuMutationGraph(t)
	ctx := context.Background()

	wildType := "Gal*b1-4*Glc*a1-2*Man*b1-3*Fuc"
	labels := []string{
		"Man*b1-4*Glc*a1-2*Man*b1-3*Fuc",
		"Gal*a1-3*Glc*a1-2*Man*b1-3*Fuc",
		"Gal*b1-4*Glc*a1-2*Man*b1-3*Gal",
		"Fuc*b1-4*Glc*a1-2*Man*b1-3*Fuc",
	}

	// label i is drawn (i+1)*250 times, 2500 mutants in all
	var mutants []string
	for i, label := range labels {
		for j := 0; j < (i+1)*250; j++ {
			mutants = append(mutants, label)
		}
	}
	mutants = append(mutants, wildType)

	err := mg.RecordRun(ctx, Run{
		ID:        "large",
		WildType:  wildType,
		Mutants:   mutants,
		Mutations: 1,
		Glycowords: map[string]int{
			"Gal*b1-4*Glc*a1-2*Man": 1,
			"Glc*a1-2*Man*b1-3*Fuc": 1,
		},
	})
	if err != nil {
		t.Fatalf("Failed to record run: %v", err)
	}

	neighbors, err := mg.Neighbors(ctx, wildType, 10)
	if err != nil {
		t.Fatalf("Failed to query neighbors: %v", err)
	}
	if len(neighbors) != 5 {
		t.Fatalf("Expected 5 distinct neighbors, got %v", neighbors)
	}
	for i := 0; i < 4; i++ {
		expected := labels[3-i]
		if neighbors[i].Label != expected || neighbors[i].Count != int64((4-i)*250) {
			t.Fatalf("Neighbor %d: expected %s x%d, got %+v", i, expected, (4-i)*250, neighbors[i])
		}
	}
	if neighbors[4].Label != wildType || neighbors[4].Count != 1 {
		t.Fatalf("Expected the unchanged sample as a self edge, got %+v", neighbors[4])
	}

	words, err := mg.Glycowords(ctx, wildType)
	if err != nil {
		t.Fatalf("Failed to read glycowords: %v", err)
	}
	if len(words) != 2 || words[0].Word != "Gal*b1-4*Glc*a1-2*Man" || words[1].Word != "Glc*a1-2*Man*b1-3*Fuc" {
		t.Fatalf("Unexpected glycowords: %+v", words)
	}
}

func TestMutationGraph_RecordRunWithoutMutants(t *testing.T) {
	mg := newKuzuMutationGraph(t)
	ctx := context.Background()

	if err := mg.RecordRun(ctx, Run{ID: "empty", WildType: "Gal*b1-4*Glc"}); err != nil {
		t.Fatalf("Failed to record run: %v", err)
	}

	neighbors, err := mg.Neighbors(ctx, "Gal*b1-4*Glc", 5)
	if err != nil {
		t.Fatalf("Failed to query neighbors: %v", err)
	}
	if len(neighbors) != 0 {
		t.Fatalf("Expected no neighbors, got %v", neighbors)
	}
}

func TestMutationGraph_RunsAccumulate(t *testing.T) {
	mg := newKuzuMutationGraph(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		err := mg.RecordRun(ctx, Run{
			ID:       id,
			WildType: "Gal*b1-4*Glc",
			Mutants:  []string{"Man*b1-4*Glc"},
		})
		if err != nil {
			t.Fatalf("Failed to record run %s: %v", id, err)
		}
	}

	neighbors, err := mg.Neighbors(ctx, "Gal*b1-4*Glc", 0)
	if err != nil {
		t.Fatalf("Failed to query neighbors: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0].Count != 2 {
		t.Fatalf("Expected one neighbor seen twice, got %v", neighbors)
	}
}

func TestMutationGraph_UnknownSequence(t *testing.T) {
	mg := newKuzuMutationGraph(t)

	neighbors, err := mg.Neighbors(context.Background(), "Xyl", 5)
	if err != nil {
		t.Fatalf("Failed to query neighbors: %v", err)
	}
	if len(neighbors) != 0 {
		t.Fatalf("Expected no neighbors, got %v", neighbors)
	}
}
