package graph

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newMemoryKuzu(t *testing.T) *KuzuDatabase {
	t.Helper()
	db, err := NewKuzuDatabase(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create Kuzu database: %v", err)
	}
	t.Cleanup(func() { db.Close(context.Background()) })
	return db
}

func countGlycans(t *testing.T, db GraphDatabase, sequence string) int64 {
	t.Helper()
	records, err := db.ExecuteRead(context.Background(),
		"MATCH (g:Glycan {sequence: $sequence}) RETURN count(*) AS n",
		map[string]any{"sequence": sequence})
	if err != nil {
		t.Fatalf("Failed to count glycans: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected one count row, got %d", len(records))
	}
	n, err := toInt64(records[0]["n"])
	if err != nil {
		t.Fatalf("Unexpected count value: %v", err)
	}
	return n
}

func TestKuzuDatabase_MergeGlycanIsIdempotent(t *testing.T) {
	db := newMemoryKuzu(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := db.ExecuteWrite(ctx, "MERGE (g:Glycan {sequence: $s})", map[string]any{"s": "Gal*b1-4*Glc"})
		if err != nil {
			t.Fatalf("Failed to merge glycan: %v", err)
		}
	}

	if n := countGlycans(t, db, "Gal*b1-4*Glc"); n != 1 {
		t.Fatalf("Expected a single Glycan node after two merges, got %d", n)
	}
}

func TestKuzuDatabase_ReopenExistingPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mutations.kuzu")
	ctx := context.Background()

	db, err := NewKuzuDatabase(path, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create Kuzu database: %v", err)
	}
	if _, err := db.ExecuteWrite(ctx, "MERGE (g:Glycan {sequence: $s})", map[string]any{"s": "Man*a1-3*Man"}); err != nil {
		t.Fatalf("Failed to merge glycan: %v", err)
	}
	db.Close(ctx)

	reopened, err := NewKuzuDatabase(path, zap.NewNop())
	if err != nil {
		t.Fatalf("Expected schema creation to be idempotent on reopen, got %v", err)
	}
	defer reopened.Close(ctx)

	if n := countGlycans(t, reopened, "Man*a1-3*Man"); n != 1 {
		t.Fatalf("Expected persisted glycan after reopen, got %d", n)
	}
}

func TestKuzuDatabase_WriteBatchCommits(t *testing.T) {
	db := newMemoryKuzu(t)
	ctx := context.Background()

	err := db.ExecuteWriteBatch(ctx, []Statement{
		{Query: "UNWIND $s AS s MERGE (g:Glycan {sequence: s})", Params: map[string]any{"s": []any{"Gal", "Glc"}}},
		{
			Query:  "MATCH (a:Glycan {sequence: $from}), (b:Glycan {sequence: $to}) CREATE (a)-[:MUTATED_TO {run: $run, mutations: $mutations}]->(b)",
			Params: map[string]any{"from": "Gal", "to": "Glc", "run": "r1", "mutations": int64(1)},
		},
	})
	if err != nil {
		t.Fatalf("Failed to execute batch: %v", err)
	}

	records, err := db.ExecuteRead(ctx, "MATCH (:Glycan)-[r:MUTATED_TO]->(:Glycan) RETURN r.run AS run", nil)
	if err != nil {
		t.Fatalf("Failed to read edges: %v", err)
	}
	if len(records) != 1 || records[0]["run"] != "r1" {
		t.Fatalf("Expected one MUTATED_TO edge from run r1, got %v", records)
	}
}

func TestKuzuDatabase_WriteBatchRollsBack(t *testing.T) {
	db := newMemoryKuzu(t)
	ctx := context.Background()

	err := db.ExecuteWriteBatch(ctx, []Statement{
		{Query: "MERGE (g:Glycan {sequence: $s})", Params: map[string]any{"s": "Neu5Gc"}},
		{Query: "MATCH (x:Aglycone) RETURN x"},
	})
	if err == nil {
		t.Fatal("Expected error for a batch with an invalid statement, got nil")
	}

	if n := countGlycans(t, db, "Neu5Gc"); n != 0 {
		t.Fatalf("Expected failed batch to leave no glycan, got %d", n)
	}

	// the connection stays usable after a rollback
	if _, err := db.ExecuteWrite(ctx, "MERGE (g:Glycan {sequence: $s})", map[string]any{"s": "Neu5Gc"}); err != nil {
		t.Fatalf("Failed to write after rollback: %v", err)
	}
}
