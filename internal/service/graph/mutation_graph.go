package graph

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"glycomotif/internal/config"
)

// Run is one aggregate sampling call: the wild-type label, the label of
// every mutated sample in generation order, and the wild-type glycoword counts
type Run struct {
	ID         string
	WildType   string
	Mutants    []string
	Mutations  int
	Glycowords map[string]int
}

// Neighbor is a mutant label reached from a wild-type and how often it was drawn
type Neighbor struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// GlycowordOccurrence is a glycoword of a recorded wild-type and its count
type GlycowordOccurrence struct {
	Word        string `json:"word"`
	Occurrences int64  `json:"occurrences"`
}

// MutationGraph records sampling runs as Glycan nodes linked by MUTATED_TO
// edges, with HAS_GLYCOWORD edges from each wild-type to its glycowords
type MutationGraph struct {
	db     GraphDatabase
	logger *zap.Logger
}

// NewMutationGraph opens the backend selected by cfg.Graph.Backend. It
// returns nil without error when no backend is configured.
func NewMutationGraph(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*MutationGraph, error) {
	var db GraphDatabase
	var err error

	switch cfg.Graph.Backend {
	case "":
		return nil, nil
	case config.GraphBackendKuzu:
		db, err = NewKuzuDatabase(cfg.Kuzu.Path, logger)
	case config.GraphBackendNeo4j:
		db, err = NewNeo4jDatabase(cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, cfg.Neo4j.Database, logger)
	default:
		return nil, fmt.Errorf("unknown graph backend %q", cfg.Graph.Backend)
	}
	if err != nil {
		return nil, err
	}

	if err := db.VerifyConnectivity(ctx); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to verify database connectivity: %w", err)
	}

	return NewMutationGraphWithDatabase(db, logger), nil
}

func NewMutationGraphWithDatabase(db GraphDatabase, logger *zap.Logger) *MutationGraph {
	return &MutationGraph{
		db:     db,
		logger: logger,
	}
}

func (mg *MutationGraph) Close(ctx context.Context) error {
	return mg.db.Close(ctx)
}

// RecordRun writes a sampling run in one transaction. Glycan and Glycoword
// nodes are merged; each mutant adds a fresh MUTATED_TO edge tagged with the
// run ID. Rows are sent as UNWIND lists, so the query count does not grow
// with the number of samples.
func (mg *MutationGraph) RecordRun(ctx context.Context, run Run) error {
	statements := []Statement{{
		Query:  "UNWIND $sequences AS s MERGE (g:Glycan {sequence: s})",
		Params: map[string]any{"sequences": distinctSequences(run)},
	}}

	if len(run.Glycowords) > 0 {
		words := make([]string, 0, len(run.Glycowords))
		for word := range run.Glycowords {
			words = append(words, word)
		}
		sort.Strings(words)

		wordList := make([]any, len(words))
		rows := make([]any, len(words))
		for i, word := range words {
			wordList[i] = word
			rows[i] = map[string]any{
				"word":        word,
				"occurrences": int64(run.Glycowords[word]),
			}
		}

		statements = append(statements,
			Statement{
				Query:  "UNWIND $words AS w MERGE (x:Glycoword {word: w})",
				Params: map[string]any{"words": wordList},
			},
			Statement{
				Query: `MATCH (g:Glycan {sequence: $sequence})
				 WITH g
				 UNWIND $rows AS row
				 MATCH (x:Glycoword {word: row.word})
				 MERGE (g)-[r:HAS_GLYCOWORD]->(x)
				 SET r.occurrences = row.occurrences`,
				Params: map[string]any{"sequence": run.WildType, "rows": rows},
			})
	}

	if len(run.Mutants) > 0 {
		mutants := make([]any, len(run.Mutants))
		for i, mutant := range run.Mutants {
			mutants[i] = mutant
		}

		statements = append(statements, Statement{
			Query: `MATCH (a:Glycan {sequence: $from})
			 WITH a
			 UNWIND $mutants AS m
			 MATCH (b:Glycan {sequence: m})
			 CREATE (a)-[:MUTATED_TO {run: $run, mutations: $mutations}]->(b)`,
			Params: map[string]any{
				"from":      run.WildType,
				"mutants":   mutants,
				"run":       run.ID,
				"mutations": int64(run.Mutations),
			},
		})
	}

	if err := mg.db.ExecuteWriteBatch(ctx, statements); err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}

	mg.logger.Debug("Recorded mutation run",
		zap.String("run", run.ID),
		zap.String("wild_type", run.WildType),
		zap.Int("mutants", len(run.Mutants)))

	return nil
}

// distinctSequences lists the wild-type and every mutant label once
func distinctSequences(run Run) []any {
	seen := make(map[string]bool, len(run.Mutants)+1)
	sequences := make([]any, 0, len(run.Mutants)+1)
	for _, sequence := range append([]string{run.WildType}, run.Mutants...) {
		if seen[sequence] {
			continue
		}
		seen[sequence] = true
		sequences = append(sequences, sequence)
	}
	return sequences
}

// Neighbors returns the mutant labels drawn from wildType across all
// recorded runs, most frequent first
func (mg *MutationGraph) Neighbors(ctx context.Context, wildType string, limit int) ([]Neighbor, error) {
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(
		`MATCH (a:Glycan {sequence: $sequence})-[:MUTATED_TO]->(b:Glycan)
		 RETURN b.sequence AS mutant, count(*) AS times
		 ORDER BY times DESC, mutant ASC
		 LIMIT %d`, limit)

	records, err := mg.db.ExecuteRead(ctx, query, map[string]any{"sequence": wildType})
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbors: %w", err)
	}

	neighbors := make([]Neighbor, 0, len(records))
	for _, record := range records {
		label, _ := record["mutant"].(string)
		times, err := toInt64(record["times"])
		if err != nil {
			return nil, err
		}
		neighbors = append(neighbors, Neighbor{Label: label, Count: times})
	}
	return neighbors, nil
}

// Glycowords returns the glycoword occurrences recorded for a wild-type
// sequence, ordered by glycoword
func (mg *MutationGraph) Glycowords(ctx context.Context, sequence string) ([]GlycowordOccurrence, error) {
	records, err := mg.db.ExecuteRead(ctx,
		`MATCH (g:Glycan {sequence: $sequence})-[r:HAS_GLYCOWORD]->(w:Glycoword)
		 RETURN w.word AS word, r.occurrences AS occurrences
		 ORDER BY word`,
		map[string]any{"sequence": sequence})
	if err != nil {
		return nil, fmt.Errorf("failed to query glycowords: %w", err)
	}

	occurrences := make([]GlycowordOccurrence, 0, len(records))
	for _, record := range records {
		word, _ := record["word"].(string)
		count, err := toInt64(record["occurrences"])
		if err != nil {
			return nil, err
		}
		occurrences = append(occurrences, GlycowordOccurrence{Word: word, Occurrences: count})
	}
	return occurrences, nil
}
