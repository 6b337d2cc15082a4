package graph

import (
	"context"
	"fmt"
)

// Statement is one parameterized query of a write batch
type Statement struct {
	Query  string
	Params map[string]any
}

// GraphDatabase is the query surface shared by the Kuzu and Neo4j backends.
// Queries use the Cypher subset both engines accept.
type GraphDatabase interface {
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
	ExecuteRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
	ExecuteWrite(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
	// ExecuteWriteBatch runs statements in order inside one transaction.
	// Nothing is committed if any statement fails.
	ExecuteWriteBatch(ctx context.Context, statements []Statement) error
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", value)
	}
}
