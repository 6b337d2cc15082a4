package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Neo4jDatabase implements GraphDatabase on a Neo4j server
type Neo4jDatabase struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

func NewNeo4jDatabase(uri, username, password, database string, logger *zap.Logger) (*Neo4jDatabase, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	return &Neo4jDatabase{
		driver:   driver,
		database: database,
		logger:   logger,
	}, nil
}

func (db *Neo4jDatabase) VerifyConnectivity(ctx context.Context) error {
	if err := db.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}
	return nil
}

func (db *Neo4jDatabase) Close(ctx context.Context) error {
	return db.driver.Close(ctx)
}

func (db *Neo4jDatabase) ExecuteRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return db.execute(ctx, query, params, neo4j.ExecuteQueryWithReadersRouting())
}

func (db *Neo4jDatabase) ExecuteWrite(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return db.execute(ctx, query, params, neo4j.ExecuteQueryWithWritersRouting())
}

func (db *Neo4jDatabase) execute(ctx context.Context, query string, params map[string]any, routing neo4j.ExecuteQueryConfigurationOption) ([]map[string]any, error) {
	result, err := neo4j.ExecuteQuery(ctx, db.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(db.database),
		routing,
	)
	if err != nil {
		db.logger.Error("Failed to execute Neo4j query",
			zap.String("query", query),
			zap.Error(err))
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	records := make([]map[string]any, 0, len(result.Records))
	for _, record := range result.Records {
		records = append(records, record.AsMap())
	}
	return records, nil
}

func (db *Neo4jDatabase) ExecuteWriteBatch(ctx context.Context, statements []Statement) error {
	session := db.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: db.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, stmt := range statements {
			result, err := tx.Run(ctx, stmt.Query, stmt.Params)
			if err != nil {
				return nil, err
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		db.logger.Error("Failed to execute Neo4j write batch",
			zap.Int("statements", len(statements)),
			zap.Error(err))
		return fmt.Errorf("failed to execute write batch: %w", err)
	}
	return nil
}
