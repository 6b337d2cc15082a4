package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/kuzudb/go-kuzu"
	"go.uber.org/zap"
)

// KuzuDatabase implements GraphDatabase on an embedded Kuzu database. The
// single connection is shared, so queries and batches are serialized.
type KuzuDatabase struct {
	db     *kuzu.Database
	conn   *kuzu.Connection
	mu     sync.Mutex
	logger *zap.Logger
}

// NewKuzuDatabase opens a Kuzu database at databasePath, or in memory for
// ":memory:" and "", and creates the mutation graph schema
func NewKuzuDatabase(databasePath string, logger *zap.Logger) (*KuzuDatabase, error) {
	var db *kuzu.Database
	var err error

	if databasePath == ":memory:" || databasePath == "" {
		db, err = kuzu.OpenInMemoryDatabase(kuzu.DefaultSystemConfig())
	} else {
		db, err = kuzu.OpenDatabase(databasePath, kuzu.DefaultSystemConfig())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Kuzu database: %w", err)
	}

	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create Kuzu connection: %w", err)
	}

	kuzuDB := &KuzuDatabase{
		db:     db,
		conn:   conn,
		logger: logger,
	}

	if err := kuzuDB.initializeSchema(); err != nil {
		kuzuDB.Close(context.Background())
		return nil, fmt.Errorf("failed to initialize Kuzu schema: %w", err)
	}

	return kuzuDB, nil
}

// VerifyConnectivity checks if the database connection is working
func (db *KuzuDatabase) VerifyConnectivity(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.Query("RETURN 1")
	if err != nil {
		return fmt.Errorf("failed to verify Kuzu connectivity: %w", err)
	}
	result.Close()
	return nil
}

func (db *KuzuDatabase) Close(ctx context.Context) error {
	if db.conn != nil {
		db.conn.Close()
	}
	if db.db != nil {
		db.db.Close()
	}
	return nil
}

func (db *KuzuDatabase) ExecuteRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return db.executeQuery(ctx, query, params, false)
}

func (db *KuzuDatabase) ExecuteWrite(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return db.executeQuery(ctx, query, params, true)
}

func (db *KuzuDatabase) ExecuteWriteBatch(ctx context.Context, statements []Statement) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.control("BEGIN TRANSACTION"); err != nil {
		return err
	}

	for _, stmt := range statements {
		if _, err := db.runQuery(stmt.Query, stmt.Params, true); err != nil {
			// Kuzu may already have rolled back the failed transaction
			if rbErr := db.control("ROLLBACK"); rbErr != nil {
				db.logger.Debug("Rollback after failed batch", zap.Error(rbErr))
			}
			return err
		}
	}

	return db.control("COMMIT")
}

func (db *KuzuDatabase) control(statement string) error {
	result, err := db.conn.Query(statement)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", statement, err)
	}
	result.Close()
	return nil
}

func (db *KuzuDatabase) executeQuery(ctx context.Context, query string, params map[string]any, isWrite bool) ([]map[string]any, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.runQuery(query, params, isWrite)
}

func (db *KuzuDatabase) runQuery(query string, params map[string]any, isWrite bool) ([]map[string]any, error) {
	var result *kuzu.QueryResult
	var err error

	if len(params) > 0 {
		preparedStatement, err := db.conn.Prepare(query)
		if err != nil {
			db.logger.Error("Failed to prepare Kuzu query",
				zap.String("query", query),
				zap.Bool("isWrite", isWrite),
				zap.Error(err))
			return nil, fmt.Errorf("failed to prepare query: %w", err)
		}
		defer preparedStatement.Close()

		result, err = db.conn.Execute(preparedStatement, params)
		if err != nil {
			db.logger.Error("Failed to execute Kuzu query",
				zap.String("query", query),
				zap.Bool("isWrite", isWrite),
				zap.Error(err))
			return nil, fmt.Errorf("failed to execute query: %w", err)
		}
	} else {
		result, err = db.conn.Query(query)
		if err != nil {
			db.logger.Error("Failed to execute Kuzu query",
				zap.String("query", query),
				zap.Bool("isWrite", isWrite),
				zap.Error(err))
			return nil, fmt.Errorf("failed to execute query: %w", err)
		}
	}
	defer result.Close()

	var records []map[string]any
	for result.HasNext() {
		tuple, err := result.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to get next result row: %w", err)
		}

		record, err := tuple.GetAsMap()
		tuple.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to convert tuple to map: %w", err)
		}

		converted := make(map[string]any, len(record))
		for key, value := range record {
			converted[key] = convertKuzuValue(value)
		}
		records = append(records, converted)
	}

	return records, nil
}

// convertKuzuValue flattens Kuzu nodes to their property maps
func convertKuzuValue(value any) any {
	if node, ok := value.(kuzu.Node); ok {
		return node.Properties
	}
	return value
}

func (db *KuzuDatabase) initializeSchema() error {
	schemas := []string{
		"CREATE NODE TABLE IF NOT EXISTS Glycan (sequence STRING, PRIMARY KEY (sequence))",
		"CREATE NODE TABLE IF NOT EXISTS Glycoword (word STRING, PRIMARY KEY (word))",
		"CREATE REL TABLE IF NOT EXISTS MUTATED_TO (FROM Glycan TO Glycan, run STRING, mutations INT64)",
		"CREATE REL TABLE IF NOT EXISTS HAS_GLYCOWORD (FROM Glycan TO Glycoword, occurrences INT64)",
	}

	for _, schema := range schemas {
		result, err := db.conn.Query(schema)
		if err != nil {
			db.logger.Error("Failed to create table", zap.String("schema", schema), zap.Error(err))
			return fmt.Errorf("failed to create table: %w", err)
		}
		result.Close()
	}

	db.logger.Debug("Initialized Kuzu mutation graph schema")
	return nil
}
