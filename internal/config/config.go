package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	App    AppConfig    `yaml:"app"`
	Motif  MotifConfig  `yaml:"motif"`
	Graph  GraphConfig  `yaml:"graph"`
	Kuzu   KuzuConfig   `yaml:"kuzu"`
	Neo4j  Neo4jConfig  `yaml:"neo4j"`
	Qdrant QdrantConfig `yaml:"qdrant"`
	Mcp    McpConfig    `yaml:"mcp"`
}

type AppConfig struct {
	Port        int      `yaml:"port"`
	LogLevel    string   `yaml:"log_level"`
	LogOutputs  []string `yaml:"log_outputs"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// MotifConfig controls the tokenizer/sampler vocabularies and request bounds.
// The bounds are pointers so an explicit 0, which disables a cap, is kept
// apart from an omitted key.
type MotifConfig struct {
	MonosaccharidesCSV string `yaml:"monosaccharides_csv"`
	LibraryPath        string `yaml:"library_path"`
	Seed               uint64 `yaml:"seed"`
	MaxMutations       *int   `yaml:"max_mutations"`
	MaxSamples         *int   `yaml:"max_samples"`
}

// GraphConfig selects the mutation graph backend: "kuzu", "neo4j" or "" to disable
type GraphConfig struct {
	Backend string `yaml:"backend"`
}

type KuzuConfig struct {
	Path string `yaml:"path"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
	Dimension  int    `yaml:"dimension"`
}

type McpConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

const (
	GraphBackendKuzu  = "kuzu"
	GraphBackendNeo4j = "neo4j"
)

// Default returns a configuration usable without any file
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads a YAML configuration file and fills in defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 5000
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if len(c.App.LogOutputs) == 0 {
		c.App.LogOutputs = []string{"stdout"}
	}
	if c.Motif.MonosaccharidesCSV == "" {
		c.Motif.MonosaccharidesCSV = "monosaccharides_counts.csv"
	}
	if c.Motif.MaxMutations == nil {
		c.Motif.MaxMutations = intPtr(100)
	}
	if c.Motif.MaxSamples == nil {
		c.Motif.MaxSamples = intPtr(10000)
	}
	if c.Kuzu.Path == "" {
		c.Kuzu.Path = ":memory:"
	}
	if c.Neo4j.Database == "" {
		c.Neo4j.Database = "neo4j"
	}
	if c.Qdrant.Port == 0 {
		c.Qdrant.Port = 6334
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = "glycan_profiles"
	}
	if c.Qdrant.Dimension == 0 {
		c.Qdrant.Dimension = 256
	}
	if c.Mcp.Path == "" {
		c.Mcp.Path = "/mcp"
	}
}

// Validate rejects configurations that cannot be served
func (c *Config) Validate() error {
	switch c.Graph.Backend {
	case "", GraphBackendKuzu:
	case GraphBackendNeo4j:
		if c.Neo4j.URI == "" {
			return fmt.Errorf("graph backend neo4j requires neo4j.uri")
		}
	default:
		return fmt.Errorf("unknown graph backend %q", c.Graph.Backend)
	}

	maxMutations, maxSamples := c.Motif.Bounds()
	if maxMutations < 0 || maxSamples < 0 {
		return fmt.Errorf("motif bounds must not be negative")
	}
	if c.Qdrant.Dimension < 0 {
		return fmt.Errorf("qdrant dimension must be positive")
	}

	return nil
}

// Bounds returns the per-request caps on n_mut and n. Zero means uncapped.
func (m MotifConfig) Bounds() (maxMutations, maxSamples int) {
	if m.MaxMutations != nil {
		maxMutations = *m.MaxMutations
	}
	if m.MaxSamples != nil {
		maxSamples = *m.MaxSamples
	}
	return maxMutations, maxSamples
}

func intPtr(v int) *int { return &v }

// GetAddress returns the HTTP listen address
func (a AppConfig) GetAddress() string {
	return fmt.Sprintf(":%d", a.Port)
}
