package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"glycomotif/internal/config"
	"glycomotif/internal/controller"
	"glycomotif/internal/handler"
	"glycomotif/internal/service"
	"glycomotif/internal/service/graph"
	"glycomotif/internal/service/library"
	"glycomotif/internal/service/mutation"
	"glycomotif/internal/service/profile"
	"glycomotif/pkg/mcp"
)

var (
	configPath string
	port       int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "glycomotif",
		Short: "Glycan motif extraction and mutation sampling service",
		RunE:  runServe,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "app.yaml", "Path to app configuration file")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "Server port, overrides the configured one")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and MCP server",
		RunE:  runServe,
	})
	rootCmd.AddCommand(newVocabCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig falls back to defaults when the configuration file does not exist
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return config.LoadConfig(configPath)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.App.LogLevel, err)
	}

	cfgZap := zap.NewProductionConfig()
	cfgZap.Level.SetLevel(level)
	cfgZap.OutputPaths = cfg.App.LogOutputs
	return cfgZap.Build()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if port > 0 {
		cfg.App.Port = port
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded successfully", zap.Any("config", cfg))

	monosaccharides, err := mutation.LoadMonosaccharides(cfg.Motif.MonosaccharidesCSV)
	if err != nil {
		logger.Fatal("Failed to load monosaccharide vocabulary", zap.Error(err))
	}
	vocab, err := mutation.NewVocabulary(monosaccharides, mutation.DefaultLinkages)
	if err != nil {
		logger.Fatal("Failed to build vocabulary", zap.Error(err))
	}
	logger.Info("Vocabulary loaded",
		zap.Int("monosaccharides", len(monosaccharides)),
		zap.Int("linkages", len(mutation.DefaultLinkages)))

	sampler, err := mutation.NewSampler(vocab, mutation.NewRand(cfg.Motif.Seed))
	if err != nil {
		logger.Fatal("Failed to create sampler", zap.Error(err))
	}

	var lib *library.Library
	if cfg.Motif.LibraryPath != "" {
		lib, err = library.LoadFile(cfg.Motif.LibraryPath)
		if err != nil {
			logger.Warn("Failed to load glycoword library, validation will be disabled", zap.Error(err))
		} else {
			logger.Info("Glycoword library loaded", zap.Int("glycowords", lib.Len()))
		}
	}

	ctx := context.Background()

	var recorder service.RunRecorder
	mutationGraph, err := graph.NewMutationGraph(ctx, cfg, logger)
	if err != nil {
		logger.Warn("Failed to initialize mutation graph, run recording will be disabled", zap.Error(err))
	} else if mutationGraph != nil {
		defer mutationGraph.Close(ctx)
		recorder = mutationGraph
	}

	var profiles service.ProfileSearcher
	if cfg.Qdrant.Host != "" {
		profileIndex, err := profile.NewProfileIndex(cfg.Qdrant, logger)
		if err != nil {
			logger.Warn("Failed to connect to Qdrant, profile search will be disabled", zap.Error(err))
		} else if err := profileIndex.EnsureCollection(ctx); err != nil {
			logger.Warn("Failed to prepare profile collection, profile search will be disabled", zap.Error(err))
			profileIndex.Close()
		} else {
			defer profileIndex.Close()
			profiles = profileIndex
		}
	} else {
		logger.Info("Profile index disabled (Qdrant not configured)")
	}

	maxMutations, maxSamples := cfg.Motif.Bounds()
	motifService := service.NewMotifService(sampler, lib, recorder, profiles, service.Limits{
		MaxMutations: maxMutations,
		MaxSamples:   maxSamples,
	}, logger)
	motifController := controller.NewMotifController(motifService, logger)

	var mcpHandler http.Handler
	if cfg.Mcp.Enabled {
		mcpHandler = mcp.NewGlycoMotifServer(motifService, logger).Handler()
		logger.Info("MCP server enabled", zap.String("path", cfg.Mcp.Path))
	}

	router := handler.SetupRouter(motifController, mcpHandler, cfg.Mcp.Path, cfg.App.CORSOrigins, logger)

	logger.Info("Starting server", zap.Int("port", cfg.App.Port))
	if err := http.ListenAndServe(cfg.App.GetAddress(), router); err != nil {
		logger.Error("Server stopped", zap.Error(err))
		return err
	}
	return nil
}
