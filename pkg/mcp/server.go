package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"glycomotif/internal/model"
	"glycomotif/internal/service"
)

type GlycoMotifServer struct {
	server       *mcp.Server
	motifService *service.MotifService
	logger       *zap.Logger
	handler      *mcp.StreamableHTTPHandler
}

type SequenceParams struct {
	Sequence string `json:"sequence" jsonschema:"glycan string in IUPAC-condensed notation"`
}

type MutateParams struct {
	Sequence string `json:"sequence" jsonschema:"glycan string in IUPAC-condensed notation"`
	NMut     *int   `json:"n_mut,omitempty" jsonschema:"number of point mutations per sample, default 1"`
	N        *int   `json:"n,omitempty" jsonschema:"number of mutated samples, default 100"`
}

func NewGlycoMotifServer(motifService *service.MotifService, logger *zap.Logger) *GlycoMotifServer {
	server := &GlycoMotifServer{
		motifService: motifService,
		logger:       logger,
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "GlycoMotif",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "findMotifs",
		Description: "Split a glycan into its glycowords: overlapping windows of three monosaccharides and the two linkages between them, joined with '*'",
	}, server.handleFindMotifs)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "smallMotif",
		Description: "Return the whole glycan as a single '*'-joined token label",
	}, server.handleSmallMotif)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "mutateMotifs",
		Description: "Sample randomly mutated variants of a glycan and count glycoword frequencies across the wild-type and all samples",
	}, server.handleMutateMotifs)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "detectKnownMotifs",
		Description: "Detect immunologically notable motifs (alpha-Gal, Neu5Gc, complex N-glycan core) in a glycan",
	}, server.handleKnownMotifs)

	server.handler = mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	server.server = mcpServer
	return server
}

// Handler serves the MCP streamable HTTP transport
func (s *GlycoMotifServer) Handler() http.Handler {
	return s.handler
}

func (s *GlycoMotifServer) handleFindMotifs(ctx context.Context, req *mcp.CallToolRequest, args SequenceParams) (*mcp.CallToolResult, any, error) {
	s.logger.Info("Handling findMotifs request", zap.String("sequence", args.Sequence))

	return jsonResult(model.FindMotifsResponse{
		Motifs: s.motifService.FindMotifs(args.Sequence),
	})
}

func (s *GlycoMotifServer) handleSmallMotif(ctx context.Context, req *mcp.CallToolRequest, args SequenceParams) (*mcp.CallToolResult, any, error) {
	s.logger.Info("Handling smallMotif request", zap.String("sequence", args.Sequence))

	return jsonResult(model.SmallMotifResponse{
		SmallMotif: s.motifService.SmallMotif(args.Sequence),
	})
}

func (s *GlycoMotifServer) handleMutateMotifs(ctx context.Context, req *mcp.CallToolRequest, args MutateParams) (*mcp.CallToolResult, any, error) {
	params := service.MutateParams{
		Sequence: args.Sequence,
		NMut:     1,
		N:        100,
		Mode:     "normal",
	}
	if args.NMut != nil {
		params.NMut = *args.NMut
	}
	if args.N != nil {
		params.N = *args.N
	}

	s.logger.Info("Handling mutateMotifs request",
		zap.String("sequence", params.Sequence),
		zap.Int("n_mut", params.NMut),
		zap.Int("n", params.N))

	result, err := s.motifService.Mutate(ctx, params)
	if err != nil {
		if errors.Is(err, service.ErrEmptySequence) {
			return errorResult("No glycan sequence provided"), nil, nil
		}
		s.logger.Error("Failed to sample mutated glycans", zap.Error(err))
		return errorResult(fmt.Sprintf("Failed to sample mutated glycans: %v", err)), nil, nil
	}

	aggregate := result.Aggregate
	return jsonResult(model.MutateResponse{
		RunID:            result.RunID,
		MotifFrequencies: aggregate.Frequencies.Map(),
		MutatedSequences: aggregate.Labels,
		Summary:          aggregate.Frequencies.Summary(),
	})
}

func (s *GlycoMotifServer) handleKnownMotifs(ctx context.Context, req *mcp.CallToolRequest, args SequenceParams) (*mcp.CallToolResult, any, error) {
	s.logger.Info("Handling detectKnownMotifs request", zap.String("sequence", args.Sequence))

	return jsonResult(model.KnownMotifsResponse{
		MotifsDetected: s.motifService.KnownMotifs(args.Sequence),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
