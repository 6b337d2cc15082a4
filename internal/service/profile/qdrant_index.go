package profile

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"glycomotif/internal/config"
)

// ErrEmptyProfile is returned for glycans without any glycoword
var ErrEmptyProfile = errors.New("glycan has no glycowords")

const payloadLabel = "label"

// Match is a stored glycan returned by a similarity search
type Match struct {
	Label string  `json:"label"`
	Score float32 `json:"score"`
}

// Vectorize hashes glycoword counts into dim buckets with FNV-1a and
// L2-normalizes the result. Empty counts give a zero vector.
func Vectorize(counts map[string]int, dim int) []float32 {
	vector := make([]float32, dim)
	if dim <= 0 {
		return vector
	}

	for word, count := range counts {
		h := fnv.New32a()
		h.Write([]byte(word))
		vector[h.Sum32()%uint32(dim)] += float32(count)
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vector
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vector {
		vector[i] *= scale
	}
	return vector
}

// PointID derives a stable point ID from a glycan label
func PointID(label string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(label)).String()
}

// ProfileIndex stores glycoword-profile vectors in a Qdrant collection
type ProfileIndex struct {
	client     *qdrant.Client
	collection string
	dimension  int
	logger     *zap.Logger
}

func NewProfileIndex(cfg config.QdrantConfig, logger *zap.Logger) (*ProfileIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &ProfileIndex{
		client:     client,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		logger:     logger,
	}, nil
}

func (p *ProfileIndex) Close() error {
	return p.client.Close()
}

// EnsureCollection creates the cosine-distance collection if it is missing
func (p *ProfileIndex) EnsureCollection(ctx context.Context) error {
	exists, err := p.client.CollectionExists(ctx, p.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = p.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: p.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(p.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	p.logger.Info("Created profile collection",
		zap.String("collection", p.collection),
		zap.Int("dimension", p.dimension))
	return nil
}

// Index upserts the profile of a glycan under its label
func (p *ProfileIndex) Index(ctx context.Context, label string, counts map[string]int) error {
	if len(counts) == 0 {
		return ErrEmptyProfile
	}

	_, err := p.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: p.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(PointID(label)),
				Vectors: qdrant.NewVectors(Vectorize(counts, p.dimension)...),
				Payload: qdrant.NewValueMap(map[string]any{
					payloadLabel: label,
					"distinct":   len(counts),
				}),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// Similar returns the stored glycans closest to a profile
func (p *ProfileIndex) Similar(ctx context.Context, counts map[string]int, limit int) ([]Match, error) {
	if len(counts) == 0 {
		return nil, ErrEmptyProfile
	}
	if limit <= 0 {
		limit = 10
	}

	points, err := p.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: p.collection,
		Query:          qdrant.NewQuery(Vectorize(counts, p.dimension)...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search profiles: %w", err)
	}

	matches := make([]Match, 0, len(points))
	for _, point := range points {
		value, ok := point.Payload[payloadLabel]
		if !ok {
			continue
		}
		matches = append(matches, Match{
			Label: value.GetStringValue(),
			Score: point.Score,
		})
	}
	return matches, nil
}
