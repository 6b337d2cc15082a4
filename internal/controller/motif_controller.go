package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"glycomotif/internal/model"
	"glycomotif/internal/service"
	"glycomotif/internal/service/library"
)

type MotifController struct {
	motifService *service.MotifService
	logger       *zap.Logger
}

func NewMotifController(motifService *service.MotifService, logger *zap.Logger) *MotifController {
	return &MotifController{
		motifService: motifService,
		logger:       logger,
	}
}

func (mc *MotifController) bindError(c *gin.Context, err error) {
	mc.logger.Error("Invalid request payload", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request payload",
		"details": err.Error(),
	})
}

// FindMotifs returns the glycowords of a sequence. Empty sequences are allowed.
func (mc *MotifController) FindMotifs(c *gin.Context) {
	var request model.SequenceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		mc.bindError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.FindMotifsResponse{
		Motifs: mc.motifService.FindMotifs(request.Sequence),
	})
}

// SmallMotif returns the whole-sequence label. Empty sequences are allowed.
func (mc *MotifController) SmallMotif(c *gin.Context) {
	var request model.SequenceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		mc.bindError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SmallMotifResponse{
		SmallMotif: mc.motifService.SmallMotif(request.Sequence),
	})
}

func (mc *MotifController) Mutate(c *gin.Context) {
	request := model.MutateRequest{
		NMut: 1,
		N:    100,
		Mode: "normal",
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		mc.bindError(c, err)
		return
	}

	mc.logger.Info("Sampling mutated glycans",
		zap.String("sequence", request.Sequence),
		zap.Int("n_mut", int(request.NMut)),
		zap.Int("n", int(request.N)))

	result, err := mc.motifService.Mutate(c.Request.Context(), service.MutateParams{
		Sequence: request.Sequence,
		NMut:     int(request.NMut),
		N:        int(request.N),
		Mode:     request.Mode,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptySequence):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No glycan sequence provided"})
		case errors.Is(err, service.ErrBoundsExceeded):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Sampling parameters out of bounds",
				"details": err.Error(),
			})
		default:
			mc.logger.Error("Failed to sample mutated glycans", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to sample mutated glycans",
				"details": err.Error(),
			})
		}
		return
	}

	aggregate := result.Aggregate
	mc.logger.Info("Successfully sampled mutated glycans",
		zap.String("run", result.RunID),
		zap.Int("distinct_glycowords", aggregate.Frequencies.Len()),
		zap.Int("samples", len(aggregate.Labels)-1))

	c.JSON(http.StatusOK, model.MutateResponse{
		RunID:            result.RunID,
		MotifFrequencies: aggregate.Frequencies.Map(),
		MutatedSequences: aggregate.Labels,
		Summary:          aggregate.Frequencies.Summary(),
	})
}

func (mc *MotifController) KnownMotifs(c *gin.Context) {
	var request model.SequenceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		mc.bindError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.KnownMotifsResponse{
		MotifsDetected: mc.motifService.KnownMotifs(request.Sequence),
	})
}

func (mc *MotifController) Validate(c *gin.Context) {
	var request model.SequenceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		mc.bindError(c, err)
		return
	}

	result, err := mc.motifService.Validate(request.Sequence)
	if err != nil {
		mc.logger.Error("Glycoword library not available", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Glycoword library not available",
		})
		return
	}

	if result.Reason == library.ReasonEmpty {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (mc *MotifController) Encode(c *gin.Context) {
	var request model.SequenceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		mc.bindError(c, err)
		return
	}

	encoding, err := mc.motifService.Encode(request.Sequence)
	if err != nil {
		mc.writeLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.EncodeResponse{
		Glycowords: encoding.Glycowords,
		Labels:     encoding.Labels,
		Edges:      encoding.Edges,
	})
}

func (mc *MotifController) Neighbors(c *gin.Context) {
	request := model.LookupRequest{Limit: 10}
	if err := c.ShouldBindJSON(&request); err != nil {
		mc.bindError(c, err)
		return
	}

	neighborhood, err := mc.motifService.Neighbors(c.Request.Context(), request.Sequence, int(request.Limit))
	if err != nil {
		mc.writeLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NeighborsResponse{
		Sequence:   neighborhood.Sequence,
		Neighbors:  neighborhood.Neighbors,
		Glycowords: neighborhood.Glycowords,
	})
}

func (mc *MotifController) Similar(c *gin.Context) {
	request := model.LookupRequest{Limit: 10}
	if err := c.ShouldBindJSON(&request); err != nil {
		mc.bindError(c, err)
		return
	}

	label, matches, err := mc.motifService.Similar(c.Request.Context(), request.Sequence, int(request.Limit))
	if err != nil {
		mc.writeLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SimilarResponse{
		Sequence: label,
		Results:  matches,
	})
}

func (mc *MotifController) writeLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLibraryUnavailable),
		errors.Is(err, service.ErrGraphUnavailable),
		errors.Is(err, service.ErrProfileUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmptySequence),
		errors.Is(err, service.ErrSequenceTooShort),
		errors.Is(err, library.ErrUnknownGlycoword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		mc.logger.Error("Lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	}
}
