package handler

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"glycomotif/internal/controller"
)

// SetupRouter wires the motif endpoints. mcpHandler is mounted at mcpPath
// when non-nil.
func SetupRouter(motifController *controller.MotifController, mcpHandler http.Handler, mcpPath string, corsOrigins []string, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(CustomRecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(corsOrigins))

	router.POST("/motif/find", motifController.FindMotifs)
	router.POST("/motif/small", motifController.SmallMotif)
	router.POST("/motif/mutate", motifController.Mutate)
	router.POST("/motif/known", motifController.KnownMotifs)
	router.POST("/motif/encode", motifController.Encode)
	router.POST("/motif/neighbors", motifController.Neighbors)
	router.POST("/motif/similar", motifController.Similar)
	router.POST("/validate", motifController.Validate)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
		})
	})

	if mcpHandler != nil {
		router.Any(mcpPath, gin.WrapH(mcpHandler))
	}

	return router
}

// CORSMiddleware allows the listed origins, or every origin when none are listed
func CORSMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func CustomRecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("stack", string(debug.Stack())),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}
