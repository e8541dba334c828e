package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"greendrake/carads/internal/api/handlers"
	"greendrake/carads/internal/api/middleware"
	"greendrake/carads/internal/config"
	"greendrake/carads/internal/platform/metrics"
	"greendrake/carads/internal/services"
	"greendrake/carads/internal/tasks"
)

// TaskEnqueuer is the part of *asynq.Client used by the service API.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, log *zap.Logger, m *metrics.Metrics, carService services.ICarService, uploadService services.IUploadService) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = int64(cfg.UploadMaxMemoryMB) << 20

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg, log)

	// Apply global middleware first (order matters)
	r.Use(middleware.Tracing("carads"))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.ErrorHandler(log))
	r.Use(middleware.CORSMiddleware(cfg.CorsAllowedOrigin))
	r.Use(rateLimiter.Limit())
	r.Use(middleware.BodyLimit(int64(cfg.UploadMaxBodyMB) << 20))

	carHandler := handlers.NewCarHandler(carService, uploadService)

	if cfg.ImageHost == config.ImageHostLocal {
		r.Static("/uploads", cfg.LocalImageDir)
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		cars := v1.Group("/cars")
		cars.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			cars.POST("", carHandler.CreateCar)
			cars.GET("", carHandler.GetAllCars)
			cars.POST("/uploads", carHandler.UploadImage)
			cars.GET("/:id", carHandler.GetCar)
			cars.PATCH("/:id", carHandler.UpdateCar)
			cars.DELETE("/:id", carHandler.DeleteCar)
		}
	}

	r.NoRoute(middleware.NotFound)
	return r
}

// SetupServiceRouter configures and returns the service Gin engine. It is
// meant for the operator network only. taskClient may be nil, in which case
// task methods are unavailable.
func SetupServiceRouter(log *zap.Logger, m *metrics.Metrics, taskClient TaskEnqueuer, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(log))

	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			log.Info("shutdown requested via service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				log.Warn("shutdown already signaled")
			}
		case "sweepTempFiles":
			if taskClient == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Task queue unavailable"})
				return
			}
			info, err := taskClient.EnqueueContext(c.Request.Context(), tasks.NewTempSweepTask())
			if err != nil {
				log.Error("failed to enqueue temp sweep", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to enqueue task"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "result": info.ID})
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
