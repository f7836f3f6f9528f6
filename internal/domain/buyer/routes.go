package buyer

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimit builds a per-client limiter for one route bucket.
type RateLimit func(bucket string, limit int, window time.Duration) gin.HandlerFunc

// RegisterRoutes registers buyer routes. r must already require auth.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler, limit RateLimit) {
	if limit == nil {
		limit = func(string, int, time.Duration) gin.HandlerFunc {
			return func(c *gin.Context) { c.Next() }
		}
	}

	buyers := r.Group("/buyers")
	{
		buyers.GET("", handler.List)
		buyers.POST("", limit("buyers:create", 20, time.Minute), handler.Create)
		buyers.GET("/stats", handler.Stats)
		buyers.GET("/export", handler.Export)
		buyers.POST("/import", limit("buyers:import", 5, time.Minute), handler.Import)
		buyers.GET("/activity", handler.Activity)
		buyers.GET("/ws", handler.Live)
		buyers.GET("/:id", handler.Get)
		buyers.PUT("/:id", limit("buyers:update", 30, time.Minute), handler.Update)
		buyers.DELETE("/:id", limit("buyers:delete", 10, time.Minute), handler.Delete)
		buyers.GET("/:id/history", handler.History)
	}
}
