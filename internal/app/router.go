package app

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"buyerleads/internal/domain/auth"
	"buyerleads/internal/domain/buyer"
	"buyerleads/internal/middleware"
	"buyerleads/internal/pkg/jwt"
	"buyerleads/internal/pkg/response"
)

// RouterDeps is everything NewRouter needs to mount the API.
type RouterDeps struct {
	Logger       *zap.Logger
	DB           *gorm.DB
	Tokens       *jwt.Service
	Limiter      middleware.Limiter
	AuthHandler  *auth.Handler
	BuyerHandler *buyer.Handler
	CORSOrigins  []string
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.ErrorLogger(d.Logger),
		middleware.RequestLogger(d.Logger),
		middleware.PrometheusMiddleware(),
		middleware.CORS(d.CORSOrigins),
	)

	r.GET("/healthz", func(c *gin.Context) {
		if d.DB != nil {
			sqlDB, err := d.DB.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				response.Error(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database is unreachable")
				return
			}
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limit := func(name string, n int, window time.Duration) gin.HandlerFunc {
		return middleware.RateLimit(d.Limiter, d.Logger, name, n, window)
	}

	v1 := r.Group("/api/v1")
	d.AuthHandler.RegisterPublicRoutes(v1, limit("auth:signin", 5, time.Minute))

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(d.Tokens))
	d.AuthHandler.RegisterProtectedRoutes(protected)
	buyer.RegisterRoutes(protected, d.BuyerHandler, limit)

	return r
}

// OriginChecker accepts WebSocket upgrades from the allowed origins only.
// Requests without an Origin header come from non-browser clients.
func OriginChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := allowed[u.Scheme+"://"+u.Host]
		return ok
	}
}
