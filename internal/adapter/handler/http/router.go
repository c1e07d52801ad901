package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/config"
	"github.com/sm8ta/webike_component_microservice/internal/core/ports"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Router struct {
	router *gin.Engine
	server *http.Server
}

func NewRouter(
	cfg *config.HTTP,
	serviceName string,
	tokenService ports.TokenService,
	health Pinger,
	componentHandler *ComponentHandler,
	componentTypeHandler *ComponentTypeHandler,
) (*Router, error) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Tracing
	router.Use(otelgin.Middleware(serviceName))

	// CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(cfg.AllowedOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := health.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Component types
	types := router.Group("/component-types")
	types.Use(AuthMiddleware(tokenService))
	{
		types.GET("", componentTypeHandler.ListTypes)
	}

	// Components routes
	components := router.Group("/bikes/:bikeId/components")
	components.Use(AuthMiddleware(tokenService))
	{
		components.POST("", componentHandler.InstallComponent)
		components.GET("", componentHandler.ListComponents)
		components.GET("/page", componentHandler.PageComponents)
		components.GET("/metrics", componentHandler.ComponentMetrics)
		components.GET("/:id", componentHandler.GetComponent)
		components.PUT("/:id", componentHandler.UpdateComponent)
		components.PUT("/:id/installation", componentHandler.UpdateInstallation)
		components.DELETE("/:id", componentHandler.RemoveComponent)
		components.POST("/:id/restore", componentHandler.RestoreComponent)
		components.DELETE("/:id/hard", componentHandler.HardDeleteComponent)
		components.POST("/:id/replace", componentHandler.ReplaceComponent)
		components.GET("/:id/history", componentHandler.ComponentHistory)
	}
	return &Router{
		router: router,
		server: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func allowedOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

// Serve blocks until the server stops. http.ErrServerClosed is returned
// after Shutdown.
func (r *Router) Serve(addr string) error {
	r.server.Addr = addr
	return r.server.ListenAndServe()
}

func (r *Router) Shutdown(ctx context.Context) error {
	return r.server.Shutdown(ctx)
}

func (r *Router) Engine() *gin.Engine {
	return r.router
}
