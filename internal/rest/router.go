package rest

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sergeii/mcscan/api/docs" // nolint: revive
	"github.com/sergeii/mcscan/internal/rest/api"
)

func NewRouter(a *api.API, logger *zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/status", a.Status)
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	servers := router.Group("/api/servers")
	servers.GET("", a.ListServers)
	servers.GET("/:address", a.ViewServer)

	return router
}

func requestLogger(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Debug()
		if status >= 500 {
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(started)).
			Msg("Handled API request")
	}
}
