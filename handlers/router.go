package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"policynav-backend/logger"
)

// RouterConfig holds everything the router wires together
type RouterConfig struct {
	Navigator   *NavigatorHandler
	Proxy       *ProxyHandler
	Logger      *logger.Logger
	CORSOrigins []string
}

// NewRouter builds the gin engine
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(cfg.Logger))
	r.Use(CORS(cfg.CORSOrigins))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	{
		api.POST("/upload", cfg.Navigator.Upload)
		api.POST("/chat/start", cfg.Navigator.StartChat)
		api.POST("/chat/answer", cfg.Navigator.Answer)
		api.POST("/discover", cfg.Navigator.Discover)
		api.GET("/sessions/:id", cfg.Navigator.GetSession)
	}

	if cfg.Proxy != nil {
		r.POST("/proxy", cfg.Proxy.Forward)
		r.OPTIONS("/proxy", cfg.Proxy.Preflight)
	}

	return r
}
