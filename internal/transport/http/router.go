package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/metrics"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/service/dispatch"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/transport/http/middleware"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/transport/websocket"
	"github.com/iamasit07/4-in-a-row/gamecore/pkg/auth"
)

type StatsSource interface {
	Stats() dispatch.Stats
}

type RouterConfig struct {
	Origins []string
	// Tokens is nil when connections do not need a JWT.
	Tokens *auth.TokenManager
}

type healthResponse struct {
	Status string `json:"status"`
	dispatch.Stats
}

func NewRouter(ws *websocket.Handler, stats StatsSource, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.With(zap.String("component", "http"))

	router := gin.New()
	router.Use(middleware.RequestLogger(log), gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Origins, log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, healthResponse{Status: "ok", Stats: stats.Stats()})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Tokens != nil {
		router.GET("/ws", middleware.AuthMiddleware(cfg.Tokens, log), func(c *gin.Context) {
			ws.ServeWS(c.Writer, c.Request, c.GetString(middleware.PlayerIDKey))
		})
	} else {
		router.GET("/ws", gin.WrapF(ws.HandleWebSocket))
	}

	return router
}
