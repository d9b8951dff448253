package http

import (
	"net/http"
	"time"

	"philosophers-service/internal/app"
	"philosophers-service/internal/auth"

	"github.com/gin-gonic/gin"
)

// RouterConfig carries the transport settings of the router.
type RouterConfig struct {
	RequestTimeout time.Duration
	// FileRoute is the path prefix under which level images are served.
	FileRoute string
}

// NewRouter builds the gin engine with the AJAX, WebSocket and file endpoints.
func NewRouter(service *app.GameService, tokens *auth.Tokens, cfg RouterConfig) *gin.Engine {
	if cfg.FileRoute == "" {
		cfg.FileRoute = "/files/"
	}
	dispatcher := NewDispatcher(service)
	ajax := NewAjaxHandler(dispatcher)
	files := NewFileHandler(service)
	ws := NewWSHandler(dispatcher, cfg.RequestTimeout)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(ErrorHandler())

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	authed := router.Group("/", Auth(tokens))
	authed.GET("/ws", ws.ServeWS)

	timed := authed.Group("/", RequestTimeout(cfg.RequestTimeout))
	timed.POST("/ajax", ajax.Serve)
	timed.GET(cfg.FileRoute+"*key", files.Serve)
	return router
}
