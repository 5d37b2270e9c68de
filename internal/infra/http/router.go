package http

import (
	"os"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with recovery only; request logging goes
// through slog at the controllers' discretion, not gin's default writer.
func NewRouter() *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}
