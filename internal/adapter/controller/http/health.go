package httpctrl

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/v01dsy/azurewrath/internal/config"
	"github.com/v01dsy/azurewrath/internal/infra/store"
)

type HealthController struct {
	db    *sql.DB
	build config.BuildInfo
}

func NewHealthController(db *sql.DB, build config.BuildInfo) *HealthController {
	return &HealthController{db: db, build: build}
}

type healthResp struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Commit    string            `json:"commit,omitempty"`
	BuildTime string            `json:"buildTime,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Checks    map[string]string `json:"checks"`
	Now       string            `json:"now,omitempty"`
}

func (h *HealthController) Register(r *gin.Engine) {
	r.GET("/health", h.get)
	r.HEAD("/health", h.head)
}

func (h *HealthController) get(c *gin.Context) {
	checks := map[string]string{"db": "ok"}

	if err := store.PingCtx(h.db, 500*time.Millisecond); err != nil {
		checks["db"] = "down"
		c.JSON(http.StatusServiceUnavailable, healthResp{Status: "degraded", Checks: checks})
		return
	}

	c.JSON(http.StatusOK, healthResp{
		Status:    "ok",
		Version:   h.build.Version,
		Commit:    h.build.Commit,
		BuildTime: h.build.BuildTime,
		Uptime:    time.Since(h.build.StartedAt).Truncate(time.Second).String(),
		Checks:    checks,
		Now:       time.Now().UTC().Format(time.RFC3339),
	})
}

// HEAD mirrors GET's status code without a body.
func (h *HealthController) head(c *gin.Context) {
	if err := store.PingCtx(h.db, 500*time.Millisecond); err != nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	c.Status(http.StatusOK)
}
