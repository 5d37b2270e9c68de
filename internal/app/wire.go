package app

import (
	"fmt"

	"github.com/gin-gonic/gin"

	httpctrl "github.com/v01dsy/azurewrath/internal/adapter/controller/http"
	"github.com/v01dsy/azurewrath/internal/adapter/gateway/postgres"
	"github.com/v01dsy/azurewrath/internal/adapter/gateway/source/catalogapi"
	"github.com/v01dsy/azurewrath/internal/adapter/gateway/source/common"
	"github.com/v01dsy/azurewrath/internal/adapter/gateway/source/detailapi"
	"github.com/v01dsy/azurewrath/internal/adapter/gateway/source/rolimons"
	"github.com/v01dsy/azurewrath/internal/config"
	"github.com/v01dsy/azurewrath/internal/domain/prices"
	httpinfra "github.com/v01dsy/azurewrath/internal/infra/http"
	"github.com/v01dsy/azurewrath/internal/infra/logx"
	"github.com/v01dsy/azurewrath/internal/infra/scheduler"
	"github.com/v01dsy/azurewrath/internal/infra/store"
	"github.com/v01dsy/azurewrath/internal/usecase/update"
)

type envErr string

func (e envErr) Error() string { return "missing env: " + string(e) }
func ErrEnv(name string) error { return envErr(name) }

// Build wires the whole process: pool, price source, update worker, and the
// read API router. A failed pool open is fatal here so the process never
// reaches scheduling without a database.
func Build() (*gin.Engine, *scheduler.Worker, error) {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return nil, nil, ErrEnv("DATABASE_URL")
	}

	logger := logx.New(config.AppName)

	db, err := store.OpenPostgres(cfg.DatabaseURL, cfg.Concurrency+5)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}

	src, err := buildSource(cfg)
	if err != nil {
		return nil, nil, err
	}

	worker := &scheduler.Worker{
		Cycle: &update.Cycle{
			Catalog: postgres.NewItemsRepo(db),
			History: postgres.NewHistoryRepo(db),
			Source:  src,
			Logger:  logger,
		},
		Interval: cfg.Interval,
		Logger:   logger,
	}

	router := httpinfra.NewRouter()
	httpctrl.NewHealthController(db, config.NewBuildInfo()).Register(router)
	httpctrl.NewItemsController(postgres.NewQueryRepo(db)).Register(router)

	return router, worker, nil
}

func buildSource(cfg config.Config) (prices.Source, error) {
	headers := common.AuthHeaders(cfg.BoundAuthToken, cfg.Cookie)
	switch cfg.PriceSource {
	case config.SourceCatalog:
		return catalogapi.New(headers), nil
	case config.SourceDetail:
		return detailapi.New(headers, cfg.Concurrency), nil
	case config.SourceRolimons:
		return rolimons.New(), nil
	default:
		return nil, fmt.Errorf("unknown PRICE_SOURCE %q", cfg.PriceSource)
	}
}
