package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/do"
	"go.uber.org/zap"

	"github.com/stagetrack-io/stagetrack/internal/bootstrap"
	"github.com/stagetrack-io/stagetrack/internal/config"
	"github.com/stagetrack-io/stagetrack/internal/modules/handler"
	"github.com/stagetrack-io/stagetrack/internal/modules/store"
	"github.com/stagetrack-io/stagetrack/internal/router"
)

func main() {
	// build dependency injection container
	inj := bootstrap.BuildContainer()

	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	writes := do.MustInvoke[*store.WriteSerializer](inj)

	// init gin
	gin.SetMode(cfg.App.Env)

	// build handlers
	healthHandler := do.MustInvoke[*handler.HealthHandler](inj)
	syncHandler := do.MustInvoke[*handler.SyncHandler](inj)
	projectHandler := do.MustInvoke[*handler.ProjectHandler](inj)

	engine := router.NewRouter(router.RouterDeps{
		Config:         cfg,
		Log:            log,
		HealthHandler:  healthHandler,
		SyncHandler:    syncHandler,
		ProjectHandler: projectHandler,
	})

	addr := fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)
	srv := &http.Server{Addr: addr, Handler: engine}

	go func() {
		log.Sugar().Infow("starting http server", "addr", addr, "store", cfg.Store.Path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Sugar().Fatalw("listen error", "err", err)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Sugar().Errorw("server shutdown", "err", err)
	}

	// drain queued writes before exiting
	writes.Close()
	log.Sugar().Info("server exited")
}
