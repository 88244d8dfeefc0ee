package bootstrap

import (
	"github.com/samber/do"
	"go.uber.org/zap"

	"github.com/stagetrack-io/stagetrack/internal/config"
	"github.com/stagetrack-io/stagetrack/internal/infra/logger"
	"github.com/stagetrack-io/stagetrack/internal/modules/handler"
	"github.com/stagetrack-io/stagetrack/internal/modules/service"
	"github.com/stagetrack-io/stagetrack/internal/modules/store"
	"github.com/stagetrack-io/stagetrack/internal/pkg/policy"
)

func BuildContainer() *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.Load()
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level)
	})

	// authorization policy
	do.Provide(inj, func(i *do.Injector) (policy.Policy, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return policy.New(cfg.Policy.PrivilegedEmail), nil
	})

	// durable store
	do.Provide(inj, func(i *do.Injector) (*store.FileStore, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return store.NewFileStore(
			cfg.Store.Path,
			do.MustInvoke[policy.Policy](i),
			do.MustInvoke[*zap.Logger](i),
		)
	})

	// write serializer
	do.Provide(inj, func(i *do.Injector) (*store.WriteSerializer, error) {
		return store.NewWriteSerializer(
			do.MustInvoke[*store.FileStore](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// service
	do.Provide(inj, func(i *do.Injector) (service.TrackerService, error) {
		return service.NewTrackerService(
			do.MustInvoke[*store.FileStore](i),
			do.MustInvoke[*store.WriteSerializer](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// handlers
	do.Provide(inj, func(i *do.Injector) (*handler.HealthHandler, error) {
		return handler.NewHealthHandler(), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.SyncHandler, error) {
		return handler.NewSyncHandler(
			do.MustInvoke[service.TrackerService](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ProjectHandler, error) {
		return handler.NewProjectHandler(
			do.MustInvoke[service.TrackerService](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	return inj
}
