//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"coronabot/internal"
	"coronabot/internal/commands"
	"coronabot/internal/controllers"
	"coronabot/internal/covid"
	"coronabot/internal/dispatch"
	"coronabot/internal/feed"
	"coronabot/internal/providers"
	"coronabot/internal/storage"
	"coronabot/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewCacheProvider,

		storage.NewZstdCompressor,
		storage.NewArchive,
		storage.NewStore,
		storage.NewStoreLock,

		covid.NewClient,
		dispatch.NewLogDispatcher,
		commands.NewCommands,

		feed.NewReconciler,
		feed.NewScheduler,

		controllers.NewApiController,
		controllers.NewHealthController,
		controllers.NewCommandController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
