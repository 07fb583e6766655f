//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/eslsoft/lvgames/internal/adapter/httpapi"
	"github.com/eslsoft/lvgames/internal/infrastructure/config"
	"github.com/eslsoft/lvgames/internal/infrastructure/server"
)

var configSet = wire.NewSet(
	config.Load,
)

var storageSet = wire.NewSet(
	ProvideResultsDB,
	ProvideResults,
	ProvideStore,
)

var usecaseSet = wire.NewSet(
	ProvideSource,
	ProvideSessions,
	ProvideBackup,
	ProvideRetention,
)

var serverSet = wire.NewSet(
	server.NewLogger,
	httpapi.NewHandler,
	server.NewServer,
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		storageSet,
		usecaseSet,
		serverSet,
		wire.Struct(new(Container), "*"),
	)
	return nil, nil, nil
}
