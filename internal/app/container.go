package app

import (
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/lvgames/internal/infrastructure/config"
	"github.com/eslsoft/lvgames/internal/infrastructure/jobs"
	"github.com/eslsoft/lvgames/internal/infrastructure/server"
	"github.com/eslsoft/lvgames/internal/repository"
	"github.com/eslsoft/lvgames/internal/usecase/backup"
	"github.com/eslsoft/lvgames/internal/usecase/session"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Store     repository.KVStore
	Results   repository.ResultRepository
	Source    repository.ItemSource
	Sessions  *session.Manager
	Backup    *backup.Service
	Retention *jobs.Retention
	Server    *server.Server
}
