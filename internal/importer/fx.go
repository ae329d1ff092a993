package importer

import (
	"github.com/railzwaylabs/clubsettle/internal/importer/repository"
	"github.com/railzwaylabs/clubsettle/internal/importer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("importer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
