package carryforward

import (
	"github.com/railzwaylabs/clubsettle/internal/carryforward/repository"
	"github.com/railzwaylabs/clubsettle/internal/carryforward/service"
	"go.uber.org/fx"
)

var Module = fx.Module("carryforward.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
