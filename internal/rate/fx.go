package rate

import (
	"github.com/railzwaylabs/clubsettle/internal/rate/repository"
	"github.com/railzwaylabs/clubsettle/internal/rate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rate.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
