package settlement

import (
	"github.com/railzwaylabs/clubsettle/internal/settlement/cache"
	"github.com/railzwaylabs/clubsettle/internal/settlement/repository"
	"github.com/railzwaylabs/clubsettle/internal/settlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settlement.service",
	fx.Provide(repository.Provide),
	fx.Provide(cache.New),
	fx.Provide(service.NewService),
)
