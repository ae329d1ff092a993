package bankstatement

import (
	"github.com/railzwaylabs/clubsettle/internal/bankstatement/repository"
	"github.com/railzwaylabs/clubsettle/internal/bankstatement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bankstatement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
