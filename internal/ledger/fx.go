package ledger

import (
	"github.com/railzwaylabs/clubsettle/internal/ledger/repository"
	"github.com/railzwaylabs/clubsettle/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
