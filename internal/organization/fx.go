package organization

import (
	"github.com/railzwaylabs/clubsettle/internal/organization/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.repository",
	fx.Provide(repository.Provide),
)
