package resident

import (
	"github.com/railzwaylabs/wastebill/internal/resident/repository"
	"github.com/railzwaylabs/wastebill/internal/resident/service"
	"go.uber.org/fx"
)

var Module = fx.Module("resident.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
