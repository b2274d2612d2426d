package collection

import (
	"github.com/railzwaylabs/wastebill/internal/collection/repository"
	"github.com/railzwaylabs/wastebill/internal/collection/service"
	"go.uber.org/fx"
)

var Module = fx.Module("collection.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
