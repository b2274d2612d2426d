package billingmodel

import (
	"github.com/railzwaylabs/wastebill/internal/billingmodel/repository"
	"github.com/railzwaylabs/wastebill/internal/billingmodel/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billingmodel.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(service.NewResolver),
)
