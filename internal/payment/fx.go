package payment

import (
	"github.com/railzwaylabs/wastebill/internal/payment/checkout"
	"github.com/railzwaylabs/wastebill/internal/payment/repository"
	paymentservice "github.com/railzwaylabs/wastebill/internal/payment/service"
	"github.com/railzwaylabs/wastebill/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(paymentservice.New),
	fx.Provide(webhook.NewService),
	fx.Provide(checkout.NewService),
)
