package payment

import (
	"github.com/skipscan/skipscan/internal/config"
	"github.com/skipscan/skipscan/internal/payment/adapters/stripe"
	"github.com/skipscan/skipscan/internal/payment/domain"
	"github.com/skipscan/skipscan/internal/payment/repository"
	"github.com/skipscan/skipscan/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(newStripeAdapter),
	fx.Provide(func(a *stripe.Adapter) domain.WebhookVerifier { return a }),
	fx.Provide(func(a *stripe.Adapter) domain.SessionFetcher { return a }),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

func newStripeAdapter(cfg config.Config) (*stripe.Adapter, error) {
	return stripe.NewAdapter(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
}
