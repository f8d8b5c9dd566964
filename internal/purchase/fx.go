package purchase

import (
	"github.com/skipscan/skipscan/internal/purchase/service"
	"github.com/skipscan/skipscan/internal/purchase/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("purchase.service",
	fx.Provide(stripe.NewClient),
	fx.Provide(service.New),
)
