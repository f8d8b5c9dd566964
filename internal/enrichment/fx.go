package enrichment

import (
	"github.com/skipscan/skipscan/internal/enrichment/endpoints"
	"github.com/skipscan/skipscan/internal/enrichment/service"
	"github.com/skipscan/skipscan/internal/enrichment/versium"
	"go.uber.org/fx"
)

var Module = fx.Module("enrichment.service",
	fx.Provide(endpoints.NewHolder),
	fx.Provide(versium.New),
	fx.Provide(service.New),
)
