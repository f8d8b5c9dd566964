package creditgate

import (
	"github.com/skipscan/skipscan/internal/creditgate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("creditgate.service",
	fx.Provide(service.New),
)
