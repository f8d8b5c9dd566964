package creditpackage

import (
	"github.com/skipscan/skipscan/internal/creditpackage/repository"
	"github.com/skipscan/skipscan/internal/creditpackage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("creditpackage.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
