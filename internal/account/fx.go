package account

import (
	"github.com/skipscan/skipscan/internal/account/repository"
	"github.com/skipscan/skipscan/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
