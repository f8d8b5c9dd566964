package queryresult

import (
	"github.com/skipscan/skipscan/internal/queryresult/repository"
	"github.com/skipscan/skipscan/internal/queryresult/service"
	"go.uber.org/fx"
)

var Module = fx.Module("queryresult.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
