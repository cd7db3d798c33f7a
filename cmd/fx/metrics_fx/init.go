package metrics_fx

import (
	"go.uber.org/fx"
	"masareefy/internal/infra"
)

var Module = fx.Provide(infra.NewMetrics)
