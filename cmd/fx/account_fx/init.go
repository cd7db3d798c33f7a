package account_fx

import (
	"go.uber.org/fx"
	"masareefy/internal/repositories"
)

var Module = fx.Provide(repositories.NewAccountRepository)
