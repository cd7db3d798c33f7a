package memcache_fx

import (
	"go.uber.org/fx"
	"masareefy/internal/models/db_models"
	mem "masareefy/pkg/memcache"
)

var Module = fx.Provide(providePlanCache)

func providePlanCache() mem.Store[[]db_models.Plan] {
	return mem.NewTTLStore[[]db_models.Plan]()
}
