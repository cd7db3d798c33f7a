package response_models

import "masareefy/internal/models/db_models"

type ResourceUsage struct {
	Current     int64           `json:"current"`
	Limit       db_models.Limit `json:"limit"`
	IsUnlimited bool            `json:"isUnlimited"`
}

// LimitCheck answers whether one more unit of a resource may be added.
// Remaining is nil when the limit is unlimited.
type LimitCheck struct {
	ResourceType db_models.ResourceType `json:"resourceType"`
	CanAdd       bool                   `json:"canAdd"`
	Current      int64                  `json:"current"`
	Limit        db_models.Limit        `json:"limit"`
	Remaining    *int64                 `json:"remaining"`
	IsUnlimited  bool                   `json:"isUnlimited"`
}
