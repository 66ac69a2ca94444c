package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TTLPolicy groups the retention tiers the callers choose from. The tier is
// picked per query shape: filtered aggregate queries are volatile and
// short-lived, reference data sits in the middle, and broad unfiltered
// ("performance mode") datasets are reused by many clients and kept longest.
type TTLPolicy struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// DefaultTTLPolicy returns the production tiers: 5 minutes for volatile
// aggregates, 30 minutes for semi-static reference data, 1 hour for full
// performance-mode datasets.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Short:  5 * time.Minute,
		Medium: 30 * time.Minute,
		Long:   time.Hour,
	}
}

// Validate checks that the tiers are positive and ordered.
func (p TTLPolicy) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Short, validation.Required),
		validation.Field(&p.Medium, validation.Required),
		validation.Field(&p.Long, validation.Required),
	)
	if err != nil {
		return err
	}
	if p.Short > p.Medium || p.Medium > p.Long {
		return validation.NewError("ttl_policy_order", "ttl tiers must satisfy short <= medium <= long")
	}
	return nil
}
