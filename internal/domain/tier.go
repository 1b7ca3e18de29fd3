package domain

import "time"

// SearchTier is one step in the escalating radius/timeout search ladder.
// RadiusMiles zero means unbounded, i.e. the open-marketplace tier.
// The ladder is fixed per deployment, not per gig.
type SearchTier struct {
	RadiusMiles float64       `json:"radius_miles"`
	Wait        time.Duration `json:"wait"`
}

// OpenMarketplace reports whether this tier searches without a radius bound.
func (t SearchTier) OpenMarketplace() bool {
	return t.RadiusMiles <= 0
}
