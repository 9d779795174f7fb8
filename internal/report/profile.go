package report

import (
	"walletclinic/internal/classify"
	"walletclinic/internal/deploy"
)

// Profile bounds the RPC-heavy enrichment stages.
type Profile struct {
	Name         string
	Deploy       deploy.Limits
	Interactions classify.InteractionLimits
}

// FastProfile serves the primary summary.
func FastProfile() Profile {
	return Profile{
		Name:         "fast",
		Deploy:       deploy.FastLimits(),
		Interactions: classify.InteractionLimits{Cap: 300, Workers: 8},
	}
}

// ThoroughProfile serves the details pass.
func ThoroughProfile() Profile {
	return Profile{
		Name:         "thorough",
		Deploy:       deploy.ThoroughLimits(),
		Interactions: classify.InteractionLimits{Cap: 1000, Workers: 8},
	}
}
