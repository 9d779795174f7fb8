// Package score maps rollups to the health score and badge eligibility.
package score

import (
	"math"

	"walletclinic/internal/aggregate"
	"walletclinic/internal/model"
)

// Area keys in fixed order. Ties for strongest and weakest go to the
// earliest key.
var AreaKeys = []string{"activity", "diversity", "usage", "volume", "lifestyle", "deployment"}

var areaWeights = map[string]float64{
	"activity":   25,
	"diversity":  20,
	"usage":      20,
	"volume":     15,
	"lifestyle":  10,
	"deployment": 10,
}

var clinicProtocols = []string{"uniswap", "aerodrome", "aave", "stargate", "metamask", "matcha"}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 1
	}
	return v
}

// Cap is min(value/target, 1) clamped at zero.
func Cap(value, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return clamp01(value / target)
}

// Smooth is value/(value + target/2), a diminishing-returns curve.
func Smooth(value, target float64) float64 {
	if value <= 0 {
		return 0
	}
	return clamp01(value / (value + target*0.5))
}

// Areas returns the raw 0..1 sub-scores.
func Areas(r aggregate.Rollup) map[string]float64 {
	activeDays := r.Lifestyle.ActiveDays
	if r.UniqueDays > activeDays {
		activeDays = r.UniqueDays
	}

	clinics := 0.0
	for _, name := range clinicProtocols {
		clinics += Cap(float64(r.Protocols[name]), 3)
	}
	if r.LendingAny {
		clinics++
	}
	clinicBonus := clinics / float64(len(clinicProtocols)+1)

	lifestyleHits := 0
	for _, hit := range []bool{r.Lifestyle.Morning, r.Lifestyle.Night, r.Lifestyle.IntensiveDay(), r.Lifestyle.ActiveInOwnFirstWeek()} {
		if hit {
			lifestyleHits++
		}
	}

	return map[string]float64{
		"activity": 0.30*Cap(float64(r.WalletAgeDays), 600) +
			0.55*Smooth(float64(r.NativeTxs+r.TokenTxs), 2000) +
			0.15*Cap(float64(activeDays), 150),
		"diversity": 0.5*Cap(float64(r.UniqueInteractions), 100) +
			0.3*Cap(float64(r.Erc20Count), 50) +
			0.2*Cap(float64(r.NftCount), 50),
		"usage": 0.50*Cap(float64(r.Swaps), 50) +
			0.18*Cap(float64(r.StablecoinTxs), 10) +
			0.08*Cap(float64(r.StablecoinTypes), 3) +
			0.04*Cap(float64(r.UsdcTrades), 3) +
			0.10*Cap(r.MaxSwapUsd, 10000) +
			0.10*clinicBonus,
		"volume":     Smooth(r.TotalVolumeEth, 10),
		"lifestyle":  float64(lifestyleHits) / 4,
		"deployment": Cap(float64(r.DeployedContracts), 20),
	}
}

// Level maps an overall score to its qualitative level.
func Level(score int) string {
	switch {
	case score < 40:
		return "Critical"
	case score < 60:
		return "Weak"
	case score < 75:
		return "Fair"
	case score < 90:
		return "Healthy"
	default:
		return "Elite"
	}
}

// Health computes the weighted 0-100 score.
func Health(r aggregate.Rollup) model.HealthScore {
	raw := Areas(r)
	areas := make(map[string]int, len(raw))
	total := 0.0
	for _, key := range AreaKeys {
		pct := int(math.Round(clamp01(raw[key]) * 100))
		areas[key] = pct
		total += float64(pct) * areaWeights[key]
	}
	score := int(math.Round(total / 100))

	strongest, weakest := AreaKeys[0], AreaKeys[0]
	for _, key := range AreaKeys[1:] {
		if raw[key] > raw[strongest] {
			strongest = key
		}
		if raw[key] < raw[weakest] {
			weakest = key
		}
	}

	return model.HealthScore{
		Score:     score,
		Level:     Level(score),
		Areas:     areas,
		Strongest: strongest,
		Weakest:   weakest,
	}
}
