package score

import (
	"fmt"

	"walletclinic/internal/aggregate"
	"walletclinic/internal/model"
)

type tierGroup struct {
	key    string
	title  string
	desc   string
	tiers  []float64
	titles []string
	value  func(aggregate.Rollup) float64
}

type predicate struct {
	key   string
	title string
	desc  string
	ok    func(aggregate.Rollup) bool
}

type predicateGroup struct {
	key   string
	title string
	items []predicate
}

var tierGroups = []tierGroup{
	{
		key:    "patient_history",
		title:  "Patient History",
		desc:   "Wallet age >= %s days",
		tiers:  []float64{10, 50, 150, 300, 600, 1000},
		titles: []string{"New Patient", "Returning", "Long-timer", "Veteran", "Seasoned Patient", "Onchain Elder"},
		value:  func(r aggregate.Rollup) float64 { return float64(r.WalletAgeDays) },
	},
	{
		key:    "medical_staff",
		title:  "Medical Staff",
		desc:   "Deploy >= %s contracts",
		tiers:  []float64{3, 5, 10, 20, 50, 100},
		titles: []string{"Resident I", "Resident II", "Resident III", "Senior Resident", "Attending Doctor", "Chief Surgeon"},
		value:  func(r aggregate.Rollup) float64 { return float64(r.DeployedContracts) },
	},
	{
		key:    "medication_variety",
		title:  "Medication Variety",
		desc:   ">= %s ERC20",
		tiers:  []float64{5, 10, 20, 50, 100, 200},
		titles: []string{"Multi-Drug I", "Multi-Drug II", "Multi-Drug III", "Polypharmacy", "Chronic Meds", "Experimental"},
		value:  func(r aggregate.Rollup) float64 { return float64(r.Erc20Count) },
	},
	{
		key:    "onchain_dosage",
		title:  "Onchain Dosage",
		desc:   ">= %s ETH",
		tiers:  []float64{0.1, 0.5, 1, 5, 10, 25},
		titles: []string{"Starter Dose", "Minor Patient", "Regular Treat.", "Heavy Dose", "Chain Runner", "Intensive Care"},
		value:  func(r aggregate.Rollup) float64 { return r.TotalVolumeEth },
	},
	{
		key:    "treatment_plans",
		title:  "Treatment Plans",
		desc:   ">= %s contracts",
		tiers:  []float64{10, 20, 50, 100, 500, 1000},
		titles: []string{"Curious Patient", "Frequent Visitor", "Adaptive Case", "Onchain Specialist", "Clinical Explorer", "Research Pioneer"},
		value:  func(r aggregate.Rollup) float64 { return float64(r.UniqueInteractions) },
	},
}

func atLeast(n int, get func(aggregate.Rollup) int) func(aggregate.Rollup) bool {
	return func(r aggregate.Rollup) bool { return get(r) >= n }
}

func protocolAtLeast(name string, n int) func(aggregate.Rollup) bool {
	return func(r aggregate.Rollup) bool { return r.Protocols[name] >= n }
}

func bridgeAtLeast(name string, n int) func(aggregate.Rollup) bool {
	return func(r aggregate.Rollup) bool { return r.BridgeCounts[name] >= n }
}

var predicateGroups = []predicateGroup{
	{
		key:   "prescription_usage",
		title: "Prescription Usage",
		items: []predicate{
			{"first_prescription", "First Prescription", ">= 3 swaps", atLeast(3, func(r aggregate.Rollup) int { return r.Swaps })},
			{"stable_dose", "Stable Dose", ">= 3 stablecoin txs", atLeast(3, func(r aggregate.Rollup) int { return r.StablecoinTxs })},
			{"usdc_therapy", "USDC Therapy", ">= 3 USDC trades", atLeast(3, func(r aggregate.Rollup) int { return r.UsdcTrades })},
			{"multi_prescription", "Multi-Prescription", ">= 3 different stablecoins", atLeast(3, func(r aggregate.Rollup) int { return r.StablecoinTypes })},
			{"long_term_medication", "Long-Term Medication", ">= 50 swaps", atLeast(50, func(r aggregate.Rollup) int { return r.Swaps })},
			{"critical_treatment", "Critical Treatment", ">= $10,000 single swap", func(r aggregate.Rollup) bool { return r.MaxSwapUsd >= 10000 }},
		},
	},
	{
		key:   "referrals",
		title: "Referrals",
		items: []predicate{
			{"third_party_bridge", "Third-party Referral", "Used 3rd party bridge", func(r aggregate.Rollup) bool { return r.ThirdPartyBridgeUsed }},
			{"native_bridge", "Native Referral", "Used official Base bridge", func(r aggregate.Rollup) bool { return r.NativeBridgeUsed }},
			{"relay", "Relay Checkup", "Relay >= 3", bridgeAtLeast("relay", 3)},
			{"jumper", "Jumper Checkup", "Jumper >= 3", bridgeAtLeast("jumper", 3)},
			{"bungee", "Bungee Checkup", "Bungee >= 3", bridgeAtLeast("bungee", 3)},
			{"across", "Across Checkup", "Across >= 3", bridgeAtLeast("across", 3)},
		},
	},
	{
		key:   "special_clinics",
		title: "Special Clinics",
		items: []predicate{
			{"uniswap", "Uniswap Ward", "Uniswap >= 3", protocolAtLeast("uniswap", 3)},
			{"aerodrome", "Aerodrome Ward", "Aerodrome >= 3", protocolAtLeast("aerodrome", 3)},
			{"aave", "Aave Ward", "Aave >= 3", protocolAtLeast("aave", 3)},
			{"stargate", "Stargate Ward", "Stargate >= 3", protocolAtLeast("stargate", 3)},
			{"metamask", "Metamask Ward", "Metamask Swap/Bridge >= 3", protocolAtLeast("metamask", 3)},
			{"lending", "Lending Ward", "Lending protocols used", func(r aggregate.Rollup) bool { return r.LendingAny }},
			{"matcha", "Matcha Ward", "Matcha.xyz >= 3", protocolAtLeast("matcha", 3)},
		},
	},
	{
		key:   "onchain_lifestyle",
		title: "Onchain Lifestyle",
		items: []predicate{
			{"morning_checkup", "Morning Checkup", "Transaction between 6-9am UTC", func(r aggregate.Rollup) bool { return r.Lifestyle.Morning }},
			{"night_shift", "Night Shift", "Transaction between 00-06am UTC", func(r aggregate.Rollup) bool { return r.Lifestyle.Night }},
			{"first_admission", "First Admission", "Interacted in first week of mainnet", func(r aggregate.Rollup) bool { return r.Lifestyle.FirstWeek }},
			{"doctors_day", "Doctor's Day Rounds", "Transaction on March 30", func(r aggregate.Rollup) bool { return r.Lifestyle.DoctorsDay }},
			{"emergency_case", "Emergency Case", "Transaction on a global holiday", func(r aggregate.Rollup) bool { return r.Lifestyle.Holiday }},
			{"intensive_care", "Intensive Care", "10+ transactions in one UTC day", func(r aggregate.Rollup) bool { return r.Lifestyle.IntensiveDay() }},
		},
	},
}

// Badges evaluates every badge group in display order.
func Badges(r aggregate.Rollup) []model.BadgeGroup {
	out := make([]model.BadgeGroup, 0, len(tierGroups)+len(predicateGroups))

	for _, g := range tierGroups {
		value := g.value(r)
		group := model.BadgeGroup{Key: g.key, Title: g.title, Total: len(g.tiers)}
		for i, tier := range g.tiers {
			badge := model.Badge{
				Key:         fmt.Sprintf("%s_%d", g.key, i+1),
				Title:       g.titles[i],
				Description: fmt.Sprintf(g.desc, formatTier(tier)),
				Unlocked:    value >= tier,
			}
			if badge.Unlocked {
				group.Earned++
			}
			group.Badges = append(group.Badges, badge)
		}
		out = append(out, group)
	}

	for _, g := range predicateGroups {
		group := model.BadgeGroup{Key: g.key, Title: g.title, Total: len(g.items)}
		for _, item := range g.items {
			badge := model.Badge{Key: item.key, Title: item.title, Description: item.desc, Unlocked: item.ok(r)}
			if badge.Unlocked {
				group.Earned++
			}
			group.Badges = append(group.Badges, badge)
		}
		out = append(out, group)
	}
	return out
}

func formatTier(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
