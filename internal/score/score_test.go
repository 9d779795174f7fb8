package score

import (
	"math"
	"testing"

	"walletclinic/internal/aggregate"
	"walletclinic/internal/model"
)

func TestCapAndSmooth(t *testing.T) {
	if got := Cap(50, 100); got != 0.5 {
		t.Fatalf("Cap(50,100) = %v", got)
	}
	if got := Cap(500, 100); got != 1 {
		t.Fatalf("Cap saturates at 1, got %v", got)
	}
	if got := Cap(-3, 10); got != 0 {
		t.Fatalf("negative Cap = %v", got)
	}
	if got := Cap(3, 0); got != 0 {
		t.Fatalf("zero target Cap = %v", got)
	}
	if got := Smooth(5, 10); got != 0.5 {
		t.Fatalf("Smooth(5,10) = %v", got)
	}
	if got := Smooth(0, 10); got != 0 {
		t.Fatalf("Smooth(0,10) = %v", got)
	}
	if a, b := Smooth(100, 10), Smooth(1000, 10); !(a < b && b < 1) {
		t.Fatalf("Smooth should grow toward 1, got %v then %v", a, b)
	}
}

func TestLevelBoundaries(t *testing.T) {
	cases := map[int]string{
		0: "Critical", 39: "Critical", 40: "Weak", 59: "Weak", 60: "Fair",
		74: "Fair", 75: "Healthy", 89: "Healthy", 90: "Elite", 100: "Elite",
	}
	for score, want := range cases {
		if got := Level(score); got != want {
			t.Fatalf("Level(%d) = %s, want %s", score, got, want)
		}
	}
}

func TestHealthEmptyWallet(t *testing.T) {
	h := Health(aggregate.Rollup{})
	if h.Score != 0 || h.Level != "Critical" {
		t.Fatalf("unexpected health %+v", h)
	}
	if h.Strongest != "activity" || h.Weakest != "activity" {
		t.Fatalf("ties should go to the first area, got %s/%s", h.Strongest, h.Weakest)
	}
	if len(h.Areas) != len(AreaKeys) {
		t.Fatalf("expected %d areas, got %d", len(AreaKeys), len(h.Areas))
	}
}

func TestHealthWeightsAndExtremes(t *testing.T) {
	r := aggregate.Rollup{
		DeployedContracts: 40,
		TotalVolumeEth:    0,
	}
	h := Health(r)
	if h.Areas["deployment"] != 100 {
		t.Fatalf("deployment area = %d", h.Areas["deployment"])
	}
	if h.Score != 10 {
		t.Fatalf("deployment alone should weigh 10, got %d", h.Score)
	}
	if h.Strongest != "deployment" || h.Weakest != "activity" {
		t.Fatalf("strongest/weakest = %s/%s", h.Strongest, h.Weakest)
	}
}

func TestHealthBounded(t *testing.T) {
	r := aggregate.Rollup{
		WalletAgeDays:      5000,
		NativeTxs:          1 << 20,
		UniqueDays:         2000,
		UniqueInteractions: 5000,
		Erc20Count:         500,
		NftCount:           500,
		Swaps:              500,
		StablecoinTxs:      500,
		StablecoinTypes:    5,
		UsdcTrades:         50,
		MaxSwapUsd:         1e9,
		TotalVolumeEth:     1e9,
		DeployedContracts:  1000,
		LendingAny:         true,
		Protocols: map[string]int{
			"uniswap": 9, "aerodrome": 9, "aave": 9, "stargate": 9, "metamask": 9, "matcha": 9,
		},
		Lifestyle: aggregate.Lifestyle{
			Timestamps:  []string{"2023-08-10T07:30:00.000Z"},
			Morning:     true,
			Night:       true,
			FirstWeek:   true,
			MaxDailyTxs: 12,
		},
	}
	h := Health(r)
	if h.Score < 90 || h.Score > 100 {
		t.Fatalf("expected an elite bounded score, got %d", h.Score)
	}
	for key, v := range h.Areas {
		if v < 0 || v > 100 {
			t.Fatalf("area %s out of range: %d", key, v)
		}
	}
	for key, v := range Areas(r) {
		if math.IsNaN(v) || v < 0 || v > 1 {
			t.Fatalf("raw area %s out of range: %v", key, v)
		}
	}
}

func TestActivityCountsTokenTransfers(t *testing.T) {
	tokenOnly := Areas(aggregate.Rollup{TokenTxs: 2000})["activity"]
	if want := 0.55 * 2000 / 3000; math.Abs(tokenOnly-want) > 1e-9 {
		t.Fatalf("token-only activity = %v, want %v", tokenOnly, want)
	}
	mixed := Areas(aggregate.Rollup{NativeTxs: 1000, TokenTxs: 1000})["activity"]
	if math.Abs(mixed-tokenOnly) > 1e-9 {
		t.Fatalf("native and token transactions should weigh the same: %v vs %v", mixed, tokenOnly)
	}
}

func TestLifestyleFirstWeekStartsAtWallet(t *testing.T) {
	late := aggregate.Rollup{Lifestyle: aggregate.Lifestyle{Timestamps: []string{"2025-01-15T12:00:00.000Z"}}}
	if got := Areas(late)["lifestyle"]; got != 0.25 {
		t.Fatalf("a wallet's own first week should count, got %v", got)
	}
	launchOnly := aggregate.Rollup{Lifestyle: aggregate.Lifestyle{FirstWeek: true}}
	if got := Areas(launchOnly)["lifestyle"]; got != 0 {
		t.Fatalf("launch-week flag alone should not score, got %v", got)
	}
}

func findGroup(t *testing.T, groups []model.BadgeGroup, key string) model.BadgeGroup {
	t.Helper()
	for _, g := range groups {
		if g.Key == key {
			return g
		}
	}
	t.Fatalf("group %s missing", key)
	return model.BadgeGroup{}
}

func TestBadgesTiers(t *testing.T) {
	r := aggregate.Rollup{WalletAgeDays: 150, TotalVolumeEth: 0.5}
	groups := Badges(r)
	if len(groups) != 9 {
		t.Fatalf("expected 9 groups, got %d", len(groups))
	}
	history := findGroup(t, groups, "patient_history")
	if history.Earned != 3 || history.Total != 6 {
		t.Fatalf("patient history earned %d/%d", history.Earned, history.Total)
	}
	if !history.Badges[2].Unlocked || history.Badges[3].Unlocked {
		t.Fatalf("tier boundary is inclusive: %+v", history.Badges)
	}
	if history.Badges[0].Title != "New Patient" || history.Badges[0].Description != "Wallet age >= 10 days" {
		t.Fatalf("unexpected first tier %+v", history.Badges[0])
	}
	dosage := findGroup(t, groups, "onchain_dosage")
	if dosage.Earned != 2 {
		t.Fatalf("dosage earned %d", dosage.Earned)
	}
	if dosage.Badges[0].Title != "Starter Dose" || dosage.Badges[0].Description != ">= 0.1 ETH" {
		t.Fatalf("unexpected dosage tier %+v", dosage.Badges[0])
	}
}

func TestBadgesPredicates(t *testing.T) {
	r := aggregate.Rollup{
		Swaps:                3,
		StablecoinTypes:      2,
		ThirdPartyBridgeUsed: true,
		BridgeCounts:         map[string]int{"relay": 3, "across": 2},
		Protocols:            map[string]int{"aave": 3},
		Lifestyle:            aggregate.Lifestyle{Holiday: true, MaxDailyTxs: 10},
	}
	groups := Badges(r)

	usage := findGroup(t, groups, "prescription_usage")
	if usage.Earned != 1 || !usage.Badges[0].Unlocked || usage.Badges[3].Unlocked {
		t.Fatalf("prescription usage %+v", usage)
	}
	referrals := findGroup(t, groups, "referrals")
	if referrals.Earned != 2 {
		t.Fatalf("referrals earned %d", referrals.Earned)
	}
	clinics := findGroup(t, groups, "special_clinics")
	if clinics.Earned != 1 || clinics.Total != 7 || !clinics.Badges[2].Unlocked || clinics.Badges[2].Title != "Aave Ward" {
		t.Fatalf("special clinics %+v", clinics)
	}
	r.LendingAny = true
	lending := findGroup(t, Badges(r), "special_clinics")
	if lending.Earned != 2 || !lending.Badges[5].Unlocked || lending.Badges[5].Title != "Lending Ward" {
		t.Fatalf("lending ward %+v", lending)
	}
	lifestyle := findGroup(t, groups, "onchain_lifestyle")
	if lifestyle.Earned != 2 || lifestyle.Badges[3].Unlocked || !lifestyle.Badges[4].Unlocked || !lifestyle.Badges[5].Unlocked {
		t.Fatalf("lifestyle %+v", lifestyle)
	}
}
