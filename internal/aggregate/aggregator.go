// Package aggregate turns fetched and classified wallet data into rollups.
// Everything here is pure: the same input always yields the same Rollup.
package aggregate

import (
	"math/big"
	"strings"
	"time"

	"walletclinic/internal/catalog"
	"walletclinic/internal/classify"
	"walletclinic/internal/model"
)

// Input is everything the aggregator consumes for one address.
type Input struct {
	Address      string
	Now          time.Time
	Transactions []model.Transaction
	ERC20        []model.Transfer
	NFT          []model.Transfer
	Swaps        classify.Swaps
	Bridges      classify.Bridges
	Protocols    classify.Protocols
	Interactions classify.Interactions
	Deployed     int
	Prices       model.PriceQuote
	BalanceWei   *big.Int
	Catalog      *catalog.Catalog
}

// Rollup holds the derived statistics of one address.
type Rollup struct {
	WalletAgeDays int
	UniqueDays    int
	UniqueWeeks   int
	UniqueMonths  int

	NativeTxs int
	TokenTxs  int

	BalanceEth     float64
	TotalVolumeEth float64
	VolumeEthUsd   float64
	UsdcAmount     float64
	VolumeUsdTotal float64
	GasEth         float64

	Swaps           int
	StablecoinTxs   int
	UsdcTrades      int
	StablecoinTypes int
	MaxSwapUsd      float64

	Erc20Count int
	NftCount   int

	UniqueInteractions int
	TotalInteractions  int
	DeployedContracts  int

	DepositedEth         float64
	DepositedUsd         float64
	NativeBridgeUsed     bool
	ThirdPartyBridgeUsed bool
	BridgeCounts         map[string]int

	Protocols  map[string]int
	LendingAny bool

	Thresholds map[string]bool
	Lifestyle  Lifestyle
}

// Compute derives the rollup. Errored transactions are left out of volume,
// gas, age and calendar buckets but still count toward NativeTxs.
func Compute(in Input) Rollup {
	cat := in.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	ethUsd := in.Prices.EthUSD

	r := Rollup{
		NativeTxs:            len(in.Transactions),
		TokenTxs:             len(in.ERC20) + len(in.NFT),
		BalanceEth:           WeiToEth(in.BalanceWei),
		UniqueInteractions:   in.Interactions.Unique,
		TotalInteractions:    in.Interactions.Total,
		DeployedContracts:    in.Deployed,
		Swaps:                len(in.Swaps.Hashes),
		NativeBridgeUsed:     in.Bridges.NativeUsed,
		ThirdPartyBridgeUsed: in.Bridges.ThirdPartyUsed,
		BridgeCounts:         copyCounts(in.Bridges.Counts),
		Protocols:            copyCounts(in.Protocols.Counts),
		LendingAny:           in.Protocols.LendingAny,
	}

	buckets := newBuckets()
	volumeWei := new(big.Int)
	gasWei := new(big.Int)
	okByHash := make(map[string]model.Transaction)
	var first int64
	for _, tx := range in.Transactions {
		if !tx.OK() {
			continue
		}
		okByHash[tx.Hash] = tx
		if first == 0 || tx.Timestamp < first {
			first = tx.Timestamp
		}
		buckets.add(unixUTC(tx.Timestamp))
		if tx.Value != nil {
			volumeWei.Add(volumeWei, tx.Value)
		}
		if tx.GasUsed != nil && tx.GasPrice != nil && tx.GasUsed.Sign() > 0 && tx.GasPrice.Sign() > 0 {
			gasWei.Add(gasWei, new(big.Int).Mul(tx.GasUsed, tx.GasPrice))
		}
	}

	if first > 0 && !in.Now.IsZero() {
		if age := (in.Now.Unix() - first) / secondsPerDay; age > 0 {
			r.WalletAgeDays = int(age)
		}
	}
	r.UniqueDays = len(buckets.Days)
	r.UniqueWeeks = len(buckets.Weeks)
	r.UniqueMonths = len(buckets.Months)

	r.TotalVolumeEth = WeiToEth(volumeWei)
	r.VolumeEthUsd = r.TotalVolumeEth * ethUsd
	r.GasEth = WeiToEth(gasWei)

	usdcWei := new(big.Int)
	usdcDecimals := model.DefaultTokenDecimals
	stableTypes := make(map[string]struct{})
	tokenContracts := make(map[string]struct{})
	for _, tr := range in.ERC20 {
		tokenContracts[tr.ContractAddress] = struct{}{}
		if tr.ContractAddress == cat.USDCAddress && tr.Value != nil {
			usdcWei.Add(usdcWei, tr.Value)
			usdcDecimals = tr.TokenDecimals
		}
		symbol := strings.ToUpper(strings.TrimSpace(tr.TokenSymbol))
		if !cat.IsStable(symbol) {
			continue
		}
		r.StablecoinTxs++
		if in.Swaps.Has(tr.Hash) {
			stableTypes[symbol] = struct{}{}
			if symbol == "USDC" {
				r.UsdcTrades++
			}
		}
	}
	r.StablecoinTypes = len(stableTypes)
	r.Erc20Count = len(tokenContracts)
	r.UsdcAmount = ToUnits(usdcWei, usdcDecimals)
	r.VolumeUsdTotal = r.VolumeEthUsd + r.UsdcAmount*in.Prices.UsdcUSD

	nftContracts := make(map[string]struct{})
	for _, tr := range in.NFT {
		nftContracts[tr.ContractAddress] = struct{}{}
	}
	r.NftCount = len(nftContracts)

	r.MaxSwapUsd = maxSwapUsd(in.Swaps, okByHash, ethUsd)

	if in.Bridges.DepositedWei != nil {
		r.DepositedEth = WeiToEth(in.Bridges.DepositedWei)
	}
	r.DepositedUsd = r.DepositedEth * ethUsd

	r.Thresholds = Thresholds(r)
	r.Lifestyle = ComputeLifestyle(in.Transactions, in.ERC20, in.NFT, cat)
	return r
}

// maxSwapUsd takes, per swap hash, the larger of the native value in USD and
// the largest token leg in whole units. Stablecoin legs are part of the
// any-token maximum.
func maxSwapUsd(swaps classify.Swaps, okByHash map[string]model.Transaction, ethUsd float64) float64 {
	best := 0.0
	for hash := range swaps.Hashes {
		if tx, ok := okByHash[hash]; ok {
			best = maxFloat(best, WeiToEth(tx.Value)*ethUsd)
		}
		for _, leg := range swaps.Legs[hash] {
			best = maxFloat(best, ToUnits(leg.Value, leg.TokenDecimals))
		}
	}
	return best
}

// Thresholds returns the monetary, temporal and interaction cutoffs.
func Thresholds(r Rollup) map[string]bool {
	return map[string]bool{
		"deposited_gt_10k":  r.DepositedUsd >= 10000,
		"deposited_gt_50k":  r.DepositedUsd >= 50000,
		"deposited_gt_250k": r.DepositedUsd >= 250000,
		"volume_gt_10k":     r.VolumeUsdTotal >= 10000,
		"volume_gt_50k":     r.VolumeUsdTotal >= 50000,
		"volume_gt_100k":    r.VolumeUsdTotal >= 100000,
		"months_ge_2":       r.UniqueMonths >= 2,
		"months_ge_6":       r.UniqueMonths >= 6,
		"months_ge_9":       r.UniqueMonths >= 9,
		"contracts_ge_4":    r.TotalInteractions >= 4,
		"contracts_ge_10":   r.TotalInteractions >= 10,
		"contracts_ge_25":   r.TotalInteractions >= 25,
		"contracts_ge_100":  r.TotalInteractions >= 100,
	}
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func maxFloat(a, b float64) float64 {
	if b > a {
		return b
	}
	return a
}
