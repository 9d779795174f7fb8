package report

import (
	"walletclinic/internal/aggregate"
	"walletclinic/internal/model"
)

func assemble(address string, r aggregate.Rollup, extra enrichment, health model.HealthScore, badges []model.BadgeGroup) model.SummaryReport {
	var baseName *string
	if extra.hasName {
		name := extra.name
		baseName = &name
	}

	return model.SummaryReport{
		Address:    address,
		BaseName:   baseName,
		BalanceEth: r.BalanceEth,
		Volume: model.Volume{
			Eth:        r.TotalVolumeEth,
			EthUsd:     r.VolumeEthUsd,
			UsdTotal:   r.VolumeUsdTotal,
			UsdcAmount: r.UsdcAmount,
		},
		NativeTxs: r.NativeTxs,
		TokenTxs:  r.TokenTxs,

		WalletAgeDays: r.WalletAgeDays,
		UniqueDays:    r.UniqueDays,
		UniqueWeeks:   r.UniqueWeeks,
		UniqueMonths:  r.UniqueMonths,

		Contracts: model.ContractStats{
			TotalInteractions:  r.TotalInteractions,
			UniqueInteractions: r.UniqueInteractions,
		},
		Bridge: model.BridgeStats{
			DepositedEth:     r.DepositedEth,
			DepositedUsd:     r.DepositedUsd,
			NativeBridgeUsed: r.NativeBridgeUsed,
		},
		Thresholds: r.Thresholds,

		AllTxTimestampsUTC: r.Lifestyle.Timestamps,
		MainnetLaunchUTC:   r.Lifestyle.MainnetLaunch,
		HolidayDatesUTC:    r.Lifestyle.HolidayDates,

		Swaps:           r.Swaps,
		StablecoinTxs:   r.StablecoinTxs,
		UsdcTrades:      r.UsdcTrades,
		StablecoinTypes: r.StablecoinTypes,
		MaxSwapUsd:      r.MaxSwapUsd,
		Erc20Count:      r.Erc20Count,
		NftCount:        r.NftCount,
		TotalVolumeEth:  r.TotalVolumeEth,
		GasEth:          r.GasEth,

		UsedThirdPartyBridge: r.ThirdPartyBridgeUsed,
		UsedNativeBridge:     r.NativeBridgeUsed,
		RelayCount:           r.BridgeCounts["relay"],
		JumperCount:          r.BridgeCounts["jumper"],
		BungeeCount:          r.BridgeCounts["bungee"],
		AcrossCount:          r.BridgeCounts["across"],
		BridgeCounts:         r.BridgeCounts,

		DeployedContracts: r.DeployedContracts,

		Protocols:  r.Protocols,
		LendingAny: r.LendingAny,

		Prices: extra.prices,
		Health: health,
		Badges: badges,
	}
}
