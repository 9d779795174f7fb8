package model

// SummaryReport is the terminal record produced for one address.
type SummaryReport struct {
	Address    string  `json:"address"`
	BaseName   *string `json:"baseEns"`
	BalanceEth float64 `json:"balanceEth"`
	Volume     Volume  `json:"volume"`
	NativeTxs  int     `json:"nativeTxs"`
	TokenTxs   int     `json:"tokenTxs"`

	WalletAgeDays int `json:"walletAgeDays"`
	UniqueDays    int `json:"uniqueDays"`
	UniqueWeeks   int `json:"uniqueWeeks"`
	UniqueMonths  int `json:"uniqueMonths"`

	Contracts  ContractStats   `json:"contracts"`
	Bridge     BridgeStats     `json:"bridge"`
	Thresholds map[string]bool `json:"thresholds"`

	AllTxTimestampsUTC []string `json:"allTxTimestampsUTC"`
	MainnetLaunchUTC   string   `json:"mainnetLaunchUTC"`
	HolidayDatesUTC    []string `json:"holidayDatesUTC"`

	Swaps           int     `json:"swaps"`
	StablecoinTxs   int     `json:"stablecoinTxs"`
	UsdcTrades      int     `json:"usdcTrades"`
	StablecoinTypes int     `json:"stablecoinTypes"`
	MaxSwapUsd      float64 `json:"maxSwapUsd"`
	Erc20Count      int     `json:"erc20Count"`
	NftCount        int     `json:"nftCount"`
	TotalVolumeEth  float64 `json:"totalVolumeEth"`
	GasEth          float64 `json:"gasEth"`

	UsedThirdPartyBridge bool           `json:"usedThirdPartyBridge"`
	UsedNativeBridge     bool           `json:"usedNativeBridge"`
	RelayCount           int            `json:"relayCount"`
	JumperCount          int            `json:"jumperCount"`
	BungeeCount          int            `json:"bungeeCount"`
	AcrossCount          int            `json:"acrossCount"`
	BridgeCounts         map[string]int `json:"bridgeCounts"`

	DeployedContracts int `json:"deployedContracts"`

	Protocols  map[string]int `json:"protocols"`
	LendingAny bool           `json:"lendingAny"`

	Prices PriceQuote   `json:"prices"`
	Health HealthScore  `json:"health"`
	Badges []BadgeGroup `json:"badges"`

	Diag *Diagnostics `json:"_diag,omitempty"`
}

// Volume groups native and stablecoin volume.
type Volume struct {
	Eth        float64 `json:"eth"`
	EthUsd     float64 `json:"ethUsd"`
	UsdTotal   float64 `json:"usdTotal"`
	UsdcAmount float64 `json:"usdcAmount"`
}

// ContractStats counts interactions with confirmed contracts.
type ContractStats struct {
	TotalInteractions  int `json:"totalInteractions"`
	UniqueInteractions int `json:"uniqueInteractions"`
}

// BridgeStats summarizes native bridge deposits.
type BridgeStats struct {
	DepositedEth     float64 `json:"depositedEth"`
	DepositedUsd     float64 `json:"depositedUsd"`
	NativeBridgeUsed bool    `json:"nativeBridgeUsed"`
}

// HealthScore is the weighted 0-100 wallet score.
type HealthScore struct {
	Score     int            `json:"score"`
	Level     string         `json:"level"`
	Areas     map[string]int `json:"areas"`
	Strongest string         `json:"strongest"`
	Weakest   string         `json:"weakest"`
}

// BadgeGroup is a titled group of badges with unlock state.
type BadgeGroup struct {
	Key    string  `json:"key"`
	Title  string  `json:"title"`
	Badges []Badge `json:"badges"`
	Earned int     `json:"earned"`
	Total  int     `json:"total"`
}

// Badge is one achievement.
type Badge struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

// DetailsPatch is the refined slice of fields returned by the details endpoint.
// Callers merge it over a SummaryReport.
type DetailsPatch struct {
	DeployedContracts int           `json:"deployedContracts"`
	Contracts         ContractStats `json:"contracts"`
	Partial           bool          `json:"partial"`
	Diag              *Diagnostics  `json:"_diag,omitempty"`
}

// Diagnostics describes how a report was assembled.
type Diagnostics struct {
	Profile      string           `json:"profile"`
	ResolvedFrom string           `json:"resolvedFrom"`
	StageMillis  map[string]int64 `json:"stageMillis"`
	NativePages  int              `json:"nativePages"`
	Deployments  DeploySources    `json:"deployments"`
	CodeChecks   int              `json:"codeChecks"`
	CodeCheckCap bool             `json:"codeCheckCapped"`
	Degraded     []string         `json:"degraded"`
	SwapHashes   int              `json:"swapHashes"`
	// BalanceExact is the native balance as an exact decimal string.
	BalanceExact string           `json:"balanceEthExact"`
}

// DeploySources counts deployment addresses per signal.
type DeploySources struct {
	Direct       int  `json:"direct"`
	Internal     int  `json:"internal"`
	Receipt      int  `json:"receipt"`
	TracedHashes int  `json:"tracedHashes"`
	ReceiptsRead int  `json:"receiptsRead"`
	Sampled      bool `json:"sampled"`
}
