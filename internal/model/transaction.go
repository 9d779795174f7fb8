package model

import "math/big"

// Transaction is a native top-level transaction as reported by the explorer.
type Transaction struct {
	Hash            string
	From            string
	To              string
	Value           *big.Int
	Timestamp       int64
	IsError         bool
	FunctionName    string
	GasUsed         *big.Int
	GasPrice        *big.Int
	ContractAddress string
}

// OK reports whether the transaction executed without error.
func (t Transaction) OK() bool {
	return !t.IsError
}

// TokenStandard identifies the kind of token a transfer moved.
type TokenStandard string

const (
	StandardERC20  TokenStandard = "erc20"
	StandardERC721 TokenStandard = "erc721"
)

// DefaultTokenDecimals is used when the explorer omits token decimals.
const DefaultTokenDecimals = 6

// Transfer is an ERC-20 or ERC-721 transfer event. Several transfers can
// share one transaction hash.
type Transfer struct {
	Standard        TokenStandard
	Hash            string
	From            string
	To              string
	ContractAddress string
	Value           *big.Int
	TokenDecimals   int
	TokenSymbol     string
	TokenID         string
	Timestamp       int64
}

// InternalCall is one sub-call trace of a transaction.
type InternalCall struct {
	ParentHash      string
	Type            string
	ContractAddress string
	IsError         bool
}

// Receipt holds the receipt fields used by deployment reconciliation.
type Receipt struct {
	Hash            string
	ContractAddress string
}
