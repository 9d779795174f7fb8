package explorer

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"walletclinic/internal/model"
)

// flexString accepts JSON strings, numbers and null.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

func (f flexString) String() string {
	return strings.TrimSpace(string(f))
}

type rawTx struct {
	Hash            flexString `json:"hash"`
	BlockNumber     flexString `json:"blockNumber"`
	TimeStamp       flexString `json:"timeStamp"`
	From            flexString `json:"from"`
	To              flexString `json:"to"`
	Value           flexString `json:"value"`
	IsError         flexString `json:"isError"`
	FunctionName    flexString `json:"functionName"`
	GasUsed         flexString `json:"gasUsed"`
	GasPrice        flexString `json:"gasPrice"`
	ContractAddress flexString `json:"contractAddress"`
}

type rawTransfer struct {
	Hash            flexString `json:"hash"`
	TimeStamp       flexString `json:"timeStamp"`
	From            flexString `json:"from"`
	To              flexString `json:"to"`
	ContractAddress flexString `json:"contractAddress"`
	Value           flexString `json:"value"`
	TokenDecimal    flexString `json:"tokenDecimal"`
	TokenSymbol     flexString `json:"tokenSymbol"`
	TokenID         flexString `json:"tokenID"`
}

type rawInternal struct {
	Hash            flexString `json:"hash"`
	Type            flexString `json:"type"`
	ContractAddress flexString `json:"contractAddress"`
	IsError         flexString `json:"isError"`
}

func (r rawTx) toModel() model.Transaction {
	return model.Transaction{
		Hash:            strings.ToLower(r.Hash.String()),
		From:            model.NormalizeAddress(r.From.String()),
		To:              model.NormalizeAddress(r.To.String()),
		Value:           bigOrZero(r.Value.String()),
		Timestamp:       parseInt64(r.TimeStamp.String()),
		IsError:         r.IsError.String() != "0",
		FunctionName:    r.FunctionName.String(),
		GasUsed:         bigOrNil(r.GasUsed.String()),
		GasPrice:        bigOrNil(r.GasPrice.String()),
		ContractAddress: model.NormalizeAddress(r.ContractAddress.String()),
	}
}

func (r rawTransfer) toModel(standard model.TokenStandard) model.Transfer {
	decimals := model.DefaultTokenDecimals
	if text := r.TokenDecimal.String(); text != "" {
		// ERC-20 decimals is a uint8; anything else is treated as missing.
		if parsed, err := strconv.ParseUint(text, 10, 8); err == nil {
			decimals = int(parsed)
		}
	}
	value := bigOrZero(r.Value.String())
	if standard == model.StandardERC721 && r.Value.String() == "" {
		value = big.NewInt(1)
	}
	return model.Transfer{
		Standard:        standard,
		Hash:            strings.ToLower(r.Hash.String()),
		From:            model.NormalizeAddress(r.From.String()),
		To:              model.NormalizeAddress(r.To.String()),
		ContractAddress: model.NormalizeAddress(r.ContractAddress.String()),
		Value:           value,
		TokenDecimals:   decimals,
		TokenSymbol:     r.TokenSymbol.String(),
		TokenID:         r.TokenID.String(),
		Timestamp:       parseInt64(r.TimeStamp.String()),
	}
}

func (r rawInternal) toModel(parent string) model.InternalCall {
	hash := strings.ToLower(r.Hash.String())
	if hash == "" {
		hash = strings.ToLower(parent)
	}
	return model.InternalCall{
		ParentHash:      hash,
		Type:            strings.ToLower(r.Type.String()),
		ContractAddress: model.NormalizeAddress(r.ContractAddress.String()),
		IsError:         r.IsError.String() != "0",
	}
}

func parseBig(text string) (*big.Int, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		return new(big.Int).SetString(text[2:], 16)
	}
	return new(big.Int).SetString(text, 10)
}

func bigOrZero(text string) *big.Int {
	if v, ok := parseBig(text); ok {
		return v
	}
	return new(big.Int)
}

func bigOrNil(text string) *big.Int {
	if v, ok := parseBig(text); ok {
		return v
	}
	return nil
}

func parseInt64(text string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseUint64(text string) uint64 {
	v, err := strconv.ParseUint(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
