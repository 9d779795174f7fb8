package explorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"walletclinic/internal/model"
)

// NativeHistory is the paged native transaction history of an address.
type NativeHistory struct {
	Transactions []model.Transaction
	Pages        int
	Truncated    bool
}

func (c *Client) accountParams(action, address string) url.Values {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", action)
	params.Set("address", address)
	params.Set("startblock", "0")
	params.Set("endblock", "99999999")
	params.Set("sort", "asc")
	return params
}

// NormalTransactions fetches the complete native history in ascending order.
// Pages are requested until one comes back shorter than the page size. When
// the explorer's result window is exhausted the walk restarts from the last
// seen block and drops hashes it already has.
func (c *Client) NormalTransactions(ctx context.Context, address string) (NativeHistory, error) {
	var history NativeHistory
	seen := make(map[string]struct{})
	startBlock := uint64(0)
	page := 1
	windowPages := c.cfg.ResultWindow / c.cfg.PageSize
	if windowPages < 1 {
		windowPages = 1
	}

	for {
		if history.Pages >= c.cfg.MaxPages {
			history.Truncated = true
			c.logger.Warn("native history truncated", zap.String("address", address), zap.Int("pages", history.Pages))
			return history, nil
		}
		if history.Pages > 0 {
			if err := sleepCtx(ctx, c.cfg.PageDelay); err != nil {
				return history, err
			}
		}

		params := c.accountParams("txlist", address)
		params.Set("startblock", strconv.FormatUint(startBlock, 10))
		params.Set("page", strconv.Itoa(page))
		params.Set("offset", strconv.Itoa(c.cfg.PageSize))

		var raws []rawTx
		if err := c.records(ctx, params, &raws); err != nil {
			return history, err
		}
		history.Pages++

		lastBlock := startBlock
		for _, raw := range raws {
			tx := raw.toModel()
			if _, dup := seen[tx.Hash]; dup {
				continue
			}
			seen[tx.Hash] = struct{}{}
			history.Transactions = append(history.Transactions, tx)
			if block := parseUint64(raw.BlockNumber.String()); block > lastBlock {
				lastBlock = block
			}
		}

		if len(raws) < c.cfg.PageSize {
			return history, nil
		}
		if page >= windowPages {
			if lastBlock == startBlock {
				history.Truncated = true
				return history, nil
			}
			startBlock = lastBlock
			page = 1
			continue
		}
		page++
	}
}

// TokenTransfers fetches one page of ERC-20 transfers.
func (c *Client) TokenTransfers(ctx context.Context, address string) ([]model.Transfer, error) {
	return c.transfers(ctx, "tokentx", address, model.StandardERC20)
}

// NFTTransfers fetches one page of ERC-721 transfers.
func (c *Client) NFTTransfers(ctx context.Context, address string) ([]model.Transfer, error) {
	return c.transfers(ctx, "tokennfttx", address, model.StandardERC721)
}

func (c *Client) transfers(ctx context.Context, action, address string, standard model.TokenStandard) ([]model.Transfer, error) {
	params := c.accountParams(action, address)
	params.Set("page", "1")
	params.Set("offset", strconv.Itoa(c.cfg.TransferPageSize))

	var raws []rawTransfer
	if err := c.records(ctx, params, &raws); err != nil {
		return nil, err
	}
	out := make([]model.Transfer, 0, len(raws))
	for _, raw := range raws {
		out = append(out, raw.toModel(standard))
	}
	return out, nil
}

// InternalCalls fetches the internal call traces of one transaction.
func (c *Client) InternalCalls(ctx context.Context, txHash string) ([]model.InternalCall, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "txlistinternal")
	params.Set("txhash", txHash)

	var raws []rawInternal
	if err := c.records(ctx, params, &raws); err != nil {
		return nil, err
	}
	out := make([]model.InternalCall, 0, len(raws))
	for _, raw := range raws {
		out = append(out, raw.toModel(txHash))
	}
	return out, nil
}

// Balance returns the latest native balance in wei. The result may be a
// decimal string or an object with a balance field.
func (c *Client) Balance(ctx context.Context, address string) (*big.Int, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "balance")
	params.Set("address", address)
	params.Set("tag", "latest")

	env, err := c.call(ctx, params)
	if err != nil {
		return nil, err
	}

	result := bytes.TrimSpace(env.Result)
	var text flexString
	if len(result) > 0 && result[0] == '{' {
		var obj struct {
			Balance flexString `json:"balance"`
		}
		if err := json.Unmarshal(result, &obj); err != nil {
			return nil, fmt.Errorf("%w: balance: %v", ErrParse, err)
		}
		text = obj.Balance
	} else if err := json.Unmarshal(result, &text); err != nil {
		return nil, fmt.Errorf("%w: balance: %v", ErrParse, err)
	}

	value, ok := parseBig(text.String())
	if !ok {
		return nil, fmt.Errorf("%w: balance: %s %s", ErrUnexpectedResult, env.Message, text.String())
	}
	return value, nil
}
