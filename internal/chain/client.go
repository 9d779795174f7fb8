package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"walletclinic/internal/model"
)

// DefaultCallTimeout bounds each read-only RPC call.
const DefaultCallTimeout = 4 * time.Second

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	timeout   time.Duration
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string, callTimeout time.Duration) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		timeout:   callTimeout,
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID reported by the node.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.ethClient.ChainID(ctx)
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.ethClient.BlockNumber(ctx)
}

// IsContract reports whether the address has code at the latest block.
func (c *Client) IsContract(ctx context.Context, address string) (bool, error) {
	if !model.IsAddress(address) {
		return false, errors.New("invalid address")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	code, err := c.ethClient.CodeAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return false, err
	}
	return len(code) > 0, nil
}

// ReceiptContract returns the receipt fields for a transaction hash.
// ContractAddress is empty when the transaction created no contract.
func (c *Client) ReceiptContract(ctx context.Context, txHash string) (model.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	receipt, err := c.ethClient.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return model.Receipt{}, err
	}

	out := model.Receipt{Hash: strings.ToLower(strings.TrimSpace(txHash))}
	if receipt.ContractAddress != (common.Address{}) {
		out.ContractAddress = model.NormalizeAddress(receipt.ContractAddress.Hex())
	}
	return out, nil
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}
