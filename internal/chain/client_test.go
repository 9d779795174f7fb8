package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const (
	receiptHash = "0xABCDEF0000000000000000000000000000000000000000000000000000000001"
	created     = "0x00000000000000000000000000000000000000C1"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

func newRPCServer(t *testing.T, results map[string]any) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if result, ok := results[req.Method]; ok {
			resp["result"] = result
		} else {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestReceiptContract(t *testing.T) {
	c := newRPCServer(t, map[string]any{
		"eth_getTransactionReceipt": map[string]any{
			"transactionHash":   strings.ToLower(receiptHash),
			"contractAddress":   created,
			"cumulativeGasUsed": "0x5208",
			"gasUsed":           "0x5208",
			"logsBloom":         "0x" + strings.Repeat("0", 512),
			"logs":              []any{},
			"status":            "0x1",
		},
	})

	receipt, err := c.ReceiptContract(context.Background(), receiptHash)
	if err != nil {
		t.Fatalf("ReceiptContract: %v", err)
	}
	if receipt.Hash != strings.ToLower(receiptHash) {
		t.Fatalf("hash should be lowercased, got %s", receipt.Hash)
	}
	if receipt.ContractAddress != strings.ToLower(created) {
		t.Fatalf("unexpected contract address %s", receipt.ContractAddress)
	}
}

func TestGetChainIDAndHead(t *testing.T) {
	c := newRPCServer(t, map[string]any{
		"eth_chainId":     "0x2105",
		"eth_blockNumber": "0x10",
	})

	id, err := c.GetChainID(context.Background())
	if err != nil {
		t.Fatalf("GetChainID: %v", err)
	}
	if id.Uint64() != 8453 {
		t.Fatalf("chain id = %s", id)
	}
	head, err := c.LatestBlockNumber(context.Background())
	if err != nil || head != 16 {
		t.Fatalf("head = %d err = %v", head, err)
	}
}

func TestIsContractRejectsBadAddress(t *testing.T) {
	c := newRPCServer(t, map[string]any{})
	if _, err := c.IsContract(context.Background(), "not-an-address"); err == nil {
		t.Fatalf("expected an error for a malformed address")
	}
}
