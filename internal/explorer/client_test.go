package explorer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"walletclinic/internal/fetch"
)

func testClient(t *testing.T, handler http.HandlerFunc, mutate func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := Config{
		BaseURL:  srv.URL,
		APIKey:   "key",
		Timeout:  time.Second,
		Retry:    fetch.RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond},
		PageSize: 2,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewClient(cfg, srv.Client(), nil)
}

func txJSON(hash string, block int, ts int64) string {
	return fmt.Sprintf(`{"hash":"%s","blockNumber":"%d","timeStamp":"%d","from":"0xAAAA000000000000000000000000000000000001","to":"0xbbbb000000000000000000000000000000000002","value":"1000","isError":"0","functionName":"swap(uint256)","gasUsed":"21000","gasPrice":"1","contractAddress":""}`, hash, block, ts)
}

func TestURLIncludesChainAndKey(t *testing.T) {
	c := NewClient(Config{BaseURL: "https://example.test/v2/api", APIKey: "k"}, nil, nil)
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "txlist")

	parsed, err := url.Parse(c.URL(params))
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	q := parsed.Query()
	if q.Get("chainid") != "8453" || q.Get("apikey") != "k" || q.Get("action") != "txlist" {
		t.Fatalf("unexpected query %v", q)
	}
}

func TestNormalTransactionsPaginates(t *testing.T) {
	var requests int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprintf(w, `{"status":"1","message":"OK","result":[%s,%s]}`, txJSON("0x01", 1, 100), txJSON("0x02", 2, 200))
		case "2":
			fmt.Fprintf(w, `{"status":"1","message":"OK","result":[%s]}`, txJSON("0x03", 3, 300))
		default:
			t.Errorf("unexpected page %s", r.URL.Query().Get("page"))
		}
	}, nil)

	history, err := c.NormalTransactions(context.Background(), "0xaaaa000000000000000000000000000000000001")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(history.Transactions) != 3 || history.Pages != 2 {
		t.Fatalf("expected 3 txs over 2 pages, got %d over %d", len(history.Transactions), history.Pages)
	}
	tx := history.Transactions[0]
	if tx.From != "0xaaaa000000000000000000000000000000000001" {
		t.Fatalf("from should be lowercased, got %s", tx.From)
	}
	if tx.Value.Int64() != 1000 || tx.GasUsed.Int64() != 21000 || tx.IsError {
		t.Fatalf("unexpected decoded tx %+v", tx)
	}
}

func TestNormalTransactionsRestartsAfterWindow(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch q.Get("startblock") + "/" + q.Get("page") {
		case "0/1":
			fmt.Fprintf(w, `{"status":"1","result":[%s,%s]}`, txJSON("0x01", 1, 1), txJSON("0x02", 2, 2))
		case "2/1":
			fmt.Fprintf(w, `{"status":"1","result":[%s,%s]}`, txJSON("0x02", 2, 2), txJSON("0x03", 3, 3))
		case "3/1":
			fmt.Fprintf(w, `{"status":"1","result":[%s]}`, txJSON("0x03", 3, 3))
		default:
			t.Errorf("unexpected request %s", r.URL.RawQuery)
		}
	}, func(cfg *Config) { cfg.ResultWindow = 2 })

	history, err := c.NormalTransactions(context.Background(), "0xaaaa000000000000000000000000000000000001")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	var hashes []string
	for _, tx := range history.Transactions {
		hashes = append(hashes, tx.Hash)
	}
	if strings.Join(hashes, ",") != "0x01,0x02,0x03" {
		t.Fatalf("unexpected hashes %v", hashes)
	}
}

func TestRecordsRetriesNonJSON(t *testing.T) {
	var calls int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Write([]byte("<html>bad gateway</html>"))
			return
		}
		w.Write([]byte(`{"status":"0","message":"No transactions found","result":[]}`))
	}, nil)

	transfers, err := c.TokenTransfers(context.Background(), "0xaaaa000000000000000000000000000000000001")
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if len(transfers) != 0 || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("unexpected result %d transfers after %d calls", len(transfers), calls)
	}
}

func TestRecordsRejectsNoticeString(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`))
	}, nil)

	_, err := c.NFTTransfers(context.Background(), "0xaaaa000000000000000000000000000000000001")
	if !errors.Is(err, ErrUnexpectedResult) {
		t.Fatalf("expected unexpected result error, got %v", err)
	}
}

func TestTransferDecimalsDefault(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"1","result":[
			{"hash":"0xAB","from":"0x1","to":"0x2","contractAddress":"0xC","value":"5","tokenSymbol":"USDC","timeStamp":"10"},
			{"hash":"0xAC","from":"0x1","to":"0x2","contractAddress":"0xC","value":"5","tokenDecimal":"18","tokenSymbol":"WETH","timeStamp":"11"},
			{"hash":"0xAD","from":"0x1","to":"0x2","contractAddress":"0xD","value":"5","tokenDecimal":"1000000000","tokenSymbol":"BAD","timeStamp":"12"},
			{"hash":"0xAE","from":"0x1","to":"0x2","contractAddress":"0xE","value":"5","tokenDecimal":"-3","tokenSymbol":"NEG","timeStamp":"13"}
		]}`))
	}, nil)

	transfers, err := c.TokenTransfers(context.Background(), "0x1")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(transfers) != 4 {
		t.Fatalf("expected 4 transfers, got %d", len(transfers))
	}
	if transfers[0].TokenDecimals != 6 || transfers[1].TokenDecimals != 18 {
		t.Fatalf("unexpected decimals %d %d", transfers[0].TokenDecimals, transfers[1].TokenDecimals)
	}
	if transfers[2].TokenDecimals != 6 || transfers[3].TokenDecimals != 6 {
		t.Fatalf("out-of-range decimals should fall back to 6, got %d %d", transfers[2].TokenDecimals, transfers[3].TokenDecimals)
	}
	if transfers[0].Hash != "0xab" {
		t.Fatalf("hash should be lowercased")
	}
}

func TestInternalCalls(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("txhash") != "0xfeed" {
			t.Errorf("missing txhash")
		}
		w.Write([]byte(`{"status":"1","result":[{"type":"CREATE2","contractAddress":"0xDEAD000000000000000000000000000000000000","isError":"0"}]}`))
	}, nil)

	calls, err := c.InternalCalls(context.Background(), "0xfeed")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(calls) != 1 || calls[0].Type != "create2" || calls[0].ParentHash != "0xfeed" || calls[0].IsError {
		t.Fatalf("unexpected calls %+v", calls)
	}
}

func TestBalanceShapes(t *testing.T) {
	bodies := []string{
		`{"status":"1","result":"1500000000000000000"}`,
		`{"status":"1","result":{"balance":"1500000000000000000"}}`,
	}
	for i, body := range bodies {
		body := body
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}, nil)
		balance, err := c.Balance(context.Background(), "0x1")
		if err != nil {
			t.Fatalf("case %d: balance failed: %v", i, err)
		}
		if balance.String() != "1500000000000000000" {
			t.Fatalf("case %d: unexpected balance %s", i, balance)
		}
	}
}

func TestRetriesExhausted(t *testing.T) {
	var calls int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)

	_, err := c.NormalTransactions(context.Background(), "0x1")
	var statusErr *fetch.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected status error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}
