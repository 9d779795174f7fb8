package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"walletclinic/internal/model"
	"walletclinic/internal/names"
	"walletclinic/internal/report"
)

type fakeReporter struct {
	lastOpts report.Options
	err      error
	panic    bool
}

func (f *fakeReporter) Summary(_ context.Context, input string, opts report.Options) (model.SummaryReport, error) {
	if f.panic {
		panic("boom")
	}
	f.lastOpts = opts
	if f.err != nil {
		return model.SummaryReport{}, f.err
	}
	rep := model.SummaryReport{Address: input, NativeTxs: 3}
	if opts.Diagnostics {
		rep.Diag = &model.Diagnostics{Profile: "fast"}
	}
	return rep, nil
}

func (f *fakeReporter) Details(_ context.Context, input string, opts report.Options) (model.DetailsPatch, error) {
	if f.err != nil {
		return model.DetailsPatch{}, f.err
	}
	return model.DetailsPatch{DeployedContracts: 4, Partial: true}, nil
}

type fakeRPC struct {
	err     error
	chainID int64
}

func (f fakeRPC) LatestBlockNumber(context.Context) (uint64, error) {
	return 100, f.err
}

func (f fakeRPC) GetChainID(context.Context) (*big.Int, error) {
	if f.chainID == 0 {
		return big.NewInt(8453), f.err
	}
	return big.NewInt(f.chainID), f.err
}

func newTestServer(t *testing.T, rep *fakeReporter, rpc RPCStatus) http.Handler {
	t.Helper()
	srv, err := NewServer(rep, rpc, nil, nil, Options{BuildInfo: BuildInfo{Version: "test"}, ChainID: 8453})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv.Handler()
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode %s: %v", target, err)
		}
	}
	return rec, body
}

func TestSummaryOK(t *testing.T) {
	rep := &fakeReporter{}
	rec, body := get(t, newTestServer(t, rep, nil), "/summary?address=0xabc")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["address"] != "0xabc" || body["nativeTxs"] != float64(3) {
		t.Fatalf("unexpected body %v", body)
	}
	if _, ok := body["_diag"]; ok {
		t.Fatalf("diagnostics must be opt-in")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("missing no-store header")
	}
}

func TestSummaryDiag(t *testing.T) {
	rep := &fakeReporter{}
	_, body := get(t, newTestServer(t, rep, nil), "/summary?address=0xabc&debug=diag")
	if !rep.lastOpts.Diagnostics {
		t.Fatalf("diag flag not forwarded")
	}
	if _, ok := body["_diag"]; !ok {
		t.Fatalf("missing _diag in %v", body)
	}
}

func TestSummaryPing(t *testing.T) {
	rec, body := get(t, newTestServer(t, &fakeReporter{}, nil), "/summary?debug=ping")
	if rec.Code != http.StatusOK || body["ok"] != true || body["note"] != "alive" {
		t.Fatalf("unexpected ping %d %v", rec.Code, body)
	}
}

func TestSummaryErrors(t *testing.T) {
	invalid := fmt.Errorf("%w: %w", report.ErrInvalidInput, names.ErrUnresolvable)
	cases := []struct {
		target string
		err    error
		status int
	}{
		{"/summary", nil, http.StatusBadRequest},
		{"/summary?address=doesnotexist.base.eth", invalid, http.StatusBadRequest},
		{"/summary?address=0xabc", errors.New("fetch native history: upstream"), http.StatusInternalServerError},
		{"/summary/details?address=nope", invalid, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec, body := get(t, newTestServer(t, &fakeReporter{err: tc.err}, nil), tc.target)
		if rec.Code != tc.status {
			t.Fatalf("%s: status = %d, want %d", tc.target, rec.Code, tc.status)
		}
		if _, ok := body["error"]; !ok {
			t.Fatalf("%s: missing error field in %v", tc.target, body)
		}
	}
}

func TestSummaryPanicRecovered(t *testing.T) {
	rec, body := get(t, newTestServer(t, &fakeReporter{panic: true}, nil), "/summary?address=0xabc")
	if rec.Code != http.StatusInternalServerError || body["error"] != "internal error" {
		t.Fatalf("unexpected panic response %d %v", rec.Code, body)
	}
}

func TestDetails(t *testing.T) {
	rec, body := get(t, newTestServer(t, &fakeReporter{}, nil), "/summary/details?address=0xabc")
	if rec.Code != http.StatusOK || body["deployedContracts"] != float64(4) || body["partial"] != true {
		t.Fatalf("unexpected details %d %v", rec.Code, body)
	}
}

func TestReadiness(t *testing.T) {
	rec, _ := get(t, newTestServer(t, &fakeReporter{}, fakeRPC{}), "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d", rec.Code)
	}
	rec, _ = get(t, newTestServer(t, &fakeReporter{}, fakeRPC{err: errors.New("down")}), "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("not-ready status = %d", rec.Code)
	}
	rec, body := get(t, newTestServer(t, &fakeReporter{}, fakeRPC{chainID: 1}), "/readyz")
	if rec.Code != http.StatusServiceUnavailable || body["error"] != "rpc chain id mismatch" {
		t.Fatalf("wrong chain should not be ready: %d %v", rec.Code, body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, &fakeReporter{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/summary?address=0xabc", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMetricsAndVersion(t *testing.T) {
	h := newTestServer(t, &fakeReporter{}, nil)
	get(t, h, "/summary?address=0xabc")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `walletclinic_http_requests_total{code="200",route="/summary"} 1`) {
		t.Fatalf("request counter missing:\n%s", rec.Body.String())
	}

	_, body := get(t, h, "/version")
	if body["version"] != "test" {
		t.Fatalf("unexpected version %v", body)
	}
}
