package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	cat := Default()

	if cat.ChainID != 8453 {
		t.Fatalf("unexpected chain id %d", cat.ChainID)
	}
	if cat.MainnetLaunch.Format("2006-01-02") != "2023-08-09" {
		t.Fatalf("unexpected launch %s", cat.MainnetLaunch)
	}
	if !cat.IsStable("usdbc") || cat.IsStable("WETH") {
		t.Fatalf("stable symbol lookup is wrong")
	}
	if !cat.DexRouters.Has("0x2626664C2603336E57B271C5C0B26F421741E481") {
		t.Fatalf("uniswap router should be a dex router regardless of casing")
	}
	if cat.DexRouters.Has("0xa238dd80c259a72e81d7e4664a9801593f98d1c5") {
		t.Fatalf("aave pool must not be a dex router")
	}
	if !cat.NativeSenders.Has("0x4200000000000000000000000000000000000010") {
		t.Fatalf("standard bridge missing from native senders")
	}

	want := map[string]bool{"swap": true, "slipstream": true, "exchangeproxy": true, "borrow": false}
	words := make(map[string]bool)
	for _, w := range cat.SwapKeywords {
		words[w] = true
	}
	for word, expected := range want {
		if words[word] != expected {
			t.Fatalf("swap keyword %q: expected %v", word, expected)
		}
	}

	if len(cat.Bridges) != 5 || cat.Bridges[0].Name != "bungee" {
		t.Fatalf("unexpected bridges %+v", cat.Bridges)
	}
	if _, ok := cat.Protocol("limitless"); !ok {
		t.Fatalf("limitless protocol missing")
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	data := []byte(`
chain: {id: 8453, mainnet_launch: "2023-08-09T00:00:00Z"}
usdc_address: "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"
stable_symbols: [usdc]
swap_keywords: [swap]
protocols:
  - name: Toy
    dex: true
    keywords: [ToySwap]
    addresses: ["0x1111111111111111111111111111111111111111"]
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !cat.IsStable("USDC") {
		t.Fatalf("expected usdc to be stable")
	}
	if len(cat.SwapKeywords) != 2 || cat.SwapKeywords[1] != "toyswap" {
		t.Fatalf("unexpected swap keywords %v", cat.SwapKeywords)
	}
	if _, ok := cat.Protocol("toy"); !ok {
		t.Fatalf("protocol names should be lowercased")
	}
}

func TestCompileRejectsBadAddress(t *testing.T) {
	_, err := Parse([]byte(`
chain: {id: 8453, mainnet_launch: "2023-08-09T00:00:00Z"}
usdc_address: "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"
bridges:
  - name: broken
    contracts: ["0x1234"]
`))
	if err == nil {
		t.Fatalf("expected invalid address error")
	}
}
