package classify

import (
	"strings"

	"walletclinic/internal/catalog"
	"walletclinic/internal/model"
)

// Swaps is the swap hash set and the evidence behind it.
type Swaps struct {
	Hashes map[string]struct{}
	ByCall map[string]struct{}
	ByLegs map[string]struct{}
	// Legs groups ERC-20 transfers by hash for every hash in Hashes.
	Legs   map[string][]model.Transfer
}

// Has reports whether hash was classified as a swap.
func (s Swaps) Has(hash string) bool {
	_, ok := s.Hashes[strings.ToLower(hash)]
	return ok
}

// DetectSwaps marks a hash as a swap when its top-level call hits a DEX router
// or carries a swap keyword, or when the address receives on one leg and
// sends on a different leg of that hash.
func DetectSwaps(address string, txs []model.Transaction, transfers []model.Transfer, cat *catalog.Catalog) Swaps {
	address = model.NormalizeAddress(address)
	out := Swaps{
		Hashes: make(map[string]struct{}),
		ByCall: make(map[string]struct{}),
		ByLegs: make(map[string]struct{}),
		Legs:   make(map[string][]model.Transfer),
	}

	for _, tx := range txs {
		if !tx.OK() || tx.Hash == "" {
			continue
		}
		if cat.DexRouters.Has(tx.To) || cat.DexRouters.Has(tx.From) || containsAny(tx.FunctionName, cat.SwapKeywords) {
			out.ByCall[tx.Hash] = struct{}{}
		}
	}

	// A single self-transfer leg is both inbound and outbound but is not a swap.
	type flow struct{ in, out, self int }
	flows := make(map[string]*flow)
	byHash := make(map[string][]model.Transfer)
	for _, tr := range transfers {
		if tr.Hash == "" {
			continue
		}
		byHash[tr.Hash] = append(byHash[tr.Hash], tr)
		f := flows[tr.Hash]
		if f == nil {
			f = &flow{}
			flows[tr.Hash] = f
		}
		if tr.To == address {
			f.in++
		}
		if tr.From == address {
			f.out++
		}
		if tr.To == address && tr.From == address {
			f.self++
		}
	}
	for hash, f := range flows {
		if f.in > 0 && f.out > 0 && !(f.in == 1 && f.out == 1 && f.self == 1) {
			out.ByLegs[hash] = struct{}{}
		}
	}

	for hash := range out.ByCall {
		out.Hashes[hash] = struct{}{}
	}
	for hash := range out.ByLegs {
		out.Hashes[hash] = struct{}{}
	}
	for hash := range out.Hashes {
		if legs, ok := byHash[hash]; ok {
			out.Legs[hash] = legs
		}
	}
	return out
}

func containsAny(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	text = strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
