package names

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Namehash computes the ENS namehash of a dot-separated name.
func Namehash(name string) common.Hash {
	var node common.Hash
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := crypto.Keccak256([]byte(labels[i]))
		node = common.BytesToHash(crypto.Keccak256(node.Bytes(), labelHash))
	}
	return node
}

// CoinType returns the ENSIP-11 coin type of an EVM chain.
func CoinType(chainID uint64) uint64 {
	return 0x80000000 | chainID
}

// ReverseName returns the chain-specific reverse record name of an address.
func ReverseName(address string, chainID uint64) string {
	hexAddr := strings.TrimPrefix(strings.ToLower(address), "0x")
	return fmt.Sprintf("%s.%x.reverse", hexAddr, CoinType(chainID))
}

// dnsEncode encodes a name in DNS wire format as used by ENSIP-10.
func dnsEncode(name string) ([]byte, error) {
	name = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
	if name == "" {
		return []byte{0}, nil
	}
	out := make([]byte, 0, len(name)+2)
	for _, label := range strings.Split(name, ".") {
		if len(label) == 0 || len(label) > 255 {
			return nil, fmt.Errorf("invalid label in %q", name)
		}
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	return append(out, 0), nil
}
