package model

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress is the lowercase zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// NormalizeAddress trims and lowercases an address. It does not validate.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// IsAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsAddress(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 42 || (!strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X")) {
		return false
	}
	return common.IsHexAddress(s)
}

// IsZeroOrEmpty reports whether addr is blank or the zero address.
func IsZeroOrEmpty(addr string) bool {
	addr = NormalizeAddress(addr)
	return addr == "" || addr == ZeroAddress
}

// AddressSet is a set of normalized addresses.
type AddressSet map[string]struct{}

// NewAddressSet builds a set from addresses, normalizing each entry.
func NewAddressSet(addrs ...string) AddressSet {
	set := make(AddressSet, len(addrs))
	for _, addr := range addrs {
		set.Add(addr)
	}
	return set
}

// Add inserts addr after normalization. Blank values are ignored.
func (s AddressSet) Add(addr string) {
	addr = NormalizeAddress(addr)
	if addr == "" {
		return
	}
	s[addr] = struct{}{}
}

// Has reports whether addr is in the set regardless of letter casing.
func (s AddressSet) Has(addr string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[NormalizeAddress(addr)]
	return ok
}

// Union returns a new set with the members of s and other.
func (s AddressSet) Union(other AddressSet) AddressSet {
	out := make(AddressSet, len(s)+len(other))
	for addr := range s {
		out[addr] = struct{}{}
	}
	for addr := range other {
		out[addr] = struct{}{}
	}
	return out
}
