package names

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const universalResolverABIJSON = `[
  {"inputs": [{"name": "lookupAddress", "type": "bytes"}, {"name": "coinType", "type": "uint256"}], "name": "reverse", "outputs": [{"name": "primary", "type": "string"}, {"name": "resolver", "type": "address"}, {"name": "reverseResolver", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "name", "type": "bytes"}, {"name": "data", "type": "bytes"}], "name": "resolve", "outputs": [{"name": "", "type": "bytes"}, {"name": "", "type": "address"}], "stateMutability": "view", "type": "function"}
]`

const registryABIJSON = `[
  {"inputs": [{"name": "node", "type": "bytes32"}], "name": "resolver", "outputs": [{"name": "", "type": "address"}], "stateMutability": "view", "type": "function"}
]`

const resolverABIJSON = `[
  {"inputs": [{"name": "node", "type": "bytes32"}], "name": "addr", "outputs": [{"name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "node", "type": "bytes32"}], "name": "name", "outputs": [{"name": "", "type": "string"}], "stateMutability": "view", "type": "function"}
]`

const multicoinABIJSON = `[
  {"inputs": [{"name": "node", "type": "bytes32"}, {"name": "coinType", "type": "uint256"}], "name": "addr", "outputs": [{"name": "", "type": "bytes"}], "stateMutability": "view", "type": "function"}
]`

type lazyABI struct {
	json string
	once sync.Once
	abi  abi.ABI
	err  error
}

func (l *lazyABI) get() (abi.ABI, error) {
	l.once.Do(func() {
		l.abi, l.err = abi.JSON(strings.NewReader(l.json))
	})
	return l.abi, l.err
}

var (
	universalResolverABI = &lazyABI{json: universalResolverABIJSON}
	registryABI          = &lazyABI{json: registryABIJSON}
	resolverABI          = &lazyABI{json: resolverABIJSON}
	multicoinABI         = &lazyABI{json: multicoinABIJSON}
)
