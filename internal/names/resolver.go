// Package names resolves human-readable names to addresses and addresses to
// their primary name.
package names

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"walletclinic/internal/fetch"
	"walletclinic/internal/model"
)

// DefaultAPIURL is the hosted name API used as a last resort.
const DefaultAPIURL = "https://api.ensideas.com"

// ErrUnresolvable is returned when no strategy produced an address.
var ErrUnresolvable = errors.New("name could not be resolved")

// Caller performs read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Config holds resolver settings.
type Config struct {
	ChainID           uint64
	Suffix            string
	UniversalResolver string
	Registry          string
	APIURL            string
	Timeout           time.Duration
	Retry             fetch.RetryPolicy
}

// Resolution is a resolved input.
type Resolution struct {
	Address string
	Name    string
	Source  string
}

// Resolver walks an ordered list of strategies. Every strategy failure is
// swallowed and the next strategy runs.
type Resolver struct {
	cfg       Config
	reference Caller
	target    Caller
	http      *http.Client
	logger    *zap.Logger
}

type strategy struct {
	name string
	fn   func(ctx context.Context, input string) (string, error)
}

// NewResolver builds a Resolver. reference is a client on the chain hosting
// the universal resolver, target a client on the chain hosting the registry.
// Either may be nil to disable its strategy.
func NewResolver(cfg Config, reference, target Caller, httpClient *http.Client, logger *zap.Logger) *Resolver {
	if cfg.ChainID == 0 {
		cfg.ChainID = 8453
	}
	if cfg.Suffix == "" {
		cfg.Suffix = ".base.eth"
	}
	cfg.Suffix = strings.ToLower(cfg.Suffix)
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 9 * time.Second
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = fetch.RetryPolicy{Attempts: 1}
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{cfg: cfg, reference: reference, target: target, http: httpClient, logger: logger}
}

// Resolve turns raw input into a canonical lowercase address. Address input
// returns without any network call.
func (r *Resolver) Resolve(ctx context.Context, input string) (Resolution, error) {
	input = strings.TrimSpace(input)
	if model.IsAddress(input) {
		return Resolution{Address: model.NormalizeAddress(input), Source: "address"}, nil
	}
	if !strings.Contains(input, ".") {
		return Resolution{}, ErrUnresolvable
	}

	name := strings.ToLower(input)
	strategies := []strategy{
		{name: "universal_resolver", fn: r.forwardUniversal},
		{name: "registry", fn: r.forwardRegistry},
		{name: "name_api", fn: r.forwardAPI},
	}
	for _, s := range strategies {
		addr, err := s.fn(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return Resolution{}, ctx.Err()
			}
			r.logger.Debug("name strategy failed", zap.String("strategy", s.name), zap.String("name", name), zap.Error(err))
			continue
		}
		return Resolution{Address: addr, Name: name, Source: s.name}, nil
	}
	return Resolution{}, ErrUnresolvable
}

// LookupName returns the primary name of an address ending in the network
// suffix, or false when none is found.
func (r *Resolver) LookupName(ctx context.Context, address string) (string, bool) {
	address = model.NormalizeAddress(address)
	if !model.IsAddress(address) {
		return "", false
	}
	strategies := []strategy{
		{name: "universal_resolver", fn: r.reverseUniversal},
		{name: "registry", fn: r.reverseRegistry},
		{name: "name_api", fn: r.reverseAPI},
	}
	for _, s := range strategies {
		name, err := s.fn(ctx, address)
		if err != nil {
			r.logger.Debug("reverse strategy failed", zap.String("strategy", s.name), zap.String("address", address), zap.Error(err))
			continue
		}
		return name, true
	}
	return "", false
}

func (r *Resolver) coinType() *big.Int {
	return new(big.Int).SetUint64(CoinType(r.cfg.ChainID))
}

func (r *Resolver) checkSuffix(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || !strings.HasSuffix(name, r.cfg.Suffix) {
		return "", fmt.Errorf("name %q lacks suffix %s", name, r.cfg.Suffix)
	}
	return name, nil
}

func (r *Resolver) forwardUniversal(ctx context.Context, name string) (string, error) {
	if r.reference == nil || r.cfg.UniversalResolver == "" {
		return "", errors.New("universal resolver disabled")
	}
	if _, err := r.checkSuffix(name); err != nil {
		return "", err
	}
	multicoin, err := multicoinABI.get()
	if err != nil {
		return "", err
	}
	data, err := multicoin.Pack("addr", Namehash(name), r.coinType())
	if err != nil {
		return "", fmt.Errorf("pack addr: %w", err)
	}
	encoded, err := dnsEncode(name)
	if err != nil {
		return "", err
	}

	values, err := call(ctx, r.reference, r.cfg.UniversalResolver, universalResolverABI, "resolve", encoded, data)
	if err != nil {
		return "", err
	}
	inner, ok := values[0].([]byte)
	if !ok {
		return "", errors.New("unexpected resolve output")
	}
	decoded, err := multicoin.Unpack("addr", inner)
	if err != nil {
		return "", fmt.Errorf("unpack addr: %w", err)
	}
	raw, ok := decoded[0].([]byte)
	if !ok || len(raw) != common.AddressLength {
		return "", errors.New("resolver returned no address")
	}
	return nonZero(common.BytesToAddress(raw))
}

func (r *Resolver) forwardRegistry(ctx context.Context, name string) (string, error) {
	if _, err := r.checkSuffix(name); err != nil {
		return "", err
	}
	node := Namehash(name)
	resolver, err := r.registryResolver(ctx, node)
	if err != nil {
		return "", err
	}
	values, err := call(ctx, r.target, resolver, resolverABI, "addr", node)
	if err != nil {
		return "", err
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return "", errors.New("unexpected addr output")
	}
	return nonZero(addr)
}

func (r *Resolver) reverseUniversal(ctx context.Context, address string) (string, error) {
	if r.reference == nil || r.cfg.UniversalResolver == "" {
		return "", errors.New("universal resolver disabled")
	}
	values, err := call(ctx, r.reference, r.cfg.UniversalResolver, universalResolverABI, "reverse",
		common.HexToAddress(address).Bytes(), r.coinType())
	if err != nil {
		return "", err
	}
	name, ok := values[0].(string)
	if !ok {
		return "", errors.New("unexpected reverse output")
	}
	return r.checkSuffix(name)
}

func (r *Resolver) reverseRegistry(ctx context.Context, address string) (string, error) {
	node := Namehash(ReverseName(address, r.cfg.ChainID))
	resolver, err := r.registryResolver(ctx, node)
	if err != nil {
		return "", err
	}
	values, err := call(ctx, r.target, resolver, resolverABI, "name", node)
	if err != nil {
		return "", err
	}
	name, ok := values[0].(string)
	if !ok {
		return "", errors.New("unexpected name output")
	}
	return r.checkSuffix(name)
}

func (r *Resolver) registryResolver(ctx context.Context, node common.Hash) (string, error) {
	if r.target == nil || r.cfg.Registry == "" {
		return "", errors.New("registry disabled")
	}
	values, err := call(ctx, r.target, r.cfg.Registry, registryABI, "resolver", node)
	if err != nil {
		return "", err
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return "", errors.New("unexpected resolver output")
	}
	return nonZero(addr)
}

type apiRecord struct {
	Address     string `json:"address"`
	Addr        string `json:"addr"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

func (r *Resolver) queryAPI(ctx context.Context, key string) (apiRecord, error) {
	reqURL := strings.TrimRight(r.cfg.APIURL, "/") + "/ens/resolve/" + url.PathEscape(key)
	var record apiRecord
	err := fetch.Retry(ctx, r.cfg.Retry, func(ctx context.Context) error {
		resp, err := fetch.Do(ctx, r.http, fetch.Request{URL: reqURL}, r.cfg.Timeout)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(resp.Body, &record); err != nil {
			return fmt.Errorf("parse name api: %w", err)
		}
		return nil
	})
	return record, err
}

func (r *Resolver) forwardAPI(ctx context.Context, name string) (string, error) {
	record, err := r.queryAPI(ctx, name)
	if err != nil {
		return "", err
	}
	for _, candidate := range []string{record.Address, record.Addr} {
		if model.IsAddress(candidate) && !model.IsZeroOrEmpty(candidate) {
			return model.NormalizeAddress(candidate), nil
		}
	}
	return "", errors.New("name api returned no address")
}

func (r *Resolver) reverseAPI(ctx context.Context, address string) (string, error) {
	record, err := r.queryAPI(ctx, address)
	if err != nil {
		return "", err
	}
	for _, candidate := range []string{record.Name, record.DisplayName} {
		if name, err := r.checkSuffix(candidate); err == nil {
			return name, nil
		}
	}
	return "", errors.New("name api returned no matching name")
}

func call(ctx context.Context, caller Caller, to string, lazy *lazyABI, method string, args ...interface{}) ([]interface{}, error) {
	contractABI, err := lazy.get()
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	target := common.HexToAddress(to)
	output, err := caller.CallContract(ctx, ethereum.CallMsg{To: &target, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := unpack(contractABI, method, output)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}

func unpack(contractABI abi.ABI, method string, output []byte) ([]interface{}, error) {
	if len(output) == 0 {
		return nil, fmt.Errorf("%s returned empty data", method)
	}
	values, err := contractABI.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func nonZero(addr common.Address) (string, error) {
	if addr == (common.Address{}) {
		return "", errors.New("zero address")
	}
	return model.NormalizeAddress(addr.Hex()), nil
}
