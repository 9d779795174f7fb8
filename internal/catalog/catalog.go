// Package catalog holds the curated protocol, bridge and token tables used by
// the classifiers. Tables are loaded once and treated as read-only.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"walletclinic/internal/model"
)

//go:embed catalog.yaml
var defaultYAML []byte

// File is the YAML layout of a catalog.
type File struct {
	Chain struct {
		ID            uint64 `yaml:"id"`
		Name          string `yaml:"name"`
		MainnetLaunch string `yaml:"mainnet_launch"`
	} `yaml:"chain"`
	USDCAddress     string   `yaml:"usdc_address"`
	StableSymbols   []string `yaml:"stable_symbols"`
	SwapKeywords    []string `yaml:"swap_keywords"`
	LendingKeywords []string `yaml:"lending_keywords"`
	Holidays        []string `yaml:"holidays"`
	DoctorsDay      string   `yaml:"doctors_day"`
	NativeBridge    struct {
		Senders  []string `yaml:"senders"`
		Outbound []string `yaml:"outbound"`
	} `yaml:"native_bridge"`
	Bridges     []BridgeEntry   `yaml:"bridges"`
	Protocols   []ProtocolEntry `yaml:"protocols"`
	NameService struct {
		Suffix            string `yaml:"suffix"`
		UniversalResolver string `yaml:"universal_resolver"`
		Registry          string `yaml:"registry"`
	} `yaml:"name_service"`
}

// BridgeEntry lists the contracts of one third-party bridge provider.
type BridgeEntry struct {
	Name      string   `yaml:"name"`
	Contracts []string `yaml:"contracts"`
}

// ProtocolEntry lists the contracts and function-name keywords of one protocol.
type ProtocolEntry struct {
	Name      string   `yaml:"name"`
	Dex       bool     `yaml:"dex"`
	Keywords  []string `yaml:"keywords"`
	Addresses []string `yaml:"addresses"`
}

// Protocol is a compiled protocol entry.
type Protocol struct {
	Name      string
	Dex       bool
	Keywords  []string
	Addresses model.AddressSet
}

// Bridge is a compiled third-party bridge entry.
type Bridge struct {
	Name      string
	Contracts model.AddressSet
}

// Catalog is the compiled, read-only lookup table set.
type Catalog struct {
	ChainID         uint64
	MainnetLaunch   time.Time
	USDCAddress     string
	StableSymbols   map[string]struct{}
	SwapKeywords    []string
	DexRouters      model.AddressSet
	LendingKeywords []string
	Holidays        map[string]struct{}
	DoctorsDay      string

	NativeSenders  model.AddressSet
	NativeOutbound model.AddressSet
	Bridges        []Bridge
	Protocols      []Protocol

	NameSuffix        string
	UniversalResolver string
	Registry          string
}

// Default returns the embedded catalog.
func Default() *Catalog {
	cat, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return cat
}

// Load reads a catalog file. An empty path returns the embedded catalog.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and compiles catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return Compile(file)
}

// Compile validates a File and builds the lookup tables. All addresses are
// normalized to lowercase and all keywords to lowercase.
func Compile(file File) (*Catalog, error) {
	launch, err := time.Parse(time.RFC3339, file.Chain.MainnetLaunch)
	if err != nil {
		return nil, fmt.Errorf("parse mainnet_launch: %w", err)
	}
	if !model.IsAddress(file.USDCAddress) {
		return nil, fmt.Errorf("invalid usdc_address %q", file.USDCAddress)
	}

	cat := &Catalog{
		ChainID:           file.Chain.ID,
		MainnetLaunch:     launch.UTC(),
		USDCAddress:       model.NormalizeAddress(file.USDCAddress),
		StableSymbols:     make(map[string]struct{}, len(file.StableSymbols)),
		LendingKeywords:   lowerAll(file.LendingKeywords),
		Holidays:          make(map[string]struct{}, len(file.Holidays)),
		DoctorsDay:        strings.TrimSpace(file.DoctorsDay),
		DexRouters:        model.NewAddressSet(),
		NameSuffix:        strings.ToLower(strings.TrimSpace(file.NameService.Suffix)),
		UniversalResolver: strings.TrimSpace(file.NameService.UniversalResolver),
		Registry:          strings.TrimSpace(file.NameService.Registry),
	}

	for _, sym := range file.StableSymbols {
		cat.StableSymbols[strings.ToUpper(strings.TrimSpace(sym))] = struct{}{}
	}
	for _, day := range file.Holidays {
		cat.Holidays[strings.TrimSpace(day)] = struct{}{}
	}

	if cat.NativeSenders, err = addressSet("native_bridge.senders", file.NativeBridge.Senders); err != nil {
		return nil, err
	}
	if cat.NativeOutbound, err = addressSet("native_bridge.outbound", file.NativeBridge.Outbound); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, entry := range file.Bridges {
		name := strings.ToLower(strings.TrimSpace(entry.Name))
		if name == "" {
			return nil, fmt.Errorf("bridge entry without name")
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate bridge %q", name)
		}
		seen[name] = struct{}{}
		set, err := addressSet("bridge "+name, entry.Contracts)
		if err != nil {
			return nil, err
		}
		cat.Bridges = append(cat.Bridges, Bridge{Name: name, Contracts: set})
	}

	swapWords := lowerAll(file.SwapKeywords)
	seen = make(map[string]struct{})
	for _, entry := range file.Protocols {
		name := strings.ToLower(strings.TrimSpace(entry.Name))
		if name == "" {
			return nil, fmt.Errorf("protocol entry without name")
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate protocol %q", name)
		}
		seen[name] = struct{}{}
		set, err := addressSet("protocol "+name, entry.Addresses)
		if err != nil {
			return nil, err
		}
		proto := Protocol{Name: name, Dex: entry.Dex, Keywords: lowerAll(entry.Keywords), Addresses: set}
		cat.Protocols = append(cat.Protocols, proto)
		if proto.Dex {
			cat.DexRouters = cat.DexRouters.Union(set)
			swapWords = append(swapWords, proto.Keywords...)
		}
	}
	cat.SwapKeywords = dedupe(swapWords)

	return cat, nil
}

// IsStable reports whether symbol belongs to the stablecoin set.
func (c *Catalog) IsStable(symbol string) bool {
	_, ok := c.StableSymbols[strings.ToUpper(strings.TrimSpace(symbol))]
	return ok
}

// IsHoliday reports whether the MM-DD key is a holiday.
func (c *Catalog) IsHoliday(monthDay string) bool {
	_, ok := c.Holidays[monthDay]
	return ok
}

// Protocol returns the named protocol.
func (c *Catalog) Protocol(name string) (Protocol, bool) {
	for _, p := range c.Protocols {
		if p.Name == name {
			return p, true
		}
	}
	return Protocol{}, false
}

func addressSet(field string, addrs []string) (model.AddressSet, error) {
	set := model.NewAddressSet()
	for _, addr := range addrs {
		if !model.IsAddress(addr) {
			return nil, fmt.Errorf("%s: invalid address %q", field, addr)
		}
		set.Add(addr)
	}
	return set, nil
}

func lowerAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
