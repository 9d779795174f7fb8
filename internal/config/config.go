package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	ChainID uint64

	ExplorerURL     string
	ExplorerAPIKey  string
	ExplorerTimeout time.Duration
	PageSize        int
	PageDelay       time.Duration
	MaxPages        int

	RPCURL          string
	ReferenceRPCURL string
	RPCTimeout      time.Duration

	PriceURL     string
	PriceAPIKey  string
	PriceTimeout time.Duration

	NameAPIURL  string
	NameTimeout time.Duration

	RetryAttempts int
	RetryBase     time.Duration
	RetryJitter   time.Duration

	CatalogPath string

	Fast     ProfileConfig
	Thorough ProfileConfig

	HTTPAddr       string
	RequestTimeout time.Duration
	OTLPEndpoint   string

	Input             string
	Addresses         []string
	Out               string
	ErrorsOut         string
	BatchSize         int
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration

	LogLevel string
}

// ProfileConfig bounds one enrichment profile.
type ProfileConfig struct {
	TraceCap           int
	ReceiptCap         int
	DeployWorkers      int
	InteractionCap     int
	InteractionWorkers int
}

// envAliases lets deployments keep their existing variable names.
var envAliases = map[string][]string{
	"explorer-api-key": {"ETHERSCAN_API_KEY", "BASESCAN_API_KEY"},
	"price-api-key":    {"COINGECKO_API_KEY"},
	"rpc":              {"BASE_RPC_URL"},
	"reference-rpc":    {"MAINNET_RPC_URL"},
	"otlp-endpoint":    {"OTEL_EXPORTER_OTLP_ENDPOINT"},
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("CLINIC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{"CLINIC_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	setDefaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		ChainID:           v.GetUint64("chain-id"),
		ExplorerURL:       v.GetString("explorer-url"),
		ExplorerAPIKey:    v.GetString("explorer-api-key"),
		ExplorerTimeout:   v.GetDuration("explorer-timeout"),
		PageSize:          v.GetInt("page-size"),
		PageDelay:         v.GetDuration("page-delay"),
		MaxPages:          v.GetInt("max-pages"),
		RPCURL:            v.GetString("rpc"),
		ReferenceRPCURL:   v.GetString("reference-rpc"),
		RPCTimeout:        v.GetDuration("rpc-timeout"),
		PriceURL:          v.GetString("price-url"),
		PriceAPIKey:       v.GetString("price-api-key"),
		PriceTimeout:      v.GetDuration("price-timeout"),
		NameAPIURL:        v.GetString("name-api-url"),
		NameTimeout:       v.GetDuration("name-timeout"),
		RetryAttempts:     v.GetInt("retry-attempts"),
		RetryBase:         v.GetDuration("retry-base"),
		RetryJitter:       v.GetDuration("retry-jitter"),
		CatalogPath:       v.GetString("catalog"),
		Fast:              profile(v, "fast"),
		Thorough:          profile(v, "thorough"),
		HTTPAddr:          v.GetString("http-addr"),
		RequestTimeout:    v.GetDuration("request-timeout"),
		OTLPEndpoint:      v.GetString("otlp-endpoint"),
		Input:             v.GetString("in"),
		Addresses:         getStringSlice(v, "address"),
		Out:               v.GetString("out"),
		ErrorsOut:         v.GetString("errors"),
		BatchSize:         v.GetInt("batch-size"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chain-id", uint64(8453))
	v.SetDefault("explorer-url", "https://api.etherscan.io/v2/api")
	v.SetDefault("explorer-timeout", 20*time.Second)
	v.SetDefault("page-size", 5000)
	v.SetDefault("page-delay", 150*time.Millisecond)
	v.SetDefault("max-pages", 20)
	v.SetDefault("rpc", "https://mainnet.base.org")
	v.SetDefault("reference-rpc", "https://cloudflare-eth.com")
	v.SetDefault("rpc-timeout", 4*time.Second)
	v.SetDefault("price-url", "https://api.coingecko.com/api/v3/simple/price")
	v.SetDefault("price-timeout", 9*time.Second)
	v.SetDefault("name-api-url", "https://api.ensideas.com")
	v.SetDefault("name-timeout", 9*time.Second)
	v.SetDefault("retry-attempts", 3)
	v.SetDefault("retry-base", 300*time.Millisecond)
	v.SetDefault("retry-jitter", 200*time.Millisecond)

	v.SetDefault("fast-trace-cap", 150)
	v.SetDefault("fast-receipt-cap", 250)
	v.SetDefault("fast-deploy-workers", 6)
	v.SetDefault("fast-interaction-cap", 300)
	v.SetDefault("fast-interaction-workers", 8)
	v.SetDefault("thorough-trace-cap", 400)
	v.SetDefault("thorough-receipt-cap", 600)
	v.SetDefault("thorough-deploy-workers", 6)
	v.SetDefault("thorough-interaction-cap", 1000)
	v.SetDefault("thorough-interaction-workers", 8)

	v.SetDefault("http-addr", ":8080")
	v.SetDefault("request-timeout", 60*time.Second)

	v.SetDefault("out", "./data/reports.jsonl")
	v.SetDefault("errors", "./data/report_errors.jsonl")
	v.SetDefault("batch-size", 25)
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 2*time.Second)
	v.SetDefault("log-level", "info")
}

func profile(v *viper.Viper, name string) ProfileConfig {
	return ProfileConfig{
		TraceCap:           v.GetInt(name + "-trace-cap"),
		ReceiptCap:         v.GetInt(name + "-receipt-cap"),
		DeployWorkers:      v.GetInt(name + "-deploy-workers"),
		InteractionCap:     v.GetInt(name + "-interaction-cap"),
		InteractionWorkers: v.GetInt(name + "-interaction-workers"),
	}
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	var errs []error
	if c.ChainID == 0 {
		errs = append(errs, errors.New("chain id is required"))
	}
	if strings.TrimSpace(c.ExplorerAPIKey) == "" {
		errs = append(errs, errors.New("explorer api key is required (CLINIC_EXPLORER_API_KEY or ETHERSCAN_API_KEY)"))
	}
	if strings.TrimSpace(c.RPCURL) == "" {
		errs = append(errs, errors.New("rpc url is required"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be greater than zero"))
	}
	if c.RetryAttempts <= 0 {
		errs = append(errs, errors.New("retry attempts must be greater than zero"))
	}
	for name, p := range map[string]ProfileConfig{"fast": c.Fast, "thorough": c.Thorough} {
		if p.DeployWorkers <= 0 || p.InteractionWorkers <= 0 {
			errs = append(errs, fmt.Errorf("%s profile needs positive worker counts", name))
		}
		if p.TraceCap < 0 || p.ReceiptCap < 0 || p.InteractionCap < 0 {
			errs = append(errs, fmt.Errorf("%s profile caps must not be negative", name))
		}
	}
	return errors.Join(errs...)
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
