// Package config loads mintforge settings from a YAML file and the environment.
//
// Values are resolved in three layers: built-in defaults, the YAML file, then
// environment variables. Contract addresses are selected per network name, so
// one file can describe testnet, devnet and mainnet deployments side by side.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig classifies every configuration problem
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root of mintforge.yaml
type Config struct {
	Network  string                    `yaml:"network"`
	Networks map[string]*NetworkConfig `yaml:"networks"`
	Pinning  PinningConfig             `yaml:"pinning"`
	Mint     MintConfig                `yaml:"mint"`
	Server   ServerConfig              `yaml:"server"`
	Cache    CacheConfig               `yaml:"cache"`
	Log      LogConfig                 `yaml:"log"`
	Signer   SignerConfig              `yaml:"-"`
}

// NetworkConfig describes one deployment of the workshop contracts
type NetworkConfig struct {
	Name         string `yaml:"-"`
	RPCURL       string `yaml:"rpc_url"`
	PackageID    string `yaml:"package_id"`
	CollectionID string `yaml:"collection_id"`
	CounterID    string `yaml:"counter_id"`
	ExplorerURL  string `yaml:"explorer_url"`
}

// PinningConfig holds the image-pinning service endpoint and credentials
type PinningConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	Gateway   string        `yaml:"gateway"`
	JWT       string        `yaml:"jwt"`
	APIKey    string        `yaml:"api_key"`
	APISecret string        `yaml:"api_secret"`
	Timeout   time.Duration `yaml:"timeout"`
}

// MintConfig tunes the mint transaction flow
type MintConfig struct {
	Module         string        `yaml:"module"`
	CounterModule  string        `yaml:"counter_module"`
	GasBudget      uint64        `yaml:"gas_budget"`
	MaxImageBytes  int64         `yaml:"max_image_bytes"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	DBPath         string   `yaml:"db_path"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// CacheConfig configures the query cache
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// LogConfig configures zap and file rotation
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	JSON       bool   `yaml:"json"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// SignerConfig carries key material; it is only ever read from the environment
type SignerConfig struct {
	PrivateKey string
	Mnemonic   string
}

// HasKey reports whether any signing key was supplied
func (s SignerConfig) HasKey() bool {
	return s.PrivateKey != "" || s.Mnemonic != ""
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Network: "testnet",
		Networks: map[string]*NetworkConfig{
			"mainnet": {
				RPCURL:      "https://fullnode.mainnet.sui.io:443",
				ExplorerURL: "https://suiscan.xyz/mainnet",
			},
			"testnet": {
				RPCURL:      "https://fullnode.testnet.sui.io:443",
				ExplorerURL: "https://suiscan.xyz/testnet",
			},
			"devnet": {
				RPCURL:      "https://fullnode.devnet.sui.io:443",
				ExplorerURL: "https://suiscan.xyz/devnet",
			},
			"localnet": {
				RPCURL: "http://127.0.0.1:9000",
			},
		},
		Pinning: PinningConfig{
			Endpoint: "https://api.pinata.cloud",
			Gateway:  "https://gateway.pinata.cloud/ipfs",
			Timeout:  2 * time.Minute,
		},
		Mint: MintConfig{
			Module:         "workshop_nft",
			CounterModule:  "counter",
			GasBudget:      50_000_000,
			MaxImageBytes:  10 << 20,
			ConfirmTimeout: time.Minute,
			PollInterval:   2 * time.Second,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			DBPath:         "./mintforge.db",
			AllowedOrigins: []string{"http://localhost:*"},
		},
		Cache: CacheConfig{TTL: 30 * time.Second},
		Log: LogConfig{
			Level:      "info",
			Console:    true,
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// A missing file is not an error when path is empty.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
		}
		// yaml replaces map values wholesale; put back the built-in urls.
		for name, def := range Default().Networks {
			if n := cfg.Networks[name]; n != nil {
				n.fillFrom(def)
			}
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	for name, n := range cfg.Networks {
		if n == nil {
			n = &NetworkConfig{}
			cfg.Networks[name] = n
		}
		n.Name = name
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("MINTFORGE_NETWORK", &c.Network)
	str("PINATA_JWT", &c.Pinning.JWT)
	str("PINATA_API_KEY", &c.Pinning.APIKey)
	str("PINATA_API_SECRET", &c.Pinning.APISecret)
	str("PINATA_GATEWAY", &c.Pinning.Gateway)
	str("MINTFORGE_PRIVATE_KEY", &c.Signer.PrivateKey)
	str("MINTFORGE_MNEMONIC", &c.Signer.Mnemonic)
	str("MINTFORGE_DB_PATH", &c.Server.DBPath)
	str("MINTFORGE_LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("MINTFORGE_GAS_BUDGET"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: MINTFORGE_GAS_BUDGET: %v", ErrInvalidConfig, err)
		}
		c.Mint.GasBudget = n
	}

	if c.Networks == nil {
		c.Networks = map[string]*NetworkConfig{}
	}
	// Per-network overrides, e.g. MINTFORGE_TESTNET_PACKAGE_ID.
	names := []string{c.Network}
	for name := range c.Networks {
		names = append(names, name)
	}
	for _, name := range names {
		prefix := "MINTFORGE_" + strings.ToUpper(name) + "_"
		n := c.Networks[name]
		if n == nil {
			n = &NetworkConfig{}
		}
		before := *n
		str(prefix+"RPC_URL", &n.RPCURL)
		str(prefix+"PACKAGE_ID", &n.PackageID)
		str(prefix+"COLLECTION_ID", &n.CollectionID)
		str(prefix+"COUNTER_ID", &n.CounterID)
		str(prefix+"EXPLORER_URL", &n.ExplorerURL)
		if c.Networks[name] != nil || *n != before {
			c.Networks[name] = n
		}
	}
	return nil
}

func (n *NetworkConfig) fillFrom(def *NetworkConfig) {
	if n.RPCURL == "" {
		n.RPCURL = def.RPCURL
	}
	if n.ExplorerURL == "" {
		n.ExplorerURL = def.ExplorerURL
	}
}

// ActiveNetwork returns the selected network and checks it has a node and a package.
// The collection id is checked by the services that need it, see RequireCollection.
func (c *Config) ActiveNetwork() (*NetworkConfig, error) {
	n, ok := c.Networks[c.Network]
	if !ok || n == nil {
		return nil, fmt.Errorf("%w: unknown network %q (known: %s)", ErrInvalidConfig, c.Network, strings.Join(c.NetworkNames(), ", "))
	}
	n.Name = c.Network
	if n.RPCURL == "" {
		return nil, fmt.Errorf("%w: network %q has no rpc_url", ErrInvalidConfig, c.Network)
	}
	if n.PackageID == "" {
		return nil, fmt.Errorf("%w: network %q has no package_id", ErrInvalidConfig, c.Network)
	}
	return n, nil
}

// RequireCollection fails when the network has no collection deployed
func (n *NetworkConfig) RequireCollection() error {
	if n.CollectionID == "" {
		return fmt.Errorf("%w: network %q has no collection_id", ErrInvalidConfig, n.Name)
	}
	return nil
}

// NetworkNames lists configured networks in sorted order
func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ItemType is the fully qualified Move struct type of minted items
func (n *NetworkConfig) ItemType(module string) string {
	return n.PackageID + "::" + module + "::WorkshopNFT"
}

// AdminCapType is the Move struct type of the collection capability
func (n *NetworkConfig) AdminCapType(module string) string {
	return n.PackageID + "::" + module + "::AdminCap"
}

// MintEventType is the Move event type emitted on every mint
func (n *NetworkConfig) MintEventType(module string) string {
	return n.PackageID + "::" + module + "::NFTMinted"
}

// TxURL links a transaction digest in the explorer, or returns "" without one
func (n *NetworkConfig) TxURL(digest string) string {
	if n.ExplorerURL == "" || digest == "" {
		return ""
	}
	return strings.TrimRight(n.ExplorerURL, "/") + "/tx/" + digest
}

// CounterType is the Move struct type of the workshop counter
func (n *NetworkConfig) CounterType(module string) string {
	return n.PackageID + "::" + module + "::Counter"
}
