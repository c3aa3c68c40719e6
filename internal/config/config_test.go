package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mintforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("", envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "testnet", cfg.Network)
	assert.Equal(t, uint64(50_000_000), cfg.Mint.GasBudget)
	assert.Equal(t, int64(10<<20), cfg.Mint.MaxImageBytes)
	assert.Equal(t, []string{"devnet", "localnet", "mainnet", "testnet"}, cfg.NetworkNames())

	_, err = cfg.ActiveNetwork()
	assert.ErrorIs(t, err, ErrInvalidConfig, "testnet has no deployment ids by default")
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeFile(t, `
network: devnet
networks:
  devnet:
    package_id: "0xfile"
    collection_id: "0xcoll"
mint:
  confirm_timeout: 90s
pinning:
  jwt: from-file
`)

	cfg, err := load(path, envMap(map[string]string{
		"PINATA_JWT":                  "from-env",
		"MINTFORGE_DEVNET_PACKAGE_ID": "0xenv",
		"MINTFORGE_PRIVATE_KEY":       "suiprivkey1xyz",
	}))
	require.NoError(t, err)

	n, err := cfg.ActiveNetwork()
	require.NoError(t, err)
	assert.Equal(t, "devnet", n.Name)
	assert.Equal(t, "0xenv", n.PackageID)
	assert.Equal(t, "0xcoll", n.CollectionID)
	assert.Equal(t, "https://fullnode.devnet.sui.io:443", n.RPCURL, "file merges over defaults")
	assert.Equal(t, 90*time.Second, cfg.Mint.ConfirmTimeout)
	assert.Equal(t, "from-env", cfg.Pinning.JWT)
	assert.True(t, cfg.Signer.HasKey())
}

func TestEnvSelectsUnlistedNetwork(t *testing.T) {
	cfg, err := load("", envMap(map[string]string{
		"MINTFORGE_NETWORK":                "workshop",
		"MINTFORGE_WORKSHOP_RPC_URL":       "http://node:9000",
		"MINTFORGE_WORKSHOP_PACKAGE_ID":    "0x1",
		"MINTFORGE_WORKSHOP_COLLECTION_ID": "0x2",
	}))
	require.NoError(t, err)

	n, err := cfg.ActiveNetwork()
	require.NoError(t, err)
	assert.Equal(t, "http://node:9000", n.RPCURL)
	assert.Equal(t, "workshop", n.Name)
}

func TestUnknownNetwork(t *testing.T) {
	cfg, err := load("", envMap(map[string]string{"MINTFORGE_NETWORK": "nowhere"}))
	require.NoError(t, err)

	_, err = cfg.ActiveNetwork()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "nowhere")
}

func TestInvalidFile(t *testing.T) {
	_, err := load(writeFile(t, "network: [oops"), envMap(nil))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = load(filepath.Join(t.TempDir(), "missing.yaml"), envMap(nil))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = load("", envMap(map[string]string{"MINTFORGE_GAS_BUDGET": "lots"}))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNetworkHelpers(t *testing.T) {
	n := &NetworkConfig{PackageID: "0xabc", ExplorerURL: "https://suiscan.xyz/testnet/"}
	assert.Equal(t, "0xabc::workshop_nft::WorkshopNFT", n.ItemType("workshop_nft"))
	assert.Equal(t, "0xabc::workshop_nft::AdminCap", n.AdminCapType("workshop_nft"))
	assert.Equal(t, "0xabc::workshop_nft::NFTMinted", n.MintEventType("workshop_nft"))
	assert.Equal(t, "https://suiscan.xyz/testnet/tx/D1", n.TxURL("D1"))
	assert.Equal(t, "", (&NetworkConfig{}).TxURL("D1"))
}

func TestCollectionIsCheckedSeparately(t *testing.T) {
	cfg, err := load("", envMap(map[string]string{
		"MINTFORGE_NETWORK":           "devnet",
		"MINTFORGE_DEVNET_PACKAGE_ID": "0xpkg",
		"MINTFORGE_DEVNET_COUNTER_ID": "0xcounter",
	}))
	require.NoError(t, err)

	n, err := cfg.ActiveNetwork()
	require.NoError(t, err, "a counter-only deployment is usable")
	assert.ErrorIs(t, n.RequireCollection(), ErrInvalidConfig)

	n.CollectionID = "0xcol"
	assert.NoError(t, n.RequireCollection())
}
