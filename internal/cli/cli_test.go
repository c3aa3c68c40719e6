package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meur/mintforge/internal/mint"
	"github.com/meur/mintforge/internal/models"
	"github.com/meur/mintforge/internal/wallet"
)

func TestParseAttributes(t *testing.T) {
	attrs, err := parseAttributes([]string{"color=blue", "tier=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, []mint.Attribute{
		{Key: "color", Value: "blue"},
		{Key: "tier", Value: "a=b"},
		{Key: "empty", Value: ""},
	}, attrs)

	_, err = parseAttributes([]string{"color"})
	assert.ErrorContains(t, err, "not key=value")
}

func TestCollectionRows(t *testing.T) {
	v := &models.CollectionView{
		Collection: models.Collection{
			ID:            "0xc0",
			CurrentSupply: 3,
			MaxSupply:     10,
			EndTime:       time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		PriceSUI:      "0.10",
		Progress:      30,
		TimeRemaining: "2d 0h",
		Eligible:      false,
		Reason:        "not_started",
	}
	rows := collectionRows(v)
	assert.Contains(t, rows, []string{"Price", "0.10 SUI"})
	assert.Contains(t, rows, []string{"Supply", "3 / 10 (30%)"})
	assert.Contains(t, rows, []string{"Minting", "closed (not_started)"})

	v.Eligible = true
	assert.Contains(t, collectionRows(v), []string{"Minting", "open"})
}

func TestItemDetailRowsSortsAttributes(t *testing.T) {
	rows := itemDetailRows(&models.Item{
		ObjectID:   "0x1",
		Attributes: map[string]string{"zeta": "1", "alpha": "2"},
	})
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"alpha", "2"}, rows[4])
	assert.Equal(t, []string{"zeta", "1"}, rows[5])
}

func TestCoinRows(t *testing.T) {
	rows := coinRows(&models.CoinList{Coins: []models.Coin{
		{CoinObjectID: "0xabcdef0123456789", Balance: 1_500_000_000},
	}})
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"0xabcd...6789", "1.5"}, rows[1])
}

func TestMintRows(t *testing.T) {
	now := time.Now()
	rows := mintRows([]models.Mint{
		{ID: "123456789abc", Name: "One", Status: models.MintConfirmed, Digest: "D", CreatedAt: now.Add(-time.Hour)},
		{ID: "x", Name: "Two", Status: models.MintFailed, Error: "insufficient balance", CreatedAt: now},
	}, now)
	require.Len(t, rows, 3)
	assert.Equal(t, "12345678", rows[1][0])
	assert.Equal(t, "1 hour ago", rows[1][4])
	assert.Equal(t, "x", rows[2][0])
	assert.Equal(t, "failed: insufficient balance", rows[2][2])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate(" short ", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestKeygenRowsRoundTrip(t *testing.T) {
	rows, err := keygenRows(12)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	fromMnemonic, err := wallet.FromMnemonic(rows[0][1])
	require.NoError(t, err)
	fromKey, err := wallet.Parse(rows[3][1])
	require.NoError(t, err)
	assert.Equal(t, rows[2][1], fromMnemonic.Address())
	assert.Equal(t, rows[2][1], fromKey.Address())

	_, err = keygenRows(13)
	assert.Error(t, err)
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"collection"}, {"items"}, {"item"}, {"coins"}, {"mint"}, {"mints"},
		{"keygen"}, {"address"},
		{"admin", "set-active"}, {"admin", "set-price"},
		{"counter", "create"}, {"counter", "increment"}, {"counter", "show"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MINTFORGE_CONFIG", "")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAddressCommand(t *testing.T) {
	kp, err := wallet.Generate()
	require.NoError(t, err)
	key, err := kp.EncodePrivateKey()
	require.NoError(t, err)
	t.Setenv("MINTFORGE_PRIVATE_KEY", key)
	t.Setenv("MINTFORGE_MNEMONIC", "")

	out, err := execute(t, "address")
	require.NoError(t, err)
	assert.Equal(t, kp.Address()+"\n", out)
}

func TestAddressCommandWithoutKey(t *testing.T) {
	t.Setenv("MINTFORGE_PRIVATE_KEY", "")
	t.Setenv("MINTFORGE_MNEMONIC", "")

	_, err := execute(t, "address")
	assert.ErrorIs(t, err, errNoSigner)
}

func TestArgumentErrorsStopBeforeConnecting(t *testing.T) {
	_, err := execute(t, "admin", "set-active", "maybe")
	assert.ErrorContains(t, err, `got "maybe"`)

	_, err = execute(t, "admin", "set-price", "-1")
	assert.Error(t, err)

	_, err = execute(t, "mint", "--image", "nope.png", "--attr", "broken")
	assert.ErrorContains(t, err, "not key=value")

	_, err = execute(t, "mint", "--image", "does-not-exist.png")
	assert.ErrorContains(t, err, "reading image")
}
