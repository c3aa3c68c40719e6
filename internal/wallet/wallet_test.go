package wallet

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"

	"github.com/meur/mintforge/internal/config"
)

func seed(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestAddressFormat(t *testing.T) {
	kp, err := FromSeed(seed(1))
	require.NoError(t, err)
	addr := kp.Address()
	assert.True(t, strings.HasPrefix(addr, "0x"))
	assert.Len(t, addr, 66)
	_, err = hex.DecodeString(addr[2:])
	assert.NoError(t, err)
}

func TestFromSeedRejectsWrongLength(t *testing.T) {
	_, err := FromSeed([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestBech32RoundTrip(t *testing.T) {
	kp, err := FromSeed(seed(7))
	require.NoError(t, err)

	enc, err := kp.EncodePrivateKey()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(enc, "suiprivkey1"))

	back, err := Parse(enc)
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), back.Address())
}

func TestParseHex(t *testing.T) {
	kp, err := Parse("0x" + hex.EncodeToString(seed(9)))
	require.NoError(t, err)
	want, _ := FromSeed(seed(9))
	assert.Equal(t, want.Address(), kp.Address())

	_, err = Parse("zz")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSignAndVerify(t *testing.T) {
	kp, err := FromSeed(seed(3))
	require.NoError(t, err)
	tx := base64.StdEncoding.EncodeToString([]byte("transaction data"))

	sig, err := kp.SignTransaction(tx)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sig)
	require.NoError(t, err)
	assert.Len(t, raw, 97)
	assert.Equal(t, FlagEd25519, raw[0])

	addr, err := VerifyTransaction(tx, sig)
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), addr)

	other := base64.StdEncoding.EncodeToString([]byte("other data"))
	_, err = VerifyTransaction(other, sig)
	assert.Error(t, err)
}

func TestMnemonicDerivationIsDeterministic(t *testing.T) {
	m, err := GenerateMnemonic(12)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(m), 12)
	assert.True(t, bip39.IsMnemonicValid(m))

	a, err := FromMnemonic(m)
	require.NoError(t, err)
	b, err := FromMnemonic("  " + strings.ReplaceAll(m, " ", "   ") + "\n")
	require.NoError(t, err)
	assert.Equal(t, a.Address(), b.Address())

	c, err := FromMnemonicPath(m, "m/44'/784'/1'/0'/0'")
	require.NoError(t, err)
	assert.NotEqual(t, a.Address(), c.Address())
}

func TestMnemonicErrors(t *testing.T) {
	_, err := FromMnemonic("not a real mnemonic phrase")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)

	m, err := GenerateMnemonic(24)
	require.NoError(t, err)
	_, err = FromMnemonicPath(m, "m/44'/784'/0/0'/0'")
	assert.Error(t, err)

	_, err = GenerateMnemonic(13)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	kp, err := Load(config.SignerConfig{})
	require.NoError(t, err)
	assert.Nil(t, kp)

	want, _ := FromSeed(seed(2))
	enc, _ := want.EncodePrivateKey()
	kp, err = Load(config.SignerConfig{PrivateKey: enc, Mnemonic: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, want.Address(), kp.Address())
}
