package wallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// DerivationPath is the default Ed25519 account path
const DerivationPath = "m/44'/784'/0'/0'/0'"

const hardened uint32 = 0x80000000

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// GenerateMnemonic returns a new BIP-39 phrase of 12, 15, 18, 21 or 24 words
func GenerateMnemonic(words int) (string, error) {
	switch words {
	case 12, 15, 18, 21, 24:
	default:
		return "", fmt.Errorf("unsupported mnemonic length %d", words)
	}
	entropy, err := bip39.NewEntropy(words / 3 * 32)
	if err != nil {
		return "", fmt.Errorf("generating entropy: %w", err)
	}
	return bip39.NewMnemonic(entropy)
}

// FromMnemonic derives the keypair at DerivationPath
func FromMnemonic(mnemonic string) (*Keypair, error) {
	return FromMnemonicPath(mnemonic, DerivationPath)
}

// FromMnemonicPath derives an Ed25519 keypair along a fully hardened SLIP-0010 path
func FromMnemonicPath(mnemonic, path string) (*Keypair, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	indexes, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	key, chain := slip10Master(bip39.NewSeed(mnemonic, ""))
	for _, i := range indexes {
		key, chain = slip10Child(key, chain, i)
	}
	return FromSeed(key)
}

func parsePath(path string) ([]uint32, error) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] != "m" {
		return nil, fmt.Errorf("invalid derivation path %q", path)
	}
	out := make([]uint32, 0, len(parts)-1)
	for _, p := range parts[1:] {
		if !strings.HasSuffix(p, "'") {
			return nil, fmt.Errorf("ed25519 path segment %q must be hardened", p)
		}
		var n uint32
		if _, err := fmt.Sscanf(strings.TrimSuffix(p, "'"), "%d", &n); err != nil || n >= hardened {
			return nil, fmt.Errorf("invalid derivation path segment %q", p)
		}
		out = append(out, n|hardened)
	}
	return out, nil
}

func slip10Master(seed []byte) (key, chain []byte) {
	mac := hmac.New(sha512.New, []byte("ed25519 seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

func slip10Child(key, chain []byte, index uint32) ([]byte, []byte) {
	data := make([]byte, 0, 37)
	data = append(data, 0x00)
	data = append(data, key...)
	data = binary.BigEndian.AppendUint32(data, index)

	mac := hmac.New(sha512.New, chain)
	mac.Write(data)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}
