// Package wallet holds Ed25519 keypairs in the Sui account format.
package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/blake2b"

	"github.com/meur/mintforge/internal/config"
)

// FlagEd25519 is the signature scheme flag for Ed25519
const FlagEd25519 byte = 0x00

// PrivateKeyPrefix is the bech32 human-readable part of exported keys
const PrivateKeyPrefix = "suiprivkey"

var (
	ErrInvalidKey     = errors.New("invalid private key")
	ErrUnsupportedKey = errors.New("unsupported key scheme")
)

// intent bytes for a transaction-data message: scope, version, app id
var txIntent = []byte{0, 0, 0}

// Keypair signs transactions on behalf of one address
type Keypair struct {
	priv ed25519.PrivateKey
}

// Generate creates a random keypair
func Generate() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return &Keypair{priv: priv}, nil
}

// FromSeed builds a keypair from a 32-byte Ed25519 seed
func FromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed is %d bytes", ErrInvalidKey, len(seed))
	}
	return &Keypair{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// FromHex accepts a hex seed with or without 0x
func FromHex(s string) (*Keypair, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return FromSeed(b)
}

// FromBech32 decodes a suiprivkey1... string
func FromBech32(s string) (*Keypair, error) {
	hrp, data, err := bech32.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if hrp != PrivateKeyPrefix {
		return nil, fmt.Errorf("%w: prefix %q", ErrInvalidKey, hrp)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != 1+ed25519.SeedSize {
		return nil, fmt.Errorf("%w: payload is %d bytes", ErrInvalidKey, len(raw))
	}
	if raw[0] != FlagEd25519 {
		return nil, fmt.Errorf("%w: flag 0x%02x", ErrUnsupportedKey, raw[0])
	}
	return FromSeed(raw[1:])
}

// Parse accepts the bech32 or hex form
func Parse(s string) (*Keypair, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, PrivateKeyPrefix) {
		return FromBech32(s)
	}
	return FromHex(s)
}

// PublicKey returns the raw 32-byte public key
func (k *Keypair) PublicKey() ed25519.PublicKey {
	return k.priv.Public().(ed25519.PublicKey)
}

// Address is 0x followed by hex(blake2b-256(flag || pubkey))
func (k *Keypair) Address() string {
	return AddressOf(k.PublicKey())
}

// AddressOf derives the account address of an Ed25519 public key
func AddressOf(pub ed25519.PublicKey) string {
	h := blake2b.Sum256(append([]byte{FlagEd25519}, pub...))
	return "0x" + hex.EncodeToString(h[:])
}

// EncodePrivateKey exports the seed as suiprivkey1...
func (k *Keypair) EncodePrivateKey() (string, error) {
	payload := append([]byte{FlagEd25519}, k.priv.Seed()...)
	conv, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(PrivateKeyPrefix, conv)
}

// SignTransaction signs base64 tx bytes and returns the serialized signature
func (k *Keypair) SignTransaction(txBytes string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(txBytes)
	if err != nil {
		return "", fmt.Errorf("decoding tx bytes: %w", err)
	}
	digest := blake2b.Sum256(append(append([]byte{}, txIntent...), raw...))
	sig := ed25519.Sign(k.priv, digest[:])

	out := make([]byte, 0, 1+len(sig)+ed25519.PublicKeySize)
	out = append(out, FlagEd25519)
	out = append(out, sig...)
	out = append(out, k.PublicKey()...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// VerifyTransaction checks a serialized signature over tx bytes and returns the signer address
func VerifyTransaction(txBytes, signature string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(txBytes)
	if err != nil {
		return "", fmt.Errorf("decoding tx bytes: %w", err)
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return "", fmt.Errorf("decoding signature: %w", err)
	}
	if len(sig) > 0 && sig[0] != FlagEd25519 {
		return "", fmt.Errorf("%w: flag 0x%02x", ErrUnsupportedKey, sig[0])
	}
	if len(sig) != 1+ed25519.SignatureSize+ed25519.PublicKeySize {
		return "", fmt.Errorf("signature is %d bytes", len(sig))
	}
	pub := ed25519.PublicKey(sig[1+ed25519.SignatureSize:])
	digest := blake2b.Sum256(append(append([]byte{}, txIntent...), raw...))
	if !ed25519.Verify(pub, digest[:], sig[1:1+ed25519.SignatureSize]) {
		return "", errors.New("signature does not verify")
	}
	return AddressOf(pub), nil
}

// Load returns the configured signer, or nil when no key material is set
func Load(cfg config.SignerConfig) (*Keypair, error) {
	switch {
	case cfg.PrivateKey != "":
		return Parse(cfg.PrivateKey)
	case cfg.Mnemonic != "":
		return FromMnemonic(cfg.Mnemonic)
	}
	return nil, nil
}
