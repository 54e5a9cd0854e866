// Package eciesenc seals gift content with ECIES over secp256k1, matching the
// wallet's encryption keys.
package eciesenc

import (
	"encoding/hex"
	"fmt"
	"strings"

	ecies "github.com/ecies/go/v2"

	"github.com/untilthen/untilthen-go/internal/errs"
)

// Encrypter implements content.Encrypter.
type Encrypter struct{}

func New() *Encrypter { return &Encrypter{} }

// Encrypt seals plaintext to the hex-encoded secp256k1 public key and returns
// a hex ciphertext.
func (e *Encrypter) Encrypt(plaintext []byte, receiverPublicKey string) (string, error) {
	key := strings.TrimPrefix(strings.TrimSpace(receiverPublicKey), "0x")
	if key == "" {
		return "", fmt.Errorf("%w: empty receiver public key", errs.ErrEncryption)
	}
	pub, err := ecies.NewPublicKeyFromHex(key)
	if err != nil {
		return "", fmt.Errorf("%w: bad receiver public key: %v", errs.ErrEncryption, err)
	}
	ct, err := ecies.Encrypt(pub, plaintext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrEncryption, err)
	}
	return hex.EncodeToString(ct), nil
}

// Decrypt opens a hex ciphertext with the given private key. Used by local
// wallets to provide the decryption capability.
func Decrypt(priv *ecies.PrivateKey, ciphertextHex string) ([]byte, error) {
	ct, err := hex.DecodeString(strings.TrimPrefix(ciphertextHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	return ecies.Decrypt(priv, ct)
}
