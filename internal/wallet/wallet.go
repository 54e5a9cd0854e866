// Package wallet provides a local-key wallet: transaction signing, the
// decryption capability, and the encryption public key a sender needs to
// seal content for this account.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	ecies "github.com/ecies/go/v2"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/untilthen/untilthen-go/internal/content"
	"github.com/untilthen/untilthen-go/internal/errs"
)

// Approver decides whether a requested wallet operation proceeds. A nil
// Approver approves everything; returning false models the user declining
// the wallet prompt.
type Approver func(ctx context.Context, operation string) bool

// Wallet holds one secp256k1 key used for both signing and ECIES decryption.
type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	approve Approver
	log     *zap.Logger
}

var _ content.Decrypter = (*Wallet)(nil)

// FromHexKey builds a Wallet from a hex-encoded private key.
func FromHexKey(hexKey string, approve Approver, log *zap.Logger) (*Wallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Wallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		approve: approve,
		log:     log,
	}, nil
}

// Address returns the wallet's account address.
func (w *Wallet) Address() common.Address { return w.address }

// EncryptionPublicKey returns the compressed secp256k1 public key, the string
// a receiver shares with a sender so gift content can be sealed to them.
func (w *Wallet) EncryptionPublicKey() string {
	priv := ecies.NewPrivateKeyFromBytes(crypto.FromECDSA(w.key))
	return priv.PublicKey.Hex(true)
}

// SignerFn returns the signing capability for transactions on chainID. A
// declined approval surfaces as errs.ErrUserRejected.
func (w *Wallet) SignerFn(chainID *big.Int) bind.SignerFn {
	signer := types.LatestSignerForChainID(chainID)
	return func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if addr != w.address {
			return nil, fmt.Errorf("unknown account %s", addr.Hex())
		}
		if w.approve != nil && !w.approve(context.Background(), "sign transaction") {
			return nil, fmt.Errorf("sign transaction: %w", errs.ErrUserRejected)
		}
		return types.SignTx(tx, signer, w.key)
	}
}

// Decrypt implements the wallet decryption capability over ECIES. A declined
// prompt surfaces as errs.ErrDecryptionDeclined; everything else is wrapped
// as errs.ErrUnknown with the original message preserved.
func (w *Wallet) Decrypt(ctx context.Context, account common.Address, encryptedContent string) ([]byte, error) {
	if account != w.address {
		return nil, fmt.Errorf("%w: account %s not held by this wallet", errs.ErrUnknown, account.Hex())
	}
	if w.approve != nil && !w.approve(ctx, "decrypt content") {
		return nil, errs.ErrDecryptionDeclined
	}

	ct, err := decodeHex(encryptedContent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnknown, err)
	}
	priv := ecies.NewPrivateKeyFromBytes(crypto.FromECDSA(w.key))
	pt, err := ecies.Decrypt(priv, ct)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnknown, err)
	}
	return pt, nil
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}
