// Package content defines the ports for gift content handling: sealing to the
// receiver's public key, publication to the content store, and the wallet
// decryption capability.
package content

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/untilthen/untilthen-go/internal/model"
)

// Encrypter seals plaintext to a receiver's encryption public key. The
// ciphertext string is opaque to the workflow.
// Errors: errs.ErrEncryption (malformed or absent key, sealing failure).
type Encrypter interface {
	Encrypt(plaintext []byte, receiverPublicKey string) (string, error)
}

// Decrypter is the wallet-provider decryption capability. Never reimplemented
// by the workflow; local-key wallets provide one.
// Errors: errs.ErrDecryptionDeclined (benign refusal), errs.ErrUnknown.
type Decrypter interface {
	Decrypt(ctx context.Context, account common.Address, encryptedContent string) ([]byte, error)
}

// Store is the content storage collaborator.
type Store interface {
	// UploadPrivate pins the envelope privately and returns its content
	// identifier. Errors: errs.ErrUpload on any non-2xx response.
	UploadPrivate(ctx context.Context, env model.Envelope) (string, error)

	// FetchEnvelope retrieves a publicly readable envelope by identifier.
	FetchEnvelope(ctx context.Context, cid string) (*model.Envelope, error)
}
