package saga

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/untilthen/untilthen-go/internal/content"
	"github.com/untilthen/untilthen-go/internal/errs"
)

// Viewer fetches and opens claimed gift content.
type Viewer struct {
	store content.Store
	dec   content.Decrypter
	log   *zap.Logger
}

// NewViewer constructs a Viewer with injected collaborators.
func NewViewer(store content.Store, dec content.Decrypter, log *zap.Logger) *Viewer {
	return &Viewer{store: store, dec: dec, log: log}
}

// View retrieves the public envelope at publicContentID and decrypts it with
// the wallet capability for account. A declined prompt returns
// errs.ErrDecryptionDeclined after logging only: it is a benign user choice
// and the presentation layer must not alert on it.
func (v *Viewer) View(ctx context.Context, account common.Address, publicContentID string) ([]byte, error) {
	env, err := v.store.FetchEnvelope(ctx, publicContentID)
	if err != nil {
		return nil, fmt.Errorf("fetch content %s: %w", publicContentID, err)
	}

	plaintext, err := v.dec.Decrypt(ctx, account, env.EncryptedContent)
	if err != nil {
		if errors.Is(err, errs.ErrDecryptionDeclined) {
			v.log.Info("decryption declined by user",
				zap.String("account", account.Hex()),
				zap.String("cid", publicContentID),
			)
			return nil, err
		}
		return nil, fmt.Errorf("decrypt content %s: %w", publicContentID, err)
	}
	return plaintext, nil
}
