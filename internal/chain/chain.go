// Package chain defines the ports the sagas use to reach the custody,
// collectible, and alternate-token contracts. Implementations map raw
// collaborator failures to the errs taxonomy before returning.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/untilthen/untilthen-go/internal/model"
)

// TxRef is the handle for a submitted transaction. SubmittedBlock anchors the
// poll side of event waits: an event emitted between submission and
// subscription registration is still found by polling from this block.
type TxRef struct {
	Hash           common.Hash
	SubmittedBlock uint64
}

// CreateParams are the arguments of the custody contract's createGift call.
type CreateParams struct {
	Receiver         common.Address
	ReleaseTimestamp uint64
	ContentHash      string   // empty when no attachment
	Yield            bool
	ERC20Amount      *big.Int // alt-token base units; zero otherwise
	Value            *big.Int // native wei attached to the call
}

// Gifts is the custody contract port.
type Gifts interface {
	// SubmitCreate submits the commitment transaction.
	// Errors: errs.ErrUserRejected, errs.ErrSubmission.
	SubmitCreate(ctx context.Context, p CreateParams) (*TxRef, error)

	// SubmitClaim submits the claim transaction for giftID.
	// Errors: errs.ErrUserRejected, errs.ErrNotClaimable, errs.ErrSubmission.
	SubmitClaim(ctx context.Context, giftID uint64) (*TxRef, error)

	// WaitCreated blocks until a GiftCreated(sender, receiver) event at or
	// after fromBlock is observed, returning the assigned gift id. The wait
	// combines a log subscription with polling from fromBlock; first hit
	// wins. Returns ctx.Err() when the context ends first.
	WaitCreated(ctx context.Context, sender, receiver common.Address, fromBlock uint64) (uint64, error)

	// WaitClaimed blocks until the GiftClaimed event for giftID is observed,
	// returning the minted collectible id. Same wait semantics as WaitCreated.
	WaitClaimed(ctx context.Context, giftID uint64, fromBlock uint64) (uint64, error)

	// GiftByID reads a gift record.
	GiftByID(ctx context.Context, id uint64) (*model.Gift, error)

	// SenderGiftIDs and ReceiverGiftIDs list gift ids by party.
	SenderGiftIDs(ctx context.Context, sender common.Address) ([]uint64, error)
	ReceiverGiftIDs(ctx context.Context, receiver common.Address) ([]uint64, error)
}

// Collectible is the gift-NFT contract port.
type Collectible interface {
	// WaitContentPublished blocks until ContentHashUpdated for tokenID is
	// observed, returning the public content identifier written by the
	// oracle callback. Same wait semantics as Gifts.WaitCreated.
	WaitContentPublished(ctx context.Context, tokenID uint64, fromBlock uint64) (string, error)

	// TokenURI reads the collectible's metadata document.
	TokenURI(ctx context.Context, tokenID uint64) (string, error)
}

// Token is the alternate ERC-20 token port gating the alt-token gift path.
type Token interface {
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)

	// Approve submits an approval for spender and returns its handle.
	// Errors: errs.ErrUserRejected, errs.ErrSubmission.
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (*TxRef, error)

	// WaitMined blocks until the referenced transaction is mined.
	WaitMined(ctx context.Context, ref *TxRef) error
}
