package saga

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/untilthen/untilthen-go/internal/chain"
	"github.com/untilthen/untilthen-go/internal/content"
	"github.com/untilthen/untilthen-go/internal/errs"
	"github.com/untilthen/untilthen-go/internal/model"
)

// Shared fakes for the saga tests, in the style of the service-layer fakes.

type fakeGifts struct {
	submitCreates int
	lastCreate    chain.CreateParams
	createErr     error

	submitClaims int
	claimErr     error

	createdGiftID   uint64
	waitCreatedHang bool
	waitCreatedErr  error

	nftID           uint64
	waitClaimedHang bool
	waitClaimedErr  error

	records   map[uint64]*model.Gift
	senderIDs []uint64
	idsErr    error
}

var _ chain.Gifts = (*fakeGifts)(nil)

func (f *fakeGifts) SubmitCreate(_ context.Context, p chain.CreateParams) (*chain.TxRef, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.submitCreates++
	f.lastCreate = p
	return &chain.TxRef{Hash: common.HexToHash("0x1"), SubmittedBlock: 100}, nil
}

func (f *fakeGifts) SubmitClaim(_ context.Context, giftID uint64) (*chain.TxRef, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	f.submitClaims++
	return &chain.TxRef{Hash: common.HexToHash("0x2"), SubmittedBlock: 200}, nil
}

func (f *fakeGifts) WaitCreated(ctx context.Context, _, _ common.Address, _ uint64) (uint64, error) {
	if f.waitCreatedHang {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return f.createdGiftID, f.waitCreatedErr
}

func (f *fakeGifts) WaitClaimed(ctx context.Context, _ uint64, _ uint64) (uint64, error) {
	if f.waitClaimedHang {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return f.nftID, f.waitClaimedErr
}

func (f *fakeGifts) GiftByID(_ context.Context, id uint64) (*model.Gift, error) {
	g, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("gift %d: %w", id, errs.ErrUnknown)
	}
	return g, nil
}

func (f *fakeGifts) SenderGiftIDs(_ context.Context, _ common.Address) ([]uint64, error) {
	return f.senderIDs, f.idsErr
}

func (f *fakeGifts) ReceiverGiftIDs(_ context.Context, _ common.Address) ([]uint64, error) {
	return f.senderIDs, f.idsErr
}

type fakeCollectible struct {
	publicCID       string
	waitContentHang bool
	tokenURI        string
	tokenURIErr     error
}

var _ chain.Collectible = (*fakeCollectible)(nil)

func (f *fakeCollectible) WaitContentPublished(ctx context.Context, _ uint64, _ uint64) (string, error) {
	if f.waitContentHang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.publicCID, nil
}

func (f *fakeCollectible) TokenURI(_ context.Context, _ uint64) (string, error) {
	return f.tokenURI, f.tokenURIErr
}

type fakeToken struct {
	allowance  int64
	approves   int
	approved   int64
	waitMined  int
	approveErr error
}

var _ chain.Token = (*fakeToken)(nil)

func (f *fakeToken) Allowance(_ context.Context, _, _ common.Address) (*big.Int, error) {
	return big.NewInt(f.allowance), nil
}

func (f *fakeToken) Approve(_ context.Context, _ common.Address, amount *big.Int) (*chain.TxRef, error) {
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	f.approves++
	f.approved = amount.Int64()
	return &chain.TxRef{Hash: common.HexToHash("0x3"), SubmittedBlock: 50}, nil
}

func (f *fakeToken) WaitMined(_ context.Context, _ *chain.TxRef) error {
	f.waitMined++
	return nil
}

type fakeEncrypter struct {
	err   error
	calls int
}

var _ content.Encrypter = (*fakeEncrypter)(nil)

func (f *fakeEncrypter) Encrypt(plaintext []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls++
	return "ct:" + string(plaintext), nil
}

type fakeStore struct {
	cid      string
	uploads  int
	uploaded model.Envelope
	err      error

	envelope *model.Envelope
	fetchErr error
}

var _ content.Store = (*fakeStore)(nil)

func (f *fakeStore) UploadPrivate(_ context.Context, env model.Envelope) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads++
	f.uploaded = env
	return f.cid, nil
}

func (f *fakeStore) FetchEnvelope(_ context.Context, _ string) (*model.Envelope, error) {
	return f.envelope, f.fetchErr
}

type fakeDecrypter struct {
	plaintext []byte
	err       error
}

var _ content.Decrypter = (*fakeDecrypter)(nil)

func (f *fakeDecrypter) Decrypt(_ context.Context, _ common.Address, _ string) ([]byte, error) {
	return f.plaintext, f.err
}
