package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/untilthen/untilthen-go/internal/chain"
)

// ClaimResult is exposed once a redemption run reaches ClaimDone.
type ClaimResult struct {
	NftID uint64

	// PublicContentID is the publicly readable content identifier; empty for
	// gifts created without an attachment.
	PublicContentID string
}

// ClaimSession is the ephemeral state of one redemption run.
type ClaimSession struct {
	ID     uuid.UUID
	giftID uint64

	step   ClaimStep
	result ClaimResult
	err    error

	onStep func(ClaimStep)
}

// Step returns the session's current state.
func (s *ClaimSession) Step() ClaimStep { return s.step }

// Result is valid once Step() == ClaimDone.
func (s *ClaimSession) Result() ClaimResult { return s.result }

// Err returns the terminal error; valid when Step() == ClaimError.
func (s *ClaimSession) Err() error { return s.err }

func (s *ClaimSession) setStep(step ClaimStep) {
	s.step = step
	if s.onStep != nil {
		s.onStep(step)
	}
}

func (s *ClaimSession) fail(err error) error {
	s.err = err
	s.setStep(ClaimError)
	return err
}

// Redeemer claims gifts after their release time and surfaces content
// availability.
type Redeemer struct {
	gifts chain.Gifts
	nft   chain.Collectible

	// confirmWait bounds the claim-event wait; contentWait bounds the
	// oracle-driven publication wait, which depends on an off-chain
	// computation and gets the longer budget.
	confirmWait time.Duration
	contentWait time.Duration
	log         *zap.Logger
}

// NewRedeemer constructs a Redeemer with injected collaborators.
func NewRedeemer(gifts chain.Gifts, nft chain.Collectible, confirmWait, contentWait time.Duration, log *zap.Logger) *Redeemer {
	return &Redeemer{
		gifts:       gifts,
		nft:         nft,
		confirmWait: confirmWait,
		contentWait: contentWait,
		log:         log,
	}
}

// NewSession starts a redemption session for giftID at ClaimIdle.
func (r *Redeemer) NewSession(giftID uint64, onStep func(ClaimStep)) *ClaimSession {
	return &ClaimSession{
		ID:     uuid.Must(uuid.NewV4()),
		giftID: giftID,
		step:   ClaimIdle,
		onStep: onStep,
	}
}

// Run drives the session to ClaimDone or ClaimError. Claim preconditions are
// the contract's to enforce; a rejection surfaces as errs.ErrNotClaimable.
// The content-event stage is entered iff the gift carried content at creation.
func (r *Redeemer) Run(ctx context.Context, s *ClaimSession) (ClaimResult, error) {
	if s.step != ClaimIdle {
		return ClaimResult{}, fmt.Errorf("%w: step %s", ErrSagaBusy, s.step)
	}

	// Read before submitting: the ContentHash decides the content-event
	// gating and is immutable after creation.
	gift, err := r.gifts.GiftByID(ctx, s.giftID)
	if err != nil {
		return ClaimResult{}, s.fail(err)
	}

	s.setStep(ClaimAwaitingSignature)
	ref, err := r.gifts.SubmitClaim(ctx, s.giftID)
	if err != nil {
		return ClaimResult{}, s.fail(err)
	}

	s.setStep(ClaimAwaitingClaimEvent)
	nftID, err := awaitBounded(ctx, r.confirmWait, func(wctx context.Context) (uint64, error) {
		return r.gifts.WaitClaimed(wctx, s.giftID, ref.SubmittedBlock)
	})
	if err != nil {
		return ClaimResult{}, s.fail(err)
	}
	s.result.NftID = nftID

	if gift.HasContent() {
		s.setStep(ClaimAwaitingContentEvent)
		publicID, err := awaitBounded(ctx, r.contentWait, func(wctx context.Context) (string, error) {
			return r.nft.WaitContentPublished(wctx, nftID, ref.SubmittedBlock)
		})
		if err != nil {
			return ClaimResult{}, s.fail(err)
		}
		s.result.PublicContentID = publicID
	}

	s.setStep(ClaimDone)
	r.log.Info("gift claimed",
		zap.Uint64("gift_id", s.giftID),
		zap.Uint64("nft_id", nftID),
		zap.String("session", s.ID.String()),
	)
	return s.result, nil
}

// Retry re-runs a failed redemption with the same gift id.
func (r *Redeemer) Retry(ctx context.Context, s *ClaimSession) (ClaimResult, error) {
	if s.step != ClaimError {
		return ClaimResult{}, fmt.Errorf("%w: retry from step %s", ErrSagaBusy, s.step)
	}
	s.err = nil
	s.result = ClaimResult{}
	s.setStep(ClaimIdle)
	return r.Run(ctx, s)
}
