package saga

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/untilthen/untilthen-go/internal/chain"
	"github.com/untilthen/untilthen-go/internal/content"
	"github.com/untilthen/untilthen-go/internal/errs"
	"github.com/untilthen/untilthen-go/internal/fees"
	"github.com/untilthen/untilthen-go/internal/model"
)

// CreateInput is everything the sender supplies for one gift.
type CreateInput struct {
	Receiver    common.Address
	ReleaseTime time.Time
	AmountText  string // decimal string in source units
	Unit        model.YieldUnit

	// Attachment is the optional plaintext content; ReceiverPublicKey is
	// required when Attachment is non-nil.
	Attachment        []byte
	ReceiverPublicKey string
}

// CreateSession is the ephemeral state of one creation run. It lives for one
// interaction, is never persisted, and must not be shared across goroutines.
type CreateSession struct {
	ID    uuid.UUID
	input CreateInput

	step      CreateStep
	contentID string
	txRef     *chain.TxRef
	giftID    uint64
	err       error

	// submitted guards the one-transaction-per-run invariant and gates the
	// duplicate check on retry after a confirmation timeout.
	submitted bool

	onStep func(CreateStep)
}

// Step returns the session's current state.
func (s *CreateSession) Step() CreateStep { return s.step }

// GiftID returns the assigned gift id; valid once Step() == CreateDone.
func (s *CreateSession) GiftID() uint64 { return s.giftID }

// Err returns the terminal error; valid when Step() == CreateError.
func (s *CreateSession) Err() error { return s.err }

func (s *CreateSession) setStep(step CreateStep) {
	s.step = step
	if s.onStep != nil {
		s.onStep(step)
	}
}

func (s *CreateSession) fail(err error) error {
	s.err = err
	s.setStep(CreateError)
	return err
}

// Creator drives gifts from user input to an on-chain commitment.
type Creator struct {
	sender  common.Address
	custody common.Address // approval spender on the alt-token path

	gifts chain.Gifts
	token chain.Token
	enc   content.Encrypter
	store content.Store

	fees        fees.Params
	confirmWait time.Duration
	log         *zap.Logger
}

// NewCreator constructs a Creator with injected collaborators.
func NewCreator(sender, custody common.Address, gifts chain.Gifts, token chain.Token,
	enc content.Encrypter, store content.Store, feeParams fees.Params,
	confirmWait time.Duration, log *zap.Logger) *Creator {
	return &Creator{
		sender:      sender,
		custody:     custody,
		gifts:       gifts,
		token:       token,
		enc:         enc,
		store:       store,
		fees:        feeParams,
		confirmWait: confirmWait,
		log:         log,
	}
}

// Quote evaluates the fee model for display. Pure; safe to call on every
// input change.
func (c *Creator) Quote(amountText string, hasAttachment bool, unit model.YieldUnit) (fees.Quote, error) {
	amount, err := fees.ParseAmount(amountText)
	if err != nil {
		return fees.Quote{}, err
	}
	return c.fees.Compute(amount, hasAttachment, unit), nil
}

// NewSession starts a session at CreateIdle. onStep, if non-nil, observes
// every state transition (the presentation layer's progress labels).
func (c *Creator) NewSession(input CreateInput, onStep func(CreateStep)) *CreateSession {
	return &CreateSession{
		ID:     uuid.Must(uuid.NewV4()),
		input:  input,
		step:   CreateIdle,
		onStep: onStep,
	}
}

// Run drives the session to CreateDone or CreateError and returns the
// assigned gift id. Exactly one commitment transaction is submitted per
// successful run.
func (c *Creator) Run(ctx context.Context, s *CreateSession) (uint64, error) {
	if s.step != CreateIdle {
		return 0, fmt.Errorf("%w: step %s", ErrSagaBusy, s.step)
	}
	if s.submitted {
		return 0, fmt.Errorf("%w: commitment already submitted", ErrSagaBusy)
	}

	amount, err := fees.ParseAmount(s.input.AmountText)
	if err != nil {
		return 0, s.fail(err)
	}
	hasAttachment := len(s.input.Attachment) > 0
	quote := c.fees.Compute(amount, hasAttachment, s.input.Unit)
	if err := c.fees.Validate(quote, s.input.Unit); err != nil {
		return 0, s.fail(err)
	}

	if hasAttachment && s.contentID == "" {
		if err := c.prepareContent(ctx, s); err != nil {
			return 0, s.fail(err)
		}
	}

	s.setStep(CreateAwaitingSignature)

	if s.input.Unit == model.YieldAltToken {
		if err := c.ensureAllowance(ctx, fees.ToWei(quote.TokenAmount)); err != nil {
			return 0, s.fail(err)
		}
	}

	ref, err := c.gifts.SubmitCreate(ctx, chain.CreateParams{
		Receiver:         s.input.Receiver,
		ReleaseTimestamp: uint64(s.input.ReleaseTime.Unix()),
		ContentHash:      s.contentID,
		Yield:            s.input.Unit != model.YieldNone,
		ERC20Amount:      fees.ToWei(quote.TokenAmount),
		Value:            fees.ToWei(quote.TotalNative),
	})
	if err != nil {
		return 0, s.fail(err)
	}
	s.submitted = true
	s.txRef = ref

	s.setStep(CreateAwaitingConfirmation)
	giftID, err := awaitBounded(ctx, c.confirmWait, func(wctx context.Context) (uint64, error) {
		return c.gifts.WaitCreated(wctx, c.sender, s.input.Receiver, ref.SubmittedBlock)
	})
	if err != nil {
		// A timed-out wait says nothing about the commitment itself; the
		// transaction may still be mined later.
		return 0, s.fail(err)
	}

	s.giftID = giftID
	s.setStep(CreateDone)
	c.log.Info("gift created",
		zap.Uint64("gift_id", giftID),
		zap.String("session", s.ID.String()),
	)
	return giftID, nil
}

// prepareContent encrypts and publishes the attachment. The resulting content
// identifier is kept on the session so a retry does not re-pin the blob.
func (c *Creator) prepareContent(ctx context.Context, s *CreateSession) error {
	s.setStep(CreateEncrypting)
	ciphertext, err := c.enc.Encrypt(s.input.Attachment, s.input.ReceiverPublicKey)
	if err != nil {
		return err
	}

	s.setStep(CreateUploading)
	cid, err := c.store.UploadPrivate(ctx, model.Envelope{
		EncryptedContent: ciphertext,
		Sender:           c.sender.Hex(),
		Timestamp:        time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	s.contentID = cid
	return nil
}

// ensureAllowance tops up the custody contract's allowance when the current
// one does not cover the token amount.
func (c *Creator) ensureAllowance(ctx context.Context, need *big.Int) error {
	current, err := c.token.Allowance(ctx, c.sender, c.custody)
	if err != nil {
		return fmt.Errorf("%w: allowance: %v", errs.ErrSubmission, err)
	}
	if current.Cmp(need) >= 0 {
		return nil
	}
	ref, err := c.token.Approve(ctx, c.custody, need)
	if err != nil {
		return err
	}
	if err := c.token.WaitMined(ctx, ref); err != nil {
		return err
	}
	return nil
}

// Retry re-runs a failed session with its inputs preserved. After a
// confirmation timeout the commitment may have succeeded on-chain, so the
// sender's gift list is consulted first; a matching just-created gift
// resolves the session without a second submission.
func (c *Creator) Retry(ctx context.Context, s *CreateSession) (uint64, error) {
	if s.step != CreateError {
		return 0, fmt.Errorf("%w: retry from step %s", ErrSagaBusy, s.step)
	}

	if s.submitted && errors.Is(s.err, errs.ErrConfirmationTimeout) {
		if id, ok := c.findSubmittedGift(ctx, s); ok {
			s.giftID = id
			s.err = nil
			s.setStep(CreateDone)
			c.log.Info("gift found on retry, not resubmitting",
				zap.Uint64("gift_id", id),
				zap.String("session", s.ID.String()),
			)
			return id, nil
		}
	}

	s.err = nil
	s.txRef = nil
	s.submitted = false
	s.setStep(CreateIdle)
	return c.Run(ctx, s)
}

func (c *Creator) findSubmittedGift(ctx context.Context, s *CreateSession) (uint64, bool) {
	ids, err := c.gifts.SenderGiftIDs(ctx, c.sender)
	if err != nil {
		c.log.Warn("duplicate check failed, proceeding with resubmission", zap.Error(err))
		return 0, false
	}
	release := uint64(s.input.ReleaseTime.Unix())
	// Newest first: the candidate was created moments ago.
	for i := len(ids) - 1; i >= 0; i-- {
		g, err := c.gifts.GiftByID(ctx, ids[i])
		if err != nil {
			c.log.Warn("duplicate check read failed", zap.Uint64("gift_id", ids[i]), zap.Error(err))
			continue
		}
		if g.Receiver == s.input.Receiver && g.ReleaseTimestamp == release && g.ContentHash == s.contentID {
			return g.Id, true
		}
	}
	return 0, false
}
