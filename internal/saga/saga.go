// Package saga drives the gift lifecycle workflows: creation, redemption,
// and the redemption-side content viewer. Each saga run is single-goroutine
// and owns its session; nothing is shared across runs except the injected
// read-only collaborators.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/untilthen/untilthen-go/internal/errs"
)

// CreateStep enumerates the creation saga's states.
type CreateStep int

const (
	CreateIdle CreateStep = iota
	CreateEncrypting
	CreateUploading
	CreateAwaitingSignature
	CreateAwaitingConfirmation
	CreateDone
	CreateError
)

func (s CreateStep) String() string {
	switch s {
	case CreateIdle:
		return "idle"
	case CreateEncrypting:
		return "encrypting"
	case CreateUploading:
		return "uploading"
	case CreateAwaitingSignature:
		return "awaiting signature"
	case CreateAwaitingConfirmation:
		return "awaiting confirmation"
	case CreateDone:
		return "done"
	case CreateError:
		return "error"
	default:
		return "unknown"
	}
}

// ClaimStep enumerates the redemption saga's states.
type ClaimStep int

const (
	ClaimIdle ClaimStep = iota
	ClaimAwaitingSignature
	ClaimAwaitingClaimEvent
	ClaimAwaitingContentEvent
	ClaimDone
	ClaimError
)

func (s ClaimStep) String() string {
	switch s {
	case ClaimIdle:
		return "idle"
	case ClaimAwaitingSignature:
		return "awaiting signature"
	case ClaimAwaitingClaimEvent:
		return "awaiting claim event"
	case ClaimAwaitingContentEvent:
		return "awaiting content event"
	case ClaimDone:
		return "done"
	case ClaimError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrSagaBusy reports a Run or Retry call on a session that is not in a
// startable state.
var ErrSagaBusy = errors.New("saga already running or finished")

// awaitBounded runs fn under a deadline. A deadline expiry maps to
// ErrConfirmationTimeout; cancellation of the parent context passes through
// untouched. The loser's continuation is abandoned: an event arriving after
// the timeout has no effect on the session.
func awaitBounded[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	wctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	v, err := fn(wctx)
	if err != nil && errors.Is(wctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return v, fmt.Errorf("%w after %s", errs.ErrConfirmationTimeout, d)
	}
	return v, err
}
