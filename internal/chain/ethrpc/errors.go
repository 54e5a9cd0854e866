package ethrpc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/untilthen/untilthen-go/internal/errs"
)

// The sagas only ever see taxonomy-tagged errors; this file is the single
// place raw node and signer failures are narrowed.

func isRevert(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution reverted") || strings.Contains(msg, "always failing transaction")
}

// mapSubmitError narrows failures of value-moving submissions other than
// claims: a signer refusal stays ErrUserRejected, everything else is a
// submission failure.
func mapSubmitError(err error) error {
	if errors.Is(err, errs.ErrUserRejected) {
		return err
	}
	return fmt.Errorf("%w: %v", errs.ErrSubmission, err)
}

// mapClaimError additionally narrows contract rejections: the claim
// preconditions (release time reached, caller is receiver, gift pending) are
// enforced on-chain, and a revert during gas estimation or execution means
// the gift is not claimable.
func mapClaimError(err error) error {
	if errors.Is(err, errs.ErrUserRejected) {
		return err
	}
	if isRevert(err) {
		return fmt.Errorf("%w: %v", errs.ErrNotClaimable, err)
	}
	return fmt.Errorf("%w: %v", errs.ErrSubmission, err)
}
