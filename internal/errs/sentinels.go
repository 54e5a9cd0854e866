// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Workflow taxonomy. Adapters map raw collaborator failures to exactly one of
// these; the sagas never see a heterogeneous underlying error.
var (
	// ErrEncryption indicates the receiver public key was malformed or absent,
	// or envelope sealing failed.
	ErrEncryption = errors.New("encryption failed")

	// ErrUpload indicates a non-2xx response from the content store.
	ErrUpload = errors.New("upload failed")

	// ErrUserRejected indicates the signer declined the transaction.
	ErrUserRejected = errors.New("user rejected")

	// ErrSubmission indicates a node/RPC failure while submitting a transaction.
	ErrSubmission = errors.New("submission failed")

	// ErrNotClaimable indicates the custody contract rejected a claim
	// (too early, wrong caller, or gift not pending).
	ErrNotClaimable = errors.New("gift not claimable")

	// ErrConfirmationTimeout indicates the wait for an on-chain event expired.
	// It says nothing about the underlying operation, which may still succeed.
	ErrConfirmationTimeout = errors.New("confirmation timeout")

	// ErrDecryptionDeclined indicates the user declined the wallet decryption
	// prompt. Benign: logged, never alerted.
	ErrDecryptionDeclined = errors.New("decryption declined")

	// ErrUnknown is the catch-all. Wrappers preserve the original message for
	// diagnostic display.
	ErrUnknown = errors.New("unknown error")
)
