// Package fees implements the gift fee/amount model. Pure: same inputs,
// same quote, no side effects.
package fees

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/untilthen/untilthen-go/internal/model"
)

// ErrBelowMinimum indicates the requested amount does not cover the platform
// fee. Submission must be refused before any transaction is built.
var ErrBelowMinimum = errors.New("amount below platform fee minimum")

// Params holds the fee constants. All decimals are in source units
// (ether / whole tokens).
type Params struct {
	FlatFee     decimal.Decimal // platform surcharge, unit=none (added to total)
	Rate        decimal.Decimal // platform rate, native / alt-token units
	FloorNative decimal.Decimal // platform fee floor, native unit
	FloorAlt    decimal.Decimal // platform fee floor, alt-token unit
	ContentFee  decimal.Decimal // content publication surcharge per attachment

	// EnforceAltMinimum enables the local minimum check on the alt-token
	// path. Off by default: the contract deducts its fee token-side.
	EnforceAltMinimum bool
}

// Quote is the computed breakdown for one set of inputs.
type Quote struct {
	Amount      decimal.Decimal
	ContentFee  decimal.Decimal // zero without an attachment
	PlatformFee decimal.Decimal

	// PlatformFeeCharged reports whether the platform fee is part of
	// TotalNative (unit=none) or displayed only and deducted downstream
	// (native / alt-token units).
	PlatformFeeCharged bool

	// TotalNative is the native value attached to the commitment transaction.
	TotalNative decimal.Decimal

	// TokenAmount is the alt-token transfer covered by allowance; zero for
	// other units.
	TokenAmount decimal.Decimal
}

// ParseAmount parses a user-supplied decimal string in source units.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount %q must be positive", s)
	}
	return d, nil
}

// Compute derives the fee breakdown for the given amount, attachment
// presence, and value unit.
func (p Params) Compute(amount decimal.Decimal, hasAttachment bool, unit model.YieldUnit) Quote {
	q := Quote{Amount: amount}
	if hasAttachment {
		q.ContentFee = p.ContentFee
	}

	switch unit {
	case model.YieldNone:
		q.PlatformFee = p.FlatFee
		q.PlatformFeeCharged = true
	case model.YieldNative:
		q.PlatformFee = decimal.Max(amount.Mul(p.Rate), p.FloorNative)
	case model.YieldAltToken:
		q.PlatformFee = decimal.Max(amount.Mul(p.Rate), p.FloorAlt)
	}

	q.TotalNative = q.ContentFee
	if q.PlatformFeeCharged {
		q.TotalNative = q.TotalNative.Add(q.PlatformFee)
	}
	switch unit {
	case model.YieldNone, model.YieldNative:
		q.TotalNative = q.TotalNative.Add(amount)
	case model.YieldAltToken:
		q.TokenAmount = amount
	}
	return q
}

// Validate applies the pre-submission amount checks. The amount is compared
// against the platform fee itself, not the total.
func (p Params) Validate(q Quote, unit model.YieldUnit) error {
	switch unit {
	case model.YieldNone, model.YieldNative:
		if q.Amount.LessThan(q.PlatformFee) {
			return fmt.Errorf("%w: amount %s < fee %s", ErrBelowMinimum, q.Amount, q.PlatformFee)
		}
	case model.YieldAltToken:
		if p.EnforceAltMinimum && q.Amount.LessThan(q.PlatformFee) {
			return fmt.Errorf("%w: amount %s < fee %s", ErrBelowMinimum, q.Amount, q.PlatformFee)
		}
	}
	return nil
}

// weiPerUnit is 10^18, shared by the native and alt-token conversions.
var weiPerUnit = decimal.New(1, 18)

// ToWei converts a source-unit decimal to base units, truncating any
// precision beyond 18 decimals.
func ToWei(d decimal.Decimal) *big.Int {
	return d.Mul(weiPerUnit).Truncate(0).BigInt()
}
