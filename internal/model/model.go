// Package model defines domain entities shared by sagas, adapters, and servers.
package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// GiftStatus mirrors the custody contract's status enum. It is monotonic:
// Absent -> Pending (on creation) -> Claimed (on redemption), never back.
type GiftStatus uint8

const (
	GiftStatusAbsent GiftStatus = iota
	GiftStatusPending
	GiftStatusClaimed
)

func (s GiftStatus) String() string {
	switch s {
	case GiftStatusAbsent:
		return "ABSENT"
	case GiftStatusPending:
		return "PENDING"
	case GiftStatusClaimed:
		return "CLAIMED"
	default:
		return "UNKNOWN"
	}
}

// YieldUnit selects the value unit a gift is denominated in.
type YieldUnit int

const (
	// YieldNone transfers native currency with no yield accrual.
	YieldNone YieldUnit = iota
	// YieldNative stakes the committed native currency.
	YieldNative
	// YieldAltToken commits the designated ERC-20 token instead.
	YieldAltToken
)

func (u YieldUnit) String() string {
	switch u {
	case YieldNone:
		return "none"
	case YieldNative:
		return "native"
	case YieldAltToken:
		return "alt-token"
	default:
		return "unknown"
	}
}

// Gift is the on-chain record as read back via getGiftById. The workflow
// never mutates it directly; all writes go through transactions.
type Gift struct {
	Id               uint64
	Sender           common.Address
	Receiver         common.Address
	Amount           *big.Int // wei or token base units, per unit flags
	ReleaseTimestamp uint64   // unix seconds; earliest claim time
	Status           GiftStatus
	ContentHash      string // immutable once set at creation; empty if no attachment
	IsYield          bool
	LinkYield        bool
	NftClaimedId     uint64 // zero until claimed
}

// HasContent reports whether the gift carried an attachment at creation.
func (g *Gift) HasContent() bool { return g.ContentHash != "" }

// Claimable reports whether a claim by receiver at now would satisfy the
// contract's preconditions. Informational only: the contract is the authority.
func (g *Gift) Claimable(receiver common.Address, now time.Time) bool {
	return g.Status == GiftStatusPending &&
		g.Receiver == receiver &&
		uint64(now.Unix()) >= g.ReleaseTimestamp
}

// Envelope is the JSON object pinned by the upload proxy and later mirrored
// to public storage by the oracle function. Field names are part of the wire
// format shared with the storage collaborator.
type Envelope struct {
	EncryptedContent string `json:"encryptedContent"`
	Sender           string `json:"sender"`
	Timestamp        int64  `json:"timestamp"`
}

// CollectibleMetadata is the subset of the claimed collectible's tokenURI
// JSON the dashboard reads.
type CollectibleMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ContentHash string `json:"contentHash,omitempty"`
}
