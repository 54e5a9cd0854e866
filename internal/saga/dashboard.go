package saga

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/untilthen/untilthen-go/internal/chain"
	"github.com/untilthen/untilthen-go/internal/model"
)

// Dashboard serves the read-only gift listings backing the sent / received /
// claimed views.
type Dashboard struct {
	gifts chain.Gifts
	nft   chain.Collectible
}

// NewDashboard constructs a Dashboard.
func NewDashboard(gifts chain.Gifts, nft chain.Collectible) *Dashboard {
	return &Dashboard{gifts: gifts, nft: nft}
}

func (d *Dashboard) resolve(ctx context.Context, ids []uint64) ([]model.Gift, error) {
	out := make([]model.Gift, 0, len(ids))
	for _, id := range ids {
		g, err := d.gifts.GiftByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("gift %d: %w", id, err)
		}
		out = append(out, *g)
	}
	return out, nil
}

// Sent lists gifts created by sender, oldest first.
func (d *Dashboard) Sent(ctx context.Context, sender common.Address) ([]model.Gift, error) {
	ids, err := d.gifts.SenderGiftIDs(ctx, sender)
	if err != nil {
		return nil, err
	}
	return d.resolve(ctx, ids)
}

// Received lists gifts addressed to receiver, oldest first.
func (d *Dashboard) Received(ctx context.Context, receiver common.Address) ([]model.Gift, error) {
	ids, err := d.gifts.ReceiverGiftIDs(ctx, receiver)
	if err != nil {
		return nil, err
	}
	return d.resolve(ctx, ids)
}

// Claimed lists the receiver's gifts that have already been redeemed.
func (d *Dashboard) Claimed(ctx context.Context, receiver common.Address) ([]model.Gift, error) {
	all, err := d.Received(ctx, receiver)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, g := range all {
		if g.Status == model.GiftStatusClaimed {
			out = append(out, g)
		}
	}
	return out, nil
}

// CollectibleMetadata reads and parses the claimed collectible's tokenURI
// document. Both data: URIs (base64 or plain JSON) and raw JSON are accepted.
func (d *Dashboard) CollectibleMetadata(ctx context.Context, tokenID uint64) (*model.CollectibleMetadata, error) {
	uri, err := d.nft.TokenURI(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	doc, err := decodeTokenURI(uri)
	if err != nil {
		return nil, fmt.Errorf("token %d metadata: %w", tokenID, err)
	}
	var meta model.CollectibleMetadata
	if err := json.Unmarshal(doc, &meta); err != nil {
		return nil, fmt.Errorf("token %d metadata: %w", tokenID, err)
	}
	return &meta, nil
}

func decodeTokenURI(uri string) ([]byte, error) {
	switch {
	case strings.HasPrefix(uri, "data:application/json;base64,"):
		return base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:application/json;base64,"))
	case strings.HasPrefix(uri, "data:application/json,"):
		return []byte(strings.TrimPrefix(uri, "data:application/json,")), nil
	case strings.HasPrefix(uri, "{"):
		return []byte(uri), nil
	default:
		return nil, fmt.Errorf("unsupported token uri scheme %q", uri)
	}
}
