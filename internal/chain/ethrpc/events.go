package ethrpc

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// Event waits are a poll+subscribe hybrid: the log subscription catches pushes
// and the poll covers the window between submission and subscription
// registration. First matching delivery wins; the caller bounds the wait with
// its context and a later-arriving event has no effect.

func addrTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

func uintTopic(v uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(v))
}

func (c *Client) waitForLog(ctx context.Context, q ethereum.FilterQuery) (types.Log, error) {
	push := make(chan types.Log, 8)
	subErr := make(<-chan error) // never fires when subscription is unavailable

	sub, err := c.backend.SubscribeFilterLogs(ctx, q, push)
	if err != nil {
		c.log.Debug("log subscription unavailable, polling only", zap.Error(err))
	} else {
		defer sub.Unsubscribe()
		subErr = sub.Err()
	}

	poll := func() (types.Log, bool) {
		found, err := c.backend.FilterLogs(ctx, q)
		if err != nil {
			c.log.Warn("log poll failed", zap.Error(err))
			return types.Log{}, false
		}
		for _, lg := range found {
			if !lg.Removed {
				return lg, true
			}
		}
		return types.Log{}, false
	}

	// Immediate poll covers events finalized before registration.
	if lg, ok := poll(); ok {
		return lg, nil
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return types.Log{}, ctx.Err()
		case lg := <-push:
			if !lg.Removed {
				return lg, nil
			}
		case err := <-subErr:
			c.log.Warn("log subscription dropped, polling only", zap.Error(err))
			subErr = make(<-chan error)
		case <-ticker.C:
			if lg, ok := poll(); ok {
				return lg, nil
			}
		}
	}
}

// WaitCreated blocks until GiftCreated(sender, receiver) at or after fromBlock.
func (c *Client) WaitCreated(ctx context.Context, sender, receiver common.Address, fromBlock uint64) (uint64, error) {
	ev := c.giftsABI.Events["GiftCreated"]
	lg, err := c.waitForLog(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{c.custodyAddr},
		Topics:    [][]common.Hash{{ev.ID}, {addrTopic(sender)}, {addrTopic(receiver)}},
	})
	if err != nil {
		return 0, err
	}

	vals, err := c.giftsABI.Unpack("GiftCreated", lg.Data)
	if err != nil {
		return 0, fmt.Errorf("unpack GiftCreated: %w", err)
	}
	return vals[0].(*big.Int).Uint64(), nil
}

// WaitClaimed blocks until GiftClaimed for giftID, returning the minted
// collectible id.
func (c *Client) WaitClaimed(ctx context.Context, giftID uint64, fromBlock uint64) (uint64, error) {
	ev := c.giftsABI.Events["GiftClaimed"]
	lg, err := c.waitForLog(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{c.custodyAddr},
		Topics:    [][]common.Hash{{ev.ID}, nil, {uintTopic(giftID)}},
	})
	if err != nil {
		return 0, err
	}

	// Data layout: giftAmountToClaim, nftId, requestId.
	vals, err := c.giftsABI.Unpack("GiftClaimed", lg.Data)
	if err != nil {
		return 0, fmt.Errorf("unpack GiftClaimed: %w", err)
	}
	return vals[1].(*big.Int).Uint64(), nil
}

// WaitContentPublished blocks until ContentHashUpdated for tokenID, returning
// the public content identifier.
func (c *Client) WaitContentPublished(ctx context.Context, tokenID uint64, fromBlock uint64) (string, error) {
	ev := c.nftABI.Events["ContentHashUpdated"]
	lg, err := c.waitForLog(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{c.nftAddr},
		Topics:    [][]common.Hash{{ev.ID}, {uintTopic(tokenID)}},
	})
	if err != nil {
		return "", err
	}

	vals, err := c.nftABI.Unpack("ContentHashUpdated", lg.Data)
	if err != nil {
		return "", fmt.Errorf("unpack ContentHashUpdated: %w", err)
	}
	return vals[0].(string), nil
}
