// Package ethrpc implements the chain ports over an Ethereum JSON-RPC node.
package ethrpc

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/untilthen/untilthen-go/internal/chain"
	"github.com/untilthen/untilthen-go/internal/config"
	"github.com/untilthen/untilthen-go/internal/errs"
	"github.com/untilthen/untilthen-go/internal/model"
)

// Backend is the slice of ethclient the adapter uses. Narrowed for tests.
type Backend interface {
	bind.ContractBackend
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

var _ Backend = (*ethclient.Client)(nil)

// Client implements chain.Gifts, chain.Collectible, and chain.Token against
// one node connection and one signing account.
type Client struct {
	backend Backend
	log     *zap.Logger

	account common.Address
	signer  bind.SignerFn

	gifts *bind.BoundContract
	nft   *bind.BoundContract
	token *bind.BoundContract

	giftsABI abi.ABI
	nftABI   abi.ABI

	custodyAddr common.Address
	nftAddr     common.Address
	tokenAddr   common.Address

	pollInterval time.Duration
}

var (
	_ chain.Gifts       = (*Client)(nil)
	_ chain.Collectible = (*Client)(nil)
	_ chain.Token       = (*Client)(nil)
)

// Dial connects to the node at rpcURL. A websocket URL enables push log
// subscriptions; with plain HTTP the event waits fall back to polling only.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	return ethclient.DialContext(ctx, rpcURL)
}

// New constructs a Client. The signer is the wallet capability: it may refuse
// with errs.ErrUserRejected, which submits surface unchanged.
func New(backend Backend, addrs config.Contracts, account common.Address, signer bind.SignerFn, log *zap.Logger) (*Client, error) {
	giftsABI, err := abi.JSON(strings.NewReader(untilThenABI))
	if err != nil {
		return nil, fmt.Errorf("parse custody abi: %w", err)
	}
	nftABI, err := abi.JSON(strings.NewReader(giftNFTABI))
	if err != nil {
		return nil, fmt.Errorf("parse collectible abi: %w", err)
	}
	tokenABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	return &Client{
		backend:      backend,
		log:          log,
		account:      account,
		signer:       signer,
		gifts:        bind.NewBoundContract(addrs.UntilThen, giftsABI, backend, backend, backend),
		nft:          bind.NewBoundContract(addrs.GiftNFT, nftABI, backend, backend, backend),
		token:        bind.NewBoundContract(addrs.LinkToken, tokenABI, backend, backend, backend),
		giftsABI:     giftsABI,
		nftABI:       nftABI,
		custodyAddr:  addrs.UntilThen,
		nftAddr:      addrs.GiftNFT,
		tokenAddr:    addrs.LinkToken,
		pollInterval: 2 * time.Second,
	}, nil
}

func (c *Client) opts(ctx context.Context, value *big.Int) *bind.TransactOpts {
	return &bind.TransactOpts{
		From:    c.account,
		Signer:  c.signer,
		Value:   value,
		Context: ctx,
	}
}

// submittedBlock is read before submission so an event mined in the very next
// block is still inside the poll window.
func (c *Client) submittedBlock(ctx context.Context) uint64 {
	n, err := c.backend.BlockNumber(ctx)
	if err != nil {
		c.log.Warn("block number read failed, polling from genesis", zap.Error(err))
		return 0
	}
	return n
}

// SubmitCreate submits the commitment transaction.
func (c *Client) SubmitCreate(ctx context.Context, p chain.CreateParams) (*chain.TxRef, error) {
	erc20Amount := p.ERC20Amount
	if erc20Amount == nil {
		erc20Amount = new(big.Int)
	}

	from := c.submittedBlock(ctx)
	tx, err := c.gifts.Transact(c.opts(ctx, p.Value), "createGift",
		p.Receiver,
		new(big.Int).SetUint64(p.ReleaseTimestamp),
		p.ContentHash,
		p.Yield,
		erc20Amount,
	)
	if err != nil {
		return nil, mapSubmitError(err)
	}

	c.log.Info("createGift submitted",
		zap.String("tx", tx.Hash().Hex()),
		zap.String("receiver", p.Receiver.Hex()),
		zap.Uint64("release_ts", p.ReleaseTimestamp),
	)
	return &chain.TxRef{Hash: tx.Hash(), SubmittedBlock: from}, nil
}

// SubmitClaim submits the claim transaction for giftID.
func (c *Client) SubmitClaim(ctx context.Context, giftID uint64) (*chain.TxRef, error) {
	from := c.submittedBlock(ctx)
	tx, err := c.gifts.Transact(c.opts(ctx, nil), "claimGift", new(big.Int).SetUint64(giftID))
	if err != nil {
		return nil, mapClaimError(err)
	}

	c.log.Info("claimGift submitted",
		zap.String("tx", tx.Hash().Hex()),
		zap.Uint64("gift_id", giftID),
	)
	return &chain.TxRef{Hash: tx.Hash(), SubmittedBlock: from}, nil
}

// giftRecord mirrors the getGiftById tuple layout.
type giftRecord struct {
	Id               *big.Int
	Amount           *big.Int
	ReleaseTimestamp *big.Int
	NftClaimedId     *big.Int
	Status           uint8
	Sender           common.Address
	Receiver         common.Address
	IsYield          bool
	LinkYield        bool
	ContentHash      string
}

// GiftByID reads one gift record.
func (c *Client) GiftByID(ctx context.Context, id uint64) (*model.Gift, error) {
	var out []interface{}
	err := c.gifts.Call(&bind.CallOpts{Context: ctx}, &out, "getGiftById", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, fmt.Errorf("getGiftById %d: %w", id, err)
	}
	rec := *abi.ConvertType(out[0], new(giftRecord)).(*giftRecord)

	return &model.Gift{
		Id:               rec.Id.Uint64(),
		Sender:           rec.Sender,
		Receiver:         rec.Receiver,
		Amount:           rec.Amount,
		ReleaseTimestamp: rec.ReleaseTimestamp.Uint64(),
		Status:           model.GiftStatus(rec.Status),
		ContentHash:      rec.ContentHash,
		IsYield:          rec.IsYield,
		LinkYield:        rec.LinkYield,
		NftClaimedId:     rec.NftClaimedId.Uint64(),
	}, nil
}

func (c *Client) giftIDs(ctx context.Context, method string, addr common.Address) ([]uint64, error) {
	var out []interface{}
	err := c.gifts.Call(&bind.CallOpts{Context: ctx}, &out, method, addr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	raw := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	ids := make([]uint64, 0, len(raw))
	for _, v := range raw {
		ids = append(ids, v.Uint64())
	}
	return ids, nil
}

// SenderGiftIDs lists gift ids created by sender.
func (c *Client) SenderGiftIDs(ctx context.Context, sender common.Address) ([]uint64, error) {
	return c.giftIDs(ctx, "getSenderGiftsIds", sender)
}

// ReceiverGiftIDs lists gift ids addressed to receiver.
func (c *Client) ReceiverGiftIDs(ctx context.Context, receiver common.Address) ([]uint64, error) {
	return c.giftIDs(ctx, "getReceiverGiftsIds", receiver)
}

// TokenURI reads the collectible metadata document.
func (c *Client) TokenURI(ctx context.Context, tokenID uint64) (string, error) {
	var out []interface{}
	err := c.nft.Call(&bind.CallOpts{Context: ctx}, &out, "tokenURI", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return "", fmt.Errorf("tokenURI %d: %w", tokenID, err)
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// Allowance reads the ERC-20 allowance granted by owner to spender.
func (c *Client) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	var out []interface{}
	err := c.token.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("allowance: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Approve submits an ERC-20 approval for spender.
func (c *Client) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*chain.TxRef, error) {
	from := c.submittedBlock(ctx)
	tx, err := c.token.Transact(c.opts(ctx, nil), "approve", spender, amount)
	if err != nil {
		return nil, mapSubmitError(err)
	}
	c.log.Info("approve submitted", zap.String("tx", tx.Hash().Hex()))
	return &chain.TxRef{Hash: tx.Hash(), SubmittedBlock: from}, nil
}

// WaitMined polls for the referenced transaction's receipt.
func (c *Client) WaitMined(ctx context.Context, ref *chain.TxRef) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		rcpt, err := c.backend.TransactionReceipt(ctx, ref.Hash)
		if err == nil && rcpt != nil {
			if rcpt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("%w: transaction %s reverted", errs.ErrSubmission, ref.Hash.Hex())
			}
			return nil
		}
		if err != nil && err != ethereum.NotFound {
			c.log.Warn("receipt poll failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
