// Package oracle implements the sandboxed publication function invoked by the
// custody contract after a claim: it mirrors the gift's privately pinned
// content to a public pin and reports the new identifier on-chain.
package oracle

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/untilthen/untilthen-go/internal/content/pinata"
)

// Pins is the slice of the pinning client the publisher needs.
type Pins interface {
	PrivateDownloadLink(ctx context.Context, contentID string) (string, error)
	FetchPrivate(ctx context.Context, downloadURL string) (json.RawMessage, error)
	PrivateFileInfo(ctx context.Context, contentID string) (*pinata.FileInfo, error)
	PinPublicJSON(ctx context.Context, content json.RawMessage, name string, keyvalues map[string]string) (id, contentID string, err error)
	AssignToPublicGroup(ctx context.Context, pinID string) error
}

// Publisher runs the relocation flow.
type Publisher struct {
	pins Pins
	log  *zap.Logger
}

func NewPublisher(pins Pins, log *zap.Logger) *Publisher {
	return &Publisher{pins: pins, log: log}
}

// Publish mirrors the private pin at contentID to a public pin tagged with the
// gift parties, and returns the public identifier. It never returns an error:
// any failure is logged and yields an empty string, which the contract
// callback treats as "publication failed".
func (p *Publisher) Publish(ctx context.Context, contentID, sender, receiver string) string {
	if contentID == "" || sender == "" || receiver == "" {
		p.log.Error("publish: missing argument",
			zap.String("cid", contentID),
			zap.String("sender", sender),
			zap.String("receiver", receiver),
		)
		return ""
	}

	link, err := p.pins.PrivateDownloadLink(ctx, contentID)
	if err != nil {
		p.log.Error("publish: download link", zap.String("cid", contentID), zap.Error(err))
		return ""
	}
	body, err := p.pins.FetchPrivate(ctx, link)
	if err != nil {
		p.log.Error("publish: fetch private", zap.String("cid", contentID), zap.Error(err))
		return ""
	}
	info, err := p.pins.PrivateFileInfo(ctx, contentID)
	if err != nil {
		p.log.Error("publish: file info", zap.String("cid", contentID), zap.Error(err))
		return ""
	}

	name := strings.TrimSuffix(info.Name, ".json") + "-public.json"
	pinID, publicID, err := p.pins.PinPublicJSON(ctx, body, name, map[string]string{
		"privateCid":      info.CID,
		"senderAddress":   sender,
		"receiverAddress": receiver,
	})
	if err != nil {
		p.log.Error("publish: public pin", zap.String("cid", contentID), zap.Error(err))
		return ""
	}
	if err := p.pins.AssignToPublicGroup(ctx, pinID); err != nil {
		p.log.Error("publish: assign public group", zap.String("cid", contentID), zap.Error(err))
		return ""
	}

	p.log.Info("content published",
		zap.String("private_cid", contentID),
		zap.String("public_cid", publicID),
	)
	return publicID
}
