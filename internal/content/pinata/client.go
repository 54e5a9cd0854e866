// Package pinata is the HTTP client for the pinning collaborator. It covers
// the private upload path used at gift creation, the public gateway fetch
// used by the redemption viewer, and the private-to-public relocation calls
// the oracle function performs.
package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ipfs/go-cid"
	"go.uber.org/zap"

	"github.com/untilthen/untilthen-go/internal/config"
	"github.com/untilthen/untilthen-go/internal/content"
	"github.com/untilthen/untilthen-go/internal/errs"
	"github.com/untilthen/untilthen-go/internal/model"
)

var _ content.Store = (*Client)(nil)

// Client talks to the Pinata REST API with one bearer token.
type Client struct {
	cfg  config.Pinata
	http *http.Client
	log  *zap.Logger
}

// New constructs a Client and fails fast on an already-expired credential so
// the first upload does not burn a round-trip to learn it.
func New(cfg config.Pinata, log *zap.Logger) (*Client, error) {
	if cfg.JWT == "" {
		return nil, fmt.Errorf("pinata: missing jwt")
	}
	if err := checkJWTNotExpired(cfg.JWT); err != nil {
		return nil, err
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log,
	}, nil
}

// checkJWTNotExpired parses the token without verifying its signature (the
// secret is Pinata's) and rejects expired credentials.
func checkJWTNotExpired(raw string) error {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(raw, claims)
	if err != nil {
		return fmt.Errorf("pinata: malformed jwt: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("pinata: jwt claims: %w", err)
	}
	if exp != nil && exp.Before(time.Now()) {
		return fmt.Errorf("pinata: jwt expired at %s", exp.Time)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.JWT)
	return c.http.Do(req)
}

func decodeBody(resp *http.Response, dst any) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if dst == nil {
		return nil
	}
	return json.Unmarshal(body, dst)
}

// validCID rejects identifiers the rest of the workflow would choke on.
func validCID(s string) error {
	if _, err := cid.Decode(s); err != nil {
		return fmt.Errorf("bad content identifier %q: %w", s, err)
	}
	return nil
}

// UploadPrivate pins the envelope as a private file and adds it to the
// configured private group. Implements content.Store.
func (c *Client) UploadPrivate(ctx context.Context, env model.Envelope) (string, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("%w: marshal envelope: %v", errs.ErrUpload, err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fmt.Sprintf("%d-%s.json", env.Timestamp, env.Sender))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrUpload, err)
	}
	if _, err := fw.Write(payload); err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrUpload, err)
	}
	if err := mw.WriteField("network", "private"); err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrUpload, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrUpload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadBase+"/v3/files", &buf)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrUpload, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrUpload, err)
	}
	var out struct {
		Data struct {
			ID  string `json:"id"`
			CID string `json:"cid"`
		} `json:"data"`
	}
	if err := decodeBody(resp, &out); err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrUpload, err)
	}
	if err := validCID(out.Data.CID); err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrUpload, err)
	}

	if err := c.addToPrivateGroup(ctx, out.Data.ID); err != nil {
		// The pin exists; group membership only scopes oracle lookups. Keep
		// the cid and surface the failure.
		return "", fmt.Errorf("%w: add to group: %v", errs.ErrUpload, err)
	}

	c.log.Info("private content pinned",
		zap.String("cid", out.Data.CID),
		zap.String("sender", env.Sender),
	)
	return out.Data.CID, nil
}

func (c *Client) addToPrivateGroup(ctx context.Context, fileID string) error {
	url := fmt.Sprintf("%s/v3/groups/private/%s/ids/%s", c.cfg.APIBase, c.cfg.PrivateGroupID, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	return decodeBody(resp, nil)
}

// FetchEnvelope retrieves a public envelope through the gateway. Implements
// content.Store.
func (c *Client) FetchEnvelope(ctx context.Context, contentID string) (*model.Envelope, error) {
	if err := validCID(contentID); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Gateway+"/ipfs/"+contentID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req) // public gateway, no auth
	if err != nil {
		return nil, err
	}
	var env model.Envelope
	if err := decodeBody(resp, &env); err != nil {
		return nil, fmt.Errorf("fetch envelope %s: %w", contentID, err)
	}
	return &env, nil
}

// FileInfo describes a private file within a group.
type FileInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	CID  string `json:"cid"`
}

// PrivateDownloadLink requests a short-lived URL for a private file.
func (c *Client) PrivateDownloadLink(ctx context.Context, contentID string) (string, error) {
	body, _ := json.Marshal(map[string]any{
		"url":     fmt.Sprintf("%s/files/%s", c.cfg.Gateway, contentID),
		"expires": 180,
		"date":    time.Now().Unix(),
		"method":  http.MethodGet,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.APIBase+"/v3/files/private/download_link", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	var out struct {
		Data string `json:"data"`
	}
	if err := decodeBody(resp, &out); err != nil {
		return "", fmt.Errorf("download link %s: %w", contentID, err)
	}
	return out.Data, nil
}

// FetchPrivate downloads raw private content from a link issued by
// PrivateDownloadLink.
func (c *Client) FetchPrivate(ctx context.Context, downloadURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := decodeBody(resp, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// PrivateFileInfo looks a private file up by cid within the private group.
func (c *Client) PrivateFileInfo(ctx context.Context, contentID string) (*FileInfo, error) {
	url := fmt.Sprintf("%s/v3/files/private?group=%s&cid=%s", c.cfg.APIBase, c.cfg.PrivateGroupID, contentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var out struct {
		Data struct {
			Files []FileInfo `json:"files"`
		} `json:"data"`
	}
	if err := decodeBody(resp, &out); err != nil {
		return nil, fmt.Errorf("file info %s: %w", contentID, err)
	}
	if len(out.Data.Files) == 0 {
		return nil, fmt.Errorf("file info %s: not found in private group", contentID)
	}
	return &out.Data.Files[0], nil
}

// PinPublicJSON pins content publicly with relocation metadata and returns
// the new pin's id and cid.
func (c *Client) PinPublicJSON(ctx context.Context, content json.RawMessage, name string, keyvalues map[string]string) (id, contentID string, err error) {
	body, _ := json.Marshal(map[string]any{
		"pinataContent": content,
		"pinataMetadata": map[string]any{
			"name":      name,
			"keyvalues": keyvalues,
		},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.APIBase+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return "", "", err
	}
	var out struct {
		ID       string `json:"ID"`
		IpfsHash string `json:"IpfsHash"`
	}
	if err := decodeBody(resp, &out); err != nil {
		return "", "", fmt.Errorf("pin public: %w", err)
	}
	if err := validCID(out.IpfsHash); err != nil {
		return "", "", err
	}
	return out.ID, out.IpfsHash, nil
}

// AssignToPublicGroup moves a pin into the configured public group.
func (c *Client) AssignToPublicGroup(ctx context.Context, pinID string) error {
	url := fmt.Sprintf("%s/v3/groups/public/%s/ids/%s", c.cfg.APIBase, c.cfg.PublicGroupID, pinID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	return decodeBody(resp, nil)
}
