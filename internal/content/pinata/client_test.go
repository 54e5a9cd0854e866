package pinata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/untilthen/untilthen-go/internal/config"
	"github.com/untilthen/untilthen-go/internal/errs"
	"github.com/untilthen/untilthen-go/internal/model"
)

const (
	testCIDv0 = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	testCIDv1 = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"
)

func signedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(config.Pinata{
		JWT:            signedJWT(t, time.Now().Add(time.Hour)),
		Gateway:        srv.URL,
		APIBase:        srv.URL,
		UploadBase:     srv.URL,
		PrivateGroupID: "grp-private",
		PublicGroupID:  "grp-public",
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNew_RejectsExpiredJWT(t *testing.T) {
	_, err := New(config.Pinata{JWT: signedJWT(t, time.Now().Add(-time.Hour))}, zap.NewNop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "expired")
}

func TestNew_RejectsMissingJWT(t *testing.T) {
	_, err := New(config.Pinata{}, zap.NewNop())
	require.Error(t, err)
}

func TestUploadPrivate_OK(t *testing.T) {
	var gotGroupPut string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v3/files":
			require.NotEmpty(t, r.Header.Get("Authorization"))
			require.NoError(t, r.ParseMultipartForm(1<<20))
			require.Equal(t, "private", r.FormValue("network"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]string{"id": "file-1", "cid": testCIDv1},
			})
		case r.Method == http.MethodPut:
			gotGroupPut = r.URL.Path
			w.WriteHeader(http.StatusOK)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := testClient(t, srv)
	cid, err := c.UploadPrivate(context.Background(), model.Envelope{
		EncryptedContent: "deadbeef",
		Sender:           "0xabc",
		Timestamp:        1700000000,
	})
	require.NoError(t, err)
	require.Equal(t, testCIDv1, cid)
	require.Equal(t, "/v3/groups/private/grp-private/ids/file-1", gotGroupPut)
}

func TestUploadPrivate_Non2xxMapsToErrUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusPaymentRequired)
	}))
	defer srv.Close()

	_, err := testClient(t, srv).UploadPrivate(context.Background(), model.Envelope{EncryptedContent: "x"})
	require.True(t, errors.Is(err, errs.ErrUpload), "got %v", err)
}

func TestUploadPrivate_BadCIDRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"id": "file-1", "cid": "not-a-cid"},
		})
	}))
	defer srv.Close()

	_, err := testClient(t, srv).UploadPrivate(context.Background(), model.Envelope{EncryptedContent: "x"})
	require.True(t, errors.Is(err, errs.ErrUpload), "got %v", err)
}

func TestFetchEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ipfs/"+testCIDv0, r.URL.Path)
		_ = json.NewEncoder(w).Encode(model.Envelope{
			EncryptedContent: "deadbeef",
			Sender:           "0xabc",
			Timestamp:        1700000000,
		})
	}))
	defer srv.Close()

	env, err := testClient(t, srv).FetchEnvelope(context.Background(), testCIDv0)
	require.NoError(t, err)
	require.Equal(t, "deadbeef", env.EncryptedContent)

	_, err = testClient(t, srv).FetchEnvelope(context.Background(), "nope")
	require.Error(t, err)
}

func TestRelocationCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v3/files/private/download_link":
			_ = json.NewEncoder(w).Encode(map[string]string{"data": "http://link.example/tmp"})
		case r.Method == http.MethodGet && r.URL.Path == "/v3/files/private":
			require.Equal(t, "grp-private", r.URL.Query().Get("group"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"files": []FileInfo{{ID: "f1", Name: "g.json", CID: testCIDv0}}},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/pinning/pinJSONToIPFS":
			_ = json.NewEncoder(w).Encode(map[string]string{"ID": "pin-9", "IpfsHash": testCIDv1})
		case r.Method == http.MethodPut && r.URL.Path == "/v3/groups/public/grp-public/ids/pin-9":
			w.WriteHeader(http.StatusOK)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := testClient(t, srv)
	ctx := context.Background()

	link, err := c.PrivateDownloadLink(ctx, testCIDv0)
	require.NoError(t, err)
	require.Equal(t, "http://link.example/tmp", link)

	info, err := c.PrivateFileInfo(ctx, testCIDv0)
	require.NoError(t, err)
	require.Equal(t, "f1", info.ID)

	id, cid, err := c.PinPublicJSON(ctx, json.RawMessage(`{"a":1}`), "g-public.json", map[string]string{"privateCid": testCIDv0})
	require.NoError(t, err)
	require.Equal(t, "pin-9", id)
	require.Equal(t, testCIDv1, cid)

	require.NoError(t, c.AssignToPublicGroup(ctx, "pin-9"))
}
