package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/untilthen/untilthen-go/internal/errs"
	"github.com/untilthen/untilthen-go/internal/model"
)

type fakeStore struct {
	cid      string
	err      error
	uploaded model.Envelope
}

func (f *fakeStore) UploadPrivate(_ context.Context, env model.Envelope) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploaded = env
	return f.cid, nil
}

func (f *fakeStore) FetchEnvelope(_ context.Context, _ string) (*model.Envelope, error) {
	return nil, errors.New("not used")
}

type fakePublisher struct {
	publicID string
	gotID    string
}

func (f *fakePublisher) Publish(_ context.Context, contentID, _, _ string) string {
	f.gotID = contentID
	return f.publicID
}

func newTestServer(st *fakeStore, pub *fakePublisher) *httptest.Server {
	return httptest.NewServer(New(st, pub, zap.NewNop()).Handler())
}

func TestUploadPrivate(t *testing.T) {
	st := &fakeStore{cid: "QmUploaded"}
	srv := newTestServer(st, &fakePublisher{})
	defer srv.Close()

	body := `{"encryptedContent":"04deadbeef","sender":"0xabc","timestamp":1700000000}`
	resp, err := http.Post(srv.URL+"/api/upload-private", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "QmUploaded", out["cid"])
	require.Equal(t, "04deadbeef", st.uploaded.EncryptedContent)
	require.Equal(t, "0xabc", st.uploaded.Sender)
	require.EqualValues(t, 1700000000, st.uploaded.Timestamp)
}

func TestUploadPrivateMissingContent(t *testing.T) {
	srv := newTestServer(&fakeStore{}, &fakePublisher{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/upload-private", "application/json",
		strings.NewReader(`{"sender":"0xabc"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out["error"])
}

func TestUploadPrivateBadJSON(t *testing.T) {
	srv := newTestServer(&fakeStore{}, &fakePublisher{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/upload-private", "application/json",
		strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadPrivateStoreFailure(t *testing.T) {
	srv := newTestServer(&fakeStore{err: errs.ErrUpload}, &fakePublisher{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/upload-private", "application/json",
		strings.NewReader(`{"encryptedContent":"04aa"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out["error"])
}

func TestPublish(t *testing.T) {
	pub := &fakePublisher{publicID: "QmPublic"}
	srv := newTestServer(&fakeStore{}, pub)
	defer srv.Close()

	body := `{"contentId":"QmPrivate","sender":"0xabc","receiver":"0xdef"}`
	resp, err := http.Post(srv.URL+"/oracle/publish", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "QmPublic", out["publicCid"])
	require.Equal(t, "QmPrivate", pub.gotID)
}

func TestPublishFailureYieldsEmptyID(t *testing.T) {
	srv := newTestServer(&fakeStore{}, &fakePublisher{publicID: ""})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/oracle/publish", "application/json",
		strings.NewReader(`{"contentId":"QmPrivate"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	// Publication failures are not transport errors.
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "", out["publicCid"])
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&fakeStore{}, &fakePublisher{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&fakeStore{}, &fakePublisher{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/upload-private")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
