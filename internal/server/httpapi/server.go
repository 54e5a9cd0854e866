// Package httpapi exposes the server-side HTTP surface: the private-upload
// proxy that keeps the pinning credentials off clients, and a local endpoint
// for the oracle publication function.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/untilthen/untilthen-go/internal/content"
	"github.com/untilthen/untilthen-go/internal/model"
)

// Publisher runs the oracle publication: fetch private content, re-pin it
// publicly, return the public identifier (empty on any failure).
type Publisher interface {
	Publish(ctx context.Context, contentID, sender, receiver string) string
}

// Server wires the content store and the publisher into HTTP handlers.
type Server struct {
	store content.Store
	pub   Publisher
	log   *zap.Logger
}

// New constructs a Server with injected collaborators.
func New(store content.Store, pub Publisher, log *zap.Logger) *Server {
	return &Server{store: store, pub: pub, log: log}
}

// Handler returns the routed handler with logging and panic recovery applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload-private", s.uploadPrivate)
	mux.HandleFunc("POST /oracle/publish", s.publish)
	mux.HandleFunc("GET /healthz", s.healthz)
	return Recover(s.log)(Logging(s.log)(mux))
}

type uploadRequest struct {
	EncryptedContent string `json:"encryptedContent"`
	Sender           string `json:"sender"`
	Timestamp        int64  `json:"timestamp"`
}

// uploadPrivate pins the posted envelope privately and returns its content
// identifier. The ciphertext is opaque here; this proxy exists so the pinning
// credentials never reach a client.
func (s *Server) uploadPrivate(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.EncryptedContent == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "encryptedContent is required"})
		return
	}

	cid, err := s.store.UploadPrivate(r.Context(), model.Envelope{
		EncryptedContent: req.EncryptedContent,
		Sender:           req.Sender,
		Timestamp:        req.Timestamp,
	})
	if err != nil {
		s.log.Error("private upload failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "upload failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cid": cid})
}

type publishRequest struct {
	ContentID string `json:"contentId"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
}

// publish runs the oracle function locally. It mirrors the sandboxed
// semantics: always 200, an empty publicCid meaning the publication failed.
func (s *Server) publish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	publicID := s.pub.Publish(r.Context(), req.ContentID, req.Sender, req.Receiver)
	writeJSON(w, http.StatusOK, map[string]string{"publicCid": publicID})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
