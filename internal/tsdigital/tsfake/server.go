// Package tsfake runs an in-process imitation of the TS Digital portal and
// console APIs for tests.
package tsfake

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Endpoint paths.
const (
	NoncePath   = "/login/agyo/nonce"
	LoginPath   = "/login/agyo"
	ExtractPath = "/xmlInvoices/extractBaseInfo"
	SubmitPath  = "/invoices"
)

// BrokenContent makes the fake flag a document as unparseable.
const BrokenContent = "<broken/>"

// Invoice is one document in an extraction request.
type Invoice struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Type    string `json:"type"`
	Name    string `json:"name"`
}

// ExtractRequest is the body of an extraction call.
type ExtractRequest struct {
	Invoices      []Invoice `json:"invoices"`
	TransmitterID string    `json:"transmitterId"`
	FlowType      string    `json:"flowType"`
}

// SubmitRequest is the body of a submission call.
type SubmitRequest struct {
	Content            string `json:"content"`
	TransmitterID      string `json:"transmitterId"`
	SenderID           string `json:"senderId"`
	RecipientID        string `json:"recipientId"`
	Name               string `json:"name"`
	FlowType           string `json:"flowType"`
	TransmissionFormat string `json:"transmissionFormat"`
}

// Server is a fake TS Digital backend. Zero status fields mean the endpoint
// behaves normally.
type Server struct {
	*httptest.Server

	Email    string
	Password string
	Nonce    string
	Token    string

	NonceStatus   int
	LoginStatus   int
	ExtractStatus int
	SubmitStatus  int

	mu          sync.Mutex
	calls       map[string]int
	extractions []ExtractRequest
	submissions []SubmitRequest
	headers     []http.Header
}

// NewServer starts a fake accepting email and password.
func NewServer(email, password string) *Server {
	s := &Server{
		Email:    email,
		Password: password,
		Nonce:    "nonce-1234",
		Token:    "token-abcd",
		calls:    make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Get(NoncePath, s.handleNonce)
	r.Post(LoginPath, s.handleLogin)
	r.Post(ExtractPath, s.requireToken(s.handleExtract))
	r.Post(SubmitPath, s.requireToken(s.handleSubmit))

	s.Server = httptest.NewServer(r)
	return s
}

// Calls returns how many requests reached path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// Extractions returns the extraction bodies received so far.
func (s *Server) Extractions() []ExtractRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ExtractRequest(nil), s.extractions...)
}

// Submissions returns the submission bodies received so far.
func (s *Server) Submissions() []SubmitRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SubmitRequest(nil), s.submissions...)
}

// Headers returns the request headers received so far, in order.
func (s *Server) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]http.Header(nil), s.headers...)
}

// ExpectedDigest computes the digest the fake accepts at login.
func (s *Server) ExpectedDigest() string {
	inner := sha256.Sum256([]byte(s.Email + s.Password))
	outer := sha256.Sum256([]byte(hex.EncodeToString(inner[:]) + s.Nonce))
	return hex.EncodeToString(outer[:])
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		s.headers = append(s.headers, r.Header.Clone())
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			http.Error(w, `{"code":"UNAUTHORIZED"}`, http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleNonce(w http.ResponseWriter, r *http.Request) {
	if s.NonceStatus != 0 {
		http.Error(w, "nonce unavailable", s.NonceStatus)
		return
	}
	if r.URL.Query().Get("userId") != s.Email {
		http.Error(w, "unknown user", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"nonce": s.Nonce})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.LoginStatus != 0 {
		http.Error(w, "login unavailable", s.LoginStatus)
		return
	}

	var body struct {
		ID     string `json:"id"`
		Digest string `json:"digest"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.ID != s.Email || body.Digest != s.ExpectedDigest() {
		http.Error(w, `{"code":"WRONG_CREDENTIALS"}`, http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": s.Token})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var body ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.extractions = append(s.extractions, body)
	s.mu.Unlock()

	if s.ExtractStatus != 0 {
		http.Error(w, "extraction failed", s.ExtractStatus)
		return
	}

	results := make([]map[string]any, 0, len(body.Invoices))
	for _, inv := range body.Invoices {
		content, _ := base64.StdEncoding.DecodeString(inv.Content)
		if string(content) == BrokenContent {
			results = append(results, map[string]any{
				"id":                  inv.ID,
				"errorExtractingData": true,
			})
			continue
		}
		results = append(results, map[string]any{
			"id":                  inv.ID,
			"errorExtractingData": false,
			"senderName":          "ItoTech S.r.l.",
			"recipientName":       "ACME S.p.A.",
			"recipientId":         "IT09876543210",
			"invoiceNumber":       strings.TrimSuffix(inv.Name, ".xml"),
			"date":                "2024-03-15",
			"transmissionFormat":  "FPR12",
		})
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.submissions = append(s.submissions, body)
	s.mu.Unlock()

	if s.SubmitStatus != 0 {
		http.Error(w, `{"code":"DUPLICATE_INVOICE"}`, s.SubmitStatus)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": body.Name})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
