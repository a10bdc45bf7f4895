// Package faunatest provides an in-memory server that evaluates the query
// dialect, plus fixtures for tests that talk to it.
package faunatest

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/krew-solutions/faunadb-go/faunadb/query"
	"github.com/krew-solutions/faunadb-go/faunadb/response"
	"github.com/krew-solutions/faunadb-go/faunadb/wire"
)

// Server evaluates one query per POST request. A query runs atomically:
// a failing query leaves no writes behind. The top level of a request may
// be an array, in which case every element is evaluated in order and the
// results come back as an array; this is how batches are executed.
type Server struct {
	mu      sync.Mutex
	st      *store
	secret  string
	logger  *slog.Logger
	failure *queryError
	hits    int
}

type Option func(*Server)

// WithSecret makes the server require "Bearer <secret>", or the secret of
// a key it created.
func WithSecret(secret string) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		st:     newStore(time.Now().UnixMicro()),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHTTPServer starts s behind an httptest server closed at test cleanup.
func NewHTTPServer(t testing.TB, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	s := New(opts...)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

// FailNext makes the next request fail with the given status and code.
func (s *Server) FailNext(status int, code, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = &queryError{status: status, code: code, description: description}
}

// Requests returns the number of requests served so far.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits++

	if r.Method != http.MethodPost {
		s.reply(w, newError(http.StatusMethodNotAllowed, CodeMethodNotAllowed, nil, "%s is not supported", r.Method))
		return
	}
	if !s.authorized(r) {
		s.reply(w, newError(http.StatusUnauthorized, CodeUnauthorized, nil, "invalid secret"))
		return
	}
	if s.failure != nil {
		failure := s.failure
		s.failure = nil
		s.reply(w, failure)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.reply(w, newError(http.StatusBadRequest, CodeBadRequest, nil, "%v", err))
		return
	}
	expr, err := response.DecodeValue(body)
	if err != nil {
		s.reply(w, newError(http.StatusBadRequest, CodeBadRequest, nil, "%v", err))
		return
	}

	tx := s.st.clone()
	e := &evaluator{st: tx}
	result, err := e.eval(nil, expr, nil)
	if err != nil {
		s.reply(w, err)
		return
	}
	s.st = tx
	s.logger.Debug("query evaluated", "request_id", r.Header.Get("X-Request-Id"), "bytes", len(body))
	s.write(w, http.StatusOK, query.Obj(query.F("resource", result)))
}

func (s *Server) authorized(r *http.Request) bool {
	if s.secret == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	if token == s.secret {
		return true
	}
	ref, known := s.st.secrets[token]
	if !known {
		return false
	}
	_, live := s.st.get(ref)
	return live
}

func (s *Server) reply(w http.ResponseWriter, err error) {
	qe, ok := err.(*queryError)
	if !ok {
		qe = newError(http.StatusInternalServerError, "internal error", nil, "%v", err)
	}
	s.logger.Debug("query failed", "status", qe.status, "code", qe.code)
	s.write(w, qe.status, qe.envelope())
}

func (s *Server) write(w http.ResponseWriter, status int, body query.ObjectV) {
	raw, err := wire.MarshalValue(body)
	if err != nil {
		status = http.StatusInternalServerError
		raw = []byte(`{"errors":[{"code":"internal error","description":"unencodable result"}]}`)
	}
	w.Header().Set("Content-Type", "application/json;charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}
