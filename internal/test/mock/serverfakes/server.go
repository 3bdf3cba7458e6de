package serverfakes

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/logging"
	"github.com/dmitrijs2005/glueauth/internal/merkle"
	"github.com/dmitrijs2005/glueauth/internal/server/config"
	"github.com/dmitrijs2005/glueauth/internal/server/httpserver"
	"github.com/dmitrijs2005/glueauth/internal/server/models"
	"github.com/dmitrijs2005/glueauth/internal/server/services"
	"github.com/dmitrijs2005/glueauth/internal/server/sessions"
)

// Registry is an append-only in-memory membership list.
type Registry struct {
	mu      sync.Mutex
	members []string
}

func (r *Registry) AddCommitment(_ context.Context, c string) (*models.Commitment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.members {
		if v == c {
			return nil, common.ErrAlreadyExists
		}
	}
	r.members = append(r.members, c)
	return &models.Commitment{MerkleIndex: int64(len(r.members) - 1), Value: c}, nil
}

func (r *Registry) AllCommitments(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.members...), nil
}

// Members is a snapshot of the registered commitments.
func (r *Registry) Members() []string {
	m, _ := r.AllCommitments(context.Background())
	return m
}

func (r *Registry) Root(ctx context.Context) (string, int, error) {
	members, _ := r.AllCommitments(ctx)
	head := merkle.Head(members)
	return head.RootHex(), head.Size, nil
}

// Ledger records used nullifiers.
type Ledger struct {
	mu   sync.Mutex
	used map[string]bool
}

func (l *Ledger) Exists(_ context.Context, n string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used[n], nil
}

func (l *Ledger) Record(_ context.Context, n string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.used == nil {
		l.used = map[string]bool{}
	}
	if l.used[n] {
		return common.ErrAlreadyExists
	}
	l.used[n] = true
	return nil
}

// Server bundles the running test server with its state.
type Server struct {
	*httptest.Server
	Config   *config.Config
	Registry *Registry
	Ledger   *Ledger
}

// APIURL is the base URL clients should be configured with.
func (s *Server) APIURL() string {
	return s.URL + s.Config.APIPrefix
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	cfg.BaseKey = "test-base"
	cfg.RateLimitRPS = 1000
	cfg.RateLimitBurst = 1000

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	store := sessions.NewMemoryStore(cfg.SessionTTL)
	registry := &Registry{}
	ledger := &Ledger{}

	kx := services.NewKeyExchangeService(store, cfg.BaseKey)
	auth := services.NewAuthService(store, registry, ledger, nil, cfg.SecretKey, cfg.TokenValidityDuration, logger)
	srv := httpserver.NewHTTPServer(cfg, logger, kx, auth, registry, nil)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &Server{Server: ts, Config: cfg, Registry: registry, Ledger: ledger}
}
