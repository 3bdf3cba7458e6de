package httpserver

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/logging"
	"github.com/dmitrijs2005/glueauth/internal/merkle"
	"github.com/dmitrijs2005/glueauth/internal/server/config"
	"github.com/dmitrijs2005/glueauth/internal/server/metrics"
	"github.com/dmitrijs2005/glueauth/internal/server/models"
	"github.com/dmitrijs2005/glueauth/internal/server/services"
	"github.com/dmitrijs2005/glueauth/internal/server/sessions"
)

type memRegistry struct {
	mu      sync.Mutex
	members []string
}

func (m *memRegistry) AddCommitment(_ context.Context, c string) (*models.Commitment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.members {
		if v == c {
			return nil, common.ErrAlreadyExists
		}
	}
	m.members = append(m.members, c)
	return &models.Commitment{MerkleIndex: int64(len(m.members) - 1), Value: c}, nil
}

func (m *memRegistry) AllCommitments(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.members...), nil
}

func (m *memRegistry) Root(ctx context.Context) (string, int, error) {
	members, _ := m.AllCommitments(ctx)
	head := merkle.Head(members)
	return head.RootHex(), head.Size, nil
}

type memLedger struct {
	mu   sync.Mutex
	used map[string]bool
}

func (l *memLedger) Exists(_ context.Context, n string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used[n], nil
}

func (l *memLedger) Record(_ context.Context, n string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.used[n] {
		return common.ErrAlreadyExists
	}
	l.used[n] = true
	return nil
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type testEnv struct {
	cfg      *config.Config
	registry *memRegistry
	metrics  *metrics.Metrics
	server   *HTTPServer
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.RateLimitRPS = 1000
	cfg.RateLimitBurst = 1000
	cfg.SecretKey = "test-secret"
	cfg.BaseKey = "test-base"
	return cfg
}

func newTestEnv(cfg *config.Config) *testEnv {
	store := sessions.NewMemoryStore(cfg.SessionTTL)
	registry := &memRegistry{}
	ledger := &memLedger{used: map[string]bool{}}
	logger := discardLogger()

	kx := services.NewKeyExchangeService(store, cfg.BaseKey)
	authSvc := services.NewAuthService(store, registry, ledger, nil, cfg.SecretKey, cfg.TokenValidityDuration, logger)
	m := metrics.New()

	return &testEnv{
		cfg:      cfg,
		registry: registry,
		metrics:  m,
		server:   NewHTTPServer(cfg, logger, kx, authSvc, registry, m),
	}
}
