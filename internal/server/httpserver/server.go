// Package httpserver exposes the GlueAuth protocols as a JSON HTTP API.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/glueauth/internal/logging"
	"github.com/dmitrijs2005/glueauth/internal/ratelimit"
	"github.com/dmitrijs2005/glueauth/internal/server/config"
	"github.com/dmitrijs2005/glueauth/internal/server/metrics"
	"github.com/dmitrijs2005/glueauth/internal/server/models"
	"github.com/dmitrijs2005/glueauth/internal/server/services"
	"github.com/dmitrijs2005/glueauth/internal/zkp"
)

const (
	maxBodyBytes    = 64 << 10
	shutdownTimeout = 5 * time.Second

	// a proof carries one hex response per member, quoted and comma separated
	proofBytesPerMember = 2*32 + 3
	// members that may register between a client fetching the group and submitting
	proofSlackMembers = 64
)

type KeyExchanger interface {
	Exchange(ctx context.Context, clientPublicKeyHex string) (*services.KeyExchangeResult, error)
}

type Authenticator interface {
	Register(ctx context.Context, req *services.RegisterRequest) (*models.Commitment, error)
	Login(ctx context.Context, proof *zkp.Proof, sessionID string) (string, error)
	CheckToken(token string) (string, error)
	TokenValidity() time.Duration
}

type Membership interface {
	AllCommitments(ctx context.Context) ([]string, error)
	Root(ctx context.Context) (string, int, error)
}

type HTTPServer struct {
	config  *config.Config
	logger  logging.Logger
	kx      KeyExchanger
	auth    Authenticator
	members Membership
	metrics *metrics.Metrics
	limiter *ratelimit.MapLimiter
	now     func() time.Time
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, kx KeyExchanger, a Authenticator, m Membership, mt *metrics.Metrics) *HTTPServer {
	return &HTTPServer{
		config:  cfg,
		logger:  l.With("module", "http_server"),
		kx:      kx,
		auth:    a,
		members: m,
		metrics: mt,
		limiter: ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst, 0),
		now:     time.Now,
	}
}

func (s *HTTPServer) route(method, path string) string {
	return method + " " + strings.TrimSuffix(s.config.APIPrefix, "/") + path
}

// Handler builds the request router with all middleware applied.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern string, h http.HandlerFunc, limited bool) {
		var next http.Handler = h
		if limited {
			next = s.rateLimit(next)
		}
		mux.Handle(pattern, s.instrument(pattern, s.withTimeout(next)))
	}

	handle(s.route(http.MethodPost, "/keyexchange"), s.handleKeyExchange, true)
	handle(s.route(http.MethodPost, "/zkp/auth/register"), s.handleRegister, true)
	handle(s.route(http.MethodPost, "/zkp/auth/proof"), s.handleProof, true)
	handle(s.route(http.MethodGet, "/zkp/auth/session"), s.requireToken(s.handleSession), false)
	handle(s.route(http.MethodGet, "/zkp/members"), s.handleMembers, false)
	handle(s.route(http.MethodGet, "/zkp/root"), s.handleRoot, false)
	handle("GET /healthz", s.handleHealth, false)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return mux
}

func (s *HTTPServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.config.EndpointAddrHTTP)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
