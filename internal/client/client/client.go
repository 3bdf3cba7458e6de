package client

import (
	"context"

	"github.com/dmitrijs2005/glueauth/internal/zkp"
)

// KeyExchangeResult is the server half of a key exchange.
type KeyExchangeResult struct {
	ServerPublicKey string `json:"serverPublicKey"`
	SessionID       string `json:"sessionID"`
	BaseKey         string `json:"baseKey"`
}

// RegisterRequest carries a commitment encrypted under the session key.
type RegisterRequest struct {
	Commitment string `json:"commitment"`
	SessionID  string `json:"sessionID"`
	NonceHex   string `json:"nonceHex"`
}

type Client interface {
	KeyExchange(ctx context.Context, clientPublicKey string) (*KeyExchangeResult, error)
	Register(ctx context.Context, req *RegisterRequest) error
	SubmitProof(ctx context.Context, proof *zkp.Proof, sessionID string) error
	Members(ctx context.Context) ([]string, error)
	Root(ctx context.Context) (string, int, error)
	CheckSession(ctx context.Context) error
	Ping(ctx context.Context) error
	HasSession() bool
	Logout()
}
