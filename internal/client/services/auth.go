// Package services contains application services for the GlueAuth client.
// This file defines the authentication service: registration of a new
// identity, zero-knowledge login, identity export/import and session status.
package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/glueauth/internal/client/client"
	"github.com/dmitrijs2005/glueauth/internal/client/transfer"
	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/cryptox"
	"github.com/dmitrijs2005/glueauth/internal/keyexchange"
	"github.com/dmitrijs2005/glueauth/internal/zkp"
)

var (
	ErrRootMismatch  = errors.New("membership root does not match the server")
	ErrNotRegistered = errors.New("identity is not registered on this server")
)

// IdentityVault stores the private identity on this device.
type IdentityVault interface {
	Secure(ctx context.Context, fingerprint, baseKey string, privateKey []byte) error
	Retrieve(ctx context.Context, fingerprint, baseKey string) ([]byte, error)
	Exists(ctx context.Context) (bool, error)
	Clear(ctx context.Context) error
}

// Exported is a portable identity ready to be shown to the user. PIN is
// empty when the payload is not protected.
type Exported struct {
	Payload transfer.Payload
	PIN     string
}

// Status describes the client's current state.
type Status struct {
	HasIdentity   bool
	Online        bool
	Authenticated bool
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register: create an identity, seal it in the vault and enroll its commitment.
//   - Login: prove membership for a fresh session and obtain the token cookie.
//   - Export/Import: move the identity between devices (QR payload or mnemonic).
//   - Status/Ping/Logout: session housekeeping.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Register(ctx context.Context, protect bool) (*Exported, error)
	Login(ctx context.Context) error
	Export(ctx context.Context, protect bool) (*Exported, error)
	Import(ctx context.Context, p transfer.Payload, pin string) error
	ExportMnemonic(ctx context.Context) (string, error)
	ImportMnemonic(ctx context.Context, words string) error
	Status(ctx context.Context) Status
	Ping(ctx context.Context) error
	Logout(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote Client and the
// local vault.
type authService struct {
	client      client.Client
	vault       IdentityVault
	fingerprint func() string
}

// NewAuthService constructs an AuthService. fingerprint identifies the device
// and is mixed into the vault key.
func NewAuthService(c client.Client, v IdentityVault, fingerprint func() string) AuthService {
	return &authService{client: c, vault: v, fingerprint: fingerprint}
}

type session struct {
	id      string
	baseKey string
	key     []byte
}

func (s *session) wipe() { common.WipeByteArray(s.key) }

// handshake runs a key exchange and derives the session key.
func (a *authService) handshake(ctx context.Context) (*session, error) {
	kp, err := keyexchange.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	defer kp.Wipe()

	res, err := a.client.KeyExchange(ctx, kp.PublicKeyHex())
	if err != nil {
		return nil, fmt.Errorf("key exchange: %w", err)
	}

	peer, err := keyexchange.ParsePublicKey(res.ServerPublicKey)
	if err != nil {
		return nil, fmt.Errorf("server public key: %w", err)
	}

	key, err := keyexchange.SessionKey(kp.Private, peer, res.SessionID)
	if err != nil {
		return nil, err
	}

	return &session{id: res.SessionID, baseKey: res.BaseKey, key: key}, nil
}

// Register creates a fresh identity, seals it in the vault and submits its
// commitment encrypted under the session key. The returned payload carries
// the private key for transfer to another device.
func (a *authService) Register(ctx context.Context, protect bool) (*Exported, error) {
	sess, err := a.handshake(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.wipe()

	id, err := zkp.NewIdentity()
	if err != nil {
		return nil, err
	}
	sk, err := id.PrivateKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(sk)

	if err := a.vault.Secure(ctx, a.fingerprint(), sess.baseKey, sk); err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}

	ciphertext, nonce, err := cryptox.Encrypt([]byte(id.Commitment()), sess.key)
	if err != nil {
		return nil, err
	}

	err = a.client.Register(ctx, &client.RegisterRequest{
		Commitment: hex.EncodeToString(ciphertext),
		SessionID:  sess.id,
		NonceHex:   hex.EncodeToString(nonce),
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	return export(sk, protect)
}

// Login proves membership for a fresh session. On success the token cookie
// is held by the client.
func (a *authService) Login(ctx context.Context) error {
	sess, err := a.handshake(ctx)
	if err != nil {
		return err
	}
	defer sess.wipe()

	id, err := a.identity(ctx, sess.baseKey)
	if err != nil {
		return err
	}

	members, err := a.client.Members(ctx)
	if err != nil {
		return fmt.Errorf("members: %w", err)
	}
	group, err := zkp.NewGroup(members)
	if err != nil {
		return fmt.Errorf("members: %w", err)
	}
	if group.IndexOf(id.Commitment()) < 0 {
		return ErrNotRegistered
	}

	root, size, err := a.client.Root(ctx)
	if err != nil {
		return fmt.Errorf("root: %w", err)
	}
	if root != group.Root() || size != group.Size() {
		return ErrRootMismatch
	}

	proof, err := zkp.GenerateProof(id, group, common.MessageTag, sess.id)
	if err != nil {
		return err
	}

	if err := a.client.SubmitProof(ctx, proof, sess.id); err != nil {
		return fmt.Errorf("proof: %w", err)
	}
	return nil
}

// Export renders the stored identity as a transfer payload.
func (a *authService) Export(ctx context.Context, protect bool) (*Exported, error) {
	sk, err := a.privateKey(ctx)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(sk)

	return export(sk, protect)
}

// Import stores the identity carried by p on this device.
func (a *authService) Import(ctx context.Context, p transfer.Payload, pin string) error {
	sk, err := transfer.Import(p, pin)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(sk)

	return a.store(ctx, sk)
}

func (a *authService) ExportMnemonic(ctx context.Context) (string, error) {
	sk, err := a.privateKey(ctx)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(sk)

	return transfer.ExportMnemonic(sk)
}

func (a *authService) ImportMnemonic(ctx context.Context, words string) error {
	sk, err := transfer.ImportMnemonic(words)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(sk)

	return a.store(ctx, sk)
}

// Status never fails; unreachable parts are reported as false.
func (a *authService) Status(ctx context.Context) Status {
	var st Status
	st.HasIdentity, _ = a.vault.Exists(ctx)
	st.Online = a.client.Ping(ctx) == nil
	if st.Online && a.client.HasSession() {
		st.Authenticated = a.client.CheckSession(ctx) == nil
	}
	return st
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Logout drops the session token. The identity stays in the vault.
func (a *authService) Logout(context.Context) error {
	a.client.Logout()
	return nil
}

// store validates sk and seals it under the server's current base key.
func (a *authService) store(ctx context.Context, sk []byte) error {
	if _, err := zkp.IdentityFromPrivateKey(sk); err != nil {
		return fmt.Errorf("%w: %v", transfer.ErrInvalidPayload, err)
	}

	sess, err := a.handshake(ctx)
	if err != nil {
		return err
	}
	defer sess.wipe()

	return a.vault.Secure(ctx, a.fingerprint(), sess.baseKey, sk)
}

func (a *authService) privateKey(ctx context.Context) ([]byte, error) {
	sess, err := a.handshake(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.wipe()

	return a.vault.Retrieve(ctx, a.fingerprint(), sess.baseKey)
}

func (a *authService) identity(ctx context.Context, baseKey string) (*zkp.Identity, error) {
	sk, err := a.vault.Retrieve(ctx, a.fingerprint(), baseKey)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(sk)

	return zkp.IdentityFromPrivateKey(sk)
}

func export(sk []byte, protect bool) (*Exported, error) {
	if !protect {
		return &Exported{Payload: transfer.ExportPlain(sk)}, nil
	}

	pin, err := transfer.GeneratePIN()
	if err != nil {
		return nil, err
	}
	p, err := transfer.ExportProtected(sk, pin)
	if err != nil {
		return nil, err
	}
	return &Exported{Payload: p, PIN: pin}, nil
}
