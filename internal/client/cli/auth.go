package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/glueauth/internal/client/client"
	"github.com/dmitrijs2005/glueauth/internal/client/services"
	"github.com/dmitrijs2005/glueauth/internal/client/transfer"
	"github.com/dmitrijs2005/glueauth/internal/client/vault"
	"github.com/dmitrijs2005/glueauth/internal/common"
)

// getSimpleText, getMultiline and getPIN are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getMultiline  = GetMultiline
	getPIN        = GetPIN
)

// Register creates and enrolls a new identity. The user chooses whether the
// printed transfer payload is PIN protected; key derivation for the PIN runs
// in the background while the CLI waits.
func (a *App) Register(ctx context.Context) error {
	protect, err := confirm(a.reader, "Protect the transfer code with a PIN?", a.out)
	if err != nil {
		return err
	}

	exp, err := runAsync(ctx, a.out, "Registering...", func() (*services.Exported, error) {
		return a.authService.Register(ctx, protect)
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Commitment registered successfully")
	return a.printExported(exp)
}

// Login proves membership for a new session.
func (a *App) Login(ctx context.Context) error {
	if _, err := runAsync(ctx, a.out, "Proving membership...", func() (struct{}, error) {
		return struct{}{}, a.authService.Login(ctx)
	}); err != nil {
		a.setLoggedIn(false)
		return err
	}

	a.setLoggedIn(true)
	fmt.Fprintln(a.out, "Authenticated successfully")
	return nil
}

// Logout drops the session token; the identity stays on the device.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.setLoggedIn(false)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st := a.authService.Status(ctx)
	a.setLoggedIn(st.Authenticated)
	if st.Online {
		a.setMode(ModeOnline)
	} else {
		a.setMode(ModeOffline)
	}

	identity, session := "no", "none"
	if st.HasIdentity {
		identity = "yes"
	}
	if st.Authenticated {
		session = "authenticated"
	}

	fmt.Fprintf(a.out, "identity on device: %s\nserver:             %s\nsession:            %s\n",
		identity, a.currentMode(), session)
	return nil
}

// describe turns an error into a short user-facing message.
func describe(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	case errors.Is(err, common.ErrAlreadyExists):
		return "Commitment already exists"
	case errors.Is(err, client.ErrUnauthorized):
		return "Invalid proof"
	case errors.Is(err, vault.ErrLocalDataNotAvailable):
		return "no identity on this device, register or import one first"
	case errors.Is(err, transfer.ErrPINRequired):
		return "PIN required"
	case errors.Is(err, transfer.ErrInvalidPIN):
		return transfer.ErrInvalidPIN.Error()
	case errors.Is(err, transfer.ErrInvalidPayload):
		return "invalid transfer code"
	case errors.Is(err, common.ErrAuthentication):
		return "local identity cannot be unlocked on this device"
	case errors.Is(err, services.ErrNotRegistered), errors.Is(err, services.ErrRootMismatch):
		return err.Error()
	case errors.Is(err, client.ErrRequestFailed):
		return client.ErrRequestFailed.Error()
	default:
		return err.Error()
	}
}
