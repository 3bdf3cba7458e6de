package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/glueauth/internal/client/services"
	"github.com/dmitrijs2005/glueauth/internal/client/transfer"
)

// Export prints the stored identity as a transfer code.
func (a *App) Export(ctx context.Context) error {
	protect, err := confirm(a.reader, "Protect the transfer code with a PIN?", a.out)
	if err != nil {
		return err
	}

	exp, err := runAsync(ctx, a.out, "Preparing transfer code...", func() (*services.Exported, error) {
		return a.authService.Export(ctx, protect)
	})
	if err != nil {
		return err
	}
	return a.printExported(exp)
}

// Import reads a transfer code and stores the identity it carries.
func (a *App) Import(ctx context.Context) error {
	text, err := getSimpleText(a.reader, "Paste the transfer code", a.out)
	if err != nil {
		return err
	}
	p, err := transfer.Parse(text)
	if err != nil {
		return err
	}

	var pin string
	if p.Encrypted {
		if pin, err = getPIN(a.out); err != nil {
			return err
		}
	}

	if _, err := runAsync(ctx, a.out, "Importing...", func() (struct{}, error) {
		return struct{}{}, a.authService.Import(ctx, p, pin)
	}); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Identity imported")
	return nil
}

func (a *App) ExportWords(ctx context.Context) error {
	words, err := a.authService.ExportMnemonic(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Recovery words (keep them secret):")
	fmt.Fprintln(a.out, words)
	return nil
}

func (a *App) ImportWords(ctx context.Context) error {
	words, err := getMultiline(a.reader, "Enter the 24 recovery words", a.out)
	if err != nil {
		return err
	}
	if err := a.authService.ImportMnemonic(ctx, words); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Identity imported")
	return nil
}

func (a *App) printExported(exp *services.Exported) error {
	text, err := transfer.Marshal(exp.Payload)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Transfer code (scan or paste on the other device):")
	fmt.Fprintln(a.out, text)
	if exp.PIN != "" {
		fmt.Fprintln(a.out, "PIN:", exp.PIN)
	}
	return nil
}

// runAsync runs fn in a goroutine and waits for it or for ctx. Key
// derivation can take a noticeable time, so msg is printed first.
func runAsync[T any](ctx context.Context, w io.Writer, msg string, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}

	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v: v, err: err}
	}()

	fmt.Fprintln(w, msg)

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
