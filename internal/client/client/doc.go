// Package client contains client-side building blocks for GlueAuth.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) to talk
//     to the GlueAuth server: KeyExchange, Register, SubmitProof, Members,
//     Root, CheckSession and Ping.
//  2. A concrete JSON-over-HTTP implementation (see HTTPClient) that keeps
//     the session token cookie in a cookie jar and maps HTTP statuses to
//     sentinel errors.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations) for
//     the CLI, wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable. Server answers with a status of 400
// or above are returned as *Error, which unwraps to common.ErrValidation,
// ErrUnauthorized, common.ErrAlreadyExists or ErrRequestFailed.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation and timeouts.
package client
