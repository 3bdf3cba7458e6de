// Package cli provides the interactive GlueAuth command-line client.
//
// It wires configuration, the local vault, the API client and an interactive
// REPL. A background watcher probes the server and flips the prompt between
// online and offline.
//
// Key features:
//   - register: create an identity and enroll it, printing the transfer payload
//   - login / logout: zero-knowledge login and dropping the session token
//   - export / import: move the identity as a QR payload, optionally PIN protected
//   - words / restore: the same identity as a 24-word mnemonic
//   - status: local identity, connectivity and session state
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
