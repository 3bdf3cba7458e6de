// Package serverfakes runs a complete GlueAuth HTTP server in process for
// client-side tests.
//
// Membership and nullifiers live in memory, so tests exercise the real key
// exchange, registration and proof verification paths without Postgres.
package serverfakes
