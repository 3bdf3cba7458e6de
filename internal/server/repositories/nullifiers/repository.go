// Package nullifiers declares the storage contract for spent login
// nullifiers and its PostgreSQL implementation.
package nullifiers

import "context"

// Repository records nullifiers. Entries are never removed.
type Repository interface {
	// Exists reports whether nullifier has been recorded.
	Exists(ctx context.Context, nullifier string) (bool, error)

	// Create records nullifier and reports whether this call inserted it.
	// Check and insert are one statement, so of two concurrent callers
	// exactly one gets true.
	Create(ctx context.Context, nullifier string) (bool, error)
}
