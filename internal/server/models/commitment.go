// Package models defines server-side data models persisted in the database.
package models

import "time"

// Commitment is one enrolled member. MerkleIndex is the member's position in
// the ordered membership set and never changes once assigned.
type Commitment struct {
	MerkleIndex int64
	UserID      string
	Value       string
	CreatedAt   time.Time
}
