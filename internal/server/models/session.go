package models

import "time"

// Session is a key-exchange secret awaiting use.
type Session struct {
	ID        string
	Secret    []byte
	ExpiresAt time.Time
}
