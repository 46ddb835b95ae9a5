package models

import "time"

// RefreshToken is an opaque single-use credential exchanged for a fresh token
// pair. Rotation deletes the row inside the same transaction that issues the
// replacement, so a token value can never be redeemed twice.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
