// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account that owns files. The ID is the stable key for both the
// database rows and the on-disk user root directory; the username is a login
// and display alias only.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
