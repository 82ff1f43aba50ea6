package models

import "time"

// User represents a registered account.
type User struct {
	// ID is the auto-incremented primary key.
	ID int64

	// Name is the display name shown in the UI.
	Name string

	// Email is the login identifier (unique, stored lower-cased).
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// JTI is the current revocation marker. A token is only accepted while
	// its jti claim matches this value.
	JTI string

	CreatedAt time.Time
	UpdatedAt time.Time
}
