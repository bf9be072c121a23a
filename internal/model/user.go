package model

import "time"

// User represents an account record as stored in the `users` table.  The
// display name doubles as the principal identity everywhere else in the
// system; uniqueness is only enforced on the email.
//
// Fields:
//  ID           - primary key identifier.
//  Name         - display name shown to other participants.
//  Email        - unique, lower-cased email address.
//  PasswordHash - bcrypt hashed password.
//  CreatedAt    - timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
}
