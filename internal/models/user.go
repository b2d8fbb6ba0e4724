package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity is a login known to the local identity provider. Its ID is the
// external identity id that web sessions carry.
type Identity struct {
	ID        uuid.UUID `db:"id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	Password  string    `db:"password_hash"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// User is the internal record, created lazily on first authenticated access.
type User struct {
	ID         uuid.UUID `db:"id"`
	IdentityID string    `db:"identity_id"`
	Email      string    `db:"email"`
	Name       string    `db:"name"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
