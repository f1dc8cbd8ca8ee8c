package users

import (
	"context"
)

// Repository is the persistence interface for accounts. GetUserByID and
// GetUserByEmail return nil when no user matches.
type Repository interface {
	// CreateUser inserts and returns the new id. A duplicate email surfaces
	// as a conflict-kind error.
	CreateUser(ctx context.Context, u *User) (int64, error)

	GetUserByID(ctx context.Context, id int64) (*User, error)

	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// UpdateUser writes first/last name, email, and password hash.
	UpdateUser(ctx context.Context, u *User) error

	SetImageFilename(ctx context.Context, id int64, filename string) error
}
