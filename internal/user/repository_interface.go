package user

import "context"

// Repository persists marketplace accounts. Role is one of the auth.Role*
// constants (buyer, seller, admin).
type Repository interface {
	Create(ctx context.Context, name, email, passwordHash, role string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}
