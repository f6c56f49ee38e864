package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("user not found")

// User identifies an operator of the system. Orders record the user that
// created them.
type User struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// Repository defines read operations over users.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
}
