package user

import (
	"time"

	"github.com/google/uuid"
)

// User owns statements and a category rule set.
type User struct {
	ID        uuid.UUID
	Username  string
	Email     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateParams are the inputs of Service.Create.
type CreateParams struct {
	Username string
	Email    string
}
