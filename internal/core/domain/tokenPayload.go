package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	Admin   UserRole = "admin"
	AppUser UserRole = "appuser"
)

// TokenPayload is the identity resolved from a bearer token. UserID is the
// owner every component operation is scoped to.
type TokenPayload struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Role      UserRole
	ExpiresAt time.Time
}
