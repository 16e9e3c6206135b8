package users

import "time"

// User represents a tenant user account.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the caller's own view of themselves.
type Profile struct {
	User
	TenantName  string   `json:"tenant_name"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}
