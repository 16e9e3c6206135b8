// Package tenants owns the global tenant directory and tenant registration.
package tenants

import "time"

// TenantUser is a directory row mapping a registrant's email to their tenant.
// TenantSchema holds the tenant name; the schema itself is "tenant_" + TenantSchema.
type TenantUser struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	TenantSchema string    `json:"tenant_schema"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Email        string `json:"email" validate:"required,email,max=255"`
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	TenantSchema string `json:"tenant_schema" validate:"required,tenant_name"`
}
