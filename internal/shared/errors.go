package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateIdentity occurs when registering an email that already owns a tenant.
	ErrDuplicateIdentity = errors.New("email already exists")
	// ErrTenantTaken occurs when the requested tenant schema already belongs to another registrant.
	ErrTenantTaken = errors.New("tenant already exists")
)
