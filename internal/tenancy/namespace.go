package tenancy

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
)

// TenantPrefix is prepended to a tenant name to form its schema.
const TenantPrefix = "tenant_"

// maxIdentifierLen is PostgreSQL's NAMEDATALEN - 1.
const maxIdentifierLen = 63

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ErrInvalidNamespace is returned for names that are not plain SQL identifiers.
var ErrInvalidNamespace = errors.New("tenancy: invalid namespace")

// Namespace is a validated schema identifier. The zero value is invalid.
type Namespace struct {
	name string
}

// ParseNamespace validates a raw schema name.
func ParseNamespace(name string) (Namespace, error) {
	if name == "" || len(name) > maxIdentifierLen || !identifierPattern.MatchString(name) {
		return Namespace{}, fmt.Errorf("%w: %q", ErrInvalidNamespace, name)
	}
	return Namespace{name: name}, nil
}

// MustNamespace is ParseNamespace for static names.
func MustNamespace(name string) Namespace {
	ns, err := ParseNamespace(name)
	if err != nil {
		panic(err)
	}
	return ns
}

// TenantNamespace maps a tenant name to its schema, e.g. "acme" -> "tenant_acme".
func TenantNamespace(tenantName string) (Namespace, error) {
	if tenantName == "" {
		return Namespace{}, fmt.Errorf("%w: empty tenant name", ErrInvalidNamespace)
	}
	return ParseNamespace(TenantPrefix + tenantName)
}

// ValidTenantName reports whether tenantName produces a usable schema.
func ValidTenantName(tenantName string) bool {
	_, err := TenantNamespace(tenantName)
	return err == nil
}

// String returns the raw schema name.
func (n Namespace) String() string {
	return n.name
}

// IsZero reports whether the namespace was never validated.
func (n Namespace) IsZero() bool {
	return n.name == ""
}

// Ident returns the quoted identifier for use in SQL text.
func (n Namespace) Ident() string {
	return pgx.Identifier{n.name}.Sanitize()
}
