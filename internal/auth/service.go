package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskeri/taskeri/internal/platform/db"
	"github.com/taskeri/taskeri/internal/shared"
	"github.com/taskeri/taskeri/internal/tenancy"
	"github.com/taskeri/taskeri/internal/tenants"
)

// Directory resolves the tenant that owns an email.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (tenants.TenantUser, error)
}

// Binder binds a session to a tenant namespace.
type Binder interface {
	Bind(ctx context.Context, ns tenancy.Namespace) (*tenancy.Session, error)
}

// Issuer signs bearer tokens.
type Issuer interface {
	Issue(userID, tenantID int64, tenantName string) (string, error)
	TTL() time.Duration
}

// Revoker invalidates a token before it expires.
type Revoker interface {
	Revoke(ctx context.Context, id string, until time.Time) error
}

// Service wraps authentication business rules.
type Service struct {
	directory Directory
	binder    Binder
	issuer    Issuer
	revoker   Revoker
	users     func(db.DBTX) Repository
}

// NewService constructs a new Service. revoker may be nil, in which case logout is a no-op.
func NewService(directory Directory, binder Binder, issuer Issuer, revoker Revoker) *Service {
	return &Service{
		directory: directory,
		binder:    binder,
		issuer:    issuer,
		revoker:   revoker,
		users:     NewRepository,
	}
}

// dummyHash keeps the cost of a failed lookup close to a failed password check.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("taskeri-dummy-password"), bcrypt.MinCost)

// Login resolves the caller's tenant from the directory, checks the password inside that
// tenant and issues a token carrying the tenant id and name.
func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	email = shared.NormalizeEmail(email)
	if email == "" || password == "" {
		return Token{}, shared.ErrInvalidCredentials
	}

	tu, err := s.directory.FindByEmail(ctx, email)
	if errors.Is(err, shared.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return Token{}, shared.ErrInvalidCredentials
	}
	if err != nil {
		return Token{}, err
	}

	ns, err := tenancy.TenantNamespace(tu.TenantSchema)
	if err != nil {
		return Token{}, fmt.Errorf("auth: tenant %q: %w", tu.TenantSchema, err)
	}
	sess, err := s.binder.Bind(ctx, ns)
	if err != nil {
		return Token{}, err
	}
	defer sess.Release()

	user, err := s.users(sess.Conn()).FindByEmail(ctx, email)
	if errors.Is(err, shared.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return Token{}, shared.ErrInvalidCredentials
	}
	if err != nil {
		return Token{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Token{}, shared.ErrInvalidCredentials
	}

	raw, err := s.issuer.Issue(user.ID, tu.ID, tu.TenantSchema)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: raw, TokenType: "bearer", ExpiresIn: int64(s.issuer.TTL().Seconds())}, nil
}

// Logout revokes the caller's current token.
func (s *Service) Logout(ctx context.Context, id shared.Identity) error {
	if s.revoker == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, id.TokenID, id.ExpiresAt)
}
