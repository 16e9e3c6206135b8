// Package authz runs every request through authentication, tenant binding and permission checks
// before it reaches a handler.
package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskeri/taskeri/internal/platform/db"
	"github.com/taskeri/taskeri/internal/platform/httpx"
	"github.com/taskeri/taskeri/internal/rbac"
	"github.com/taskeri/taskeri/internal/routes"
	"github.com/taskeri/taskeri/internal/shared"
	"github.com/taskeri/taskeri/internal/tenancy"
	"github.com/taskeri/taskeri/internal/token"
)

// Verifier validates bearer tokens.
type Verifier interface {
	Verify(raw string) (shared.Identity, error)
}

// RevocationChecker reports logged-out tokens.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Recorder counts dispatcher decisions.
type Recorder interface {
	ObserveAuthz(stage, outcome string)
}

// Config wires a Dispatcher.
type Config struct {
	Verifier Verifier
	// Revocations is optional. When nil no revocation lookup happens.
	Revocations RevocationChecker
	Binder      tenancy.Binder
	Routes      *routes.Table
	// Stores builds the permission store for a bound connection. Defaults to rbac.NewPGStore.
	Stores func(db.DBTX) rbac.Store
	// Resources builds the ownership store for a bound connection. Defaults to NewPGResources.
	Resources func(db.DBTX) ResourceStore
	Ownership *OwnershipRules
	Logger    *slog.Logger
	Metrics   Recorder
}

// Dispatcher is the authorization middleware.
type Dispatcher struct {
	verifier    Verifier
	revocations RevocationChecker
	binder      tenancy.Binder
	routes      *routes.Table
	stores      func(db.DBTX) rbac.Store
	resources   func(db.DBTX) ResourceStore
	ownership   *OwnershipRules
	logger      *slog.Logger
	metrics     Recorder
}

// NewDispatcher validates cfg and builds a Dispatcher.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	if cfg.Verifier == nil || cfg.Binder == nil || cfg.Routes == nil {
		return nil, errors.New("authz: verifier, binder and routes are required")
	}
	d := &Dispatcher{
		verifier:    cfg.Verifier,
		revocations: cfg.Revocations,
		binder:      cfg.Binder,
		routes:      cfg.Routes,
		stores:      cfg.Stores,
		resources:   cfg.Resources,
		ownership:   cfg.Ownership,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
	if d.stores == nil {
		d.stores = func(conn db.DBTX) rbac.Store { return rbac.NewPGStore(conn) }
	}
	if d.resources == nil {
		d.resources = func(conn db.DBTX) ResourceStore { return NewPGResources(conn) }
	}
	if d.ownership == nil {
		d.ownership = DefaultOwnership()
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d, nil
}

// Middleware returns the dispatcher as chi-compatible middleware.
func (d *Dispatcher) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.serve(w, r, next)
	})
}

func (d *Dispatcher) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ctx := r.Context()
	path := r.URL.Path

	if r.Method == http.MethodOptions || d.routes.IsPublic(path) {
		sess, err := d.binder.BindGlobal(ctx)
		if err != nil {
			d.logger.Error("bind global namespace", slog.String("path", path), slog.Any("error", err))
			d.observe(stagePublic, OutcomeError)
			internalError(w)
			return
		}
		defer sess.Release()
		d.observe(stagePublic, OutcomeAllowed)
		next.ServeHTTP(w, r.WithContext(tenancy.ContextWithSession(ctx, sess)))
		return
	}

	// Unauthenticated -> Authenticated
	raw, ok := bearerToken(r)
	if !ok {
		d.observe(StateAuthenticated.String(), OutcomeDenied)
		httpx.Unauthorized(w, httpx.MsgMissingToken)
		return
	}
	id, err := d.verifier.Verify(raw)
	if err != nil {
		d.observe(StateAuthenticated.String(), OutcomeDenied)
		if errors.Is(err, token.ErrExpiredToken) {
			httpx.Unauthorized(w, httpx.MsgExpiredToken)
			return
		}
		httpx.Unauthorized(w, httpx.MsgInvalidToken)
		return
	}
	if d.revocations != nil {
		revoked, err := d.revocations.IsRevoked(ctx, id.TokenID)
		if err != nil {
			d.logger.Error("revocation lookup", slog.String("tenant", id.TenantName), slog.Any("error", err))
			d.observe(StateAuthenticated.String(), OutcomeError)
			internalError(w)
			return
		}
		if revoked {
			d.observe(StateAuthenticated.String(), OutcomeDenied)
			httpx.Unauthorized(w, httpx.MsgInvalidToken)
			return
		}
	}

	// Authenticated -> SchemaBound
	ns, err := tenancy.TenantNamespace(id.TenantName)
	if err != nil {
		d.logger.Error("tenant namespace", slog.String("tenant", id.TenantName), slog.Any("error", err))
		d.observe(StateSchemaBound.String(), OutcomeError)
		internalError(w)
		return
	}
	sess, err := d.binder.Bind(ctx, ns)
	if err != nil {
		d.logger.Error("bind tenant namespace", slog.String("tenant", id.TenantName), slog.Any("error", err))
		d.observe(StateSchemaBound.String(), OutcomeError)
		internalError(w)
		return
	}
	defer sess.Release()

	eval := rbac.NewEvaluator(d.stores(sess.Conn()))
	ctx = tenancy.ContextWithSession(ctx, sess)
	ctx = shared.ContextWithIdentity(ctx, id)
	ctx = rbac.ContextWithEvaluator(ctx, eval)

	// SchemaBound -> PermissionChecked
	match := d.routes.Lookup(path, r.Method)
	if len(match.Permissions) == 0 {
		d.observe(StatePermissionChecked.String(), OutcomeAllowed)
		next.ServeHTTP(w, r.WithContext(ctx))
		return
	}
	var granted bool
	if match.Require == routes.RequireAll {
		granted, err = eval.HasAll(ctx, id.UserID, match.Permissions...)
	} else {
		granted, err = eval.HasAny(ctx, id.UserID, match.Permissions...)
	}
	if err != nil {
		d.logger.Error("permission check", slog.String("tenant", id.TenantName), slog.Any("error", err))
		d.observe(StatePermissionChecked.String(), OutcomeError)
		internalError(w)
		return
	}
	if granted {
		d.observe(StatePermissionChecked.String(), OutcomeAllowed)
		next.ServeHTTP(w, r.WithContext(ctx))
		return
	}

	// PermissionChecked -> OwnershipChecked
	if match.Resource == nil {
		d.deny(w, id, r, StatePermissionChecked)
		return
	}
	owner, err := d.ownership.Check(ctx, OwnershipRequest{
		UserID:    id.UserID,
		Resource:  *match.Resource,
		Evaluator: eval,
		Resources: d.resources(sess.Conn()),
	})
	if err != nil {
		d.logger.Error("ownership check", slog.String("tenant", id.TenantName), slog.String("resource", match.Resource.Type), slog.Any("error", err))
		d.observe(StateOwnershipChecked.String(), OutcomeError)
		internalError(w)
		return
	}
	if !owner {
		d.deny(w, id, r, StateOwnershipChecked)
		return
	}
	d.observe(StateOwnershipChecked.String(), OutcomeAllowed)
	next.ServeHTTP(w, r.WithContext(ctx))
}

func (d *Dispatcher) deny(w http.ResponseWriter, id shared.Identity, r *http.Request, stage State) {
	d.logger.Debug("request denied",
		slog.String("tenant", id.TenantName),
		slog.Int64("user_id", id.UserID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stage", stage.String()),
	)
	d.observe(stage.String(), OutcomeDenied)
	httpx.Problem(w, http.StatusForbidden, "Forbidden", httpx.MsgForbidden)
}

func (d *Dispatcher) observe(stage, outcome string) {
	if d.metrics != nil {
		d.metrics.ObserveAuthz(stage, outcome)
	}
}

func internalError(w http.ResponseWriter) {
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", httpx.MsgInternal)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t") {
		return "", false
	}
	return raw, true
}
