package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/taskeri/taskeri/internal/app"
	"github.com/taskeri/taskeri/internal/platform/db"
	"github.com/taskeri/taskeri/internal/provisioning"
	"github.com/taskeri/taskeri/internal/tenancy"
	"github.com/taskeri/taskeri/internal/tenants"
)

func main() {
	tenant := flag.String("tenant", "demo", "tenant name; the schema becomes tenant_<name>")
	email := flag.String("email", "admin@demo.local", "admin email")
	password := flag.String("password", getenv("SEED_ADMIN_PASSWORD", "change-me-now"), "admin password")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.New(ctx, cfg.DSN(), db.Options{MaxConns: 4})
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	fmt.Println("→ Ensuring global directory...")
	if err := db.EnsureGlobal(ctx, pool, cfg.GlobalSchema); err != nil {
		log.Fatalf("ensure global: %v", err)
	}

	resolver := tenancy.NewResolver(tenancy.PoolAcquirer(pool), tenancy.MustNamespace(cfg.GlobalSchema), nil)
	sess, err := resolver.BindGlobal(ctx)
	if err != nil {
		log.Fatalf("bind global: %v", err)
	}
	defer sess.Release()

	directory := tenants.NewRepository(func(context.Context) (db.DBTX, error) { return sess.Conn(), nil })
	registrar := tenants.NewRegistrar(directory, provisioning.NewService(resolver, nil), nil, nil)

	fmt.Printf("→ Registering tenant %q...\n", *tenant)
	tu, err := registrar.Register(ctx, tenants.RegisterInput{
		Email:        *email,
		FirstName:    "Demo",
		LastName:     "Admin",
		Password:     *password,
		TenantSchema: *tenant,
	})
	if err != nil {
		log.Fatalf("register tenant: %v", err)
	}

	report, err := provisioning.NewAuditor(resolver).Audit(ctx, tenancy.MustNamespace(tenancy.TenantPrefix+tu.TenantSchema))
	if err != nil {
		log.Fatalf("audit tenant: %v", err)
	}
	fmt.Printf("  permissions=%d roles=%d admin_permissions=%d admins=%d\n",
		report.Permissions, report.Roles, report.AdminPermissions, report.Admins)

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
