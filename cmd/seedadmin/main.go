// Command seedadmin creates the shop owner's admin account, or resets its
// password with -reset.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/domain/user"
	"storefront/internal/logging"
)

func main() {
	email := flag.String("email", "", "admin email (required)")
	password := flag.String("password", "", "admin password; generated when empty")
	reset := flag.Bool("reset", false, "reset the password if the account exists")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	addr := strings.TrimSpace(strings.ToLower(*email))
	if addr == "" || cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "usage: seedadmin -email owner@example.com [-password secret] [-reset]  (DATABASE_URL must be set)")
		os.Exit(2)
	}

	pw := *password
	generated := pw == ""
	if generated {
		if pw, err = auth.GeneratePassword(12); err != nil {
			logger.Fatal("generate password", zap.Error(err))
		}
	}
	hash, err := auth.HashPassword(pw)
	if err != nil {
		logger.Fatal("hash password", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	users := auth.NewUserRepo(pool)
	u, err := users.Create(ctx, addr, hash, user.RoleAdmin)
	switch {
	case errors.Is(err, auth.ErrEmailTaken) && *reset:
		if err := users.SetPassword(ctx, addr, hash, user.RoleAdmin); err != nil {
			logger.Fatal("reset password", zap.Error(err))
		}
		logger.Info("admin password reset", zap.String("email", addr))
	case errors.Is(err, auth.ErrEmailTaken):
		logger.Fatal("account exists; pass -reset to change its password", zap.String("email", addr))
	case err != nil:
		logger.Fatal("create admin", zap.Error(err))
	default:
		logger.Info("admin created", zap.String("email", u.Email), zap.Int64("id", u.ID))
	}

	if generated {
		fmt.Printf("password: %s\n", pw)
	}
}
