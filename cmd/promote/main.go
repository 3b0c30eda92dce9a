// Command promote grants administrator rights to an existing account and
// moves it to the Platinum tier. It is the bootstrap path for the first
// admin, since the HTTP admin routes already require one.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/DukeRupert/kaia/internal"
	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/DukeRupert/kaia/internal/repository"
	"github.com/DukeRupert/kaia/internal/service"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func run(args []string) error {
	fs := flag.NewFlagSet("promote", flag.ContinueOnError)
	email := fs.String("email", "", "email of the account to promote (required)")
	credits := fs.Int("credits", -1, "credit balance to set; defaults to the Platinum allotment")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errors.New("-email is required")
	}

	var override *int
	if *credits >= 0 {
		override = credits
	}

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	logger := internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)

	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := internal.RunMigrations(ctx, db, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	admin := service.NewAdminService(repository.NewStore(db), nil, nil, logger)
	account, err := admin.Promote(ctx, *email, override)
	if err != nil {
		if code := domain.ErrorCode(err); code != domain.EINTERNAL {
			return fmt.Errorf("%s: %s", code, domain.ErrorMessage(err))
		}
		return err
	}

	fmt.Printf("promoted %s: tier=%s credits=%d admin=%t\n",
		account.Email, account.Tier, account.Credits, account.Admin)
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "promote:", err)
		os.Exit(1)
	}
}
