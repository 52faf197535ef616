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

	"imgexport/internal/adapter/repo"
	"imgexport/internal/domain"
	"imgexport/internal/infra"
)

func main() {
	var (
		idFlag    string
		emailFlag string
		planFlag  string
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update (UUID)")
	flag.StringVar(&emailFlag, "email", "", "user email to update")
	flag.StringVar(&planFlag, "plan", "pro", "plan to assign (free, pro, ultra)")
	flag.Parse()

	userID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)
	plan := domain.UserPlan(strings.TrimSpace(strings.ToLower(planFlag)))

	if userID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	if !plan.Valid() {
		exitWithError(fmt.Errorf("unsupported plan %q", plan))
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	if cfg.DatabaseURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLoggerTo(os.Stderr, "cli").With().Str("cmd", "userplan").Logger()
	profiles := repo.NewProfileRepo(infra.NewSQLRunner(pool, logger))

	if userID == "" {
		account, err := profiles.FindByEmail(ctx, email)
		if err != nil {
			exitWithError(fmt.Errorf("failed to load user: %w", err))
		}
		userID = account.ID
	}

	updated, err := profiles.SetPlan(ctx, userID, plan)
	if err != nil {
		exitWithError(fmt.Errorf("failed to update user plan: %w", err))
	}
	fmt.Printf("User %s (%s) updated to plan %s\n", updated.ID, updated.Email, updated.Plan)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
