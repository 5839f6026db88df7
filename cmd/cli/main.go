package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/formativa/internal/repository"
	"github.com/aryan0dhankhar/formativa/internal/security/auth"
	"github.com/aryan0dhankhar/formativa/internal/service"
	"github.com/aryan0dhankhar/formativa/pkg/config"
	"github.com/aryan0dhankhar/formativa/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "migrate":
		err = handleMigrate(args)
	case "create-manager":
		err = createManager(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

// openDB loads the server configuration and connects to its database.
func openDB(ctx context.Context) (*database.ConnectionPool, *config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.NewLogger(cfg.LogLevel)
	pool, err := database.NewConnectionPool(ctx, cfg.Database(), log)
	if err != nil {
		return nil, nil, nil, err
	}
	return pool, cfg, log, nil
}

func handleMigrate(args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: formativa migrate <up|down|status>")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, _, log, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := database.NewMigrator(pool.GetDB(), log)
	if err != nil {
		return err
	}

	switch args[0] {
	case "up":
		if err := migrator.Up(ctx); err != nil {
			return err
		}
		fmt.Println("✓ Migrations applied")
	case "down":
		if err := migrator.Down(ctx); err != nil {
			return err
		}
		fmt.Println("✓ Last migration rolled back")
	case "status":
		states, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tSOURCE\tSTATE")
		for _, s := range states {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", s.Version, s.Path, state)
		}
		w.Flush()
	default:
		return fmt.Errorf("unknown migrate command: %s", args[0])
	}
	return nil
}

// createManager bootstraps a manager; only managers can create identities
// through the API.
func createManager(args []string) error {
	fs := flag.NewFlagSet("create-manager", flag.ExitOnError)
	username := fs.String("username", "", "login name")
	password := fs.String("password", "", "password")
	email := fs.String("email", "", "email (optional)")
	ni := fs.Int64("ni", 0, "institutional number")
	birth := fs.String("birth", "", "birth date YYYY-MM-DD")
	hire := fs.String("hire", time.Now().Format(domain.DateLayout), "hire date YYYY-MM-DD")
	fs.Parse(args)

	if *username == "" || *password == "" || *ni == 0 || *birth == "" {
		fmt.Println("Error: username, password, ni and birth are required")
		fs.PrintDefaults()
		return nil
	}
	birthDate, err := domain.ParseDate(*birth)
	if err != nil {
		return err
	}
	hireDate, err := domain.ParseDate(*hire)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, cfg, log, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	users := service.NewUserService(
		repository.NewPostgresUserRepository(pool.GetDB(), log),
		auth.NewPasswordHasher(cfg.BcryptCost),
		nil, nil, log,
	)
	user, err := users.CreateManager(ctx, service.UserFields{
		Username:  username,
		Password:  password,
		Email:     domain.NullableOf(*email),
		NI:        ni,
		BirthDate: &birthDate,
		HireDate:  &hireDate,
	})
	if err != nil {
		return err
	}
	fmt.Printf("✓ Manager created: %s (id %d)\n", user.Username, user.ID)
	return nil
}

func printUsage() {
	fmt.Println(`formativa - administrative tooling

Usage:
  formativa migrate up|down|status    Apply, roll back or list schema migrations
  formativa create-manager [flags]    Create a manager (gestor) account
  formativa help                      Show this help

Configuration is read the same way as the server (config.yaml, then env).`)
}
