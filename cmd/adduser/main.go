package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"finbox/internal/service"
	"finbox/internal/storage"
	"finbox/pkg/auth"
	"finbox/pkg/config"
	"finbox/pkg/logger"

	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Email address")
	name := fs.String("name", "", "Display name")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	driver := fs.String("driver", "", "Storage driver: postgres or sqlite (default from STORAGE_DRIVER)")
	dbPath := fs.String("db", "", "SQLite database file; implies -driver sqlite")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-name <name>] [-password <password>] [-driver <driver>] [-db <sqlite_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *dbPath != "" {
		cfg.Storage.Driver = config.StorageDriverSQLite
		cfg.Storage.SQLitePath = *dbPath
	}
	if *driver != "" {
		cfg.Storage.Driver = strings.ToLower(*driver)
	}
	if cfg.Storage.Driver == config.StorageDriverMemory {
		return fmt.Errorf("memory storage does not persist users")
	}

	appLogger := logger.New("error", cfg.Logger.Format)
	defer appLogger.Sync()

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	// Session settings are irrelevant here; only identity creation is used.
	authService := service.NewAuthService(store.Identities(), auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp), appLogger)
	userService := service.NewUserService(store, appLogger)

	identity, err := authService.CreateIdentity(ctx, *email, *name, password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			return fmt.Errorf("user %s already exists", *email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user, err := userService.EnsureUser(ctx, identity.ID.String())
	if err != nil {
		return fmt.Errorf("failed to create application user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %s\n", identity.Email, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
