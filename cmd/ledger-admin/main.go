// Command ledger-admin performs maintenance tasks against the ledger database.
//
//	ledger-admin adduser -user alice -email alice@example.com [-password pw] [-currency EUR]
//	ledger-admin reconcile -user alice
//	ledger-admin purge-sessions
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
	"time"

	"golang.org/x/term"

	"ledger/internal/auth"
	"ledger/internal/config"
	applog "ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
)

const defaultDBPath = "./data/ledger.db"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stdout)
		return errors.New("missing command")
	}
	switch args[0] {
	case "adduser":
		return runAddUser(args[1:], stdin, stdout, stderr)
	case "reconcile":
		return runReconcile(args[1:], stdout, stderr)
	case "purge-sessions":
		return runPurgeSessions(args[1:], stdout, stderr)
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return nil
	default:
		usage(stdout)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: ledger-admin <command> [flags]")
	fmt.Fprintln(w, "Commands: adduser, reconcile, purge-sessions")
}

// env bundles the services the commands share.
type env struct {
	repo         *storage.SQLiteRepository
	registration *services.RegistrationService
	ledger       *services.LedgerService
	accounts     *services.AccountService
}

func openEnv(dbPath string) (*env, error) {
	cfg := config.Load()
	if dbPath == "" {
		dbPath = cfg.SQLiteDBPath
	}
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger := applog.Discard()
	return &env{
		repo:         repo,
		registration: services.NewRegistrationService(repo, auth.NewHasher(cfg.BcryptCost), cfg.SessionTTL, cfg.DefaultCurrency, logger),
		ledger:       services.NewLedgerService(repo, nil, logger),
		accounts:     services.NewAccountService(repo, nil, logger),
	}, nil
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", "", "Path to database file (default $SQLITE_DB_PATH or "+defaultDBPath+")")
	return fs, dbPath
}

func runAddUser(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs, dbPath := newFlagSet("adduser", stderr)
	username := fs.String("user", "", "Username")
	email := fs.String("email", "", "Email address")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	currency := fs.String("currency", "", "Currency code (default $DEFAULT_CURRENCY)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" || *email == "" {
		fmt.Fprintln(stdout, "Usage: ledger-admin adduser -user <username> -email <email> [-password <password>] [-db <db_path>]")
		fs.PrintDefaults()
		return errors.New("missing required flags: user, email")
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
		return errors.New("password cannot be empty")
	}

	e, err := openEnv(*dbPath)
	if err != nil {
		return err
	}
	defer e.repo.Close()

	user, err := e.registration.Register(context.Background(), *username, *email, password, *currency)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Username, user.ID)
	return nil
}

// runReconcile prints each account balance next to the sum of its records.
func runReconcile(args []string, stdout, stderr io.Writer) error {
	fs, dbPath := newFlagSet("reconcile", stderr)
	username := fs.String("user", "", "Username")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("missing required flags: user")
	}

	e, err := openEnv(*dbPath)
	if err != nil {
		return err
	}
	defer e.repo.Close()

	ctx := context.Background()
	user, err := e.repo.GetUserByUsername(ctx, *username)
	if err != nil {
		return fmt.Errorf("user %s: %w", *username, err)
	}
	accounts, err := e.accounts.ListAccounts(ctx, user.ID)
	if err != nil {
		return err
	}

	drifted := 0
	for _, a := range accounts {
		rec, err := e.ledger.Reconcile(ctx, user.ID, a.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%-20s balance=%.2f records=%.2f drift=%.2f\n",
			a.Type, rec.Account.Balance, rec.Contributions, rec.Drift)
		if rec.Drift != 0 {
			drifted++
		}
	}
	fmt.Fprintf(stdout, "%d account(s), %d with drift\n", len(accounts), drifted)
	return nil
}

func runPurgeSessions(args []string, stdout, stderr io.Writer) error {
	fs, dbPath := newFlagSet("purge-sessions", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := openEnv(*dbPath)
	if err != nil {
		return err
	}
	defer e.repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := e.registration.PurgeSessions(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Purged %d expired session(s)\n", n)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
