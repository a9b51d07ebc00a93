// FILE: cmd/repertoire-server/cli/cli.go

// Package cli implements the "db" administration subcommands of the server
// binary. They work on the SQLite store directly and never need a running
// server.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
	"golang.org/x/term"

	"repertoire/internal/config"
	"repertoire/internal/service"
	"repertoire/internal/storage"
)

const minPasswordLength = 8

// Out receives all command output
var Out io.Writer = os.Stdout

// readPassword reads a line without echo; replaced in tests
var readPassword = func(prompt string) (string, error) {
	fmt.Fprint(Out, prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(Out)
	return string(pw), err
}

// Run dispatches a db subcommand
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, query, user, token")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:])
	case "delete":
		return runDelete(args[1:])
	case "query":
		return runQuery(args[1:])
	case "user":
		if len(args) < 2 {
			return fmt.Errorf("user subcommand required: add, delete, set-password, set-hash, list")
		}
		return runUser(args[1], args[2:])
	case "token":
		return runToken(args[1:])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func pathFlag(fs *flag.FlagSet) *string {
	return fs.String("path", "", "Database file path (required)")
}

func openStore(path string) (*storage.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path required")
	}
	store, err := storage.NewStore(path, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := pathFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	fmt.Fprintf(Out, "Database initialized at: %s\n", *path)
	return nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	path := pathFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}
	fmt.Fprintf(Out, "Database deleted: %s\n", *path)
	return nil
}

// runQuery lists stored snapshots, then the newest training events
func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	path := pathFlag(fs)
	side := fs.String("side", "*", "Repertoire to filter events by (white, black or *)")
	limit := fs.Int("limit", 20, "Maximum number of events, 0 for all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	snapshots, err := store.QuerySnapshots()
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Fprintln(Out, "No repertoires stored")
	} else {
		w := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Name\tRevision\tSnapshot\tBytes\tUpdated")
		for _, s := range snapshots {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\n",
				s.Name, s.Revision, short(s.SnapshotID), cap(s.Data),
				s.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		w.Flush()
	}

	events, err := store.QueryTrainingEvents(*side, *limit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(Out, "\nNo training events")
		return nil
	}

	fmt.Fprintln(Out)
	w := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Trained\tSide\tMove\tGrade\tAttempts\tEasiness\tSession")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.2f\t%s\n",
			e.TrainedAt.Format("2006-01-02 15:04:05"), e.Repertoire, e.SAN,
			e.Grade, e.Attempts, e.Easiness, short(e.SessionID))
	}
	w.Flush()
	fmt.Fprintf(Out, "\nShowing %d event(s)\n", len(events))
	return nil
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}

func runUser(subcommand string, args []string) error {
	switch subcommand {
	case "add":
		return runUserAdd(args)
	case "delete":
		return runUserDelete(args)
	case "set-password":
		return runUserSetPassword(args)
	case "set-hash":
		return runUserSetHash(args)
	case "list":
		return runUserList(args)
	default:
		return fmt.Errorf("unknown user subcommand: %s", subcommand)
	}
}

// resolvePassword picks exactly one of -password, -hash or -interactive
// and returns a PHC hash
func resolvePassword(password, hash string, interactive bool) (string, error) {
	set := 0
	for _, given := range []bool{password != "", hash != "", interactive} {
		if given {
			set++
		}
	}
	switch {
	case set == 0:
		return "", fmt.Errorf("password required: use -password, -hash, or -interactive")
	case set > 1:
		return "", fmt.Errorf("specify only one of -password, -hash and -interactive")
	case hash != "":
		if err := auth.ValidatePHCHashFormat(hash); err != nil {
			return "", fmt.Errorf("invalid hash: %w", err)
		}
		return hash, nil
	}

	if interactive {
		var err error
		if password, err = readPassword("Enter password: "); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
	}
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	h, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return h, nil
}

func runUserAdd(args []string) error {
	fs := flag.NewFlagSet("user add", flag.ContinueOnError)
	path := pathFlag(fs)
	username := fs.String("username", "", "Username (required)")
	password := fs.String("password", "", "Password")
	hash := fs.String("hash", "", "Pre-computed argon2 PHC hash")
	interactive := fs.Bool("interactive", false, "Interactive password prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("username required")
	}

	passwordHash, err := resolvePassword(*password, *hash, *interactive)
	if err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	record := storage.UserRecord{
		UserID:       uuid.NewString(),
		Username:     strings.TrimSpace(*username),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.CreateUser(record); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(Out, "User created:\n  ID: %s\n  Username: %s\n", record.UserID, record.Username)
	return nil
}

func runUserDelete(args []string) error {
	fs := flag.NewFlagSet("user delete", flag.ContinueOnError)
	path := pathFlag(fs)
	username := fs.String("username", "", "Username to delete (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("username required")
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteUserByUsername(*username); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("user not found: %s", *username)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	fmt.Fprintf(Out, "User deleted: %s\n", *username)
	return nil
}

func setHash(path, username, passwordHash string) error {
	store, err := openStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	user, err := store.GetUserByUsername(username)
	if err != nil {
		return fmt.Errorf("user not found: %s", username)
	}
	if err := store.UpdateUserPassword(user.UserID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func runUserSetPassword(args []string) error {
	fs := flag.NewFlagSet("user set-password", flag.ContinueOnError)
	path := pathFlag(fs)
	username := fs.String("username", "", "Username (required)")
	password := fs.String("password", "", "New password")
	interactive := fs.Bool("interactive", false, "Interactive password prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("username required")
	}

	passwordHash, err := resolvePassword(*password, "", *interactive)
	if err != nil {
		return err
	}
	if err := setHash(*path, *username, passwordHash); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Password updated for user: %s\n", *username)
	return nil
}

func runUserSetHash(args []string) error {
	fs := flag.NewFlagSet("user set-hash", flag.ContinueOnError)
	path := pathFlag(fs)
	username := fs.String("username", "", "Username (required)")
	hash := fs.String("hash", "", "Argon2 PHC hash (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *hash == "" {
		return fmt.Errorf("username and hash required")
	}

	passwordHash, err := resolvePassword("", *hash, false)
	if err != nil {
		return err
	}
	if err := setHash(*path, *username, passwordHash); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Password hash updated for user: %s\n", *username)
	return nil
}

func runUserList(args []string) error {
	fs := flag.NewFlagSet("user list", flag.ContinueOnError)
	path := pathFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	users, err := store.GetAllUsers()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		fmt.Fprintln(Out, "No users found")
		return nil
	}

	w := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUsername\tCreated\tLast Login")
	for _, u := range users {
		lastLogin := "never"
		if u.LastLoginAt != nil {
			lastLogin = u.LastLoginAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			short(u.UserID), u.Username, u.CreatedAt.Format("2006-01-02 15:04"), lastLogin)
	}
	w.Flush()
	fmt.Fprintf(Out, "\nTotal: %d user(s)\n", len(users))
	return nil
}

// runToken signs a bearer token for an existing user without a password,
// using the secret from -secret or the environment
func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	path := pathFlag(fs)
	username := fs.String("username", "", "Username (required)")
	secret := fs.String("secret", os.Getenv(config.EnvPrefix+"AUTH_SECRET"), "Signing secret, at least 32 bytes")
	ttl := fs.Duration("ttl", service.DefaultTokenTTL, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("username required")
	}
	if len(*secret) < 32 {
		return fmt.Errorf("secret of at least 32 bytes required: use -secret or %sAUTH_SECRET", config.EnvPrefix)
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}

	svc, err := service.New(service.Config{
		Store:    store,
		Secret:   []byte(*secret),
		TokenTTL: *ttl,
	})
	if err != nil {
		store.Close()
		return err
	}
	defer svc.Shutdown(time.Second)

	token, err := svc.IssueToken(*username)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}
	fmt.Fprintf(Out, "Token for %s (expires %s):\n%s\n",
		token.Username, token.ExpiresAt.Format(time.RFC3339), token.Value)
	return nil
}
