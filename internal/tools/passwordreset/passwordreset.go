// Package passwordreset sets a new bcrypt password hash for one user account.
package passwordreset

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/big"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"

	"github.com/arvela/crmops/internal/crm/storage"
	"github.com/arvela/crmops/internal/crm/storage/sqlite"
)

// generatedLength is the length of passwords minted with -generate.
const generatedLength = 20

// passwordAlphabet deliberately omits characters that are easy to misread.
const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Config holds password-reset command configuration.
type Config struct {
	Email    string
	Password string
	Generate bool
	DBPath   string        `env:"CRMOPS_DB_PATH"`
	Timeout  time.Duration `env:"CRMOPS_TOOL_TIMEOUT" envDefault:"1m"`
}

type envConfig struct {
	DBPath  string        `env:"CRMOPS_DB_PATH"`
	Timeout time.Duration `env:"CRMOPS_TOOL_TIMEOUT" envDefault:"1m"`
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var envCfg envConfig
	if err := env.Parse(&envCfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := Config{
		DBPath:  envCfg.DBPath,
		Timeout: envCfg.Timeout,
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "crm.db")
	}

	fs.StringVar(&cfg.Email, "email", "", "email of the account to reset")
	fs.StringVar(&cfg.Password, "password", "", "new password (mutually exclusive with -generate)")
	fs.BoolVar(&cfg.Generate, "generate", false, "mint a random password and print it")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to crm sqlite database (default: CRMOPS_DB_PATH or data/crm.db)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// userStore is the slice of the CRM store this tool needs.
type userStore interface {
	GetUserByEmail(ctx context.Context, email string) (storage.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string, now time.Time) error
}

// Run executes the password-reset command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if err := validate(cfg); err != nil {
		return err
	}
	return sqlite.With(cfg.DBPath, func(store *sqlite.Store) error {
		return runWithStore(ctx, cfg, store, out, time.Now)
	})
}

func validate(cfg Config) error {
	if cfg.Email == "" {
		return errors.New("-email is required")
	}
	if cfg.Generate && cfg.Password != "" {
		return errors.New("-password and -generate are mutually exclusive")
	}
	if !cfg.Generate && cfg.Password == "" {
		return errors.New("one of -password or -generate is required")
	}
	return nil
}

// runWithStore contains the reset logic with an injectable store and clock.
func runWithStore(ctx context.Context, cfg Config, store userStore, out io.Writer, now func() time.Time) error {
	if out == nil {
		out = io.Discard
	}
	if store == nil {
		return errors.New("user store is not configured")
	}

	user, err := store.GetUserByEmail(ctx, cfg.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no account with email %s", cfg.Email)
		}
		return fmt.Errorf("look up user: %w", err)
	}

	password := cfg.Password
	if cfg.Generate {
		password, err = generatePassword(generatedLength)
		if err != nil {
			return fmt.Errorf("generate password: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := store.UpdateUserPassword(ctx, user.ID, string(hash), now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	fmt.Fprintf(out, "Password updated for %s (user %s)\n", user.Email, user.ID)
	if cfg.Generate {
		fmt.Fprintf(out, "Generated password: %s\n", password)
	}
	return nil
}

func generatePassword(length int) (string, error) {
	alphabetSize := big.NewInt(int64(len(passwordAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}
