package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nursehub-api/internal/auth"
	"nursehub-api/internal/model"
	"nursehub-api/internal/store"
)

var (
	databaseURL string
	seedUser    string
	seedPass    string
	seedName    string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create or reset the administrator account",
	Long: `Creates the single administrator, or resets its password when the
username already exists. Credentials default to ADMIN_USERNAME and
ADMIN_PASSWORD.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, st *store.Store) error {
			a, err := seedAdmin(ctx, st, seedUser, seedPass, seedName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %q ready (id %s)\n", a.Username, a.ID)
			return nil
		})
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune-sessions",
	Short: "Delete expired and revoked sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, st *store.Store) error {
			n, err := st.PruneSessions(ctx, time.Now())
			if err != nil {
				return fmt.Errorf("prune sessions: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d sessions\n", n)
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{seedCmd, pruneCmd} {
		c.Flags().StringVar(&databaseURL, "database-url", "", "postgres URL (default $DATABASE_URL)")
	}
	seedCmd.Flags().StringVar(&seedUser, "username", "", "admin username (default $ADMIN_USERNAME)")
	seedCmd.Flags().StringVar(&seedPass, "password", "", "admin password (default $ADMIN_PASSWORD)")
	seedCmd.Flags().StringVar(&seedName, "name", "Administrator", "display name")
}

func withStore(ctx context.Context, fn func(context.Context, *store.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	url := databaseURL
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		return errors.New("DATABASE_URL is required")
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()
	st := store.New(pool)
	if err := st.Ping(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	logger.Debug("connected to postgres")
	return fn(ctx, st)
}

type adminUpserter interface {
	UpsertAdmin(ctx context.Context, a *model.Admin) error
}

func seedAdmin(ctx context.Context, st adminUpserter, username, password, name string) (*model.Admin, error) {
	if username == "" {
		username = os.Getenv("ADMIN_USERNAME")
	}
	if password == "" {
		password = os.Getenv("ADMIN_PASSWORD")
	}
	if len(username) < 3 {
		return nil, errors.New("username must be at least 3 characters")
	}
	if len(password) < 6 {
		return nil, errors.New("password must be at least 6 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	a := &model.Admin{ID: uuid.New().String(), Username: username, PasswordHash: hash, Name: name}
	if err := st.UpsertAdmin(ctx, a); err != nil {
		return nil, fmt.Errorf("upsert admin: %w", err)
	}
	logger.Info("admin seeded", zap.String("username", username))
	return a, nil
}
