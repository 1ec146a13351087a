// Command crewctl is the operator CLI for WorkCrewManager deployments.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/config"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage/factory"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

const opTimeout = time.Minute

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "crewctl",
		Short:         "Operator tasks for the WorkCrewManager API",
		SilenceUsage:  true,
	}
	root.AddCommand(seedAdminCmd(), hashPasswordCmd(), migrateCmd(), backendsCmd())
	return root
}

// openStrict opens the configured backend without the memory fallback, so a
// command never reports success against a store that vanishes on exit.
func openStrict(ctx context.Context, seed bool) (*config.Config, *factory.Selection, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	cfg.StorageFallback = false
	cfg.SeedAdmin = seed
	sel, err := factory.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, sel, nil
}

func seedAdminCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create or reset the admin director account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
			defer cancel()

			cfg, sel, err := openStrict(ctx, false)
			if err != nil {
				return err
			}
			defer sel.Store.Close()
			if sel.Kind == config.BackendMemory {
				return fmt.Errorf("seed-admin needs a persistent backend, STORAGE_BACKEND resolves to memory")
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
			if err != nil {
				return err
			}
			_, err = sel.Store.UpsertUser(ctx, &model.User{
				ID:        storage.AdminID,
				Username:  "admin",
				Password:  string(hash),
				Email:     "admin@obras.local",
				FirstName: "Administrador",
				LastName:  "Sistema",
				TipoUser:  model.RoleDiretor,
			})
			if err != nil {
				return fmt.Errorf("upsert admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin account ready on %s backend\n", sel.Kind)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", factory.AdminPassword, "password for the admin account")
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password <plain>",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := bcrypt.GenerateFromPassword([]byte(args[0]), cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(h))
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", 12, "bcrypt cost")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bootstrap the schema of the configured relational backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if factory.Resolve(cfg) == config.BackendMemory {
				return fmt.Errorf("no relational backend configured")
			}
			_, sel, err := openStrict(ctx, cfg.SeedAdmin)
			if err != nil {
				return err
			}
			defer sel.Store.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", sel.Kind)
			return nil
		},
	}
}

func backendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "Show which storage backend the server would select",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "configured: %s\n", cfg.StorageBackend)
			fmt.Fprintf(out, "resolved:   %s\n", factory.Resolve(cfg))
			fmt.Fprintf(out, "fallback:   %t\n", cfg.StorageFallback)
			return nil
		},
	}
}
