package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/config"
	"github.com/jonathan/talent-pipeline/internal/server"
	"github.com/jonathan/talent-pipeline/internal/types"
	"github.com/spf13/cobra"
)

var (
	convertActor string
	adminName    string
	adminEmail   string
	adminPass    string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd, func(b *backend) error {
			if err := b.database.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <candidate|application> <id>",
	Short: "Print the audit trail of a profile or application as JSON lines",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		entity, id, err := parseEntity(args[0], args[1])
		if err != nil {
			return err
		}
		return withDatabase(cmd, func(b *backend) error {
			return printHistory(cmd.Context(), cmd.OutOrStdout(), b, entity, id)
		})
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <application-id>",
	Short: "Convert a hired application into an employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid application id: %w", err)
		}
		actorID, err := uuid.Parse(convertActor)
		if err != nil {
			return fmt.Errorf("--actor must be a user id: %w", err)
		}
		return withDatabase(cmd, func(b *backend) error {
			emp, err := b.service.Convert(cmd.Context(), types.Actor{ID: actorID}, appID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), emp)
		})
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if adminPass == "" {
			adminPass = os.Getenv("ADMIN_PASSWORD")
		}
		req := &types.RegisterRequest{Name: adminName, Email: adminEmail, Password: adminPass}
		if err := types.Validate(req); err != nil {
			return fmt.Errorf("invalid account: %w", err)
		}
		passwords, err := config.NewPasswordConfig()
		if err != nil {
			return err
		}
		return withDatabase(cmd, func(b *backend) error {
			user, err := server.NewUserService(b.store, passwords).Create(cmd.Context(), req, types.RoleAdmin)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), user)
		})
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertActor, "actor", "", "ID of the user performing the conversion")
	_ = convertCmd.MarkFlagRequired("actor")

	createAdminCmd.Flags().StringVar(&adminName, "name", "", "Display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Login email")
	createAdminCmd.Flags().StringVar(&adminPass, "password", "", "Password (default: ADMIN_PASSWORD)")

	rootCmd.AddCommand(migrateCmd, historyCmd, convertCmd, createAdminCmd)
}

// withDatabase runs fn against PostgreSQL. Maintenance commands never use the in-memory
// store because its data does not outlive the process.
func withDatabase(cmd *cobra.Command, fn func(*backend) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	b, err := openBackend(ctx, cfg, false, nil)
	if err != nil {
		return err
	}
	defer b.close()

	cmd.SetContext(ctx)
	return fn(b)
}

func parseEntity(kind, rawID string) (types.EntityType, uuid.UUID, error) {
	entity := types.EntityType(kind)
	if entity != types.EntityCandidate && entity != types.EntityApplication {
		return "", uuid.Nil, fmt.Errorf("entity must be candidate or application, got %q", kind)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("invalid %s id: %w", kind, err)
	}
	return entity, id, nil
}

// printHistory writes one JSON object per audit entry, fetching pages as it goes.
func printHistory(ctx context.Context, w io.Writer, b *backend, entity types.EntityType, id uuid.UUID) error {
	enc := json.NewEncoder(w)
	for entry, err := range b.service.History(ctx, entity, id) {
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
