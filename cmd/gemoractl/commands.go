package main

import (
	"context"
	"fmt"
	"io"

	"github.com/example/gemora/gateway"
	"github.com/example/gemora/pkg/bootstrap"
	"github.com/example/gemora/pkg/config"
	"github.com/example/gemora/pkg/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// gemoractl migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create Mongo indexes and migrate the chat history tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return runMigrate(cmd.Context(), a.cfg, a.stores, a.logger, cmd.OutOrStdout())
	},
}

// gemoractl promote <email>
var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Give a user the admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return runPromote(cmd.Context(), a.services, args[0], cmd.OutOrStdout())
	},
}

// gemoractl bulk-approve <gems|instruments>
var bulkApproveCmd = &cobra.Command{
	Use:       "bulk-approve <gems|instruments>",
	Short:     "Approve every pending catalog item of one kind",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"gems", "instruments", "tools"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return runBulkApprove(cmd.Context(), a.services, args[0], cmd.OutOrStdout())
	},
}

func runMigrate(ctx context.Context, cfg *config.Config, stores *bootstrap.Stores, log *zap.Logger, out io.Writer) error {
	if stores.Mongo != nil {
		if err := stores.Mongo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
		fmt.Fprintln(out, "Mongo indexes ensured")
	} else {
		fmt.Fprintln(out, "Memory driver selected, no indexes to create")
	}

	transcripts, err := bootstrap.OpenTranscripts(&cfg.MySQL, log)
	if err != nil {
		return err
	}
	if transcripts == nil {
		fmt.Fprintln(out, "MySQL disabled, skipping chat history tables")
		return nil
	}
	defer transcripts.Close()
	fmt.Fprintln(out, "Chat history tables migrated")
	return nil
}

func runPromote(ctx context.Context, services *gateway.Services, email string, out io.Writer) error {
	user, err := services.Users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		fmt.Fprintf(out, "%s is already an admin\n", user.Email)
		return nil
	}
	if _, err := services.Users.SetRole(ctx, nil, user.ID.Hex(), string(models.RoleAdmin)); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s is now an admin\n", user.Email)
	return nil
}

func runBulkApprove(ctx context.Context, services *gateway.Services, rawKind string, out io.Writer) error {
	var (
		n   int64
		err error
	)
	switch rawKind {
	case "gems", "gem":
		n, err = services.Gems.ApproveAllPending(ctx)
	case "instruments", "instrument", "tools", "tool":
		n, err = services.Instruments.ApproveAllPending(ctx)
	default:
		return fmt.Errorf("unknown catalog %q, want gems or instruments", rawKind)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Approved %d pending %s\n", n, rawKind)
	return nil
}
