// SPDX-License-Identifier: AGPL-3.0-only
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fluffyriot/socialpulse/internal/worker"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	syncUser   string
	syncOutput string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync every active account of a user once and print the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(syncUser)
		if err != nil {
			return fmt.Errorf("--user must be a UUID: %w", err)
		}

		d, err := loadDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		results, err := d.syncer(nil).SyncAllAccounts(cmd.Context(), userID)
		if err != nil {
			return err
		}
		return printSyncResults(cmd.OutOrStdout(), results, syncOutput)
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncUser, "user", "", "User ID whose accounts are synced")
	syncCmd.Flags().StringVar(&syncOutput, "output", "text", "Output format: text or json")
	_ = syncCmd.MarkFlagRequired("user")
}

func printSyncResults(out io.Writer, results []worker.SyncResult, format string) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No active accounts")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLATFORM\tUSERNAME\tRESULT")
	for _, r := range results {
		status := "ok"
		switch {
		case r.RequiresReauth:
			status = "reconnect required: " + r.Error
		case !r.Success:
			status = "failed: " + r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Platform, r.Username, status)
	}
	return tw.Flush()
}
