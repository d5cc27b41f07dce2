// SPDX-License-Identifier: AGPL-3.0-only
package cli

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Connecting applies migrations.
		d, err := loadDeps(cmd.Context())
		if err != nil {
			return err
		}
		d.Close()
		return nil
	},
}
