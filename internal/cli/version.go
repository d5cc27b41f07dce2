// SPDX-License-Identifier: AGPL-3.0-only
package cli

import (
	"fmt"

	"github.com/fluffyriot/socialpulse/internal/config"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "socialpulse %s\n", config.AppVersion)
	},
}
