// SPDX-License-Identifier: AGPL-3.0-only
package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fluffyriot/socialpulse/internal/authhelp"
	"github.com/spf13/cobra"
)

var (
	tokenSubject  string
	tokenUsername string
	tokenTTL      time.Duration
)

// tokenCmd mints a bearer token signed with JWT_SECRET, for local
// development without an identity provider.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed bearer token for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			return errors.New("JWT_SECRET is not set")
		}

		token, err := authhelp.IssueToken([]byte(secret), tokenSubject, tokenUsername, tokenTTL, time.Now())
		if err != nil {
			return err
		}

		userID := authhelp.UserIDForSubject(tokenSubject)
		fmt.Fprintf(cmd.ErrOrStderr(), "User ID: %s\n", userID)
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Token subject; a UUID is used as the user ID directly")
	tokenCmd.Flags().StringVar(&tokenUsername, "username", "", "Display name carried in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")
}
