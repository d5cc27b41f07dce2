// SPDX-License-Identifier: AGPL-3.0-only
package authhelp

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fluffyriot/socialpulse/internal/database"
)

// ProvisionUser creates the user on first sight and refreshes the email
// afterwards.
func ProvisionUser(ctx context.Context, db database.Store, id Identity, now time.Time) (database.User, error) {
	user, err := db.UpsertUser(ctx, database.UpsertUserParams{
		ID:        id.UserID,
		Username:  id.Username,
		Email:     sql.NullString{String: id.Email, Valid: id.Email != ""},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return database.User{}, fmt.Errorf("failed to provision user: %w", err)
	}
	return user, nil
}
