// SPDX-License-Identifier: AGPL-3.0-only
package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/fluffyriot/socialpulse/internal/apierr"
	"github.com/fluffyriot/socialpulse/internal/authhelp"
	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AuthMiddleware resolves the caller from a bearer token or, failing that,
// from the session cookie. Bearer callers are provisioned on first use.
func AuthMiddleware(db database.Store, jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if header := c.GetHeader("Authorization"); header != "" {
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				apierr.Respond(c, apierr.Unauthorized("Invalid authorization header"), "")
				return
			}

			id, err := authhelp.ParseToken(strings.TrimSpace(raw), jwtSecret)
			if err != nil {
				apierr.Respond(c, apierr.Unauthorized("Invalid or expired token"), "")
				return
			}

			user, err := authhelp.ProvisionUser(ctx, db, id, time.Now())
			if err != nil {
				apierr.Respond(c, err, "Failed to load user")
				return
			}

			setCaller(c, authhelp.Caller{UserID: user.ID, Username: user.Username})
			c.Next()
			return
		}

		if userID, _, ok := authhelp.SessionUser(c); ok {
			user, err := db.GetUserByID(ctx, userID)
			switch {
			case err == nil:
				setCaller(c, authhelp.Caller{UserID: user.ID, Username: user.Username})
				c.Next()
				return
			case !errors.Is(err, database.ErrNotFound):
				apierr.Respond(c, err, "Failed to load user")
				return
			}
		}

		apierr.Respond(c, apierr.Unauthorized("Authentication required"), "")
	}
}

func setCaller(c *gin.Context, caller authhelp.Caller) {
	authhelp.SetCaller(c, caller)

	span := trace.SpanFromContext(c.Request.Context())
	if span.IsRecording() {
		span.SetAttributes(attribute.String("user.id", caller.UserID.String()))
	}
}
