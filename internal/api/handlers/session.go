// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"net/http"

	"github.com/fluffyriot/socialpulse/internal/apierr"
	"github.com/fluffyriot/socialpulse/internal/authhelp"
	"github.com/gin-gonic/gin"
)

// CreateSessionHandler runs behind the auth middleware, so the caller has
// already been provisioned from the bearer token.
func (h *Handler) CreateSessionHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	err := authhelp.SetSessionUser(c, authhelp.Identity{UserID: caller.UserID, Username: caller.Username})
	if err != nil {
		apierr.Respond(c, err, "Failed to create session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "userId": caller.UserID, "username": caller.Username})
}

func (h *Handler) DeleteSessionHandler(c *gin.Context) {
	if err := authhelp.ClearSession(c); err != nil {
		apierr.Respond(c, err, "Failed to clear session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) MeHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	user, err := h.DB.GetUserByID(c.Request.Context(), caller.UserID)
	if err != nil {
		apierr.Respond(c, err, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email.String,
		"settings": newSettingsView(user),
	})
}
