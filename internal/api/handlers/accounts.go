// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/fluffyriot/socialpulse/internal/apierr"
	"github.com/fluffyriot/socialpulse/internal/authhelp"
	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/fluffyriot/socialpulse/internal/helpers"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type accountView struct {
	ID           uuid.UUID  `json:"id"`
	Platform     string     `json:"platform"`
	AccountID    string     `json:"accountId"`
	Username     string     `json:"username"`
	ProfileURL   string     `json:"profileUrl,omitempty"`
	IsActive     bool       `json:"isActive"`
	LastSync     *time.Time `json:"lastSync"`
	SyncStatus   string     `json:"syncStatus"`
	StatusReason string     `json:"statusReason,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// newAccountView never carries tokens.
func newAccountView(a database.SocialAccount) accountView {
	v := accountView{
		ID:           a.ID,
		Platform:     a.Platform,
		AccountID:    a.AccountID,
		Username:     a.Username,
		IsActive:     a.IsActive,
		SyncStatus:   a.SyncStatus,
		StatusReason: a.StatusReason.String,
		CreatedAt:    a.CreatedAt,
	}
	if a.LastSync.Valid {
		v.LastSync = &a.LastSync.Time
	}
	if u, err := helpers.ConvAccountToURL(helpers.Platform(a.Platform), a.Username); err == nil {
		v.ProfileURL = u
	}
	return v
}

func (h *Handler) ListAccountsHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	accounts, err := h.DB.ListSocialAccountsByUser(c.Request.Context(), caller.UserID)
	if err != nil {
		apierr.Respond(c, err, "Failed to load accounts")
		return
	}

	out := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, newAccountView(a))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) UpdateAccountHandler(c *gin.Context) {
	account, ok := h.ownedAccount(c)
	if !ok {
		return
	}

	var req struct {
		IsActive *bool `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		apierr.Respond(c, apierr.BadRequest("isActive is required"), "")
		return
	}

	err := h.DB.SetSocialAccountActive(c.Request.Context(), database.SetSocialAccountActiveParams{
		ID:        account.ID,
		IsActive:  *req.IsActive,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		apierr.Respond(c, err, "Failed to update account")
		return
	}

	account.IsActive = *req.IsActive
	c.JSON(http.StatusOK, newAccountView(account))
}

func (h *Handler) DeleteAccountHandler(c *gin.Context) {
	account, ok := h.ownedAccount(c)
	if !ok {
		return
	}

	if err := h.DB.DeleteSocialAccount(c.Request.Context(), account.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			apierr.Respond(c, apierr.NotFound("Account"), "")
			return
		}
		apierr.Respond(c, err, "Failed to delete account")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) SyncAccountHandler(c *gin.Context) {
	account, ok := h.ownedAccount(c)
	if !ok {
		return
	}

	if err := h.Syncer.SyncAccount(c.Request.Context(), account.ID); err != nil {
		apierr.Respond(c, err, "Failed to sync account")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Account synced successfully"})
}

func (h *Handler) SyncAllAccountsHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	results, err := h.Syncer.SyncAllAccounts(c.Request.Context(), caller.UserID)
	if err != nil {
		apierr.Respond(c, err, "Failed to sync accounts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

func (h *Handler) RefreshTokenHandler(c *gin.Context) {
	account, ok := h.ownedAccount(c)
	if !ok {
		return
	}

	refreshed, err := h.Syncer.RefreshAccountToken(c.Request.Context(), account.ID)
	if err != nil {
		apierr.Respond(c, err, "Failed to refresh token")
		return
	}

	if !refreshed {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Token is still valid"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Token refreshed successfully"})
}

// ownedAccount loads the :id account. Accounts of other users are reported
// as missing.
func (h *Handler) ownedAccount(c *gin.Context) (database.SocialAccount, bool) {
	caller, ok := h.caller(c)
	if !ok {
		return database.SocialAccount{}, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierr.Respond(c, apierr.BadRequest("Invalid account id"), "")
		return database.SocialAccount{}, false
	}

	account, err := h.DB.GetSocialAccountByID(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) || (err == nil && !owns(caller, account)) {
		apierr.Respond(c, apierr.NotFound("Account"), "")
		return database.SocialAccount{}, false
	}
	if err != nil {
		apierr.Respond(c, err, "Failed to load account")
		return database.SocialAccount{}, false
	}
	return account, true
}

func owns(caller authhelp.Caller, account database.SocialAccount) bool {
	return account.UserID == caller.UserID
}
