// SPDX-License-Identifier: AGPL-3.0-only
package authhelp

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionName    = "socialpulse_session"
	SessionUserKey = "user_id"
	SessionNameKey = "username"
	sessionMaxAge  = 7 * 24 * 60 * 60
)

// SessionOptions are applied to the cookie store.
func SessionOptions(secure bool) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func SetSessionUser(c *gin.Context, id Identity) error {
	session := sessions.Default(c)
	session.Set(SessionUserKey, id.UserID.String())
	session.Set(SessionNameKey, id.Username)
	return session.Save()
}

func SessionUser(c *gin.Context) (uuid.UUID, string, bool) {
	session := sessions.Default(c)
	raw, ok := session.Get(SessionUserKey).(string)
	if !ok {
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", false
	}
	username, _ := session.Get(SessionNameKey).(string)
	return id, username, true
}

func ClearSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}
