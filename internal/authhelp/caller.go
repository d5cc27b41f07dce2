// SPDX-License-Identifier: AGPL-3.0-only
package authhelp

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const callerKey = "caller"

// Caller is the authenticated user of the current request.
type Caller struct {
	UserID   uuid.UUID
	Username string
}

// SetCaller also sets "user_id" for the access log and tracing.
func SetCaller(c *gin.Context, caller Caller) {
	c.Set(callerKey, caller)
	c.Set(SessionUserKey, caller.UserID.String())
}

func CurrentCaller(c *gin.Context) (Caller, bool) {
	caller, ok := c.Get(callerKey)
	if !ok {
		return Caller{}, false
	}
	cc, ok := caller.(Caller)
	return cc, ok
}
