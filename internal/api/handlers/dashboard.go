// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"net/http"
	"strconv"

	"github.com/fluffyriot/socialpulse/internal/apierr"
	"github.com/fluffyriot/socialpulse/internal/stats"
	"github.com/gin-gonic/gin"
)

const (
	defaultGrowthDays = 7
	maxGrowthDays     = 365
	defaultTopPosts   = 10
	maxTopPosts       = 100
)

type overviewResponse struct {
	stats.Overview
	PlatformStats []stats.PlatformStat `json:"platformStats"`
}

func (h *Handler) OverviewHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	overview, platformStats, err := h.Stats.Overview(c.Request.Context(), caller.UserID)
	if err != nil {
		apierr.Respond(c, err, "Failed to fetch overview")
		return
	}

	c.JSON(http.StatusOK, overviewResponse{Overview: overview, PlatformStats: platformStats})
}

func (h *Handler) FollowerGrowthHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	days, ok := queryInt(c, "days", defaultGrowthDays, maxGrowthDays)
	if !ok {
		return
	}

	points, err := h.Stats.FollowerGrowth(c.Request.Context(), caller.UserID, days)
	if err != nil {
		apierr.Respond(c, err, "Failed to fetch follower growth")
		return
	}
	c.JSON(http.StatusOK, points)
}

func (h *Handler) PlatformDistributionHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	dist, err := h.Stats.PlatformDistribution(c.Request.Context(), caller.UserID)
	if err != nil {
		apierr.Respond(c, err, "Failed to fetch platform distribution")
		return
	}
	c.JSON(http.StatusOK, dist)
}

func (h *Handler) TopPostsHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	limit, ok := queryInt(c, "limit", defaultTopPosts, maxTopPosts)
	if !ok {
		return
	}

	posts, err := h.Stats.TopPosts(c.Request.Context(), caller.UserID, limit)
	if err != nil {
		apierr.Respond(c, err, "Failed to fetch top posts")
		return
	}
	c.JSON(http.StatusOK, posts)
}

// queryInt reads a positive integer query parameter no larger than max.
func queryInt(c *gin.Context, key string, fallback, max int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		apierr.Respond(c, apierr.BadRequest(key+" must be between 1 and "+strconv.Itoa(max)), "")
		return 0, false
	}
	return n, true
}
