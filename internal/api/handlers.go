// internal/api/handlers.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"crew-match-workers/internal/common/database"
	calculateskillmatch "crew-match-workers/internal/workers/matching/calculate-skill-match"
	ranklegs "crew-match-workers/internal/workers/matching/rank-legs"
)

// MatchHandler exposes the ranking workers over HTTP.
type MatchHandler struct {
	rank  *ranklegs.Handler
	skill *calculateskillmatch.Handler
}

func NewMatchHandler(rank *ranklegs.Handler, skill *calculateskillmatch.Handler) *MatchHandler {
	return &MatchHandler{rank: rank, skill: skill}
}

func (h *MatchHandler) Rank(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		SendBadRequest(c, "failed to read request body")
		return
	}

	input, err := h.rank.ParseInput(body)
	if err != nil {
		SendMatchError(c, err)
		return
	}

	out, err := h.rank.Execute(c.Request.Context(), input)
	if err != nil {
		SendMatchError(c, err)
		return
	}
	SendSuccess(c, http.StatusOK, out)
}

func (h *MatchHandler) Skill(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		SendBadRequest(c, "failed to read request body")
		return
	}

	input, err := h.skill.ParseInput(body)
	if err != nil {
		SendMatchError(c, err)
		return
	}

	out, err := h.skill.Execute(c.Request.Context(), input)
	if err != nil {
		SendMatchError(c, err)
		return
	}
	SendSuccess(c, http.StatusOK, out)
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	version string
	checks  map[string]database.Pinger
	timeout time.Duration
}

func NewHealthHandler(version string, checks map[string]database.Pinger) *HealthHandler {
	return &HealthHandler{version: version, checks: checks, timeout: 2 * time.Second}
}

func (h *HealthHandler) Health(c *gin.Context) {
	SendSuccess(c, http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

// Ready pings every dependency and reports each one's state.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	ready := true
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			status[name] = err.Error()
			ready = false
			continue
		}
		status[name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, Response{
			Success: false,
			Data:    status,
			Error:   &Error{Code: "NOT_READY", Message: "one or more dependencies are unavailable"},
		})
		return
	}
	SendSuccess(c, http.StatusOK, status)
}
