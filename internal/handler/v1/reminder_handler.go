package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/knowmymeds/api/internal/service"
)

type ReminderHandler struct {
	svc *service.ReminderService

	// Default cutoff for the near-immediate cleanup endpoint.
	cleanupThreshold time.Duration
}

func NewReminderHandler(svc *service.ReminderService, cleanupThreshold time.Duration) *ReminderHandler {
	return &ReminderHandler{svc: svc, cleanupThreshold: cleanupThreshold}
}

// List backs the settings screen's "N reminders scheduled" counter.
func (h *ReminderHandler) List(c *gin.Context) {
	reminders, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"count":     len(reminders),
		"reminders": reminders,
	})
}

// ClearAll handles the user-initiated "clear all reminders" action.
func (h *ReminderHandler) ClearAll(c *gin.Context) {
	cleared, err := h.svc.CancelAll(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"cleared": len(cleared)})
}

// Cleanup cancels reminders about to fire within the threshold. Defensive
// recovery pass, safe to run at any time.
func (h *ReminderHandler) Cleanup(c *gin.Context) {
	threshold := h.cleanupThreshold
	if secs := parseQueryInt(c, "threshold_seconds", 0); secs > 0 {
		threshold = time.Duration(secs) * time.Second
	}

	cancelled, err := h.svc.CancelNearImmediate(c.Request.Context(), threshold)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"cancelled":         cancelled,
		"threshold_seconds": int(threshold / time.Second),
	})
}
