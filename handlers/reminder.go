package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bridge/models"
	"bridge/services/reminder"
	"bridge/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultDueLimit = 10
	maxDueLimit     = 100
)

type DueLister interface {
	DueReminders(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error)
}

type TickRunner interface {
	Tick(ctx context.Context) (*reminder.TickReport, error)
}

// ReminderHandler exposes manual inspection and dispatch of reminders.
type ReminderHandler struct {
	store      DueLister
	dispatcher TickRunner
	logger     *zap.Logger
	now        func() time.Time
}

func NewReminderHandler(store DueLister, dispatcher TickRunner, logger *zap.Logger) *ReminderHandler {
	return &ReminderHandler{store: store, dispatcher: dispatcher, logger: logger, now: time.Now}
}

// ListDueRemindersHandler returns unsent reminders whose scheduled time has passed.
// GET /api/reminders/due?limit=10
func (h *ReminderHandler) ListDueRemindersHandler(c *gin.Context) {
	limit := defaultDueLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.JSONError(c, http.StatusBadRequest, "Invalid limit", "limit must be a positive integer")
			return
		}
		limit = min(n, maxDueLimit)
	}

	reminders, err := h.store.DueReminders(c.Request.Context(), h.now(), limit)
	if err != nil {
		h.logger.Error("failed to list due reminders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	if reminders == nil {
		reminders = []models.Reminder{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   fmt.Sprintf("Found %d due reminders", len(reminders)),
		"reminders": reminders,
	})
}

// DispatchHandler runs one dispatch tick and returns its report.
// POST /api/reminders/dispatch
func (h *ReminderHandler) DispatchHandler(c *gin.Context) {
	report, err := h.dispatcher.Tick(c.Request.Context())
	if err != nil {
		h.logger.Error("manual dispatch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}
