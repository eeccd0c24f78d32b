package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitecraft-ai/sitecraft-backend/internal/auth"
	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/domain"
)

// streamAttempts pushes the project's deploy progress as Server-Sent Events.
// The client may connect before starting the deploy; snapshots are sent as
// they change and the stream ends once an attempt reaches done or failed.
func (h *Handler) streamAttempts(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.UserFirebaseUID(c)
	projectID := c.Param("id")

	if _, err := h.projects.Get(ctx, userID, projectID); err != nil {
		respondError(c, err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "streaming unsupported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering
	c.Status(http.StatusOK)
	flusher.Flush()

	send := func(event string, a *domain.Attempt) {
		data, _ := json.Marshal(gin.H{"deployment": a})
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	keepAlive := time.NewTicker(h.streamKeepAlive)
	defer keepAlive.Stop()
	poll := time.NewTicker(h.streamPoll)
	defer poll.Stop()

	// A snapshot that was already finished when the client connected belongs
	// to an earlier deploy; it is reported but does not end the stream.
	var last time.Time
	initial := true

	for {
		a, err := h.attempts.LatestForProject(ctx, projectID)
		switch {
		case err == nil && a.UserID == userID && a.UpdatedAt.After(last):
			last = a.UpdatedAt
			if initial {
				send("initial", a)
			} else {
				send("update", a)
				if a.Stage.Finished() {
					return
				}
			}
		case err != nil && !errors.Is(err, domain.ErrAttemptNotFound):
			fmt.Fprint(c.Writer, "event: error\ndata: {\"error\":\"progress unavailable\"}\n\n")
			flusher.Flush()
		}
		initial = false

		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()
		case <-poll.C:
		}
	}
}
