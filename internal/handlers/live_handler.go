package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/realtime"
	"github.com/BruksfildServices01/barber-agenda/internal/settings"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
	"github.com/BruksfildServices01/barber-agenda/internal/timezone"
)

const liveKeepAlive = 25 * time.Second

type LiveHandler struct {
	hub      *realtime.Hub
	settings *settings.Service
	clock    timezone.Clock
	log      *zap.Logger
}

func NewLiveHandler(hub *realtime.Hub, settings *settings.Service, clock timezone.Clock, log *zap.Logger) *LiveHandler {
	return &LiveHandler{hub: hub, settings: settings, clock: clock, log: log}
}

type liveDateRequest struct {
	Date string `json:"date" binding:"required"`
}

type liveSoundRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type liveDismissRequest struct {
	Seq uint64 `json:"seq" binding:"required"`
}

// ======================================================
// STREAM
// ======================================================

// Stream opens a live session and relays it as Server-Sent Events. The
// first event is "session" with the id used by the control endpoints.
func (h *LiveHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := auth.Require(ctx)
	if err != nil {
		httperr.Respond(c, err, "not_authenticated")
		return
	}

	date := c.Query("date")
	if date == "" {
		date = timeofday.FormatDate(timeofday.DateOf(h.clock.Now()))
	} else if _, err := timeofday.ParseDate(date); err != nil {
		httperr.BadRequest(c, "invalid_date", "Data inválida.")
		return
	}

	prefs, err := h.settings.Get(ctx)
	if err != nil {
		httperr.Respond(c, err, "failed_to_load_settings")
		return
	}

	session, err := h.hub.Open(ctx, id, date, prefs.SoundEnabled)
	if err != nil {
		httperr.Respond(c, err, "live_unavailable")
		return
	}

	h.log.Info("live session opened",
		zap.String("live_session", session.ID),
		zap.Uint("user_id", id.UserID),
		zap.String("date", date),
	)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("session", gin.H{"id": session.ID})
	c.Writer.Flush()

	ticker := time.NewTicker(liveKeepAlive)
	defer ticker.Stop()

	msgs := session.Messages()
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return false
			}
			c.SSEvent(msg.Type, msg.Data)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": h.clock.Now().Unix()})
			return true
		case <-ctx.Done():
			return false
		}
	})

	h.log.Info("live session closed", zap.String("live_session", session.ID))
}

// ======================================================
// CONTROL
// ======================================================

func (h *LiveHandler) session(c *gin.Context) (*realtime.Session, bool) {
	id, err := auth.Require(c.Request.Context())
	if err != nil {
		httperr.Respond(c, err, "not_authenticated")
		return nil, false
	}

	s, err := h.hub.Session(c.Param("sid"), id)
	if err != nil {
		httperr.Respond(c, err, "live_session_not_found")
		return nil, false
	}
	return s, true
}

func (h *LiveHandler) LoadDate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req liveDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "missing_date", "Data é obrigatória.")
		return
	}

	if err := s.LoadDate(req.Date); err != nil {
		respondLive(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// SetSound is the explicit toggle, so the preference is persisted too.
func (h *LiveHandler) SetSound(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req liveSoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	if _, err := h.settings.Update(c.Request.Context(), settings.Patch{SoundEnabled: req.Enabled}); err != nil {
		httperr.Respond(c, err, "failed_to_save_settings")
		return
	}
	if err := s.SetSound(*req.Enabled); err != nil {
		respondLive(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// SoundBlocked only affects the session; the stored preference stays.
func (h *LiveHandler) SoundBlocked(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.SoundBlocked(); err != nil {
		respondLive(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *LiveHandler) Dismiss(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req liveDismissRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}
	if err := s.Dismiss(req.Seq); err != nil {
		respondLive(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *LiveHandler) Snapshot(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	snap, err := s.Snapshot(c.Request.Context())
	if err != nil {
		respondLive(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func respondLive(c *gin.Context, err error) {
	if errors.Is(err, realtime.ErrSessionClosed) {
		httperr.Write(c, http.StatusGone, "live_session_closed", "Sessão encerrada.")
		return
	}
	httperr.Respond(c, err, "live_failed")
}
