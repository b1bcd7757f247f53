// internal/api/rehearsal_handlers.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Corphon/ScriptRehearsal/internal/errors"
	"github.com/Corphon/ScriptRehearsal/internal/models"
	"github.com/Corphon/ScriptRehearsal/internal/services"
)

// StartRehearsal POST /api/scripts/:id/rehearsals
func (h *Handler) StartRehearsal(c *gin.Context) {
	id, ok := h.pathID(c, "id", ErrorScriptNotFound, "Script not found")
	if !ok {
		return
	}
	var req models.StartRehearsalRequest
	if !h.bindJSON(c, &req) {
		return
	}
	view, err := h.Rehearsals.Start(c.Request.Context(), id, req.Role)
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}
	h.Metrics.IncrementCounter("rehearsals_started_total")
	h.Response.Created(c, view)
}

// GetRehearsal GET /api/rehearsals/:sid
func (h *Handler) GetRehearsal(c *gin.Context) {
	h.respondView(c)(h.Rehearsals.Get(c.Param("sid")))
}

// SelectRehearsalRole PUT /api/rehearsals/:sid/role
func (h *Handler) SelectRehearsalRole(c *gin.Context) {
	var req models.SelectRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.Role == nil {
		h.Response.ValidationFailed(c, "Invalid role",
			apperrors.FieldError{Field: "role", Message: "Role is required"})
		return
	}
	h.Metrics.RecordRehearsalAction(models.ActionSelectRole)
	h.respondView(c)(h.Rehearsals.SelectRole(c.Param("sid"), *req.Role))
}

// PlayRehearsal POST /api/rehearsals/:sid/play
func (h *Handler) PlayRehearsal(c *gin.Context) {
	h.Metrics.RecordRehearsalAction(models.ActionPlay)
	h.respondView(c)(h.Rehearsals.Play(c.Param("sid")))
}

// AdvanceRehearsal POST /api/rehearsals/:sid/advance
func (h *Handler) AdvanceRehearsal(c *gin.Context) {
	h.Metrics.RecordRehearsalAction(models.ActionAdvance)
	h.respondView(c)(h.Rehearsals.Advance(c.Param("sid")))
}

// RehearsalAudioEnded POST /api/rehearsals/:sid/audio-ended
func (h *Handler) RehearsalAudioEnded(c *gin.Context) {
	h.Metrics.RecordRehearsalAction(models.ActionAudioEnded)
	h.respondView(c)(h.Rehearsals.AudioEnded(c.Param("sid")))
}

// RestartRehearsal POST /api/rehearsals/:sid/restart
func (h *Handler) RestartRehearsal(c *gin.Context) {
	h.Metrics.RecordRehearsalAction(models.ActionRestart)
	h.respondView(c)(h.Rehearsals.Restart(c.Param("sid")))
}

// CloseRehearsal DELETE /api/rehearsals/:sid
func (h *Handler) CloseRehearsal(c *gin.Context) {
	if err := h.Rehearsals.Close(c.Param("sid")); err != nil {
		h.Response.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) respondView(c *gin.Context) func(*services.SessionView, error) {
	return func(view *services.SessionView, err error) {
		if err != nil {
			h.Response.HandleError(c, err)
			return
		}
		h.Response.Success(c, view)
	}
}

// applyCommand runs a websocket command against a session.
func (h *Handler) applyCommand(sessionID string, cmd models.RehearsalCommand) error {
	var err error
	switch cmd.Action {
	case models.ActionPlay:
		_, err = h.Rehearsals.Play(sessionID)
	case models.ActionAdvance:
		_, err = h.Rehearsals.Advance(sessionID)
	case models.ActionAudioEnded:
		_, err = h.Rehearsals.AudioEnded(sessionID)
	case models.ActionRestart:
		_, err = h.Rehearsals.Restart(sessionID)
	case models.ActionSelectRole:
		_, err = h.Rehearsals.SelectRole(sessionID, cmd.Role)
	default:
		return apperrors.NewFieldValidationError("Unknown action",
			apperrors.FieldError{Field: "action", Message: "Action must be one of play, advance, audio_ended, restart, select_role"})
	}
	h.Metrics.RecordRehearsalAction(cmd.Action)
	return err
}
