// internal/api/handlers.go
package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/ScriptRehearsal/internal/models"
	"github.com/Corphon/ScriptRehearsal/internal/services"
	"github.com/Corphon/ScriptRehearsal/internal/utils"
)

// Handler serves the REST API.
type Handler struct {
	Scripts    *services.ScriptService    // script authoring
	Audio      *services.AudioService     // placeholder audio
	Rehearsals *services.RehearsalService // hosted rehearsal sessions
	WebSockets *WebSocketManager          // rehearsal websocket clients
	Metrics    *utils.APIMetrics
	Response   *ResponseHelper
	logger     *utils.Logger
}

// NewHandler creates a Handler over the given services.
func NewHandler(scripts *services.ScriptService, audio *services.AudioService, rehearsals *services.RehearsalService, logger *utils.Logger) *Handler {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Handler{
		Scripts:    scripts,
		Audio:      audio,
		Rehearsals: rehearsals,
		WebSockets: NewWebSocketManager(logger),
		Metrics:    utils.NewAPIMetrics(),
		Response:   NewResponseHelper(logger),
		logger:     logger,
	}
}

// ========================================
// Scripts
// ========================================

// ListScripts GET /api/scripts
func (h *Handler) ListScripts(c *gin.Context) {
	scripts, err := h.Scripts.ListScripts(c.Request.Context())
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}
	h.Response.Success(c, scripts)
}

// GetScript GET /api/scripts/:id
func (h *Handler) GetScript(c *gin.Context) {
	id, ok := h.pathID(c, "id", ErrorScriptNotFound, "Script not found")
	if !ok {
		return
	}
	script, err := h.Scripts.GetScript(c.Request.Context(), id)
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}
	h.Response.Success(c, script)
}

// CreateScript POST /api/scripts
func (h *Handler) CreateScript(c *gin.Context) {
	var req models.CreateScriptRequest
	if !h.bindJSON(c, &req) {
		return
	}
	script, err := h.Scripts.CreateScript(c.Request.Context(), req)
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}
	h.Response.Created(c, script)
}

// AddCharacter POST /api/scripts/:id/characters
func (h *Handler) AddCharacter(c *gin.Context) {
	id, ok := h.pathID(c, "id", ErrorScriptNotFound, "Script not found")
	if !ok {
		return
	}
	var req models.CreateCharacterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	character, err := h.Scripts.AddCharacter(c.Request.Context(), id, req)
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}
	h.Response.Created(c, character)
}

// AddDialogue POST /api/scripts/:id/dialogues
func (h *Handler) AddDialogue(c *gin.Context) {
	id, ok := h.pathID(c, "id", ErrorScriptNotFound, "Script not found")
	if !ok {
		return
	}
	var req models.CreateDialogueRequest
	if !h.bindJSON(c, &req) {
		return
	}
	dialogue, err := h.Scripts.AddDialogue(c.Request.Context(), id, req)
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}
	h.Response.Created(c, dialogue)
}

// GetDialogue GET /api/dialogues/:id
func (h *Handler) GetDialogue(c *gin.Context) {
	id, ok := h.pathID(c, "id", ErrorDialogueNotFound, "Dialogue not found")
	if !ok {
		return
	}
	dialogue, err := h.Scripts.GetDialogue(c.Request.Context(), id)
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}
	h.Response.Success(c, dialogue)
}

// UpdateDialogue PATCH /api/dialogues/:id
func (h *Handler) UpdateDialogue(c *gin.Context) {
	id, ok := h.pathID(c, "id", ErrorDialogueNotFound, "Dialogue not found")
	if !ok {
		return
	}
	var req models.UpdateDialogueRequest
	if !h.bindJSON(c, &req) {
		return
	}
	dialogue, err := h.Scripts.UpdateDialogue(c.Request.Context(), id, req)
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}
	h.Response.Success(c, dialogue)
}

// ========================================
// Audio
// ========================================

// UploadAudio POST /api/upload-audio
func (h *Handler) UploadAudio(c *gin.Context) {
	var req models.UploadAudioRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.Audio.Upload(req.Filename)
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}
	h.Response.Success(c, resp)
}

// EnsureAudioFiles POST /api/ensure-audio-files
func (h *Handler) EnsureAudioFiles(c *gin.Context) {
	h.Response.Success(c, gin.H{"results": h.Audio.EnsureRequired()})
}

// ListAudioFiles GET /api/audio-files
func (h *Handler) ListAudioFiles(c *gin.Context) {
	files, err := h.Audio.List()
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}
	h.Response.Success(c, gin.H{"files": files})
}

// ========================================
// Health
// ========================================

// Health GET /healthz
func (h *Handler) Health(c *gin.Context) {
	h.Response.Success(c, gin.H{
		"status":     "ok",
		"sessions":   h.Rehearsals.Count(),
		"websockets": h.WebSockets.Count(),
		"time":       time.Now().Format(time.RFC3339),
	})
}

// GetMetrics GET /api/metrics
func (h *Handler) GetMetrics(c *gin.Context) {
	h.Metrics.SetGauge("rehearsal_sessions_open", int64(h.Rehearsals.Count()))
	h.Metrics.SetGauge("websocket_connections_open", int64(h.WebSockets.Count()))
	h.Response.Success(c, h.Metrics.GetMetrics())
}

// ========================================
// helpers
// ========================================

// pathID parses a positive integer path parameter. Anything else is
// reported as the resource not existing.
func (h *Handler) pathID(c *gin.Context, name, code, message string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		h.Response.NotFound(c, code, message)
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the body into v. An empty body leaves v zero so field
// validation can report what is missing.
func (h *Handler) bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		h.Response.BadRequest(c, "Invalid request body", err.Error())
		return false
	}
	return true
}

// noRoute answers requests no route matched.
func (h *Handler) noRoute(c *gin.Context) {
	h.Response.Error(c, http.StatusNotFound, ErrorNotFound, "Route not found")
}
