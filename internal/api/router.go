// internal/api/router.go
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/ScriptRehearsal/internal/services"
	"github.com/Corphon/ScriptRehearsal/internal/utils"
)

// Dependencies are the services the router serves.
type Dependencies struct {
	Scripts    *services.ScriptService
	Audio      *services.AudioService
	Rehearsals *services.RehearsalService
	Logger     *utils.Logger

	// AudioDir is served under /audio/.
	AudioDir string
	// RateLimitPerMinute caps /api requests per client IP. Zero disables it.
	RateLimitPerMinute int
	DebugMode          bool
}

// SetupRouter builds the HTTP engine and returns it with its handler.
func SetupRouter(deps Dependencies) (*gin.Engine, *Handler) {
	if deps.DebugMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := deps.Logger
	if logger == nil {
		logger = utils.GetLogger()
	}

	handler := NewHandler(deps.Scripts, deps.Audio, deps.Rehearsals, logger)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(logger, handler.Metrics))
	r.Use(RecoveryMiddleware(handler.Response))
	r.Use(corsMiddleware())
	r.NoRoute(handler.noRoute)

	r.GET("/healthz", handler.Health)
	if deps.AudioDir != "" {
		r.Static("/audio", deps.AudioDir)
	}
	r.GET("/ws/rehearsals/:sid", handler.RehearsalWebSocket)

	limiter := NewRateLimiter()
	api := r.Group("/api")
	api.Use(RateLimitByIP(limiter, handler.Response, deps.RateLimitPerMinute, time.Minute))
	{
		// scripts
		api.GET("/scripts", handler.ListScripts)
		api.POST("/scripts", handler.CreateScript)
		api.GET("/scripts/:id", handler.GetScript)
		api.POST("/scripts/:id/characters", handler.AddCharacter)
		api.POST("/scripts/:id/dialogues", handler.AddDialogue)
		api.POST("/scripts/:id/rehearsals", handler.StartRehearsal)

		// dialogues
		api.GET("/dialogues/:id", handler.GetDialogue)
		api.PATCH("/dialogues/:id", handler.UpdateDialogue)

		// audio files
		api.POST("/upload-audio", handler.UploadAudio)
		api.POST("/ensure-audio-files", handler.EnsureAudioFiles)
		api.GET("/audio-files", handler.ListAudioFiles)

		// rehearsals
		api.GET("/rehearsals/:sid", handler.GetRehearsal)
		api.DELETE("/rehearsals/:sid", handler.CloseRehearsal)
		api.PUT("/rehearsals/:sid/role", handler.SelectRehearsalRole)
		api.POST("/rehearsals/:sid/play", handler.PlayRehearsal)
		api.POST("/rehearsals/:sid/advance", handler.AdvanceRehearsal)
		api.POST("/rehearsals/:sid/audio-ended", handler.RehearsalAudioEnded)
		api.POST("/rehearsals/:sid/restart", handler.RestartRehearsal)

		api.GET("/ws/status", handler.WebSocketStatus)
		api.GET("/metrics", handler.GetMetrics)
	}

	return r, handler
}
