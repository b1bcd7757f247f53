package models

// StartRehearsalRequest is the optional body of POST /api/scripts/:id/rehearsals.
// An empty role selects the script's first character.
type StartRehearsalRequest struct {
	Role string `json:"role"`
}

// SelectRoleRequest is the body of PUT /api/rehearsals/:sid/role.
type SelectRoleRequest struct {
	Role *string `json:"role"`
}

// RehearsalCommand is a message sent by a websocket client.
type RehearsalCommand struct {
	Action string `json:"action"`
	Role   string `json:"role,omitempty"`
}

// Websocket actions accepted in RehearsalCommand.Action.
const (
	ActionPlay       = "play"
	ActionAdvance    = "advance"
	ActionAudioEnded = "audio_ended"
	ActionRestart    = "restart"
	ActionSelectRole = "select_role"
)
