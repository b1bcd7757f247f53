package models

// UploadAudioRequest is the body of POST /api/upload-audio.
type UploadAudioRequest struct {
	Filename string `json:"filename"`
}

// UploadAudioResponse reports the placeholder created for an upload.
type UploadAudioResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
}

// EnsureResult is the per-file outcome of a bulk placeholder run.
type EnsureResult struct {
	File    string `json:"file"`
	Path    string `json:"path,omitempty"`
	Created bool   `json:"created"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
