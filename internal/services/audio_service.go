// internal/services/audio_service.go
package services

import (
	"errors"

	apperrors "github.com/Corphon/ScriptRehearsal/internal/errors"
	"github.com/Corphon/ScriptRehearsal/internal/models"
	"github.com/Corphon/ScriptRehearsal/internal/storage"
	"github.com/Corphon/ScriptRehearsal/internal/utils"
)

// AudioService exposes placeholder audio management.
type AudioService struct {
	storage  *storage.AudioStorage
	required []string
	logger   *utils.Logger
}

// NewAudioService creates an AudioService. required is the fixed set of
// files EnsureRequired guarantees.
func NewAudioService(as *storage.AudioStorage, required []string, logger *utils.Logger) *AudioService {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &AudioService{
		storage:  as,
		required: append([]string(nil), required...),
		logger:   logger,
	}
}

// Upload records an uploaded file by ensuring a placeholder exists under its
// name. Existing audio is kept as is.
func (s *AudioService) Upload(filename string) (*models.UploadAudioResponse, error) {
	path, created, err := s.storage.EnsurePlaceholder(filename)
	if errors.Is(err, storage.ErrInvalidAudioName) {
		return nil, apperrors.NewFieldValidationError("Invalid audio file",
			apperrors.FieldError{Field: "filename", Message: "A valid file name is required"})
	}
	if err != nil {
		s.logger.Error("failed to create audio placeholder", map[string]interface{}{
			"filename": filename,
			"error":    err.Error(),
		})
		return nil, apperrors.NewProcessingError("failed to store audio file", err)
	}
	if created {
		s.logger.Info("audio placeholder created", map[string]interface{}{"path": path})
	}
	return &models.UploadAudioResponse{Success: true, Path: path}, nil
}

// EnsureRequired creates any missing placeholder from the required set and
// reports each file's outcome.
func (s *AudioService) EnsureRequired() []models.EnsureResult {
	results := s.storage.EnsurePlaceholders(s.required)
	created := 0
	for _, r := range results {
		if r.Created {
			created++
		}
		if !r.Success {
			s.logger.Warn("audio placeholder failed", map[string]interface{}{"file": r.File, "error": r.Error})
		}
	}
	s.logger.Debug("required audio ensured", map[string]interface{}{"files": len(results), "created": created})
	return results
}

// List returns the audio files currently stored.
func (s *AudioService) List() ([]string, error) {
	files, err := s.storage.ListAudioFiles()
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to list audio files", err)
	}
	return files, nil
}
