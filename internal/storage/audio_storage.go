// internal/storage/audio_storage.go
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Corphon/ScriptRehearsal/internal/models"
)

const (
	// AudioURLPrefix is where the HTTP server exposes BaseDir.
	AudioURLPrefix = "/audio/"
	audioExt       = ".mp3"
)

// ErrInvalidAudioName is returned for empty names and names that would leave
// the audio directory.
var ErrInvalidAudioName = errors.New("invalid audio file name")

// AudioStorage manages the audio directory: placeholder files and listings.
type AudioStorage struct {
	BaseDir string

	fileLocks sync.Map // path -> *sync.Mutex
}

// NewAudioStorage creates the audio directory if needed.
func NewAudioStorage(baseDir string) (*AudioStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create audio directory: %w", err)
	}
	return &AudioStorage{BaseDir: baseDir}, nil
}

func (as *AudioStorage) getFileLock(fullPath string) *sync.Mutex {
	value, _ := as.fileLocks.LoadOrStore(fullPath, &sync.Mutex{})
	return value.(*sync.Mutex)
}

// NormalizeAudioName reduces name to a bare file name ending in ".mp3".
// "romeo1" and "romeo1.mp3" both yield "romeo1.mp3".
func NormalizeAudioName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "", ErrInvalidAudioName
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") || strings.ContainsRune(name, 0) {
		return "", ErrInvalidAudioName
	}
	if !strings.EqualFold(filepath.Ext(name), audioExt) {
		name += audioExt
	}
	return name, nil
}

// PublicPath is the URL path under which a stored file is served.
func PublicPath(fileName string) string {
	return AudioURLPrefix + fileName
}

// EnsurePlaceholder creates an empty file for name unless one already exists.
// Existing files are never truncated. It returns the public path and whether
// a file was created.
func (as *AudioStorage) EnsurePlaceholder(name string) (string, bool, error) {
	fileName, err := NormalizeAudioName(name)
	if err != nil {
		return "", false, err
	}
	fullPath := filepath.Join(as.BaseDir, fileName)

	lock := as.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(as.BaseDir, 0755); err != nil {
		return "", false, fmt.Errorf("create audio directory: %w", err)
	}

	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, os.ErrExist) {
		return PublicPath(fileName), false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("create placeholder %s: %w", fileName, err)
	}
	if err := f.Close(); err != nil {
		return "", false, fmt.Errorf("close placeholder %s: %w", fileName, err)
	}
	return PublicPath(fileName), true, nil
}

// EnsurePlaceholders runs EnsurePlaceholder for every name and reports each
// outcome. A failure on one name does not stop the others.
func (as *AudioStorage) EnsurePlaceholders(names []string) []models.EnsureResult {
	results := make([]models.EnsureResult, 0, len(names))
	for _, name := range names {
		path, created, err := as.EnsurePlaceholder(name)
		result := models.EnsureResult{File: name, Path: path, Created: created, Success: err == nil}
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}

// ListAudioFiles returns the names of the .mp3 files in the audio directory,
// sorted.
func (as *AudioStorage) ListAudioFiles() ([]string, error) {
	entries, err := os.ReadDir(as.BaseDir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read audio directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), audioExt) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// Exists reports whether the file behind a public path or bare name exists.
func (as *AudioStorage) Exists(ref string) bool {
	fileName, err := NormalizeAudioName(strings.TrimPrefix(ref, AudioURLPrefix))
	if err != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(as.BaseDir, fileName))
	return err == nil && !info.IsDir()
}
