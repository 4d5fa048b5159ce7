package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
)

// LocalStorage serves videos straight from directories on the local
// filesystem. When rootPath is set every directory must lie inside it.
type LocalStorage struct {
	rootPath string
}

func NewLocalStorage(rootPath string) (*LocalStorage, error) {
	if rootPath == "" {
		return &LocalStorage{}, nil
	}

	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve video root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat video root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("video root %s is not a directory", abs)
	}
	return &LocalStorage{rootPath: abs}, nil
}

// ResolveWithin joins name onto dir and rejects any result that escapes dir
// after lexical normalization. Nothing is opened or stat'ed.
func ResolveWithin(dir, name string) (string, error) {
	if dir == "" {
		return "", apperr.InvalidInput("directory is required")
	}
	if name == "" {
		return "", apperr.InvalidInput("filename is required")
	}
	if filepath.IsAbs(name) {
		return "", apperr.InvalidInput("path %q escapes the configured directory", name)
	}

	base := filepath.Clean(dir)
	full := filepath.Join(base, name)

	rel, err := filepath.Rel(base, full)
	if err != nil || rel == "." || escapes(rel) {
		return "", apperr.InvalidInput("path %q escapes the configured directory", name)
	}
	return full, nil
}

// CheckDirectory confirms dir exists, is a directory and sits under the
// configured root, returning its cleaned absolute form.
func (ls *LocalStorage) CheckDirectory(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", apperr.InvalidInput("Directory parameter is required")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", apperr.InvalidInput("Invalid directory path")
	}

	if !ls.withinRoot(abs) {
		return "", apperr.InvalidInput("Invalid directory path")
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", apperr.InvalidInput("Invalid directory path")
	}
	return abs, nil
}

// ListVideos returns the names of the video files directly inside dir,
// sorted. Subdirectories are skipped even when their name looks like a video.
func (ls *LocalStorage) ListVideos(dir string) ([]string, error) {
	abs, err := ls.CheckDirectory(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	videos := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !IsVideoFile(entry.Name()) {
			continue
		}
		videos = append(videos, entry.Name())
	}

	sort.Strings(videos)
	return videos, nil
}

// ResolveVideo applies the root check to dir and the escape check to name.
func (ls *LocalStorage) ResolveVideo(dir, name string) (string, error) {
	if ls.rootPath != "" {
		abs, err := filepath.Abs(dir)
		if err != nil || !ls.withinRoot(abs) {
			return "", apperr.InvalidInput("Invalid directory path")
		}
	}
	return ResolveWithin(dir, name)
}

func (ls *LocalStorage) withinRoot(abs string) bool {
	if ls.rootPath == "" || abs == ls.rootPath {
		return true
	}
	rel, err := filepath.Rel(ls.rootPath, abs)
	return err == nil && !escapes(rel)
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel)
}
