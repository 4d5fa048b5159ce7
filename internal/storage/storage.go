package storage

import (
	"path/filepath"
	"strings"
)

// VideoExtensions are the container suffixes offered when listing a directory.
var VideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}

type Storage interface {
	CheckDirectory(dir string) (string, error)
	ListVideos(dir string) ([]string, error)
	ResolveVideo(dir, name string) (string, error)
}

func IsVideoFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range VideoExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
