// Package scan lists the photos of an input directory.
package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kozaktomas/photo-grouper/internal/cluster"
	"github.com/kozaktomas/photo-grouper/internal/constants"
)

// ErrNoImages is returned when a directory holds no supported image files.
var ErrNoImages = errors.New("no images found")

// IsImageFile checks if a file extension belongs to a supported image file
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(constants.SupportedExtensions, ext)
}

// ListImages returns the supported images directly inside dir, in directory
// listing order (sorted by file name). Sub-directories are not descended and
// unsupported files are skipped silently.
func ListImages(dir string) ([]cluster.Ref, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var refs []cluster.Ref
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}
		if !entry.Type().IsRegular() && entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		refs = append(refs, cluster.Ref(filepath.Join(dir, entry.Name())))
	}

	if len(refs) == 0 {
		return nil, ErrNoImages
	}
	return refs, nil
}
