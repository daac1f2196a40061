// Package generator implements the producer stage: directory discovery,
// canonical PNG re-encoding, and subscriber-aware backpressure over the
// upstream bus.
package generator

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var acceptedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".bmp": true, ".tif": true, ".tiff": true,
}

// Discover lists dir non-recursively, keeps regular files whose
// extension case-insensitively matches the accepted set, and returns
// them sorted lexicographically by path.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if acceptedExtensions[ext] {
			images = append(images, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(images)
	return images, nil
}
