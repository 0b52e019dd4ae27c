package media

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"framecut/internal/services"
)

// ListMediaFiles walks root up to maxDepth directory levels deep and
// returns the .mp4 files it finds in sorted order. Unreadable directories
// inside the tree are skipped; an unreadable root is an error.
func ListMediaFiles(root string, maxDepth int) ([]string, error) {
	if maxDepth < 1 {
		maxDepth = 1
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			return nil
		}
		if entry.IsDir() {
			if depthOf(root, path) >= maxDepth {
				return fs.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".mp4") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "media", "list", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// depthOf returns how many levels below root a directory sits. Root itself
// is depth zero.
func depthOf(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
