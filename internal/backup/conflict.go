package backup

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	appErrors "cardcopy/internal/errors"
)

// maxSuffixAttempts bounds collision resolution before the file is
// declared unresolvable.
const maxSuffixAttempts = 1000

var errSuffixesExhausted = errors.New("no free destination name after 1000 attempts")

// existsFunc is the narrow dependency collision resolution needs.
type existsFunc func(path string) (bool, error)

// resolveCollision returns a destination path that is not yet occupied,
// appending "_1", "_2", ... before the extension until a free name is
// found. The original path is returned unchanged when it is free.
func resolveCollision(exists existsFunc, destPath string) (string, error) {
	occupied, err := exists(destPath)
	if err != nil {
		return "", appErrors.Wrap(appErrors.IOFailure, "collision", destPath, err)
	}
	if !occupied {
		return destPath, nil
	}

	for i := 1; i <= maxSuffixAttempts; i++ {
		candidate := suffixedPath(destPath, i)
		occupied, err := exists(candidate)
		if err != nil {
			return "", appErrors.Wrap(appErrors.IOFailure, "collision", candidate, err)
		}
		if !occupied {
			return candidate, nil
		}
	}
	return "", appErrors.Wrap(appErrors.Collision, "collision", destPath, errSuffixesExhausted)
}

// suffixedPath inserts "_n" before the extension.
func suffixedPath(path string, n int) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}
