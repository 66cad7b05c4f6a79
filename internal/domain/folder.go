package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// ErrUnsupportedCategory signals a programming error: unsupported files
// are filtered before scanning completes and must never reach path
// derivation.
var ErrUnsupportedCategory = errors.New("unsupported category has no destination folder")

func typeLabel(c Category) string {
	switch c {
	case Photo:
		return "Photos"
	case Raw:
		return "Raw"
	case Video:
		return "Videos"
	case CameraUnclassified:
		// Provisional: the real type is only resolved at copy time.
		return "Photos"
	default:
		return "Other"
	}
}

// Subfolder returns the destination subfolder "{TypeLabel}_{YYYY}/{MM}/{DD}"
// for a category and capture date. It is pure: equal inputs always yield
// the same path.
func Subfolder(c Category, date time.Time) (string, error) {
	if c == Unsupported {
		return "", ErrUnsupportedCategory
	}
	return filepath.Join(
		fmt.Sprintf("%s_%04d", typeLabel(c), date.Year()),
		fmt.Sprintf("%02d", date.Month()),
		fmt.Sprintf("%02d", date.Day()),
	), nil
}

// DestinationPath returns the full destination path for a media file
// under destRoot.
func DestinationPath(f MediaFile, destRoot string) (string, error) {
	sub, err := Subfolder(f.Category, f.CaptureDate)
	if err != nil {
		return "", err
	}
	return filepath.Join(destRoot, sub, f.Name), nil
}
