package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Category is the media class a scanned file belongs to.
type Category int

const (
	// Unsupported files never enter an inventory; they are filtered out
	// while scanning.
	Unsupported Category = iota
	Photo
	Raw
	Video
	// CameraUnclassified covers camera-named files whose extension is
	// missing or unrecognized, typically from portable device listings
	// that report bare names like "DSC00519".
	CameraUnclassified
)

func (c Category) String() string {
	switch c {
	case Photo:
		return "photo"
	case Raw:
		return "raw"
	case Video:
		return "video"
	case CameraUnclassified:
		return "camera"
	default:
		return "unsupported"
	}
}

var photoExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true, ".gif": true,
	".heic": true, ".webp": true, ".tiff": true, ".tif": true,
}

var rawExtensions = map[string]bool{
	".cr2": true, ".nef": true, ".arw": true, ".orf": true, ".rw2": true,
	".dng": true, ".raf": true, ".sr2": true, ".pef": true, ".raw": true,
	".crw": true, ".cr3": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".mts": true,
	".m2ts": true, ".wmv": true, ".flv": true, ".3gp": true, ".m4v": true,
	".mpg": true, ".mpeg": true,
}

// cameraPrefix marks files named by the camera firmware itself. Sony
// bodies use DSC; portable listings often drop the extension for them.
const cameraPrefix = "dsc"

// Classify maps a filename to its media category by lowercased extension.
// Camera-prefixed names with no recognized extension classify as
// CameraUnclassified rather than Unsupported, since device listings are
// not reliable about extensions.
func Classify(name string) Category {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case rawExtensions[ext]:
		return Raw
	case photoExtensions[ext]:
		return Photo
	case videoExtensions[ext]:
		return Video
	case strings.HasPrefix(strings.ToLower(name), cameraPrefix):
		return CameraUnclassified
	default:
		return Unsupported
	}
}

// RepairName restores the extension of a camera file whose name was
// reported without one. Extension-less DSC files are assumed to be Sony
// ARW raws, matching what the cameras actually write.
func RepairName(name string) string {
	if strings.HasPrefix(strings.ToLower(name), cameraPrefix) && !strings.Contains(name, ".") {
		return name + ".ARW"
	}
	return name
}

// MediaFile is one classified entry in a scan inventory. The Item handle
// is only valid while the source device stays connected and must never be
// cached across sessions.
type MediaFile struct {
	Name        string
	Path        string
	Size        int64
	Category    Category
	CaptureDate time.Time
	Item        PortableItem // non-nil for protocol-addressed sources
}

// IsPortable reports whether the file's bytes must be read through the
// device protocol instead of the filesystem.
func (f MediaFile) IsPortable() bool {
	return f.Item != nil
}
