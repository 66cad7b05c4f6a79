package domain

import (
	"io"
	"time"
)

// DeviceKind selects the scanning strategy for a source device.
type DeviceKind int

const (
	RemovableDrive DeviceKind = iota
	PortableDevice
	Manual
)

func (k DeviceKind) String() string {
	switch k {
	case RemovableDrive:
		return "removable"
	case PortableDevice:
		return "portable"
	default:
		return "manual"
	}
}

// Device describes a candidate media source as reported by the device
// enumerator. The pipeline reads ID and Kind; capacity fields are
// advisory display data.
type Device struct {
	ID            string
	DisplayName   string
	Kind          DeviceKind
	CapacityBytes uint64
	FreeBytes     uint64
}

// PortableItem is a handle into a protocol-addressed device listing,
// either a folder or a leaf file. Handles are borrowed for the duration
// of one scan or copy call; a later session must re-resolve by path.
type PortableItem interface {
	Name() string
	Path() string
	Size() int64
	// Modified returns the device-reported timestamp. Devices that do
	// not track dates report their protocol's zero-date, which callers
	// must treat as absent.
	Modified() time.Time
	IsFolder() bool
	// Items enumerates children of a folder item.
	Items() ([]PortableItem, error)
	// Open streams the bytes of a leaf item.
	Open() (io.ReadCloser, error)
	// CopyTo asks the device to transfer a leaf item into a local
	// directory using its native copy operation. The destination file
	// may appear asynchronously.
	CopyTo(destDir string) error
}
