package scan

import (
	"context"
	"io/fs"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cardcopy/internal/domain"
)

type FileSystem interface {
	WalkDir(root string, fn fs.WalkDirFunc) error
	Stat(path string) (fs.FileInfo, error)
}

type ExifReader interface {
	CaptureDate(ctx context.Context, path string) (time.Time, error)
}

// PortableOpener resolves a protocol-addressed device ID to the root of
// its item listing.
type PortableOpener interface {
	Root(ctx context.Context, deviceID string) (domain.PortableItem, error)
}

// ProgressFunc receives advisory progress as items are discovered.
type ProgressFunc func(count int, bytes int64)

// Scanner walks a device and produces a classified inventory. A new scan
// request for a device supersedes any in-flight scan for that same
// device; scans for distinct devices run independently.
type Scanner struct {
	FS         FileSystem
	Exif       ExifReader
	Portable   PortableOpener
	Logger     zerolog.Logger
	OnProgress ProgressFunc
	Now        func() time.Time

	mu     sync.Mutex
	active map[string]*scanHandle
}

type scanHandle struct {
	cancel context.CancelFunc
}

func (s *Scanner) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scanner) begin(ctx context.Context, deviceID string) (context.Context, *scanHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		s.active = make(map[string]*scanHandle)
	}
	if prev, ok := s.active[deviceID]; ok {
		prev.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	handle := &scanHandle{cancel: cancel}
	s.active[deviceID] = handle
	return ctx, handle
}

func (s *Scanner) end(deviceID string, handle *scanHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle.cancel()
	if s.active[deviceID] == handle {
		delete(s.active, deviceID)
	}
}

// Scan dispatches on the device's addressing mode and returns the flat
// inventory of classified media files. Per-entry failures are skipped;
// only inventory-level failures abort the scan.
func (s *Scanner) Scan(ctx context.Context, dev domain.Device) (domain.Inventory, error) {
	ctx, handle := s.begin(ctx, dev.ID)
	defer s.end(dev.ID, handle)

	s.Logger.Info().Str("device", dev.ID).Str("kind", dev.Kind.String()).Msg("scan started")

	var inv domain.Inventory
	var err error
	switch dev.Kind {
	case domain.PortableDevice:
		inv, err = s.scanPortable(ctx, dev)
	default:
		inv, err = s.scanFilesystem(ctx, dev)
	}
	if err != nil {
		s.Logger.Error().Err(err).Str("device", dev.ID).Msg("scan failed")
		return domain.Inventory{}, err
	}

	s.Logger.Info().
		Int("files", inv.Total()).
		Int("photos", inv.Photos).
		Int("raw", inv.RawFiles).
		Int("videos", inv.Videos).
		Int64("bytes", inv.TotalBytes).
		Msg("scan complete")
	return inv, nil
}

func (s *Scanner) progress(inv *domain.Inventory) {
	if s.OnProgress != nil {
		s.OnProgress(inv.Total(), inv.TotalBytes)
	}
}
