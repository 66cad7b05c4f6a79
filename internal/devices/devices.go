package devices

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"cardcopy/internal/domain"
)

// Enumerator lists the media sources currently attached.
type Enumerator interface {
	Enumerate(ctx context.Context) ([]domain.Device, error)
}

// Predicate filters enumerated devices. A nil predicate accepts all.
type Predicate func(domain.Device) bool

// RemovableOnly rejects anything that does not look like removable
// media, keeping fixed disks out of the picker.
func RemovableOnly(d domain.Device) bool {
	return d.Kind == domain.RemovableDrive || d.Kind == domain.PortableDevice
}

// CapacityFunc reports total and free bytes for a mount path. Left nil,
// capacities stay zero.
type CapacityFunc func(path string) (total, free uint64, err error)

// MountScanner enumerates devices by listing the directories removable
// media gets mounted under. Each entry of a root becomes one device;
// PortableRoots entries are protocol mounts rather than block devices.
type MountScanner struct {
	Roots         []string
	PortableRoots []string
	Capacity      CapacityFunc
	Filter        Predicate
	Logger        zerolog.Logger
}

// DefaultRoots are the usual automount locations.
func DefaultRoots() []string {
	roots := []string{"/media", "/run/media", "/Volumes"}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join("/media", filepath.Base(home)))
	}
	return roots
}

func (s *MountScanner) Enumerate(ctx context.Context) ([]domain.Device, error) {
	var out []domain.Device
	seen := make(map[string]bool)

	scan := func(roots []string, kind domain.DeviceKind) error {
		for _, root := range roots {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			entries, err := os.ReadDir(root)
			if err != nil {
				// Absent roots are normal; only log the odd ones.
				if !os.IsNotExist(err) {
					s.Logger.Warn().Err(err).Str("root", root).Msg("mount root unreadable")
				}
				continue
			}
			for _, entry := range entries {
				if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
					continue
				}
				path := filepath.Join(root, entry.Name())
				if seen[path] {
					continue
				}
				seen[path] = true
				dev := domain.Device{
					ID:          path,
					DisplayName: entry.Name(),
					Kind:        kind,
				}
				if s.Capacity != nil {
					if total, free, err := s.Capacity(path); err == nil {
						dev.CapacityBytes = total
						dev.FreeBytes = free
					}
				}
				if s.Filter != nil && !s.Filter(dev) {
					continue
				}
				out = append(out, dev)
			}
		}
		return nil
	}

	if err := scan(s.Roots, domain.RemovableDrive); err != nil {
		return nil, err
	}
	if err := scan(s.PortableRoots, domain.PortableDevice); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
