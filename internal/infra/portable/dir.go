// Package portable adapts a protocol mount directory (gvfs, go-mtpfs)
// to the item tree the scanner walks. Devices exposed this way behave
// like portable devices: no usable modification times at the file
// level, transfers mediated by the mount layer.
package portable

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"cardcopy/internal/domain"
)

// Opener hands out the root item of a mounted portable device.
type Opener struct{}

func (Opener) Root(ctx context.Context, deviceID string) (domain.PortableItem, error) {
	info, err := os.Stat(deviceID)
	if err != nil {
		return nil, err
	}
	return &dirItem{path: deviceID, info: info}, nil
}

// dirItem is one file or folder on the mount.
type dirItem struct {
	path string
	info os.FileInfo
}

func (d *dirItem) Name() string { return d.info.Name() }

func (d *dirItem) Path() string { return d.path }

func (d *dirItem) Size() int64 {
	if d.info.IsDir() {
		return 0
	}
	return d.info.Size()
}

func (d *dirItem) Modified() time.Time { return d.info.ModTime() }

func (d *dirItem) IsFolder() bool { return d.info.IsDir() }

func (d *dirItem) Items() ([]domain.PortableItem, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	items := make([]domain.PortableItem, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// Entry vanished between readdir and stat; skip it.
			continue
		}
		items = append(items, &dirItem{path: filepath.Join(d.path, entry.Name()), info: info})
	}
	return items, nil
}

func (d *dirItem) Open() (io.ReadCloser, error) {
	return os.Open(d.path)
}

// CopyTo transfers the item into destDir under its reported name. The
// mount layer performs the protocol transfer; from here it is a plain
// streamed copy.
func (d *dirItem) CopyTo(destDir string) error {
	src, err := os.Open(d.path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(destDir, d.Name()))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
