package scan

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"sync"
	"testing"
	"time"

	"cardcopy/internal/domain"
	"cardcopy/internal/logging"
)

type mockEntry struct {
	size    int64
	modTime time.Time
}

// mockFS drives WalkDir from a path->entry map, visiting files in sorted
// order the way a real walk does.
type mockFS struct {
	entries map[string]mockEntry
}

func (m *mockFS) WalkDir(root string, fn fs.WalkDirFunc) error {
	paths := make([]string, 0, len(m.entries))
	for p := range m.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		entry := m.entries[p]
		err := fn(p, mockDirEntry{name: path.Base(p), entry: entry}, nil)
		if err != nil {
			if errors.Is(err, fs.SkipDir) {
				continue
			}
			return err
		}
	}
	return nil
}

func (m *mockFS) Stat(p string) (fs.FileInfo, error) {
	entry, ok := m.entries[p]
	if !ok {
		return nil, os.ErrNotExist
	}
	return mockFileInfo{name: path.Base(p), entry: entry}, nil
}

type mockDirEntry struct {
	name  string
	entry mockEntry
}

func (d mockDirEntry) Name() string               { return d.name }
func (d mockDirEntry) IsDir() bool                { return false }
func (d mockDirEntry) Type() fs.FileMode          { return 0 }
func (d mockDirEntry) Info() (fs.FileInfo, error) { return mockFileInfo{d.name, d.entry}, nil }

type mockFileInfo struct {
	name  string
	entry mockEntry
}

func (i mockFileInfo) Name() string       { return i.name }
func (i mockFileInfo) Size() int64        { return i.entry.size }
func (i mockFileInfo) Mode() fs.FileMode  { return 0o644 }
func (i mockFileInfo) ModTime() time.Time { return i.entry.modTime }
func (i mockFileInfo) IsDir() bool        { return false }
func (i mockFileInfo) Sys() any           { return nil }

type mockExif struct {
	dates map[string]time.Time
}

func (m *mockExif) CaptureDate(ctx context.Context, path string) (time.Time, error) {
	if d, ok := m.dates[path]; ok {
		return d, nil
	}
	return time.Time{}, errors.New("no metadata")
}

func TestScanFilesystemClassifiesAndCounts(t *testing.T) {
	mod := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	exifDate := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	ffs := &mockFS{entries: map[string]mockEntry{
		"/card/DCIM/IMG_001.jpg":  {size: 100, modTime: mod},
		"/card/DCIM/DSC00519.ARW": {size: 2000, modTime: mod},
		"/card/DCIM/clip.mp4":     {size: 5000, modTime: mod},
		"/card/DCIM/notes.txt":    {size: 10, modTime: mod},
	}}
	s := &Scanner{
		FS:     ffs,
		Exif:   &mockExif{dates: map[string]time.Time{"/card/DCIM/IMG_001.jpg": exifDate}},
		Logger: logging.Nop(),
	}

	inv, err := s.Scan(context.Background(), domain.Device{ID: "/card", Kind: domain.RemovableDrive})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if inv.Total() != 3 {
		t.Fatalf("total = %d, want 3", inv.Total())
	}
	if inv.Photos != 1 || inv.RawFiles != 1 || inv.Videos != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", inv.Photos, inv.RawFiles, inv.Videos)
	}
	if inv.TotalBytes != 7100 {
		t.Errorf("bytes = %d, want 7100", inv.TotalBytes)
	}

	for _, f := range inv.Files {
		if f.Name == "IMG_001.jpg" && !f.CaptureDate.Equal(exifDate) {
			t.Errorf("photo capture date = %v, want embedded date %v", f.CaptureDate, exifDate)
		}
		if f.Name == "DSC00519.ARW" && !f.CaptureDate.Equal(mod) {
			t.Errorf("raw capture date = %v, want mod time %v", f.CaptureDate, mod)
		}
	}
}

func TestScanFilesystemReportsProgress(t *testing.T) {
	ffs := &mockFS{entries: map[string]mockEntry{
		"/card/a.jpg": {size: 10},
		"/card/b.jpg": {size: 20},
	}}
	var counts []int
	s := &Scanner{
		FS:     ffs,
		Logger: logging.Nop(),
		OnProgress: func(count int, bytes int64) {
			counts = append(counts, count)
		},
	}

	if _, err := s.Scan(context.Background(), domain.Device{ID: "/card"}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(counts) != 2 || counts[0] != 1 || counts[1] != 2 {
		t.Errorf("progress counts = %v, want [1 2]", counts)
	}
}

type failingFS struct{ err error }

func (f failingFS) WalkDir(root string, fn fs.WalkDirFunc) error {
	return fn(root, nil, f.err)
}

func (f failingFS) Stat(path string) (fs.FileInfo, error) { return nil, f.err }

func TestScanFilesystemRootFailureAborts(t *testing.T) {
	s := &Scanner{FS: failingFS{err: os.ErrNotExist}, Logger: logging.Nop()}

	_, err := s.Scan(context.Background(), domain.Device{ID: "/gone"})
	if err == nil {
		t.Fatal("expected scan of an inaccessible root to fail")
	}
}

// portableItem is an in-memory item tree node.
type portableItem struct {
	name     string
	path     string
	size     int64
	modified time.Time
	folder   bool
	children []domain.PortableItem
	itemsErr error
}

func (p *portableItem) Name() string        { return p.name }
func (p *portableItem) Path() string        { return p.path }
func (p *portableItem) Size() int64         { return p.size }
func (p *portableItem) Modified() time.Time { return p.modified }
func (p *portableItem) IsFolder() bool      { return p.folder }
func (p *portableItem) Items() ([]domain.PortableItem, error) {
	if p.itemsErr != nil {
		return nil, p.itemsErr
	}
	return p.children, nil
}
func (p *portableItem) Open() (io.ReadCloser, error) { return nil, errors.New("not readable") }
func (p *portableItem) CopyTo(destDir string) error  { return nil }

type mockOpener struct {
	root domain.PortableItem
	err  error
}

func (m mockOpener) Root(ctx context.Context, deviceID string) (domain.PortableItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.root, nil
}

func TestScanPortableRepairsNames(t *testing.T) {
	deviceDate := time.Date(2025, 6, 3, 14, 0, 0, 0, time.UTC)
	root := &portableItem{folder: true, children: []domain.PortableItem{
		&portableItem{name: "DCIM", path: "DCIM", folder: true, children: []domain.PortableItem{
			// Extension dropped by the device listing.
			&portableItem{name: "DSC00519", path: "DCIM/100MSDCF/DSC00519", size: 2000, modified: deviceDate},
			&portableItem{name: "IMG_001.jpg", path: "DCIM/100MSDCF/IMG_001.jpg", size: 100, modified: deviceDate},
			&portableItem{name: "readme.txt", path: "DCIM/readme.txt", size: 5, modified: deviceDate},
		}},
	}}
	s := &Scanner{Portable: mockOpener{root: root}, Logger: logging.Nop()}

	inv, err := s.Scan(context.Background(), domain.Device{ID: "mtp://camera", Kind: domain.PortableDevice})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if inv.Total() != 2 {
		t.Fatalf("total = %d, want 2", inv.Total())
	}
	var repaired *domain.MediaFile
	for i := range inv.Files {
		if inv.Files[i].Name == "DSC00519.ARW" {
			repaired = &inv.Files[i]
		}
	}
	if repaired == nil {
		t.Fatal("expected the bare DSC file to be repaired to DSC00519.ARW")
	}
	if repaired.Category != domain.Raw {
		t.Errorf("repaired category = %v, want raw", repaired.Category)
	}
	if !repaired.IsPortable() {
		t.Error("portable scan must attach the item handle")
	}
	if !repaired.CaptureDate.Equal(deviceDate) {
		t.Errorf("capture date = %v, want device date %v", repaired.CaptureDate, deviceDate)
	}
}

func TestScanPortableFolderFailureSkipsSubtree(t *testing.T) {
	root := &portableItem{folder: true, children: []domain.PortableItem{
		&portableItem{name: "broken", path: "broken", folder: true, itemsErr: errors.New("device busy")},
		&portableItem{name: "IMG_001.jpg", path: "IMG_001.jpg", size: 100},
	}}
	s := &Scanner{Portable: mockOpener{root: root}, Logger: logging.Nop()}

	inv, err := s.Scan(context.Background(), domain.Device{ID: "mtp://camera", Kind: domain.PortableDevice})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if inv.Total() != 1 {
		t.Errorf("total = %d, want 1 (broken folder skipped)", inv.Total())
	}
}

func TestScanPortableRootFailureAborts(t *testing.T) {
	s := &Scanner{
		Portable: mockOpener{root: &portableItem{folder: true, itemsErr: errors.New("device disconnected")}},
		Logger:   logging.Nop(),
	}

	_, err := s.Scan(context.Background(), domain.Device{ID: "mtp://camera", Kind: domain.PortableDevice})
	if err == nil {
		t.Fatal("expected top-level enumeration failure to abort the scan")
	}
}

func TestScanPortableWithoutOpener(t *testing.T) {
	s := &Scanner{Logger: logging.Nop()}
	_, err := s.Scan(context.Background(), domain.Device{ID: "mtp://camera", Kind: domain.PortableDevice})
	if err == nil {
		t.Fatal("expected an error when no portable opener is configured")
	}
}

// supersedeFS blocks its first walk until released; later walks run
// straight through. This lets a second scan start while the first is
// still in flight.
type supersedeFS struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (b *supersedeFS) WalkDir(root string, fn fs.WalkDirFunc) error {
	b.mu.Lock()
	b.calls++
	first := b.calls == 1
	b.mu.Unlock()
	if first {
		close(b.started)
		<-b.release
	}
	return fn(root+"/a.jpg", mockDirEntry{name: "a.jpg", entry: mockEntry{size: 10}}, nil)
}

func (b *supersedeFS) Stat(path string) (fs.FileInfo, error) { return nil, os.ErrNotExist }

func TestScanSupersedesInFlightScanForSameDevice(t *testing.T) {
	ffs := &supersedeFS{started: make(chan struct{}), release: make(chan struct{})}
	s := &Scanner{FS: ffs, Logger: logging.Nop()}
	dev := domain.Device{ID: "/card", Kind: domain.RemovableDrive}

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.Scan(context.Background(), dev)
		firstDone <- err
	}()
	<-ffs.started

	// Starting a second scan for the same device cancels the first.
	inv, err := s.Scan(context.Background(), dev)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if inv.Total() != 1 {
		t.Errorf("second scan total = %d, want 1", inv.Total())
	}

	close(ffs.release)
	if err := <-firstDone; err == nil {
		t.Error("expected the superseded scan to fail with a cancellation")
	}
}
