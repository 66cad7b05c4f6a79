package scan

import (
	"context"
	"io/fs"
	"time"

	"cardcopy/internal/domain"
	appErrors "cardcopy/internal/errors"
)

// scanFilesystem walks a mounted drive. The device ID is its mount path.
func (s *Scanner) scanFilesystem(ctx context.Context, dev domain.Device) (domain.Inventory, error) {
	var inv domain.Inventory

	err := s.FS.WalkDir(dev.ID, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if walkErr != nil {
			if path == dev.ID {
				// Root inaccessible: the whole scan fails.
				return walkErr
			}
			s.Logger.Warn().Err(walkErr).Str("path", path).Msg("entry skipped")
			return nil
		}
		if d.IsDir() {
			return nil
		}

		category := domain.Classify(d.Name())
		if category == domain.Unsupported {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.Logger.Warn().Err(err).Str("path", path).Msg("stat failed, entry skipped")
			return nil
		}

		inv.Add(domain.MediaFile{
			Name:        d.Name(),
			Path:        path,
			Size:        info.Size(),
			Category:    category,
			CaptureDate: s.filesystemDate(ctx, path, category, info),
		})
		s.progress(&inv)
		return nil
	})
	if err != nil {
		return domain.Inventory{}, appErrors.Wrap(appErrors.ScanFailure, "scan", dev.ID, err)
	}
	return inv, nil
}

// filesystemDate resolves a capture date for a filesystem entry. Photos
// get their embedded metadata date when readable; everything else falls
// back to the modification time.
func (s *Scanner) filesystemDate(ctx context.Context, path string, category domain.Category, info fs.FileInfo) time.Time {
	if category == domain.Photo && s.Exif != nil {
		if taken, err := s.Exif.CaptureDate(ctx, path); err == nil {
			return taken
		}
	}
	if mod := info.ModTime(); !mod.IsZero() {
		return mod
	}
	return s.now()
}
