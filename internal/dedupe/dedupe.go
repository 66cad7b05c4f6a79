package dedupe

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"io/fs"
	"time"

	"github.com/rs/zerolog"

	"cardcopy/internal/domain"
)

// hashChunkSize keeps hashing memory-bounded regardless of file size.
const hashChunkSize = 8 * 1024

// DefaultModTimeTolerance absorbs filesystem timestamp precision when
// comparing a protocol-reported capture date against a destination
// file's mtime.
const DefaultModTimeTolerance = 2 * time.Second

type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Open(path string) (io.ReadCloser, error)
}

// Deduplicator decides whether a scanned file already exists at its
// computed destination path. Comparison failures are treated as "not a
// duplicate" so files are re-copied rather than silently dropped.
type Deduplicator struct {
	FS               FileSystem
	Logger           zerolog.Logger
	ModTimeTolerance time.Duration
}

func (d *Deduplicator) tolerance() time.Duration {
	if d.ModTimeTolerance > 0 {
		return d.ModTimeTolerance
	}
	return DefaultModTimeTolerance
}

// IsDuplicate reports whether an equivalent file already exists at the
// destination path derived from the file's category, capture date and
// name. CameraUnclassified files are always treated as new: their true
// type is only resolved at copy time.
func (d *Deduplicator) IsDuplicate(file domain.MediaFile, destRoot string) bool {
	switch file.Category {
	case domain.Unsupported, domain.CameraUnclassified:
		return false
	}

	destPath, err := domain.DestinationPath(file, destRoot)
	if err != nil {
		return false
	}

	destInfo, err := d.FS.Stat(destPath)
	if err != nil {
		return false
	}
	if destInfo.Size() != file.Size {
		// Distinct file; filename-conflict handling deals with it at
		// copy time.
		return false
	}

	if file.IsPortable() {
		// Hashing a protocol item would require a full download, so a
		// size match plus a close modification time stands in. When the
		// date cannot be verified, fail safe toward re-copying.
		diff := file.CaptureDate.Sub(destInfo.ModTime())
		if diff < 0 {
			diff = -diff
		}
		return diff < d.tolerance()
	}

	srcHash, err := d.hashFile(file.Path)
	if err != nil {
		d.Logger.Warn().Err(err).Str("path", file.Path).Msg("source hash failed, treating as new")
		return false
	}
	destHash, err := d.hashFile(destPath)
	if err != nil {
		d.Logger.Warn().Err(err).Str("path", destPath).Msg("destination hash failed, treating as new")
		return false
	}
	return srcHash != "" && srcHash == destHash
}

// Partition splits an inventory into new and duplicate files, preserving
// input order in both outputs. It runs once per session, before any
// copying begins, so the counts stay stable for progress reporting.
func (d *Deduplicator) Partition(files []domain.MediaFile, destRoot string) (newFiles, duplicates []domain.MediaFile) {
	for _, file := range files {
		if d.IsDuplicate(file, destRoot) {
			duplicates = append(duplicates, file)
		} else {
			newFiles = append(newFiles, file)
		}
	}
	return newFiles, duplicates
}

func (d *Deduplicator) hashFile(path string) (string, error) {
	f, err := d.FS.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := md5.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(hasher, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
