package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cardcopy/internal/domain"
)

// TransferStrategy is one way of getting a protocol item's bytes to a
// local destination path. Strategies are tried in order until one
// succeeds; the list is configuration, not a hardcoded sequence.
type TransferStrategy struct {
	Name string
	Run  func(item domain.PortableItem, destPath string) error
}

const (
	// appearWait bounds how long a strategy polls for the destination
	// file after asking the device to transfer asynchronously.
	appearWait    = 10 * time.Second
	appearPollGap = 200 * time.Millisecond
)

var errTransferTimeout = errors.New("destination file did not appear")

// DefaultStrategies builds the standard strategy order: the device's
// native copy operation first, then a protocol stream read, then a
// temporary-file round trip.
func DefaultStrategies(filesystem FileSystem) []TransferStrategy {
	return []TransferStrategy{
		{Name: "native-copy", Run: nativeCopy(filesystem)},
		{Name: "stream-read", Run: streamRead(filesystem)},
		{Name: "temp-roundtrip", Run: tempRoundTrip(filesystem)},
	}
}

// nativeCopy asks the device to transfer into the destination directory
// itself. The file appears asynchronously under the item's reported
// name, so the strategy waits for it and renames when the target name
// differs (repaired extension, collision suffix).
func nativeCopy(filesystem FileSystem) func(domain.PortableItem, string) error {
	return func(item domain.PortableItem, destPath string) error {
		destDir := filepath.Dir(destPath)
		if err := item.CopyTo(destDir); err != nil {
			return err
		}
		appeared := filepath.Join(destDir, item.Name())
		if err := waitForFile(filesystem, appeared); err != nil {
			// Some devices write the repaired name directly.
			if err2 := waitForFile(filesystem, destPath); err2 == nil {
				return nil
			}
			return err
		}
		if appeared == destPath {
			return nil
		}
		return filesystem.Rename(appeared, destPath)
	}
}

// streamRead pulls the item's bytes through the protocol's stream
// interface into the destination.
func streamRead(filesystem FileSystem) func(domain.PortableItem, string) error {
	return func(item domain.PortableItem, destPath string) error {
		r, err := item.Open()
		if err != nil {
			return err
		}
		defer r.Close()
		_, err = filesystem.WriteFrom(destPath, r)
		return err
	}
}

// tempRoundTrip transfers into a scratch directory first, then moves the
// result into place with a plain filesystem copy.
func tempRoundTrip(filesystem FileSystem) func(domain.PortableItem, string) error {
	return func(item domain.PortableItem, destPath string) error {
		tempDir, err := os.MkdirTemp("", "cardcopy-transfer-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tempDir)

		if err := item.CopyTo(tempDir); err != nil {
			return err
		}
		tempPath := filepath.Join(tempDir, item.Name())
		if err := waitForFile(filesystem, tempPath); err != nil {
			return err
		}
		return filesystem.CopyFile(tempPath, destPath)
	}
}

func waitForFile(filesystem FileSystem, path string) error {
	deadline := time.Now().Add(appearWait)
	for {
		ok, err := filesystem.Exists(path)
		if err == nil && ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", errTransferTimeout, path)
		}
		time.Sleep(appearPollGap)
	}
}
