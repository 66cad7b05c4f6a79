package fs

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// copyBufferSize is tuned for large video files: streaming with a 1 MiB
// buffer avoids whole-file buffering without syscall churn.
const copyBufferSize = 1 << 20

type OSFS struct{}

func (OSFS) WalkDir(root string, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}

func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (OSFS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (OSFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (OSFS) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OSFS) Remove(path string) error {
	return os.Remove(path)
}

func (OSFS) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// CopyFile streams src into dst through a fixed-size buffer, creating
// intermediate directories as needed. It never loads the whole file into
// memory.
func (OSFS) CopyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	buf := make([]byte, copyBufferSize)
	if _, err := io.CopyBuffer(dstFile, srcFile, buf); err != nil {
		dstFile.Close()
		return err
	}
	return dstFile.Close()
}

// WriteFrom streams an arbitrary reader into dst, used for protocol
// sources that expose their bytes as a stream.
func (OSFS) WriteFrom(dst string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}
	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	buf := make([]byte, copyBufferSize)
	n, err := io.CopyBuffer(dstFile, r, buf)
	if err != nil {
		dstFile.Close()
		return n, err
	}
	return n, dstFile.Close()
}
