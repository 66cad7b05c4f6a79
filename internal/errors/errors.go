package errors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	InvalidConfig  Kind = "invalid_config"
	NotFound       Kind = "not_found"
	ScanFailure    Kind = "scan_failure"
	DuplicateCheck Kind = "duplicate_check"
	Collision      Kind = "collision_exhausted"
	Verification   Kind = "verification_mismatch"
	Disconnected   Kind = "device_disconnected"
	IOFailure      Kind = "io_failure"
	Internal       Kind = "internal"
)

type AppError struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *AppError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Kind: kind,
		Op:   op,
		Path: path,
		Err:  err,
	}
}

func UserMessage(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	switch appErr.Kind {
	case InvalidConfig:
		return fmt.Sprintf("Invalid configuration: %v", appErr.Err)
	case NotFound:
		return fmt.Sprintf("Path not found: %s", appErr.Path)
	case ScanFailure:
		return fmt.Sprintf("Scan failed: %s", appErr.Path)
	case Disconnected:
		return fmt.Sprintf("Device disconnected: %s", appErr.Path)
	case Collision:
		return fmt.Sprintf("Could not find a free destination name for: %s", appErr.Path)
	case Verification:
		return fmt.Sprintf("Copy verification failed: %s", appErr.Path)
	case IOFailure:
		return fmt.Sprintf("I/O error: %s", appErr.Path)
	default:
		return fmt.Sprintf("Unexpected error: %v", appErr.Err)
	}
}
