package backup

import (
	"errors"
	"io/fs"
	"strings"
)

// Reason categorizes why a session was interrupted.
type Reason string

const (
	ReasonSourceDisconnected      Reason = "source disconnected"
	ReasonDestinationDisconnected Reason = "destination disconnected"
	ReasonConnectionAnomaly       Reason = "connection anomaly"
)

// disconnectionSignatures are the error texts removable drives produce
// when they vanish mid-operation. Matching is substring-based on the
// lowercased message, the same way the OS reports them.
var disconnectionSignatures = []string{
	"device not ready",
	"device is not ready",
	"drive not ready",
	"device not found",
	"the system cannot find the path",
	"no such file or directory",
	"no such device",
	"access is denied",
	"permission denied",
	"the network path was not found",
	"the specified path is invalid",
	"input/output error",
}

// IsDisconnection reports whether an error looks like a device
// disconnection rather than a per-file failure.
func IsDisconnection(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range disconnectionSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
