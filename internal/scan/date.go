package scan

import (
	"regexp"
	"strconv"
	"time"
)

// Camera folder layouts often encode the shoot date in the path, e.g.
// "Storage Media/2025-06-03/DSC00519".
var pathDatePattern = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)

// DateFromPath extracts a YYYY-MM-DD date embedded in a source path.
func DateFromPath(path string) (time.Time, bool) {
	m := pathDatePattern.FindStringSubmatch(path)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
}

// ValidDeviceDate rejects the protocol's default zero-date. Shell-style
// transfer protocols report 1899-12-30 when a device does not track
// timestamps, so anything before 1900 is treated as absent.
func ValidDeviceDate(t time.Time) bool {
	return !t.IsZero() && t.Year() > 1900
}

// resolvePortableDate applies the capture-date priority for protocol
// listings: path-embedded date, then the device-reported timestamp, then
// the scan-time wall clock as last resort. Embedded photo metadata is
// skipped here because reading it would require downloading the file.
func resolvePortableDate(itemPath string, deviceDate time.Time, now func() time.Time) time.Time {
	if date, ok := DateFromPath(itemPath); ok {
		return date
	}
	if ValidDeviceDate(deviceDate) {
		return deviceDate
	}
	return now()
}
