package backup

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cardcopy/internal/domain"
)

// FileCheck is the verification outcome for one source file.
type FileCheck struct {
	Name     string
	DestPath string
	Status   CheckStatus
	Detail   string
}

type CheckStatus int

const (
	CheckOK CheckStatus = iota
	CheckMissing
	CheckSizeMismatch
	CheckError
)

func (s CheckStatus) String() string {
	switch s {
	case CheckOK:
		return "ok"
	case CheckMissing:
		return "missing"
	case CheckSizeMismatch:
		return "size mismatch"
	default:
		return "error"
	}
}

// ValidationReport summarizes a post-backup audit of the destination
// against the scanned inventory.
type ValidationReport struct {
	DestRoot   string
	CheckedAt  time.Time
	Checked    int
	Successful int
	Missing    int
	Mismatched int
	Errored    int
	Problems   []FileCheck
}

func (r ValidationReport) OK() bool {
	return r.Checked > 0 && r.Successful == r.Checked
}

// Validator re-verifies that every scanned file has a same-size copy
// under the destination tree. It resolves collision-suffixed names the
// same way the engine writes them.
type Validator struct {
	FS     FileSystem
	Logger zerolog.Logger
	Now    func() time.Time
}

func (v *Validator) Validate(files []domain.MediaFile, destRoot string) ValidationReport {
	now := v.Now
	if now == nil {
		now = time.Now
	}
	report := ValidationReport{DestRoot: destRoot, CheckedAt: now()}

	for _, file := range files {
		report.Checked++
		check := v.checkFile(file, destRoot)
		if check.Status == CheckOK {
			report.Successful++
			continue
		}
		switch check.Status {
		case CheckMissing:
			report.Missing++
		case CheckSizeMismatch:
			report.Mismatched++
		default:
			report.Errored++
		}
		report.Problems = append(report.Problems, check)
		v.Logger.Warn().Str("file", check.Name).Str("status", check.Status.String()).Str("detail", check.Detail).Msg("validation problem")
	}

	sort.Slice(report.Problems, func(i, j int) bool {
		return report.Problems[i].Name < report.Problems[j].Name
	})
	v.Logger.Info().
		Int("checked", report.Checked).
		Int("successful", report.Successful).
		Int("missing", report.Missing).
		Int("mismatched", report.Mismatched).
		Msg("validation finished")
	return report
}

func (v *Validator) checkFile(file domain.MediaFile, destRoot string) FileCheck {
	destPath, err := domain.DestinationPath(file, destRoot)
	if err != nil {
		return FileCheck{Name: file.Name, Status: CheckError, Detail: err.Error()}
	}

	// The engine may have written the file under a _N suffix; accept
	// any suffixed variant whose size matches. Suffixes are assigned
	// contiguously, so the first gap ends the search.
	seen := false
	for i := 0; i <= maxSuffixAttempts; i++ {
		candidate := destPath
		if i > 0 {
			candidate = suffixedPath(destPath, i)
		}
		info, err := v.FS.Stat(candidate)
		if err != nil {
			break
		}
		seen = true
		if info.Size() == file.Size {
			return FileCheck{Name: file.Name, DestPath: candidate, Status: CheckOK}
		}
	}
	if seen {
		return FileCheck{
			Name:     file.Name,
			DestPath: destPath,
			Status:   CheckSizeMismatch,
			Detail:   "no copy with matching size",
		}
	}
	return FileCheck{Name: file.Name, DestPath: destPath, Status: CheckMissing, Detail: "not found in destination"}
}

// Render produces the plain-text report handed to the user after a
// validation run.
func (r ValidationReport) Render() string {
	var b strings.Builder
	b.WriteString("=== Backup Validation Report ===\n")
	fmt.Fprintf(&b, "Destination: %s\n", r.DestRoot)
	fmt.Fprintf(&b, "Checked at:  %s\n", r.CheckedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Files checked:    %d\n", r.Checked)
	fmt.Fprintf(&b, "Successful:       %d\n", r.Successful)
	fmt.Fprintf(&b, "Missing:          %d\n", r.Missing)
	fmt.Fprintf(&b, "Size mismatches:  %d\n", r.Mismatched)
	fmt.Fprintf(&b, "Errors:           %d\n", r.Errored)
	if len(r.Problems) > 0 {
		b.WriteString("\nProblems:\n")
		for _, p := range r.Problems {
			fmt.Fprintf(&b, "  %-14s %s (%s)\n", p.Status.String()+":", p.Name, p.Detail)
		}
	}
	if r.OK() {
		b.WriteString("\nAll files verified.\n")
	}
	return b.String()
}
