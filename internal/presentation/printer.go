// Package presentation renders results for plain terminal output, used
// when the interactive interface is disabled.
package presentation

import (
	"fmt"
	"io"

	"cardcopy/internal/backup"
	"cardcopy/internal/domain"
)

type Printer struct {
	Out io.Writer
}

func New(out io.Writer) *Printer {
	return &Printer{Out: out}
}

// Devices lists attached media sources.
func (p *Printer) Devices(devs []domain.Device) {
	if len(devs) == 0 {
		fmt.Fprintln(p.Out, "No devices found.")
		return
	}
	for _, d := range devs {
		fmt.Fprintf(p.Out, "%-16s %s", d.Kind, d.DisplayName)
		if d.CapacityBytes > 0 {
			fmt.Fprintf(p.Out, " (%s free of %s)", humanBytes(d.FreeBytes), humanBytes(d.CapacityBytes))
		}
		fmt.Fprintf(p.Out, "\n  %s\n", d.ID)
	}
}

// Inventory summarizes a scan.
func (p *Printer) Inventory(dev domain.Device, inv domain.Inventory) {
	fmt.Fprintf(p.Out, "Scanned %s\n", dev.DisplayName)
	fmt.Fprintf(p.Out, "  photos: %d  raw: %d  videos: %d  total: %s\n",
		inv.Photos, inv.RawFiles, inv.Videos, humanBytes(uint64(inv.TotalBytes)))
}

// Result reports the outcome of a backup session.
func (p *Printer) Result(res backup.Result) {
	switch res.State {
	case backup.Completed:
		fmt.Fprintf(p.Out, "Backup complete: %d copied, %d skipped", res.Copied, res.Skipped)
		if res.Failed > 0 {
			fmt.Fprintf(p.Out, ", %d failed", res.Failed)
		}
		fmt.Fprintln(p.Out)
		if res.RepresentativeFolder != "" {
			fmt.Fprintf(p.Out, "Latest folder: %s\n", res.RepresentativeFolder)
		}
	case backup.Interrupted:
		fmt.Fprintf(p.Out, "Backup interrupted (%s) after %d of %d files.\n",
			res.Reason, res.Copied, res.NewFiles)
		fmt.Fprintln(p.Out, "Reconnect the device and run the backup again; copied files are skipped automatically.")
	default:
		fmt.Fprintf(p.Out, "Backup failed: %v\n", res.Err)
	}
}

// Validation prints the audit report.
func (p *Printer) Validation(report backup.ValidationReport) {
	fmt.Fprint(p.Out, report.Render())
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
