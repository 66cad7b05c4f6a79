package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cardcopy/internal/backup"
	"cardcopy/internal/domain"
)

// Phase represents the current state of the TUI
type Phase int

const (
	PhaseScanning Phase = iota
	PhaseConfirm
	PhaseCopying
	PhaseDone
	PhaseInterrupted
	PhaseError
)

// Messages for the TUI
type (
	ScanProgressMsg struct {
		Count int
		Bytes int64
	}
	InventoryReadyMsg struct {
		Inventory domain.Inventory
	}
	CopyProgressMsg struct {
		Processed int
		Total     int
		Copied    int
		Skipped   int
		File      string
	}
	ResultMsg struct {
		Result backup.Result
	}
	ErrorMsg struct {
		Err error
	}
	ConfirmMsg struct{ Confirmed bool }
	tickMsg    time.Time
)

// StartBackupFunc kicks off the copy phase. It should run the engine in
// a goroutine and feed CopyProgressMsg / ResultMsg back into the
// program.
type StartBackupFunc func() tea.Cmd

// Config for the TUI
type Config struct {
	DeviceName  string
	TargetDir   string
	StartBackup StartBackupFunc
}

// Model is the main TUI model
type Model struct {
	config        Config
	Phase         Phase
	Inventory     domain.Inventory
	spinner       spinner.Model
	progress      progress.Model
	scanCount     int
	scanBytes     int64
	copyProcessed int
	copyTotal     int
	copied        int
	skipped       int
	currentFile   string
	confirmYes    bool
	Result        backup.Result
	Err           error
	Quitting      bool
	width         int
	height        int
}

// NewModel creates a new TUI model
func NewModel(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return Model{
		config:     cfg,
		Phase:      PhaseScanning,
		spinner:    s,
		progress:   p,
		confirmYes: true,
		width:      80,
		height:     24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(msg.Width-20, 60)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.Quitting = true
			return m, tea.Quit
		case "left", "h", "y", "Y":
			if m.Phase == PhaseConfirm {
				m.confirmYes = true
			}
		case "right", "l", "n", "N":
			if m.Phase == PhaseConfirm {
				m.confirmYes = false
			}
		case "enter":
			if m.Phase == PhaseConfirm {
				return m, func() tea.Msg {
					return ConfirmMsg{Confirmed: m.confirmYes}
				}
			}
			if m.Phase == PhaseDone || m.Phase == PhaseInterrupted || m.Phase == PhaseError {
				return m, tea.Quit
			}
		}

	case ScanProgressMsg:
		m.scanCount = msg.Count
		m.scanBytes = msg.Bytes
		return m, nil

	case InventoryReadyMsg:
		m.Inventory = msg.Inventory
		if m.Inventory.Total() == 0 {
			m.Phase = PhaseDone
			return m, nil
		}
		m.Phase = PhaseConfirm
		return m, nil

	case ConfirmMsg:
		if !msg.Confirmed {
			m.Quitting = true
			return m, tea.Quit
		}
		m.Phase = PhaseCopying
		m.copyTotal = m.Inventory.Total()
		if m.config.StartBackup != nil {
			return m, tea.Batch(tickCmd(), m.config.StartBackup())
		}
		return m, nil

	case CopyProgressMsg:
		m.copyProcessed = msg.Processed
		m.copyTotal = msg.Total
		m.copied = msg.Copied
		m.skipped = msg.Skipped
		if msg.File != "" {
			m.currentFile = msg.File
		}
		return m, nil

	case ResultMsg:
		m.Result = msg.Result
		switch msg.Result.State {
		case backup.Interrupted:
			m.Phase = PhaseInterrupted
		case backup.Fatal:
			m.Phase = PhaseError
			m.Err = msg.Result.Err
		default:
			m.Phase = PhaseDone
		}
		return m, nil

	case ErrorMsg:
		m.Phase = PhaseError
		m.Err = msg.Err
		return m, nil

	case spinner.TickMsg:
		if m.Phase == PhaseScanning || m.Phase == PhaseCopying {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case tickMsg:
		if m.Phase == PhaseCopying {
			var cmds []tea.Cmd
			if m.copyTotal > 0 {
				cmds = append(cmds, m.progress.SetPercent(float64(m.copyProcessed)/float64(m.copyTotal)))
			}
			cmds = append(cmds, tickCmd(), m.spinner.Tick)
			return m, tea.Batch(cmds...)
		}
	}

	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.Phase {
	case PhaseScanning:
		b.WriteString(m.renderScanning())
	case PhaseConfirm:
		b.WriteString(m.renderInventory())
		b.WriteString("\n")
		b.WriteString(m.renderConfirmPrompt())
	case PhaseCopying:
		b.WriteString(m.renderInventory())
		b.WriteString("\n")
		b.WriteString(m.renderCopying())
	case PhaseDone:
		b.WriteString(m.renderInventory())
		b.WriteString("\n")
		b.WriteString(m.renderCompletion())
	case PhaseInterrupted:
		b.WriteString(m.renderInterruption())
	case PhaseError:
		b.WriteString(m.renderError())
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("📷 CardCopy")
	subtitle := subtitleStyle.Render("Card to library, nothing lost")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		"",
		dimStyle.Render(fmt.Sprintf("%s Source: %s", iconFolder, m.config.DeviceName)),
		dimStyle.Render(fmt.Sprintf("%s Target: %s", iconFolder, shortenPath(m.config.TargetDir))),
	)
}

func (m Model) renderScanning() string {
	if m.scanCount > 0 {
		return fmt.Sprintf("%s Scanning media... %s found (%s)",
			m.spinner.View(),
			statValueStyle.Render(fmt.Sprintf("%d files", m.scanCount)),
			dimStyle.Render(humanBytes(m.scanBytes)),
		)
	}
	return fmt.Sprintf("%s Scanning media...", m.spinner.View())
}

func (m Model) renderInventory() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Media Found"))
	b.WriteString("\n\n")

	if m.Inventory.Total() == 0 {
		b.WriteString(dimStyle.Render("  No media files on this device"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Photos:"), statValueStyle.Render(fmt.Sprintf("%s %d", iconPhoto, m.Inventory.Photos))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("RAW files:"), statValueStyle.Render(fmt.Sprintf("%s %d", iconRaw, m.Inventory.RawFiles))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Videos:"), statValueStyle.Render(fmt.Sprintf("%s %d", iconVideo, m.Inventory.Videos))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Total size:"), dimStyle.Render(humanBytes(m.Inventory.TotalBytes))))

	return b.String()
}

func (m Model) renderConfirmPrompt() string {
	prompt := confirmPromptStyle.Render(fmt.Sprintf("Back up %d files?", m.Inventory.Total()))

	var yesBtn, noBtn string
	if m.confirmYes {
		yesBtn = highlightBoxStyle.
			Background(lipgloss.Color("#2D5A27")).
			Render(" Yes ")
		noBtn = boxStyle.Render(" No ")
	} else {
		yesBtn = boxStyle.Render(" Yes ")
		noBtn = highlightBoxStyle.
			Background(lipgloss.Color("#5A2727")).
			Render(" No ")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center, yesBtn, "  ", noBtn)

	return lipgloss.JoinVertical(lipgloss.Left, prompt, "", buttons)
}

func (m Model) renderCopying() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Copying Files"))
	b.WriteString("\n\n")

	percent := 0.0
	if m.copyTotal > 0 {
		percent = float64(m.copyProcessed) / float64(m.copyTotal)
	}

	b.WriteString(fmt.Sprintf("  %s Copying...\n\n", m.spinner.View()))
	b.WriteString(fmt.Sprintf("  %s\n", m.progress.ViewAs(percent)))
	b.WriteString(fmt.Sprintf("  %s %s\n",
		statValueStyle.Render(fmt.Sprintf("%d/%d files", m.copyProcessed, m.copyTotal)),
		dimStyle.Render(fmt.Sprintf("(%.0f%%)", percent*100)),
	))
	b.WriteString(fmt.Sprintf("  %s\n",
		dimStyle.Render(fmt.Sprintf("%s %d copied, %d skipped", iconSkipped, m.copied, m.skipped)),
	))

	if m.currentFile != "" {
		b.WriteString(fmt.Sprintf("\n  %s %s\n",
			iconArrow,
			fileNameStyle.Render(m.currentFile),
		))
	}

	return b.String()
}

func (m Model) renderCompletion() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Backup Complete"))
	b.WriteString("\n\n")

	if m.Inventory.Total() == 0 {
		b.WriteString(fmt.Sprintf("  %s %s\n", successStyle.Render(iconSuccess), successStyle.Render("Nothing to do.")))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  %s %s\n\n", successStyle.Render(iconSuccess), successStyle.Render("Backup completed successfully!")))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Copied:"), statValueStyle.Render(fmt.Sprintf("%d files", m.Result.Copied))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Skipped:"), dimStyle.Render(fmt.Sprintf("%s %d (already backed up)", iconSkipped, m.Result.Skipped))))
	if m.Result.Failed > 0 {
		b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Failed:"), warningStyle.Render(fmt.Sprintf("%s %d", iconWarn, m.Result.Failed))))
	}
	if m.Result.RepresentativeFolder != "" {
		b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Latest folder:"), fileNameStyle.Render(shortenPath(m.Result.RepresentativeFolder))))
	}

	return b.String()
}

func (m Model) renderInterruption() string {
	var b strings.Builder

	b.WriteString(warningStyle.Render(fmt.Sprintf("%s Backup interrupted: %s", iconWarn, m.Result.Reason)))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Copied so far:"), statValueStyle.Render(fmt.Sprintf("%d of %d files", m.Result.Copied, m.Result.NewFiles))))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  Reconnect the device and run the backup again."))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  Files already copied will be skipped automatically."))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderError() string {
	icon := errorStyle.Render(iconError)
	msg := errorStyle.Render(fmt.Sprintf("Error: %s", m.Err.Error()))

	return highlightBoxStyle.
		BorderForeground(errorColor).
		Render(fmt.Sprintf("%s %s", icon, msg))
}

func (m Model) renderHelp() string {
	var help string
	switch m.Phase {
	case PhaseScanning:
		help = "Press q to quit"
	case PhaseConfirm:
		help = "← → or y/n to select • Enter to confirm • q to quit"
	case PhaseCopying:
		help = "Copying files... Please wait"
	case PhaseDone, PhaseInterrupted:
		help = "Press Enter to exit"
	case PhaseError:
		help = "Press Enter or q to exit"
	}
	return helpStyle.Render(help)
}

func shortenPath(path string) string {
	const maxLen = 50
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
