package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cardcopy/internal/backup"
	"cardcopy/internal/config"
	"cardcopy/internal/dedupe"
	"cardcopy/internal/devices"
	"cardcopy/internal/domain"
	appErrors "cardcopy/internal/errors"
	"cardcopy/internal/infra/exif"
	"cardcopy/internal/infra/fs"
	"cardcopy/internal/infra/portable"
	"cardcopy/internal/logging"
	"cardcopy/internal/presentation"
	"cardcopy/internal/scan"
	"cardcopy/internal/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, appErrors.UserMessage(err))
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logDir     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "cardcopy",
		Short: "Back up photos and videos from cards and cameras",
		Long: `cardcopy scans removable media for photos, RAW files and videos,
skips everything already present in the backup destination, and copies
the rest into date-organized folders.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.config/cardcopy/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.logDir, "log-dir", "", "directory for session logs")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "echo the session log to stderr")

	cmd.AddCommand(
		newBackupCmd(flags),
		newScanCmd(flags),
		newDevicesCmd(flags),
		newValidateCmd(flags),
	)
	return cmd
}

func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return cfg, err
	}
	if flags.logDir != "" {
		cfg.LogDir = flags.logDir
	}
	if flags.verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

// signalContext cancels on SIGINT/SIGTERM so a backup finishes its
// current file and reports a clean partial result.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newDevicesCmd(flags *globalFlags) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List attached media sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			scanner := &devices.MountScanner{
				Roots:         cfg.MountRoots,
				PortableRoots: cfg.PortableRoots,
				Filter:        devices.RemovableOnly,
				Logger:        logging.Nop(),
			}
			printer := presentation.New(cmd.OutOrStdout())

			devs, err := scanner.Enumerate(ctx)
			if err != nil {
				return err
			}
			printer.Devices(devs)

			if !watch {
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\nWatching for changes (ctrl-c to stop)...")
			watcher := &devices.Watcher{Enumerator: scanner, Logger: logging.Nop()}
			for ev := range watcher.Watch(ctx) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", ev.Type, ev.Device.DisplayName)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep watching for attach/detach events")
	return cmd
}

func newScanCmd(flags *globalFlags) *cobra.Command {
	var asPortable bool

	cmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "Scan a device or folder and report its media inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			dev := manualDevice(args[0], asPortable)
			scanner := newScanner(cfg, logging.Nop())

			inv, err := scanner.Scan(ctx, dev)
			if err != nil {
				return err
			}
			presentation.New(cmd.OutOrStdout()).Inventory(dev, inv)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asPortable, "portable", false, "treat the path as a portable device mount")
	return cmd
}

func newBackupCmd(flags *globalFlags) *cobra.Command {
	var (
		dest       string
		asPortable bool
		plain      bool
	)

	cmd := &cobra.Command{
		Use:   "backup <source>",
		Short: "Back up new media from a device into the destination tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if dest != "" {
				cfg.Destination = dest
			}
			if err := cfg.ValidateForBackup(); err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			sessionID := uuid.NewString()
			session, err := logging.NewSession(cfg.LogDir, sessionID, cfg.Verbose && plain)
			if err != nil {
				return err
			}
			defer session.Close()

			dev := manualDevice(args[0], asPortable)
			if plain {
				return runBackupPlain(ctx, cmd, cfg, dev, session)
			}
			return runBackupTUI(ctx, cfg, dev, session)
		},
	}
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "backup destination root (overrides config)")
	cmd.Flags().BoolVar(&asPortable, "portable", false, "treat the source as a portable device mount")
	cmd.Flags().BoolVar(&plain, "no-ui", false, "plain line output instead of the interactive interface")
	return cmd
}

func newValidateCmd(flags *globalFlags) *cobra.Command {
	var (
		dest       string
		asPortable bool
		output     string
	)

	cmd := &cobra.Command{
		Use:   "validate <source>",
		Short: "Verify that a device's media is fully present in the destination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if dest != "" {
				cfg.Destination = dest
			}
			if err := cfg.ValidateForBackup(); err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			dev := manualDevice(args[0], asPortable)
			scanner := newScanner(cfg, logging.Nop())
			inv, err := scanner.Scan(ctx, dev)
			if err != nil {
				return err
			}

			validator := &backup.Validator{FS: fs.OSFS{}, Logger: logging.Nop()}
			report := validator.Validate(inv.Files, cfg.Destination)
			presentation.New(cmd.OutOrStdout()).Validation(report)

			if output != "" {
				if err := os.WriteFile(output, []byte(report.Render()), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", output)
			}
			if !report.OK() {
				return fmt.Errorf("validation found %d problem(s)", len(report.Problems))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "backup destination root (overrides config)")
	cmd.Flags().BoolVar(&asPortable, "portable", false, "treat the source as a portable device mount")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the report to this file")
	return cmd
}

func manualDevice(path string, asPortable bool) domain.Device {
	kind := domain.Manual
	if asPortable {
		kind = domain.PortableDevice
	}
	return domain.Device{ID: path, DisplayName: path, Kind: kind}
}

func newScanner(cfg config.Config, logger zerolog.Logger) *scan.Scanner {
	return &scan.Scanner{
		FS:       fs.OSFS{},
		Exif:     &exif.Reader{},
		Portable: portable.Opener{},
		Logger:   logger,
	}
}

func newEngine(logger zerolog.Logger, events backup.Events) *backup.Engine {
	filesystem := fs.OSFS{}
	return &backup.Engine{
		FS: filesystem,
		Dedupe: &dedupe.Deduplicator{
			FS:     filesystem,
			Logger: logger,
		},
		Logger:     logger,
		Events:     events,
		Strategies: backup.DefaultStrategies(filesystem),
	}
}

func runBackupPlain(ctx context.Context, cmd *cobra.Command, cfg config.Config, dev domain.Device, session *logging.SessionLogger) error {
	out := cmd.OutOrStdout()
	printer := presentation.New(out)

	scanner := newScanner(cfg, session.Logger)
	inv, err := scanner.Scan(ctx, dev)
	if err != nil {
		return err
	}
	printer.Inventory(dev, inv)
	if inv.Total() == 0 {
		fmt.Fprintln(out, "Nothing to back up.")
		return nil
	}

	events := backup.Events{
		FileCopying: func(name string) { fmt.Fprintf(out, "  copying %s\n", name) },
		FileSkipped: func(name string) { fmt.Fprintf(out, "  skipped %s (already backed up)\n", name) },
	}
	engine := newEngine(session.Logger, events)
	result := engine.Run(ctx, backup.Request{
		Files:      inv.Files,
		DestRoot:   cfg.Destination,
		SourceRoot: sourceRoot(dev),
	})
	printer.Result(result)
	fmt.Fprintf(out, "Session log: %s\n", session.Path)
	if result.State == backup.Fatal {
		return result.Err
	}
	return nil
}

func runBackupTUI(ctx context.Context, cfg config.Config, dev domain.Device, session *logging.SessionLogger) error {
	var program *tea.Program
	var inventory domain.Inventory

	startBackup := func() tea.Cmd {
		return func() tea.Msg {
			events := backup.Events{
				Progress: func(processed, total, copied, skipped int) {
					program.Send(tui.CopyProgressMsg{Processed: processed, Total: total, Copied: copied, Skipped: skipped})
				},
				FileCopying: func(name string) {
					program.Send(tui.CopyProgressMsg{File: name})
				},
			}
			engine := newEngine(session.Logger, events)
			result := engine.Run(ctx, backup.Request{
				Files:      inventory.Files,
				DestRoot:   cfg.Destination,
				SourceRoot: sourceRoot(dev),
			})
			return tui.ResultMsg{Result: result}
		}
	}

	model := tui.NewModel(tui.Config{
		DeviceName:  dev.DisplayName,
		TargetDir:   cfg.Destination,
		StartBackup: startBackup,
	})
	program = tea.NewProgram(model)

	scanner := newScanner(cfg, session.Logger)
	scanner.OnProgress = func(count int, bytes int64) {
		program.Send(tui.ScanProgressMsg{Count: count, Bytes: bytes})
	}

	go func() {
		inv, err := scanner.Scan(ctx, dev)
		if err != nil {
			program.Send(tui.ErrorMsg{Err: err})
			return
		}
		inventory = inv
		program.Send(tui.InventoryReadyMsg{Inventory: inv})
	}()

	_, err := program.Run()
	return err
}

// sourceRoot is the path polled for source reachability; portable
// devices are checked through their item handles instead.
func sourceRoot(dev domain.Device) string {
	if dev.Kind == domain.PortableDevice {
		return ""
	}
	return dev.ID
}
