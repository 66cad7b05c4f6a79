package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cardcopy/internal/domain"
	appErrors "cardcopy/internal/errors"
)

// State is the session lifecycle position.
type State int

const (
	Idle State = iota
	Preparing
	Copying
	Completed
	Interrupted
	Fatal
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Preparing:
		return "preparing"
	case Copying:
		return "copying"
	case Completed:
		return "completed"
	case Interrupted:
		return "interrupted"
	default:
		return "fatal"
	}
}

type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Exists(path string) (bool, error)
	MkdirAll(path string, perm fs.FileMode) error
	CopyFile(src, dst string) error
	WriteFrom(dst string, r io.Reader) (int64, error)
	Rename(oldPath, newPath string) error
}

// Partitioner is the deduplication dependency.
type Partitioner interface {
	Partition(files []domain.MediaFile, destRoot string) (newFiles, duplicates []domain.MediaFile)
	IsDuplicate(file domain.MediaFile, destRoot string) bool
}

// Request describes one backup run: the scan inventory, the destination
// root, and (for filesystem sources) the mount path used for
// reachability checks.
type Request struct {
	Files      []domain.MediaFile
	DestRoot   string
	SourceRoot string
}

// Result is the final report of a session. State is one of Completed,
// Interrupted or Fatal; tallies are always populated except for Fatal,
// which aborts before any per-file accounting. TotalFiles counts the
// whole inventory; NewFiles counts what was actually left to copy after
// partitioning, and is the denominator interruption reports use.
type Result struct {
	SessionID            string
	State                State
	Processed            int
	Copied               int
	Skipped              int
	Failed               int
	TotalFiles           int
	NewFiles             int
	RepresentativeFolder string
	Reason               Reason
	Err                  error
}

// Engine copies new files from one scanned device into a date-organized
// destination tree. One engine run is one session; the engine itself is
// stateless between runs.
type Engine struct {
	FS         FileSystem
	Dedupe     Partitioner
	Logger     zerolog.Logger
	Events     Events
	Strategies []TransferStrategy
}

// Run executes a full session. Cancellation via ctx is cooperative and
// only honored between files; an in-flight transfer always finishes or
// fails on its own.
func (e *Engine) Run(ctx context.Context, req Request) Result {
	result := Result{
		SessionID:  uuid.NewString(),
		TotalFiles: len(req.Files),
	}
	log := e.Logger.With().Str("session", result.SessionID).Logger()
	log.Info().Int("files", len(req.Files)).Str("destination", req.DestRoot).Msg("backup session started")

	// Preparing: anything failing out here is fatal for the whole
	// session, with no partial tallies.
	if _, err := e.FS.Stat(req.DestRoot); err != nil {
		result.State = Fatal
		result.Err = appErrors.Wrap(appErrors.IOFailure, "backup", req.DestRoot, err)
		log.Error().Err(err).Msg("destination root inaccessible")
		e.Events.fatal(result.Err)
		return result
	}

	newFiles, duplicates := e.Dedupe.Partition(req.Files, req.DestRoot)
	result.NewFiles = len(newFiles)
	log.Info().Int("new", len(newFiles)).Int("duplicates", len(duplicates)).Msg("inventory partitioned")

	// Duplicates are reported first, in their own pass, purely for
	// cumulative-progress accounting. They are never re-verified.
	for _, dup := range duplicates {
		result.Processed++
		result.Skipped++
		e.Events.fileSkipped(dup.Name)
		e.Events.progress(result.Processed, result.TotalFiles, result.Copied, result.Skipped)
		log.Info().Str("file", dup.Name).Msg("skipped duplicate")
	}

	if len(newFiles) == 0 {
		result.State = Completed
		result.RepresentativeFolder = e.representativeFolder(req.Files, req.DestRoot)
		log.Info().Msg("nothing new to copy")
		e.Events.completed(result.Copied, result.Skipped, result.RepresentativeFolder)
		return result
	}

	for _, file := range newFiles {
		// Cancellation is checked only at the top of each iteration,
		// never mid-copy.
		select {
		case <-ctx.Done():
			log.Info().Msg("backup stopped by caller")
			result.State = Completed
			result.RepresentativeFolder = e.representativeFolder(req.Files, req.DestRoot)
			e.Events.completed(result.Copied, result.Skipped, result.RepresentativeFolder)
			return result
		default:
		}

		if reason, disconnected := e.checkReachability(file, req); disconnected {
			result.State = Interrupted
			result.Reason = reason
			log.Error().Str("reason", string(reason)).Int("copied", result.Copied).Msg("session interrupted")
			e.Events.interrupted(reason, result.Copied, result.NewFiles)
			return result
		}

		result.Processed++
		e.Events.fileCopying(file.Name)
		e.Events.progress(result.Processed, result.TotalFiles, result.Copied, result.Skipped)

		outcome, err := e.copyOne(file, req.DestRoot)
		switch {
		case err != nil && !file.IsPortable() && IsDisconnection(err):
			reason := e.classifyDisconnect(file, req)
			result.State = Interrupted
			result.Reason = reason
			log.Error().Err(err).Str("reason", string(reason)).Msg("session interrupted")
			e.Events.interrupted(reason, result.Copied, result.NewFiles)
			return result
		case err != nil:
			result.Failed++
			log.Error().Err(err).Str("file", file.Name).Msg("copy failed")
		case outcome == outcomeSkipped:
			result.Skipped++
			e.Events.fileSkipped(file.Name)
			log.Info().Str("file", file.Name).Msg("skipped duplicate")
		default:
			result.Copied++
			log.Info().Str("file", file.Name).Msg("copied")
		}
		e.Events.progress(result.Processed, result.TotalFiles, result.Copied, result.Skipped)
	}

	result.State = Completed
	result.RepresentativeFolder = e.representativeFolder(req.Files, req.DestRoot)
	log.Info().
		Int("copied", result.Copied).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Str("folder", result.RepresentativeFolder).
		Msg("backup complete")
	e.Events.completed(result.Copied, result.Skipped, result.RepresentativeFolder)
	return result
}

type copyOutcome int

const (
	outcomeCopied copyOutcome = iota
	outcomeSkipped
)

// copyOne transfers a single file: destination derivation, collision
// handling, streaming copy, size verification. Errors are per-file; the
// caller decides whether they are disconnections.
func (e *Engine) copyOne(file domain.MediaFile, destRoot string) (copyOutcome, error) {
	destPath, err := domain.DestinationPath(file, destRoot)
	if err != nil {
		return 0, appErrors.Wrap(appErrors.Internal, "copy", file.Name, err)
	}

	if err := e.FS.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, err
	}

	occupied, err := e.FS.Exists(destPath)
	if err != nil {
		return 0, err
	}
	if occupied {
		// The partition ran once, before copying, and the destination
		// may have changed since. Re-check before suffixing so a file
		// that became a duplicate mid-session is skipped, not cloned.
		if e.Dedupe.IsDuplicate(file, destRoot) {
			return outcomeSkipped, nil
		}
		destPath, err = resolveCollision(e.FS.Exists, destPath)
		if err != nil {
			return 0, err
		}
	}

	if file.IsPortable() {
		if err := e.transferPortable(file, destPath); err != nil {
			return 0, err
		}
	} else {
		if err := e.FS.CopyFile(file.Path, destPath); err != nil {
			return 0, err
		}
	}

	info, err := e.FS.Stat(destPath)
	if err != nil {
		return 0, err
	}
	if info.Size() != file.Size {
		return 0, appErrors.Wrap(appErrors.Verification, "copy", file.Name,
			fmt.Errorf("destination size %d, source size %d", info.Size(), file.Size))
	}
	return outcomeCopied, nil
}

func (e *Engine) transferPortable(file domain.MediaFile, destPath string) error {
	strategies := e.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies(e.FS)
	}
	var lastErr error
	for _, strategy := range strategies {
		if err := strategy.Run(file.Item, destPath); err != nil {
			e.Logger.Warn().Err(err).Str("strategy", strategy.Name).Str("file", file.Name).Msg("transfer method failed")
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("no transfer strategy configured")
	}
	return appErrors.Wrap(appErrors.IOFailure, "transfer", file.Name, lastErr)
}

// checkReachability polls both sides before each file so the session
// halts as soon as a device vanishes rather than failing file by file.
func (e *Engine) checkReachability(file domain.MediaFile, req Request) (Reason, bool) {
	if !e.reachable(req.DestRoot) {
		return ReasonDestinationDisconnected, true
	}
	if !file.IsPortable() {
		root := req.SourceRoot
		if root == "" {
			root = filepath.Dir(file.Path)
		}
		if !e.reachable(root) {
			return ReasonSourceDisconnected, true
		}
	}
	return "", false
}

// classifyDisconnect decides which side actually dropped after a copy
// error matched a disconnection signature.
func (e *Engine) classifyDisconnect(file domain.MediaFile, req Request) Reason {
	root := req.SourceRoot
	if root == "" {
		root = filepath.Dir(file.Path)
	}
	if !e.reachable(root) {
		return ReasonSourceDisconnected
	}
	if !e.reachable(req.DestRoot) {
		return ReasonDestinationDisconnected
	}
	return ReasonConnectionAnomaly
}

func (e *Engine) reachable(path string) bool {
	if path == "" {
		return true
	}
	ok, err := e.FS.Exists(path)
	return err == nil && ok
}

// representativeFolder picks the destination subfolder most relevant to
// report back: the one holding the most recently dated files, ties
// broken by file count.
func (e *Engine) representativeFolder(files []domain.MediaFile, destRoot string) string {
	type bucket struct {
		count  int
		latest domain.MediaFile
	}
	buckets := make(map[string]*bucket)
	for _, file := range files {
		sub, err := domain.Subfolder(file.Category, file.CaptureDate)
		if err != nil {
			continue
		}
		b, ok := buckets[sub]
		if !ok {
			b = &bucket{latest: file}
			buckets[sub] = b
		}
		b.count++
		if file.CaptureDate.After(b.latest.CaptureDate) {
			b.latest = file
		}
	}

	// Walk buckets in name order so full ties resolve the same way on
	// every run.
	subs := make([]string, 0, len(buckets))
	for sub := range buckets {
		subs = append(subs, sub)
	}
	sort.Strings(subs)

	best := ""
	for _, sub := range subs {
		b := buckets[sub]
		if best == "" {
			best = sub
			continue
		}
		cur := buckets[best]
		switch {
		case b.latest.CaptureDate.After(cur.latest.CaptureDate):
			best = sub
		case b.latest.CaptureDate.Equal(cur.latest.CaptureDate) && b.count > cur.count:
			best = sub
		}
	}
	if best == "" {
		return destRoot
	}
	return filepath.Join(destRoot, best)
}
