package backup

// Events carries the engine's fire-and-forget notifications. Callbacks
// are optional; nil fields are skipped. They are invoked from the copy
// loop goroutine and must not block on the consumer.
type Events struct {
	Progress    func(processed, total, copied, skipped int)
	FileCopying func(name string)
	FileSkipped func(name string)
	Completed   func(copied, skipped int, representativeFolder string)
	// Interrupted reports progress against the new files only, so
	// consumers can show how many were still left to copy.
	Interrupted func(reason Reason, copied, newFiles int)
	Fatal       func(err error)
}

func (e Events) progress(processed, total, copied, skipped int) {
	if e.Progress != nil {
		e.Progress(processed, total, copied, skipped)
	}
}

func (e Events) fileCopying(name string) {
	if e.FileCopying != nil {
		e.FileCopying(name)
	}
}

func (e Events) fileSkipped(name string) {
	if e.FileSkipped != nil {
		e.FileSkipped(name)
	}
}

func (e Events) completed(copied, skipped int, folder string) {
	if e.Completed != nil {
		e.Completed(copied, skipped, folder)
	}
}

func (e Events) interrupted(reason Reason, copied, total int) {
	if e.Interrupted != nil {
		e.Interrupted(reason, copied, total)
	}
}

func (e Events) fatal(err error) {
	if e.Fatal != nil {
		e.Fatal(err)
	}
}
