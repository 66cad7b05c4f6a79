package devices

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"cardcopy/internal/domain"
)

type EventType int

const (
	Attached EventType = iota
	Detached
)

func (t EventType) String() string {
	if t == Attached {
		return "attached"
	}
	return "detached"
}

// Event is one observed change in the attached-device set.
type Event struct {
	Type   EventType
	Device domain.Device
}

// Watcher polls an Enumerator and reports attach/detach transitions.
// Devices are identified by ID between polls.
type Watcher struct {
	Enumerator Enumerator
	Interval   time.Duration
	Logger     zerolog.Logger
}

const defaultPollInterval = 2 * time.Second

// Watch polls until ctx is cancelled, sending events on the returned
// channel. The channel is closed when watching stops.
func (w *Watcher) Watch(ctx context.Context) <-chan Event {
	interval := w.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	events := make(chan Event)

	go func() {
		defer close(events)
		known := make(map[string]domain.Device)

		// Seed without emitting so already-attached devices do not
		// arrive as spurious attach events.
		if devs, err := w.Enumerator.Enumerate(ctx); err == nil {
			for _, d := range devs {
				known[d.ID] = d
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			devs, err := w.Enumerator.Enumerate(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.Logger.Warn().Err(err).Msg("device poll failed")
				continue
			}

			current := make(map[string]domain.Device, len(devs))
			for _, d := range devs {
				current[d.ID] = d
				if _, ok := known[d.ID]; !ok {
					w.Logger.Info().Str("device", d.ID).Msg("device attached")
					select {
					case events <- Event{Type: Attached, Device: d}:
					case <-ctx.Done():
						return
					}
				}
			}
			for id, d := range known {
				if _, ok := current[id]; !ok {
					w.Logger.Info().Str("device", id).Msg("device detached")
					select {
					case events <- Event{Type: Detached, Device: d}:
					case <-ctx.Done():
						return
					}
				}
			}
			known = current
		}
	}()
	return events
}
