package scan

import (
	"context"
	"errors"

	"cardcopy/internal/domain"
	appErrors "cardcopy/internal/errors"
)

var errNoPortableOpener = errors.New("no portable device support configured")

// scanPortable enumerates a protocol-addressed device through its own
// hierarchical listing. Listings are less reliable than filesystem
// metadata, so reported names go through the camera-prefix heuristic and
// extension repair before classification.
func (s *Scanner) scanPortable(ctx context.Context, dev domain.Device) (domain.Inventory, error) {
	if s.Portable == nil {
		return domain.Inventory{}, appErrors.Wrap(appErrors.ScanFailure, "scan", dev.ID, errNoPortableOpener)
	}
	root, err := s.Portable.Root(ctx, dev.ID)
	if err != nil {
		return domain.Inventory{}, appErrors.Wrap(appErrors.ScanFailure, "scan", dev.ID, err)
	}

	// Top-level enumeration failure aborts the whole scan; deeper
	// failures only skip the affected folder.
	items, err := root.Items()
	if err != nil {
		return domain.Inventory{}, appErrors.Wrap(appErrors.ScanFailure, "scan", dev.ID, err)
	}

	var inv domain.Inventory
	if err := s.walkPortable(ctx, items, &inv); err != nil {
		return domain.Inventory{}, appErrors.Wrap(appErrors.ScanFailure, "scan", dev.ID, err)
	}
	return inv, nil
}

func (s *Scanner) walkPortable(ctx context.Context, items []domain.PortableItem, inv *domain.Inventory) error {
	for _, item := range items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if item.IsFolder() {
			children, err := item.Items()
			if err != nil {
				s.Logger.Warn().Err(err).Str("path", item.Path()).Msg("folder skipped")
				continue
			}
			if err := s.walkPortable(ctx, children, inv); err != nil {
				return err
			}
			continue
		}

		// Repair the name before classifying so the dedup partition and
		// the copy stage agree on what the file is called.
		name := domain.RepairName(item.Name())
		category := domain.Classify(name)
		if category == domain.Unsupported {
			continue
		}

		inv.Add(domain.MediaFile{
			Name:        name,
			Path:        item.Path(),
			Size:        item.Size(),
			Category:    category,
			CaptureDate: resolvePortableDate(item.Path(), item.Modified(), s.now),
			Item:        item,
		})
		s.progress(inv)
	}
	return nil
}
