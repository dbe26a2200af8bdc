package completeness

import (
	"context"

	"lacuna/internal/library"
	"lacuna/internal/logging"
)

// pushArtwork writes a resolved artwork URL back onto local-folder
// items that have none. Server-backed providers manage their own
// artwork. Failures are logged and swallowed; artwork is cosmetic and
// must never fail a unit.
func (e *Engine) pushArtwork(ctx context.Context, items []library.OwnedItem, artworkURL string) {
	if artworkURL == "" {
		return
	}
	for _, item := range items {
		if item.ProviderKind != library.ProviderLocal || item.ArtworkURL != "" {
			continue
		}
		if err := e.store.SetItemArtwork(ctx, item.ID, artworkURL); err != nil {
			logging.WithContext(ctx, e.logger).Debug("artwork push-back failed",
				logging.Int64("item_id", item.ID),
				logging.Error(err),
			)
		}
	}
}
