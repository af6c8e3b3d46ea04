// Package tracker defines the external release-tracker boundary: an
// opaque iterator yielding release records. Scraping the tracker
// itself is someone else's problem; this package only commits to the
// output shape the core consumes.
package tracker

import "context"

// Record is one release surfaced by the tracker feed.
type Record struct {
	Identifier    string
	Title         string
	MagnetOrURL   string
	TimestampUnix int64
}

// Feed yields a snapshot of currently-known releases. The monitor
// loop diffs consecutive snapshots against previously seen
// identifiers rather than relying on the feed itself to track
// delivery state.
type Feed interface {
	Poll(ctx context.Context) ([]Record, error)
}
