// Package extractor implements the Plex Metadata Extractor: a
// concurrent, batched fetch of per-item XML from Plex, normalized
// into Capability Records and upserted through the store.
package extractor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/vmunix/felscan/internal/capability"
	"github.com/vmunix/felscan/internal/events"
	"github.com/vmunix/felscan/internal/plexclient"
	"github.com/vmunix/felscan/internal/svcerr"
)

const (
	defaultBatchSize  = 50
	defaultConcurrent = 20
)

// ErrPlexUnavailable is the svcerr transport error a scan aborts with
// when Plex cannot be reached: the section listing failed in
// transport, or every item fetch of one batch did.
var ErrPlexUnavailable = svcerr.Transport("plex", errors.New("plex unavailable"))

// PlexSource is the subset of the Plex client the extractor depends
// on, narrowed for testability.
type PlexSource interface {
	ListSection(ctx context.Context, section string) ([]plexclient.LibraryItem, error)
	GetItemMetadata(ctx context.Context, ratingKey string) (plexclient.ItemMetadata, error)
}

// Extractor scans one Plex library section and upserts every item
// into the capability store.
type Extractor struct {
	plex    PlexSource
	store   *capability.Store
	bus     *events.Bus
	logger  *slog.Logger

	batchSize  int
	concurrent int64
}

// New creates an Extractor with the default batch size (50) and
// concurrency cap (20 in-flight).
func New(plex PlexSource, store *capability.Store, bus *events.Bus, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		plex:       plex,
		store:      store,
		bus:        bus,
		logger:     logger.With("component", "extractor"),
		batchSize:  defaultBatchSize,
		concurrent: defaultConcurrent,
	}
}

// Result is scan_library's output: snapshot lists of rating_keys
// matching each curated-collection predicate, captured during this
// scan.
type Result struct {
	DVItems     []string
	P7FELItems  []string
	AtmosItems  []string
	Processed   int
}

// ScanLibrary fetches the full item listing for section, then
// processes it in concurrency-bounded batches, upserting every item
// into the store and emitting progress after each batch.
// Cancellation is honoured between batches; a transport failure of
// the listing, or of every item in a batch, aborts the scan with
// ErrPlexUnavailable.
func (e *Extractor) ScanLibrary(ctx context.Context, section string) (Result, error) {
	items, err := e.plex.ListSection(ctx, section)
	if err != nil {
		if svcerr.IsTransport(err) {
			return Result{}, ErrPlexUnavailable
		}
		return Result{}, err
	}

	var result Result
	total := len(items)

	for start := 0; start < total; start += e.batchSize {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		end := start + e.batchSize
		if end > total {
			end = total
		}
		batch := items[start:end]

		if err := e.processBatch(ctx, batch, &result); err != nil {
			return result, err
		}

		result.Processed += len(batch)
		if e.bus != nil {
			_ = e.bus.Publish(ctx, events.NewScanProgress(result.Processed, total))
		}
	}

	return result, nil
}

func (e *Extractor) processBatch(ctx context.Context, batch []plexclient.LibraryItem, result *Result) error {
	sem := semaphore.NewWeighted(e.concurrent)
	g, gctx := errgroup.WithContext(ctx)

	type itemResult struct {
		rec     capability.Record
		isFEL   bool
		skipped bool
	}
	results := make([]itemResult, len(batch))

	var transportFailures atomic.Int64
	for i, item := range batch {
		i, item := i, item
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			meta, err := e.plex.GetItemMetadata(gctx, item.RatingKey)
			if err != nil {
				if svcerr.IsTransport(err) {
					transportFailures.Add(1)
					return nil
				}
				// Malformed/Protocol: per-item skip, batch continues.
				e.logger.Warn("skipping item", "rating_key", item.RatingKey, "error", err)
				results[i] = itemResult{skipped: true}
				return nil
			}

			results[i] = itemResult{rec: toRecord(meta)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if int(transportFailures.Load()) == len(batch) && len(batch) > 0 {
		return ErrPlexUnavailable
	}

	for _, r := range results {
		if r.skipped || r.rec.RatingKey == "" {
			continue
		}
		changed, err := e.store.UpsertCapability(r.rec)
		if err != nil {
			e.logger.Error("upsert failed", "rating_key", r.rec.RatingKey, "error", err)
			continue
		}
		if e.bus != nil {
			_ = e.bus.Publish(ctx, events.NewCapabilityUpserted(r.rec.RatingKey, r.rec.Title, changed))
		}

		if r.rec.DVProfile != capability.DVProfileNone {
			result.DVItems = append(result.DVItems, r.rec.RatingKey)
		}
		if r.rec.DVProfile == capability.DVProfile7 && r.rec.DVFEL {
			result.P7FELItems = append(result.P7FELItems, r.rec.RatingKey)
		}
		if r.rec.HasAtmos {
			result.AtmosItems = append(result.AtmosItems, r.rec.RatingKey)
		}
	}

	return nil
}

func toRecord(m plexclient.ItemMetadata) capability.Record {
	return capability.Record{
		RatingKey:    m.RatingKey,
		Title:        m.Title,
		Year:         m.Year,
		DVProfile:    capability.DVProfile(m.DVProfile),
		DVFEL:        m.DVFEL,
		HasAtmos:     m.HasAtmos,
		FileSize:     m.FileSize,
		VideoBitrate: m.VideoBitrate,
		AudioTracks:  m.AudioTracks,
		Extra:        "{}",
	}
}
