package coordinator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hbollon/go-edlib"

	"github.com/vmunix/felscan/internal/capability"
	"github.com/vmunix/felscan/internal/classify"
	"github.com/vmunix/felscan/internal/events"
	"github.com/vmunix/felscan/internal/svcerr"
	"github.com/vmunix/felscan/internal/tracker"
	"github.com/vmunix/felscan/pkg/release"
)

// dedupeWindow bounds the natural-key dedupe window: a duplicate
// release produces at most one Pending row within this interval.
const dedupeWindow = time.Second

// ProcessDiscovery runs one tracker record through the full
// pipeline: parse, lookup, classify, fold in Radarr's folder, persist
// a Pending Download, and post the approval message.
func (c *Coordinator) ProcessDiscovery(ctx context.Context, rec tracker.Record) DiscoveryResult {
	policy := c.policy()

	sketch := release.Parse(rec.Title)
	if sketch == nil {
		return skip("unparseable")
	}

	current, found, err := c.lookupMovie(sketch.Title, sketch.Year)
	if err != nil {
		return fail(err.Error())
	}
	if !found && policy.NotifyOnlyLibraryMovies {
		return skip("not in library")
	}

	candidate := classify.Candidate{
		DVProfile:  sketch.DVProfile,
		IsFEL:      sketch.IsFEL,
		HasAtmos:   sketch.HasAtmos,
		Resolution: sketch.Resolution,
	}

	notify, reason := classify.Classify(current, candidate, policy)
	if !notify {
		return skip(reason)
	}

	quality := qualityTypeFor(sketch)

	dup, err := c.store.FindDuplicatePending(sketch.Title, sketch.Year, quality, dedupeWindow)
	if err != nil {
		return fail(err.Error())
	}
	if dup {
		return skip("duplicate discovery within dedupe window")
	}

	movie, err := c.radarr.FindByTitleYear(ctx, sketch.Title, sketch.Year)
	if err != nil {
		if svcerr.IsNotFound(err) {
			return fail("no folder")
		}
		return fail(err.Error())
	}

	requestID := newRequestID(sketch.Title, sketch, time.Now())
	now := time.Now()
	expiresAt := now.Add(time.Duration(policy.NotifyExpireHours) * time.Hour)

	downloadData, _ := json.Marshal(discoveryContext{
		Identifier:             rec.Identifier,
		ReleaseName:            rec.Title,
		Reason:                 reason,
		Sketch:                 *sketch,
		RadarrQualityProfileID: movie.QualityProfileID,
	})

	pending := capability.PendingDownload{
		RequestID:    requestID,
		MovieTitle:   sketch.Title,
		Year:         sketch.Year,
		TargetFolder: movie.Folder,
		TorrentURL:   rec.MagnetOrURL,
		QualityType:  quality,
		Status:       capability.StatusPending,
		DownloadData: string(downloadData),
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
	}

	id, err := c.store.StorePending(pending)
	if err != nil {
		return fail(err.Error())
	}
	if c.bus != nil {
		_ = c.bus.Publish(ctx, events.NewPendingCreated(id, requestID))
	}

	text := RenderProposal(sketch.Title, sketch.Year, current, candidate, reason, movie.Folder)
	messageID, err := c.proposer.Propose(ctx, requestID, text)
	if err != nil {
		c.logger.Error("propose failed", "request_id", requestID, "error", err)
	} else if messageID != 0 {
		if err := c.store.SetTelegramMessage(requestID, messageID); err != nil {
			c.logger.Error("set telegram message failed", "request_id", requestID, "error", err)
		}
	}

	return DiscoveryResult{Outcome: OutcomePending, Reason: reason, RequestID: requestID}
}

// discoveryContext is download_data's rehydration payload. The
// Radarr quality profile ID rides along informationally; nothing in
// this package acts on it, it's recorded for the UI and for anyone
// rehydrating the decision later.
type discoveryContext struct {
	Identifier             string       `json:"identifier"`
	ReleaseName            string       `json:"release_name"`
	Reason                 string       `json:"reason"`
	Sketch                 release.Info `json:"sketch"`
	RadarrQualityProfileID int          `json:"radarr_quality_profile_id"`
}

// qualityTypeFor derives the Pending Download's quality_type from the
// parsed sketch, most-premium-first: fel, dv, atmos, hdr.
func qualityTypeFor(sketch *release.Info) capability.QualityType {
	switch {
	case sketch.IsFEL:
		return capability.QualityFEL
	case sketch.DVProfile != release.DVProfileNone:
		return capability.QualityDV
	case sketch.HasAtmos:
		return capability.QualityAtmos
	default:
		return capability.QualityHDR
	}
}

// lookupMovie resolves a capability record for a discovered title:
// exact title+year match preferred, title-only fallback when the
// candidate has no year, and a Jaro-Winkler fuzzy fallback across
// stored titles when neither matches exactly (a tracker release's
// title rarely matches the library's stored title byte-for-byte).
func (c *Coordinator) lookupMovie(title string, year int) (classify.Current, bool, error) {
	rec, err := c.store.FindByTitleYear(title, year)
	if err == nil {
		return currentFromRecord(rec), true, nil
	}
	if err != capability.ErrNotFound {
		return classify.Current{}, false, err
	}

	all, err := c.store.GetAll()
	if err != nil {
		return classify.Current{}, false, err
	}

	var best capability.Record
	var bestScore float32
	for _, candidate := range all {
		if year != 0 && candidate.Year != 0 && candidate.Year != year {
			continue
		}
		score, simErr := edlib.StringsSimilarity(release.NormalizeTitle(title), release.NormalizeTitle(candidate.Title), edlib.JaroWinkler)
		if simErr != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	if bestScore >= c.fuzzyThreshold {
		return currentFromRecord(best), true, nil
	}
	return classify.Current{}, false, nil
}

func currentFromRecord(rec capability.Record) classify.Current {
	return classify.Current{
		DVProfile:  rec.DVProfile,
		DVFEL:      rec.DVFEL,
		HasAtmos:   rec.HasAtmos,
		Resolution: release.ResolutionFromString(rec.Resolution),
	}
}
