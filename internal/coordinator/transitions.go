package coordinator

import (
	"context"
	"regexp"
	"time"

	"github.com/vmunix/felscan/internal/approval"
	"github.com/vmunix/felscan/internal/capability"
)

var magnetHashPattern = regexp.MustCompile(`(?i)btih:([0-9a-f]{40}|[2-7a-z]{32})`)

// torrentHashFromURL extracts the info hash from a magnet URI when
// present; qBittorrent's add_torrent call does not return the hash
// synchronously, so this is the only source available at dispatch
// time.
func torrentHashFromURL(u string) string {
	m := magnetHashPattern.FindStringSubmatch(u)
	if m == nil {
		return ""
	}
	return m[1]
}

// HandleApproval implements the approve/decline transition, invoked
// by the Approval Dialogue once a Telegram callback is parsed. It
// satisfies approval.Coordinator.
func (c *Coordinator) HandleApproval(requestID string, decision approval.Decision) (status string, reason string, err error) {
	p, err := c.store.GetPending(requestID)
	if err != nil {
		return "", "", err
	}
	// A replayed callback for a row that already left pending is a
	// no-op that reports the current status.
	if p.Status != capability.StatusPending {
		return string(p.Status), "", nil
	}

	if decision == approval.DecisionDeclined {
		if err := c.store.MarkDeclined(requestID); err != nil && err != capability.ErrInvalidTransition {
			return "", "", err
		}
		c.recordHistory(p, "declined", "")
		if err := c.store.DeletePending(requestID); err != nil {
			c.logger.Error("delete declined pending failed", "request_id", requestID, "error", err)
		}
		return "declined", "", nil
	}

	req := DownloadRequest{
		URL:      p.TorrentURL,
		SavePath: p.TargetFolder,
		Category: "movies-" + string(p.QualityType),
	}
	if err := c.download.AddTorrent(context.Background(), req); err != nil {
		c.recordHistory(p, "dispatch_failed", err.Error())
		// qbittorrent.AddTorrent already retries once on Transport;
		// any failure here leaves the row pending so the next manual
		// approval or retry can try again rather than losing it.
		return "pending", err.Error(), err
	}

	hash := torrentHashFromURL(p.TorrentURL)
	if err := c.store.MarkStarted(requestID, hash); err != nil && err != capability.ErrInvalidTransition {
		return "", "", err
	}
	c.recordHistory(p, "downloading", "")
	return "downloading", "", nil
}

func (c *Coordinator) recordHistory(p capability.PendingDownload, outcome, detail string) {
	err := c.store.AppendHistory(capability.HistoryEntry{
		RequestID:   p.RequestID,
		MovieTitle:  p.MovieTitle,
		Year:        p.Year,
		QualityType: p.QualityType,
		Outcome:     outcome,
		Detail:      detail,
	})
	if err != nil {
		c.logger.Error("append history failed", "request_id", p.RequestID, "error", err)
	}
}

// SweepExpired runs the expiry job: every Pending Download whose
// expires_at has passed transitions to expired and is removed from
// the active table, with a history row recording the timeout.
func (c *Coordinator) SweepExpired(now time.Time) (int, error) {
	ids, err := c.store.ExpirePending(now)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		p, err := c.store.GetPending(id)
		if err != nil {
			continue
		}
		c.recordHistory(p, "expired", "")
		if err := c.store.DeletePending(id); err != nil {
			c.logger.Error("delete expired pending failed", "request_id", id, "error", err)
		}
	}
	return len(ids), nil
}
