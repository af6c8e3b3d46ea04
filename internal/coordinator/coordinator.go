// Package coordinator implements the Download Coordinator: a state
// machine consuming tracker discoveries, consulting the capability
// store and Radarr, invoking the Upgrade Classifier, opening a
// pending approval, and on approval dispatching to qBittorrent. The
// Grab/Refresh/Cancel orchestration shape and the status transition
// table are re-expressed here as capability.PendingStatus.CanTransitionTo.
package coordinator

import (
	"context"
	"log/slog"
	"time"

	"github.com/vmunix/felscan/internal/capability"
	"github.com/vmunix/felscan/internal/config"
	"github.com/vmunix/felscan/internal/events"
	"github.com/vmunix/felscan/internal/radarr"
	"github.com/vmunix/felscan/internal/tracker"
)

// CapabilityStore is the subset of internal/capability.Store the
// coordinator depends on, narrowed for testability.
type CapabilityStore interface {
	FindByTitleYear(title string, year int) (capability.Record, error)
	GetAll() ([]capability.Record, error)
	StorePending(p capability.PendingDownload) (int64, error)
	FindDuplicatePending(title string, year int, quality capability.QualityType, within time.Duration) (bool, error)
	GetPending(requestID string) (capability.PendingDownload, error)
	MarkStarted(requestID, torrentHash string) error
	MarkCompleted(requestID string) error
	MarkDeclined(requestID string) error
	DeletePending(requestID string) error
	ExpirePending(now time.Time) ([]string, error)
	AppendHistory(e capability.HistoryEntry) error
	SetTelegramMessage(requestID string, messageID int64) error
}

// RadarrClient is the subset of internal/radarr.Client the
// coordinator depends on.
type RadarrClient interface {
	FindByTitleYear(ctx context.Context, title string, year int) (radarr.Movie, error)
}

// Downloader is the subset of internal/qbittorrent.Client the
// coordinator depends on.
type Downloader interface {
	AddTorrent(ctx context.Context, req DownloadRequest) error
}

// DownloadRequest mirrors qbittorrent.AddTorrentRequest; declared here
// so this package does not import internal/qbittorrent directly.
type DownloadRequest struct {
	URL                string
	SavePath           string
	Category           string
	Paused             bool
	SequentialDownload bool
}

// Proposer is the subset of internal/approval.Dialogue the
// coordinator depends on to post the approval message.
type Proposer interface {
	Propose(ctx context.Context, requestID, text string) (int64, error)
}

// Coordinator owns the Pending Download pipeline: discovery,
// classification, approval, and dispatch.
type Coordinator struct {
	store    CapabilityStore
	radarr   RadarrClient
	download Downloader
	proposer Proposer
	bus      *events.Bus
	logger   *slog.Logger
	policy   func() config.UpgradePolicy

	fuzzyThreshold float32
}

// New creates a Coordinator. policy is a callback rather than a fixed
// value so the control-plane's "update policy" operation takes effect
// on the next discovery without restarting the process.
func New(store CapabilityStore, radarrClient RadarrClient, download Downloader, proposer Proposer, bus *events.Bus, policy func() config.UpgradePolicy, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:          store,
		radarr:         radarrClient,
		download:       download,
		proposer:       proposer,
		bus:            bus,
		logger:         logger.With("component", "coordinator"),
		policy:         policy,
		fuzzyThreshold: 0.92,
	}
}

// SetProposer wires the Proposer after construction, breaking the
// Coordinator/Dialogue initialization cycle: the Dialogue needs a
// Coordinator to call back into, and the Coordinator needs a Proposer
// to post the approval message, so one side is always built first
// with this left unset.
func (c *Coordinator) SetProposer(p Proposer) {
	c.proposer = p
}

// Outcome discriminates ProcessDiscovery's tagged result variant:
// exception-based control flow for skip outcomes is replaced with
// explicit Pending/Skip/Error variants.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeSkip    Outcome = "skip"
	OutcomeError   Outcome = "error"
)

// DiscoveryResult is process_discovery's return value.
type DiscoveryResult struct {
	Outcome   Outcome
	Reason    string
	RequestID string
}

func skip(reason string) DiscoveryResult { return DiscoveryResult{Outcome: OutcomeSkip, Reason: reason} }
func fail(reason string) DiscoveryResult { return DiscoveryResult{Outcome: OutcomeError, Reason: reason} }

// record is an unexported alias avoiding stutter in this package's
// signatures; tracker.Record is the upstream wire type.
type record = tracker.Record
