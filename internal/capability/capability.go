// Package capability implements the Metadata Store: the durable keyed
// record of every known movie's capability fingerprint plus the
// workflow tables for pending and historical downloads.
package capability

import "time"

// DVProfile mirrors the release package's enum but as a plain string
// so it round-trips through SQLite without a custom scan type.
type DVProfile string

const (
	DVProfileNone DVProfile = ""
	DVProfile5    DVProfile = "5"
	DVProfile7    DVProfile = "7"
	DVProfile8    DVProfile = "8"
)

// Record is the Capability Record, keyed by the stable Plex item
// identifier rating_key.
type Record struct {
	RatingKey    string
	Title        string
	Year         int
	DVProfile    DVProfile
	DVFEL        bool
	HasAtmos     bool
	FileSize     int64
	VideoBitrate float64 // Mbps
	AudioTracks  string
	Resolution   string
	Extra        string // free-form structured blob (JSON)
	LastUpdated  time.Time
}

// equalFields reports whether two records carry identical
// observable fields, ignoring LastUpdated. Used by upsert to decide
// whether a write is a no-op.
func (r Record) equalFields(other Record) bool {
	return r.Title == other.Title &&
		r.Year == other.Year &&
		r.DVProfile == other.DVProfile &&
		r.DVFEL == other.DVFEL &&
		r.HasAtmos == other.HasAtmos &&
		r.FileSize == other.FileSize &&
		r.VideoBitrate == other.VideoBitrate &&
		r.AudioTracks == other.AudioTracks &&
		r.Resolution == other.Resolution &&
		r.Extra == other.Extra
}

// Predicate selects a subset of stored capabilities, used both for
// ad-hoc queries and for a collection's desired-set computation.
type Predicate string

const (
	PredicateHasDV     Predicate = "has_dv"
	PredicateHasP7FEL  Predicate = "has_p7_fel"
	PredicateHasAtmos  Predicate = "has_atmos"
)

// PendingStatus enumerates the Pending Download state machine.
type PendingStatus string

const (
	StatusPending     PendingStatus = "pending"
	StatusDownloading PendingStatus = "downloading"
	StatusCompleted   PendingStatus = "completed"
	StatusDeclined    PendingStatus = "declined"
	StatusExpired     PendingStatus = "expired"
)

var validTransitions = map[PendingStatus][]PendingStatus{
	StatusPending:     {StatusDownloading, StatusDeclined, StatusExpired},
	StatusDownloading: {StatusCompleted},
}

// CanTransitionTo reports whether moving from s to next is a legal
// Pending Download state transition.
func (s PendingStatus) CanTransitionTo(next PendingStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// QualityType categorises a Pending Download's upgrade kind, used to
// derive the qBittorrent category (movies-<quality_type>).
type QualityType string

const (
	QualityFEL   QualityType = "fel"
	QualityDV    QualityType = "dv"
	QualityHDR   QualityType = "hdr"
	QualityAtmos QualityType = "atmos"
)

// PendingDownload is the workflow entity tracking one tracker
// discovery from approval through dispatch.
type PendingDownload struct {
	ID                 int64
	RequestID          string
	MovieTitle         string
	Year               int
	TargetFolder       string
	TorrentURL         string
	QualityType        QualityType
	Status             PendingStatus
	TelegramMessageID  int64
	DownloadData       string // serialised rehydration context
	CreatedAt          time.Time
	ApprovedAt         *time.Time
	CompletedAt        *time.Time
	ExpiresAt          time.Time
}

// HistoryEntry is one append-only audit row for a download attempt.
type HistoryEntry struct {
	ID          int64
	RequestID   string
	MovieTitle  string
	Year        int
	QualityType QualityType
	Outcome     string
	Detail      string
	RecordedAt  time.Time
}
