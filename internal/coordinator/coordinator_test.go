package coordinator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/felscan/internal/approval"
	"github.com/vmunix/felscan/internal/capability"
	"github.com/vmunix/felscan/internal/config"
	"github.com/vmunix/felscan/internal/radarr"
	"github.com/vmunix/felscan/internal/svcerr"
)

type fakeStore struct {
	byTitleYear map[string]capability.Record
	all         []capability.Record
	pending     map[string]capability.PendingDownload
	nextID      int64
	history     []capability.HistoryEntry
	duplicate   bool
	telegramIDs map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byTitleYear: make(map[string]capability.Record),
		pending:     make(map[string]capability.PendingDownload),
		telegramIDs: make(map[string]int64),
	}
}

func key(title string, year int) string {
	return fmt.Sprintf("%s|%d", title, year)
}

func (f *fakeStore) FindByTitleYear(title string, year int) (capability.Record, error) {
	if rec, ok := f.byTitleYear[key(title, year)]; ok {
		return rec, nil
	}
	return capability.Record{}, capability.ErrNotFound
}

func (f *fakeStore) GetAll() ([]capability.Record, error) { return f.all, nil }

func (f *fakeStore) StorePending(p capability.PendingDownload) (int64, error) {
	f.nextID++
	p.ID = f.nextID
	f.pending[p.RequestID] = p
	return f.nextID, nil
}

func (f *fakeStore) FindDuplicatePending(title string, year int, quality capability.QualityType, within time.Duration) (bool, error) {
	return f.duplicate, nil
}

func (f *fakeStore) GetPending(requestID string) (capability.PendingDownload, error) {
	p, ok := f.pending[requestID]
	if !ok {
		return capability.PendingDownload{}, capability.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) MarkStarted(requestID, torrentHash string) error {
	p := f.pending[requestID]
	if p.Status != capability.StatusPending {
		return capability.ErrInvalidTransition
	}
	p.Status = capability.StatusDownloading
	f.pending[requestID] = p
	return nil
}

func (f *fakeStore) MarkCompleted(requestID string) error {
	p := f.pending[requestID]
	p.Status = capability.StatusCompleted
	f.pending[requestID] = p
	return nil
}

func (f *fakeStore) MarkDeclined(requestID string) error {
	p := f.pending[requestID]
	if p.Status != capability.StatusPending {
		return capability.ErrInvalidTransition
	}
	p.Status = capability.StatusDeclined
	f.pending[requestID] = p
	return nil
}

func (f *fakeStore) DeletePending(requestID string) error {
	delete(f.pending, requestID)
	return nil
}

func (f *fakeStore) ExpirePending(now time.Time) ([]string, error) {
	var ids []string
	for id, p := range f.pending {
		if p.Status == capability.StatusPending && p.ExpiresAt.Before(now) {
			p.Status = capability.StatusExpired
			f.pending[id] = p
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeStore) AppendHistory(e capability.HistoryEntry) error {
	f.history = append(f.history, e)
	return nil
}

func (f *fakeStore) SetTelegramMessage(requestID string, messageID int64) error {
	f.telegramIDs[requestID] = messageID
	return nil
}

type fakeRadarr struct {
	movie    radarr.Movie
	notFound bool
}

func (f *fakeRadarr) FindByTitleYear(ctx context.Context, title string, year int) (radarr.Movie, error) {
	if f.notFound {
		return radarr.Movie{}, svcerr.NotFound("movie")
	}
	return f.movie, nil
}

type fakeDownloader struct {
	calls   []DownloadRequest
	failN   int
	failErr error
}

func (f *fakeDownloader) AddTorrent(ctx context.Context, req DownloadRequest) error {
	f.calls = append(f.calls, req)
	if f.failN > 0 {
		f.failN--
		return f.failErr
	}
	return nil
}

type fakeProposer struct {
	texts     []string
	messageID int64
}

func (f *fakeProposer) Propose(ctx context.Context, requestID, text string) (int64, error) {
	f.texts = append(f.texts, text)
	f.messageID++
	return f.messageID, nil
}

func allowAllPolicy() config.UpgradePolicy {
	return config.UpgradePolicy{
		NotifyFEL: true, NotifyFELFromP5: true, NotifyFELFromHDR: true, NotifyFELDuplicates: true,
		NotifyDV: true, NotifyDVFromHDR: true, NotifyDVProfileUpgrades: true,
		NotifyAtmos: true, NotifyAtmosWithDVUpgrade: true, NotifyAtmosOnlyIfNoAtmos: true,
		NotifyResolution: true, NotifyResolutionOnlyUp: true,
		NotifyOnlyLibraryMovies: false,
		NotifyExpireHours:       24,
	}
}

func newTestCoordinator(store *fakeStore, radarrClient RadarrClient, dl *fakeDownloader, prop *fakeProposer, policy config.UpgradePolicy) *Coordinator {
	return New(store, radarrClient, dl, prop, nil, func() config.UpgradePolicy { return policy }, nil)
}

func TestProcessDiscovery_UnparseableSkipped(t *testing.T) {
	c := newTestCoordinator(newFakeStore(), &fakeRadarr{}, &fakeDownloader{}, &fakeProposer{}, allowAllPolicy())
	result := c.ProcessDiscovery(context.Background(), record{Title: "no year in this title at all"})
	assert.Equal(t, OutcomeSkip, result.Outcome)
	assert.Equal(t, "unparseable", result.Reason)
}

func TestProcessDiscovery_NotInLibrarySkippedWhenPolicySet(t *testing.T) {
	store := newFakeStore()
	policy := allowAllPolicy()
	policy.NotifyOnlyLibraryMovies = true
	c := newTestCoordinator(store, &fakeRadarr{}, &fakeDownloader{}, &fakeProposer{}, policy)

	result := c.ProcessDiscovery(context.Background(), record{Title: "Unknown.Movie.2020.2160p.DV.FEL.BluRay"})
	assert.Equal(t, OutcomeSkip, result.Outcome)
	assert.Equal(t, "not in library", result.Reason)
}

func TestProcessDiscovery_NotInLibraryProceedsWhenPolicyAllows(t *testing.T) {
	store := newFakeStore()
	store.all = nil
	radarrClient := &fakeRadarr{movie: radarr.Movie{ID: 1, Title: "Unknown Movie", Year: 2020, Folder: "/movies/Unknown Movie (2020)"}}
	dl := &fakeDownloader{}
	prop := &fakeProposer{}
	c := newTestCoordinator(store, radarrClient, dl, prop, allowAllPolicy())

	result := c.ProcessDiscovery(context.Background(), record{Title: "Unknown.Movie.2020.2160p.DV.FEL.BluRay", MagnetOrURL: "magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"})
	require.Equal(t, OutcomePending, result.Outcome)
	assert.Len(t, store.pending, 1)
	assert.Len(t, prop.texts, 1)
}

func TestProcessDiscovery_NotAnUpgradeSkipped(t *testing.T) {
	store := newFakeStore()
	store.byTitleYear[key("Known Movie", 2019)] = capability.Record{
		RatingKey: "1", Title: "Known Movie", Year: 2019,
		DVProfile: capability.DVProfile7, DVFEL: true, HasAtmos: false, Resolution: "2160p",
	}
	c := newTestCoordinator(store, &fakeRadarr{}, &fakeDownloader{}, &fakeProposer{}, allowAllPolicy())

	result := c.ProcessDiscovery(context.Background(), record{Title: "Known.Movie.2019.2160p.DV.FEL.BluRay"})
	if result.Outcome != OutcomeSkip {
		t.Errorf("got %+v, want skip (already have exact quality)", result)
	}
}

func TestProcessDiscovery_DuplicateWithinWindowSkipped(t *testing.T) {
	store := newFakeStore()
	store.duplicate = true
	radarrClient := &fakeRadarr{movie: radarr.Movie{Folder: "/movies/X"}}
	c := newTestCoordinator(store, radarrClient, &fakeDownloader{}, &fakeProposer{}, allowAllPolicy())

	result := c.ProcessDiscovery(context.Background(), record{Title: "Some.Movie.2021.2160p.DV.FEL.BluRay"})
	if result.Outcome != OutcomeSkip || result.Reason != "duplicate discovery within dedupe window" {
		t.Errorf("got %+v, want skip/duplicate", result)
	}
	if len(store.pending) != 0 {
		t.Errorf("expected no pending row written, got %d", len(store.pending))
	}
}

func TestProcessDiscovery_RadarrNotFoundErrors(t *testing.T) {
	store := newFakeStore()
	c := newTestCoordinator(store, &fakeRadarr{notFound: true}, &fakeDownloader{}, &fakeProposer{}, allowAllPolicy())

	result := c.ProcessDiscovery(context.Background(), record{Title: "Missing.Movie.2022.2160p.DV.FEL.BluRay"})
	if result.Outcome != OutcomeError || result.Reason != "no folder" {
		t.Errorf("got %+v, want error/no folder", result)
	}
}

func TestHandleApproval_ApprovedDispatchesAndMarksStarted(t *testing.T) {
	store := newFakeStore()
	store.pending["req1"] = capability.PendingDownload{
		RequestID: "req1", MovieTitle: "X", Year: 2020, TargetFolder: "/movies/X",
		TorrentURL: "magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		QualityType: capability.QualityFEL, Status: capability.StatusPending,
	}
	dl := &fakeDownloader{}
	c := newTestCoordinator(store, &fakeRadarr{}, dl, &fakeProposer{}, allowAllPolicy())

	status, _, err := c.HandleApproval("req1", approval.DecisionApproved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "downloading" {
		t.Errorf("status = %q, want downloading", status)
	}
	if store.pending["req1"].Status != capability.StatusDownloading {
		t.Errorf("pending status = %q, want downloading", store.pending["req1"].Status)
	}
	if len(dl.calls) != 1 {
		t.Errorf("expected 1 dispatch call, got %d", len(dl.calls))
	}
}

func TestHandleApproval_DeclinedDeletesRow(t *testing.T) {
	store := newFakeStore()
	store.pending["req2"] = capability.PendingDownload{RequestID: "req2", Status: capability.StatusPending}
	c := newTestCoordinator(store, &fakeRadarr{}, &fakeDownloader{}, &fakeProposer{}, allowAllPolicy())

	status, _, err := c.HandleApproval("req2", approval.DecisionDeclined)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "declined" {
		t.Errorf("status = %q, want declined", status)
	}
	if _, ok := store.pending["req2"]; ok {
		t.Error("expected declined pending row to be deleted")
	}
}

func TestHandleApproval_DispatchFailureLeavesPending(t *testing.T) {
	store := newFakeStore()
	store.pending["req3"] = capability.PendingDownload{
		RequestID: "req3", TargetFolder: "/movies/X", QualityType: capability.QualityDV, Status: capability.StatusPending,
	}
	dl := &fakeDownloader{failN: 1, failErr: errTransportStub{}}
	c := newTestCoordinator(store, &fakeRadarr{}, dl, &fakeProposer{}, allowAllPolicy())

	status, _, err := c.HandleApproval("req3", approval.DecisionApproved)
	if err == nil {
		t.Fatal("expected dispatch error to propagate")
	}
	if status != "pending" {
		t.Errorf("status = %q, want pending", status)
	}
	if store.pending["req3"].Status != capability.StatusPending {
		t.Errorf("pending status = %q, want it to remain pending", store.pending["req3"].Status)
	}
}

type errTransportStub struct{}

func (errTransportStub) Error() string { return "transport failure" }

func TestHandleApproval_IdempotentReplay(t *testing.T) {
	store := newFakeStore()
	store.pending["req4"] = capability.PendingDownload{RequestID: "req4", Status: capability.StatusDownloading}
	c := newTestCoordinator(store, &fakeRadarr{}, &fakeDownloader{}, &fakeProposer{}, allowAllPolicy())

	// Already downloading; approving again is a no-op that reports the
	// current status instead of dispatching the torrent a second time.
	status, _, err := c.HandleApproval("req4", approval.DecisionApproved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "downloading" {
		t.Errorf("status = %q, want downloading", status)
	}
}

func TestSweepExpired_TransitionsAndDeletes(t *testing.T) {
	store := newFakeStore()
	past := time.Now().Add(-time.Hour)
	store.pending["req5"] = capability.PendingDownload{RequestID: "req5", Status: capability.StatusPending, ExpiresAt: past}
	c := newTestCoordinator(store, &fakeRadarr{}, &fakeDownloader{}, &fakeProposer{}, allowAllPolicy())

	n, err := c.SweepExpired(time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expired count = %d, want 1", n)
	}
	if _, ok := store.pending["req5"]; ok {
		t.Error("expected expired pending row to be deleted")
	}
}
