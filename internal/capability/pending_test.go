package capability

import (
	"testing"
	"time"
)

func testPending(requestID string) PendingDownload {
	now := time.Now()
	return PendingDownload{
		RequestID:    requestID,
		MovieTitle:   "Dune",
		Year:         2021,
		TargetFolder: "/movies/Dune (2021)",
		TorrentURL:   "magnet:?xt=urn:btih:abc",
		QualityType:  QualityFEL,
		TelegramMessageID: 42,
		DownloadData: "{}",
		CreatedAt:    now,
		ExpiresAt:    now.Add(24 * time.Hour),
	}
}

func TestStore_PendingLifecycle(t *testing.T) {
	store := NewStore(setupTestDB(t))
	p := testPending("abc123")

	id, err := store.StorePending(p)
	if err != nil {
		t.Fatalf("StorePending: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero id")
	}

	got, err := store.GetPending("abc123")
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}

	if err := store.MarkStarted("abc123", "torrenthash"); err != nil {
		t.Fatalf("MarkStarted: %v", err)
	}
	got, _ = store.GetPending("abc123")
	if got.Status != StatusDownloading {
		t.Errorf("status = %s, want downloading", got.Status)
	}
	if got.ApprovedAt == nil {
		t.Error("expected approved_at to be set")
	}

	if err := store.MarkCompleted("abc123"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	got, _ = store.GetPending("abc123")
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
}

func TestStore_MarkDeclined_Idempotent(t *testing.T) {
	store := NewStore(setupTestDB(t))
	p := testPending("decline-me")
	if _, err := store.StorePending(p); err != nil {
		t.Fatalf("StorePending: %v", err)
	}

	if err := store.MarkDeclined("decline-me"); err != nil {
		t.Fatalf("MarkDeclined: %v", err)
	}
	// Replaying the same callback after transition is a no-op.
	if err := store.MarkDeclined("decline-me"); err != nil {
		t.Fatalf("MarkDeclined (replay): %v", err)
	}

	got, _ := store.GetPending("decline-me")
	if got.Status != StatusDeclined {
		t.Errorf("status = %s, want declined", got.Status)
	}
}

func TestStore_ExpirePending(t *testing.T) {
	store := NewStore(setupTestDB(t))
	expired := testPending("expired-one")
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	fresh := testPending("still-fresh")

	if _, err := store.StorePending(expired); err != nil {
		t.Fatalf("store expired: %v", err)
	}
	if _, err := store.StorePending(fresh); err != nil {
		t.Fatalf("store fresh: %v", err)
	}

	ids, err := store.ExpirePending(time.Now())
	if err != nil {
		t.Fatalf("ExpirePending: %v", err)
	}
	if len(ids) != 1 || ids[0] != "expired-one" {
		t.Errorf("expired ids = %v, want [expired-one]", ids)
	}

	got, _ := store.GetPending("expired-one")
	if got.Status != StatusExpired {
		t.Errorf("status = %s, want expired", got.Status)
	}
	stillFresh, _ := store.GetPending("still-fresh")
	if stillFresh.Status != StatusPending {
		t.Errorf("status = %s, want pending", stillFresh.Status)
	}
}

func TestStore_FindDuplicatePending(t *testing.T) {
	store := NewStore(setupTestDB(t))
	p := testPending("dup-1")

	if _, err := store.StorePending(p); err != nil {
		t.Fatalf("StorePending: %v", err)
	}

	dup, err := store.FindDuplicatePending("Dune", 2021, QualityFEL, time.Second)
	if err != nil {
		t.Fatalf("FindDuplicatePending: %v", err)
	}
	if !dup {
		t.Error("expected duplicate to be found within the window")
	}

	notDup, err := store.FindDuplicatePending("Dune", 2021, QualityAtmos, time.Second)
	if err != nil {
		t.Fatalf("FindDuplicatePending: %v", err)
	}
	if notDup {
		t.Error("different quality_type must not be treated as a duplicate")
	}
}
