package capability

import (
	"testing"
)

func testRecord(key string) Record {
	return Record{
		RatingKey:  key,
		Title:      "Dune",
		Year:       2021,
		DVProfile:  DVProfile5,
		HasAtmos:   false,
		FileSize:   1000,
		Resolution: "2160p",
		Extra:      "{}",
	}
}

func TestStore_UpsertCapability_InsertsNew(t *testing.T) {
	store := NewStore(setupTestDB(t))

	changed, err := store.UpsertCapability(testRecord("1"))
	if err != nil {
		t.Fatalf("UpsertCapability: %v", err)
	}
	if !changed {
		t.Error("expected changed=true for new record")
	}

	got, err := store.GetByKey("1")
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if got.Title != "Dune" || got.Year != 2021 {
		t.Errorf("got %+v", got)
	}
}

func TestStore_UpsertCapability_NoOpWhenIdentical(t *testing.T) {
	store := NewStore(setupTestDB(t))
	rec := testRecord("1")

	if _, err := store.UpsertCapability(rec); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	first, _ := store.GetByKey("1")

	changed, err := store.UpsertCapability(rec)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if changed {
		t.Error("expected changed=false for byte-identical record")
	}

	second, _ := store.GetByKey("1")
	if !second.LastUpdated.Equal(first.LastUpdated) {
		t.Error("last_updated must not advance on a no-op upsert")
	}
}

func TestStore_GetByKey_NotFound(t *testing.T) {
	store := NewStore(setupTestDB(t))
	if _, err := store.GetByKey("missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_GetWhere(t *testing.T) {
	store := NewStore(setupTestDB(t))

	dv := testRecord("1")
	fel := testRecord("2")
	fel.DVProfile = DVProfile7
	fel.DVFEL = true
	plain := testRecord("3")
	plain.DVProfile = DVProfileNone

	for _, r := range []Record{dv, fel, plain} {
		if _, err := store.UpsertCapability(r); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	dvItems, err := store.GetWhere(PredicateHasDV)
	if err != nil {
		t.Fatalf("GetWhere(has_dv): %v", err)
	}
	if len(dvItems) != 2 {
		t.Errorf("has_dv count = %d, want 2", len(dvItems))
	}

	felItems, err := store.GetWhere(PredicateHasP7FEL)
	if err != nil {
		t.Fatalf("GetWhere(has_p7_fel): %v", err)
	}
	if len(felItems) != 1 || felItems[0].RatingKey != "2" {
		t.Errorf("has_p7_fel = %+v, want [2]", felItems)
	}
}

func TestPendingStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to PendingStatus
		want     bool
	}{
		{StatusPending, StatusDownloading, true},
		{StatusPending, StatusDeclined, true},
		{StatusPending, StatusExpired, true},
		{StatusPending, StatusCompleted, false},
		{StatusDownloading, StatusCompleted, true},
		{StatusDownloading, StatusPending, false},
		{StatusCompleted, StatusPending, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s->%s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
