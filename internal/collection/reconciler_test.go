package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/felscan/internal/capability"
)

type fakeStore struct {
	byPredicate map[capability.Predicate][]capability.Record
}

func (f *fakeStore) GetWhere(p capability.Predicate) ([]capability.Record, error) {
	return f.byPredicate[p], nil
}

type fakePlex struct {
	members map[string][]string
	added   map[string][]string
	removed map[string][]string
	failAdd map[string]bool
}

func newFakePlex() *fakePlex {
	return &fakePlex{
		members: make(map[string][]string),
		added:   make(map[string][]string),
		removed: make(map[string][]string),
		failAdd: make(map[string]bool),
	}
}

func (f *fakePlex) CollectionMember(ctx context.Context, collection string) ([]string, error) {
	return f.members[collection], nil
}

func (f *fakePlex) AddToCollection(ctx context.Context, collection, ratingKey string) error {
	if f.failAdd[ratingKey] {
		return errors.New("plex unavailable")
	}
	f.added[collection] = append(f.added[collection], ratingKey)
	f.members[collection] = append(f.members[collection], ratingKey)
	return nil
}

func (f *fakePlex) RemoveFromCollection(ctx context.Context, collection, ratingKey string) error {
	f.removed[collection] = append(f.removed[collection], ratingKey)
	return nil
}

func TestReconcile_ScanModeAddsOnlyMissing(t *testing.T) {
	store := &fakeStore{byPredicate: map[capability.Predicate][]capability.Record{
		capability.PredicateHasDV: {{RatingKey: "1", Title: "A"}, {RatingKey: "2", Title: "B"}},
	}}
	plex := newFakePlex()
	plex.members[NameAllDV] = []string{"1"} // already has 1, missing 2

	r := New(store, plex, nil, nil)
	defs := []Definition{{Name: NameAllDV, Predicate: capability.PredicateHasDV, Enabled: true}}
	results := r.Reconcile(context.Background(), ModeScan, defs)

	require.Len(t, results, 1)
	require.Len(t, results[0].Added, 1)
	assert.Equal(t, "2", results[0].Added[0].RatingKey)
	assert.Empty(t, results[0].Removed, "scan mode must never remove")
}

func TestReconcile_VerifyModeRemovesStale(t *testing.T) {
	store := &fakeStore{byPredicate: map[capability.Predicate][]capability.Record{
		capability.PredicateHasP7FEL: {{RatingKey: "1", Title: "A"}},
	}}
	plex := newFakePlex()
	// "2" was removed from Plex's library but is still a collection member.
	plex.members[NameProfile7FEL] = []string{"1", "2"}

	r := New(store, plex, nil, nil)
	defs := []Definition{{Name: NameProfile7FEL, Predicate: capability.PredicateHasP7FEL, Enabled: true}}
	results := r.Reconcile(context.Background(), ModeVerify, defs)

	if len(results[0].Removed) != 1 || results[0].Removed[0].RatingKey != "2" {
		t.Errorf("Removed = %+v, want [2]", results[0].Removed)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	store := &fakeStore{byPredicate: map[capability.Predicate][]capability.Record{
		capability.PredicateHasAtmos: {{RatingKey: "1", Title: "A"}},
	}}
	plex := newFakePlex()

	r := New(store, plex, nil, nil)
	defs := []Definition{{Name: NameTrueHDAtmos, Predicate: capability.PredicateHasAtmos, Enabled: true}}

	first := r.Reconcile(context.Background(), ModeVerify, defs)
	if len(first[0].Added) != 1 {
		t.Fatalf("first pass: expected 1 addition, got %d", len(first[0].Added))
	}

	second := r.Reconcile(context.Background(), ModeVerify, defs)
	if len(second[0].Added) != 0 || len(second[0].Removed) != 0 {
		t.Errorf("second pass must be a no-op, got added=%+v removed=%+v", second[0].Added, second[0].Removed)
	}
}

func TestReconcile_DisabledCollectionSkipped(t *testing.T) {
	store := &fakeStore{}
	plex := newFakePlex()
	r := New(store, plex, nil, nil)
	defs := []Definition{{Name: NameAllDV, Predicate: capability.PredicateHasDV, Enabled: false}}

	results := r.Reconcile(context.Background(), ModeScan, defs)
	if len(results) != 0 {
		t.Errorf("expected disabled collection to be skipped, got %d results", len(results))
	}
}

func TestReconcile_PerItemFailureContinues(t *testing.T) {
	store := &fakeStore{byPredicate: map[capability.Predicate][]capability.Record{
		capability.PredicateHasDV: {{RatingKey: "1", Title: "A"}, {RatingKey: "2", Title: "B"}},
	}}
	plex := newFakePlex()
	plex.failAdd["1"] = true

	r := New(store, plex, nil, nil)
	defs := []Definition{{Name: NameAllDV, Predicate: capability.PredicateHasDV, Enabled: true}}
	results := r.Reconcile(context.Background(), ModeScan, defs)

	if len(results[0].Failures) != 1 || results[0].Failures[0].RatingKey != "1" {
		t.Errorf("Failures = %+v, want one failure for rating_key 1", results[0].Failures)
	}
	if len(results[0].Added) != 1 || results[0].Added[0].RatingKey != "2" {
		t.Errorf("Added = %+v, want [2] despite the failure on 1", results[0].Added)
	}
}
