// Package collection implements the Collection Reconciler: computing
// the symmetric difference between the set of items that should be in
// each curated Plex collection and what is currently there, and
// applying additions and removals idempotently. The per-item
// continue-on-error loop is generalized from a single store/client
// pair to a desired-set/current-set diff against three collections.
package collection

import (
	"context"
	"fmt"

	"github.com/vmunix/felscan/internal/capability"
)

// Names of the three curated collections this system maintains.
const (
	NameAllDV       = "All Dolby Vision"
	NameProfile7FEL = "Profile 7 FEL"
	NameTrueHDAtmos = "TrueHD Atmos"
)

// Definition pairs a collection's name with the capability predicate
// defining its desired membership.
type Definition struct {
	Name      string
	Predicate capability.Predicate
	Enabled   bool
}

// Definitions returns the three curated collections, each
// independently enable-able per the given config flags.
func Definitions(allDV, profile7FEL, trueHDAtmos bool) []Definition {
	return []Definition{
		{Name: NameAllDV, Predicate: capability.PredicateHasDV, Enabled: allDV},
		{Name: NameProfile7FEL, Predicate: capability.PredicateHasP7FEL, Enabled: profile7FEL},
		{Name: NameTrueHDAtmos, Predicate: capability.PredicateHasAtmos, Enabled: trueHDAtmos},
	}
}

// Mode selects whether Reconcile only adds missing members (Scan) or
// also removes stale ones (Verify).
type Mode int

const (
	ModeScan Mode = iota
	ModeVerify
)

// Member describes one item added to or removed from a collection.
type Member struct {
	RatingKey string
	Title     string
}

// Failure records one item that could not be mutated; the operation
// continues across items rather than aborting on the first failure.
type Failure struct {
	Collection string
	RatingKey  string
	Cause      error
}

func (f Failure) Error() string {
	return fmt.Sprintf("collection update failed: collection=%s rating_key=%s: %v", f.Collection, f.RatingKey, f.Cause)
}

// Result is the outcome of reconciling one collection.
type Result struct {
	Collection string
	Added      []Member
	Removed    []Member
	Failures   []Failure
}

// PlexCollections is the subset of the Plex client the reconciler
// depends on, narrowed for testability.
type PlexCollections interface {
	CollectionMember(ctx context.Context, collection string) ([]string, error)
	AddToCollection(ctx context.Context, collection, ratingKey string) error
	RemoveFromCollection(ctx context.Context, collection, ratingKey string) error
}

// CapabilityStore is the subset of the Metadata Store the reconciler
// reads to compute a collection's desired set.
type CapabilityStore interface {
	GetWhere(predicate capability.Predicate) ([]capability.Record, error)
}
