package collection

import (
	"context"
	"log/slog"

	"github.com/vmunix/felscan/internal/events"
)

// Reconciler computes and applies the symmetric difference between a
// collection's desired membership (from the capability store) and its
// current membership (from Plex).
type Reconciler struct {
	store  CapabilityStore
	plex   PlexCollections
	bus    *events.Bus
	logger *slog.Logger
}

// New creates a Reconciler.
func New(store CapabilityStore, plex PlexCollections, bus *events.Bus, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, plex: plex, bus: bus, logger: logger.With("component", "collection")}
}

// Reconcile applies scan/verify semantics to every enabled
// definition, returning one Result per enabled definition in the
// order of defs; disabled definitions get no Result. Per-item failures are collected and do not abort the
// overall operation; only a desired-set or current-set query error
// aborts reconciliation of that single collection.
func (r *Reconciler) Reconcile(ctx context.Context, mode Mode, defs []Definition) []Result {
	results := make([]Result, 0, len(defs))
	for _, def := range defs {
		if !def.Enabled {
			continue
		}
		results = append(results, r.reconcileOne(ctx, mode, def))
	}
	return results
}

func (r *Reconciler) reconcileOne(ctx context.Context, mode Mode, def Definition) Result {
	result := Result{Collection: def.Name}

	desired, err := r.store.GetWhere(def.Predicate)
	if err != nil {
		r.logger.Error("desired set query failed", "collection", def.Name, "error", err)
		return result
	}
	desiredByKey := make(map[string]string, len(desired)) // rating_key -> title
	for _, rec := range desired {
		desiredByKey[rec.RatingKey] = rec.Title
	}

	current, err := r.plex.CollectionMember(ctx, def.Name)
	if err != nil {
		r.logger.Error("current set query failed", "collection", def.Name, "error", err)
		return result
	}
	currentSet := make(map[string]bool, len(current))
	for _, key := range current {
		currentSet[key] = true
	}

	// toAdd = D \ S
	for key, title := range desiredByKey {
		if currentSet[key] {
			continue
		}
		if err := r.plex.AddToCollection(ctx, def.Name, key); err != nil {
			result.Failures = append(result.Failures, Failure{Collection: def.Name, RatingKey: key, Cause: err})
			continue
		}
		result.Added = append(result.Added, Member{RatingKey: key, Title: title})
		if r.bus != nil {
			_ = r.bus.Publish(ctx, events.NewCollectionMemberAdded(def.Name, key, title))
		}
	}

	if mode != ModeVerify {
		return result
	}

	// toRemove = S \ D
	for _, key := range current {
		if _, ok := desiredByKey[key]; ok {
			continue
		}
		if err := r.plex.RemoveFromCollection(ctx, def.Name, key); err != nil {
			result.Failures = append(result.Failures, Failure{Collection: def.Name, RatingKey: key, Cause: err})
			continue
		}
		result.Removed = append(result.Removed, Member{RatingKey: key})
		if r.bus != nil {
			_ = r.bus.Publish(ctx, events.NewCollectionMemberRemoved(def.Name, key, ""))
		}
	}

	return result
}
