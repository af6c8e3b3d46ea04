package events

// Entity type discriminants used by BaseEvent.EntityType.
const (
	EntityCapability      = "capability"
	EntityPendingDownload = "pending_download"
	EntityCollection      = "collection"
	EntityScan            = "scan"
)

// Event type discriminants.
const (
	TypeCapabilityUpserted = "capability.upserted"
	TypeScanProgress       = "scan.progress"
	TypeScanCompleted      = "scan.completed"
	TypeScanFailed         = "scan.failed"

	TypeCollectionMemberAdded   = "collection.member_added"
	TypeCollectionMemberRemoved = "collection.member_removed"

	TypePendingCreated   = "pending.created"
	TypePendingApproved  = "pending.approved"
	TypePendingDeclined  = "pending.declined"
	TypePendingExpired   = "pending.expired"
	TypePendingCompleted = "pending.completed"
	TypePendingFailed    = "pending.failed"
)

// CapabilityUpserted fires after every extractor upsert of a
// Capability Record; Changed reports whether the record was new or
// differed from the stored one.
type CapabilityUpserted struct {
	BaseEvent
	RatingKey string
	Title     string
	Changed   bool
}

func NewCapabilityUpserted(ratingKey, title string, changed bool) CapabilityUpserted {
	return CapabilityUpserted{
		BaseEvent: NewBaseEvent(TypeCapabilityUpserted, EntityCapability, 0),
		RatingKey: ratingKey,
		Title:     title,
		Changed:   changed,
	}
}

// ScanProgress reports (processed, total) after each extractor batch.
type ScanProgress struct {
	BaseEvent
	Processed int
	Total     int
}

func NewScanProgress(processed, total int) ScanProgress {
	return ScanProgress{
		BaseEvent: NewBaseEvent(TypeScanProgress, EntityScan, 0),
		Processed: processed,
		Total:     total,
	}
}

// ScanCompleted marks a full scan+reconcile cycle finishing normally.
type ScanCompleted struct {
	BaseEvent
	ItemCount int
}

func NewScanCompleted(itemCount int) ScanCompleted {
	return ScanCompleted{
		BaseEvent: NewBaseEvent(TypeScanCompleted, EntityScan, 0),
		ItemCount: itemCount,
	}
}

// ScanFailed reports a whole-scan abort, e.g. PlexUnavailable.
type ScanFailed struct {
	BaseEvent
	Reason string
}

func NewScanFailed(reason string) ScanFailed {
	return ScanFailed{
		BaseEvent: NewBaseEvent(TypeScanFailed, EntityScan, 0),
		Reason:    reason,
	}
}

// CollectionMemberChanged fires per item added/removed during
// reconciliation.
type CollectionMemberChanged struct {
	BaseEvent
	Collection string
	RatingKey  string
	Title      string
}

func NewCollectionMemberAdded(collection, ratingKey, title string) CollectionMemberChanged {
	return CollectionMemberChanged{
		BaseEvent:  NewBaseEvent(TypeCollectionMemberAdded, EntityCollection, 0),
		Collection: collection,
		RatingKey:  ratingKey,
		Title:      title,
	}
}

func NewCollectionMemberRemoved(collection, ratingKey, title string) CollectionMemberChanged {
	return CollectionMemberChanged{
		BaseEvent:  NewBaseEvent(TypeCollectionMemberRemoved, EntityCollection, 0),
		Collection: collection,
		RatingKey:  ratingKey,
		Title:      title,
	}
}

// PendingStateChanged describes a Pending Download state change;
// EntityID carries the pending download's surrogate id. The
// coordinator publishes only the creation event (NewPendingCreated);
// the other transitions are not published.
type PendingStateChanged struct {
	BaseEvent
	RequestID string
	Status    string
	Reason    string
}

func newPendingEvent(eventType string, id int64, requestID, status, reason string) PendingStateChanged {
	return PendingStateChanged{
		BaseEvent: NewBaseEvent(eventType, EntityPendingDownload, id),
		RequestID: requestID,
		Status:    status,
		Reason:    reason,
	}
}

func NewPendingCreated(id int64, requestID string) PendingStateChanged {
	return newPendingEvent(TypePendingCreated, id, requestID, "pending", "")
}

func NewPendingApproved(id int64, requestID string) PendingStateChanged {
	return newPendingEvent(TypePendingApproved, id, requestID, "downloading", "")
}

func NewPendingDeclined(id int64, requestID string) PendingStateChanged {
	return newPendingEvent(TypePendingDeclined, id, requestID, "declined", "")
}

func NewPendingExpired(id int64, requestID string) PendingStateChanged {
	return newPendingEvent(TypePendingExpired, id, requestID, "expired", "")
}

func NewPendingCompleted(id int64, requestID string) PendingStateChanged {
	return newPendingEvent(TypePendingCompleted, id, requestID, "completed", "")
}

func NewPendingFailed(id int64, requestID, reason string) PendingStateChanged {
	return newPendingEvent(TypePendingFailed, id, requestID, "pending", reason)
}
