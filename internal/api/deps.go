// Package api implements the Core → UI boundary: a thin net/http mux
// handler set exposing the status snapshot, trigger scan/verify, list
// pendings/history, and update policy operations the control-plane
// layer consumes. Kept intentionally thin — no report serialisation
// logic lives here, only the query/command surface.
package api

import (
	"context"
	"errors"

	"github.com/vmunix/felscan/internal/approval"
	"github.com/vmunix/felscan/internal/capability"
	"github.com/vmunix/felscan/internal/collection"
	"github.com/vmunix/felscan/internal/config"
	"github.com/vmunix/felscan/internal/monitor"
)

// ErrMissingDependency is returned when a required dependency is nil.
var ErrMissingDependency = errors.New("missing required dependency")

// Store is the subset of internal/capability.Store the API reads.
type Store interface {
	ListPending(status capability.PendingStatus) ([]capability.PendingDownload, error)
	RecentHistory(limit int) ([]capability.HistoryEntry, error)
}

// Scheduler is the subset of internal/monitor.Runner the API drives.
type Scheduler interface {
	Mode() monitor.Mode
	SetMode(m monitor.Mode)
	Snapshot() monitor.Snapshot
	TriggerScan(ctx context.Context)
	TriggerVerify(ctx context.Context) []collection.Result
}

// Approvals is what the API drives for manual (non-Telegram)
// approve/decline; NewApprovals implements it over the Download
// Coordinator.
type Approvals interface {
	Approve(ctx context.Context, requestID string) (status, reason string, err error)
	Decline(ctx context.Context, requestID string) (status, reason string, err error)
}

// ServerDeps contains every dependency the API needs. Store,
// Scheduler, and Policy are required; Approvals may be nil, in which
// case the approve/decline endpoints report 503.
type ServerDeps struct {
	Store     Store
	Scheduler Scheduler
	Policy    *config.PolicyStore
	Approvals Approvals
}

func (d ServerDeps) validate() error {
	if d.Store == nil || d.Scheduler == nil || d.Policy == nil {
		return ErrMissingDependency
	}
	return nil
}

// approvalsAdapter adapts approval.Dialogue's callback-shaped API
// (HandleCallback is Telegram-specific) into the Approvals interface
// by calling the Coordinator directly, bypassing Telegram entirely
// for manual control-plane approvals.
type approvalsAdapter struct {
	coordinator approvalCoordinator
}

type approvalCoordinator interface {
	HandleApproval(requestID string, decision approval.Decision) (status, reason string, err error)
}

// NewApprovals wraps a Download Coordinator so the API can approve or
// decline a Pending Download without going through Telegram.
func NewApprovals(coordinator approvalCoordinator) Approvals {
	return &approvalsAdapter{coordinator: coordinator}
}

func (a *approvalsAdapter) Approve(ctx context.Context, requestID string) (string, string, error) {
	return a.coordinator.HandleApproval(requestID, approval.DecisionApproved)
}

func (a *approvalsAdapter) Decline(ctx context.Context, requestID string) (string, string, error) {
	return a.coordinator.HandleApproval(requestID, approval.DecisionDeclined)
}
