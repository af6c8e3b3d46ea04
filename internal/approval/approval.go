// Package approval implements the Approval Dialogue: rendering the
// structured upgrade proposal, parsing inbound Telegram callbacks
// back into Coordinator transitions, and recovering the
// message_id→request_id mapping from the store after a restart.
package approval

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/vmunix/felscan/internal/capability"
)

// Decision is the outcome of a user's tap on an inline button.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionDeclined Decision = "declined"
)

// Coordinator is the subset of the Download Coordinator the dialogue
// calls back into; kept as a narrow interface so approval has no
// import-cycle on internal/coordinator.
type Coordinator interface {
	HandleApproval(requestID string, decision Decision) (status string, reason string, err error)
}

// Notifier is the subset of the Telegram client the dialogue needs.
type Notifier interface {
	SendApproval(ctx context.Context, text, requestID string) (int64, error)
	EditToTerminal(ctx context.Context, messageID int64, text string) error
	AnswerCallback(ctx context.Context, callbackQueryID string) error
	Notify(ctx context.Context, text string) error
}

// Dialogue owns the in-memory message_id→request_id map and the
// store-backed recovery path.
type Dialogue struct {
	notifier    Notifier
	coordinator Coordinator
	store       *capability.Store
	logger      *slog.Logger

	mu       sync.RWMutex
	messages map[int64]string // telegram message_id -> request_id
}

// New creates a Dialogue.
func New(notifier Notifier, coordinator Coordinator, store *capability.Store, logger *slog.Logger) *Dialogue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dialogue{
		notifier:    notifier,
		coordinator: coordinator,
		store:       store,
		logger:      logger.With("component", "approval"),
		messages:    make(map[int64]string),
	}
}

// Propose renders and sends the approval message, remembering the
// returned message_id against requestID.
func (d *Dialogue) Propose(ctx context.Context, requestID, text string) (int64, error) {
	messageID, err := d.notifier.SendApproval(ctx, text, requestID)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	d.messages[messageID] = requestID
	d.mu.Unlock()
	return messageID, nil
}

// RenderProposal formats the structured approval message: title+year,
// current/candidate capability blocks, reason, and target folder.
func RenderProposal(title string, year int, current, candidate, reason, targetFolder string) string {
	return fmt.Sprintf(
		"<b>%s (%d)</b>\n\nCurrent: %s\nCandidate: %s\n\nReason: %s\nTarget: <code>%s</code>",
		title, year, current, candidate, reason, targetFolder,
	)
}

var callbackPattern = regexp.MustCompile(`^dl_(yes|no)_(.+)$`)

// parseCallback parses a callback_data tag into (decision, requestID).
func parseCallback(data string) (Decision, string, bool) {
	m := callbackPattern.FindStringSubmatch(data)
	if m == nil {
		return "", "", false
	}
	if m[1] == "yes" {
		return DecisionApproved, m[2], true
	}
	return DecisionDeclined, m[2], true
}

// HandleCallback processes one inbound Telegram callback query:
// parses the tag, invokes the Coordinator, edits the original message
// to a terminal text, and acknowledges the callback. The request_id
// embedded in the tag is cross-checked against the message_id map
// (recovering it from the store first if this process just
// restarted); a mismatch is logged and a missing mapping is ignored.
// Neither blocks processing, since the tag itself is authoritative.
func (d *Dialogue) HandleCallback(ctx context.Context, callbackQueryID string, messageID int64, data string) error {
	decision, requestID, ok := parseCallback(data)
	if !ok {
		d.logger.Warn("unrecognized callback data", "data", data)
		return d.notifier.AnswerCallback(ctx, callbackQueryID)
	}

	if mapped, found := d.requestIDForMessage(messageID); found && mapped != requestID {
		d.logger.Warn("callback request_id does not match message_id mapping", "tag_request_id", requestID, "mapped_request_id", mapped)
	}

	status, reason, err := d.coordinator.HandleApproval(requestID, decision)
	if err != nil {
		d.logger.Error("handle_approval failed", "request_id", requestID, "error", err)
		_ = d.notifier.EditToTerminal(ctx, messageID, "Download Failed: "+err.Error())
		return d.notifier.AnswerCallback(ctx, callbackQueryID)
	}

	terminalText := terminalTextFor(status, reason)
	if err := d.notifier.EditToTerminal(ctx, messageID, terminalText); err != nil {
		d.logger.Error("edit message failed", "request_id", requestID, "error", err)
	}

	d.mu.Lock()
	delete(d.messages, messageID)
	d.mu.Unlock()

	return d.notifier.AnswerCallback(ctx, callbackQueryID)
}

func terminalTextFor(status, reason string) string {
	switch status {
	case "downloading":
		return "Download Started"
	case "declined":
		return "Skipped"
	case "pending":
		return "Download Failed: " + reason
	default:
		return status
	}
}

// Recover warms the in-memory message_id→request_id map from every
// active pending row at startup, so a restart does not force every
// inbound callback through the slower per-callback store lookup.
func (d *Dialogue) Recover() error {
	pendings, err := d.store.ListPending(capability.StatusPending)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range pendings {
		if p.TelegramMessageID != 0 {
			d.messages[p.TelegramMessageID] = p.RequestID
		}
	}
	return nil
}

// requestIDForMessage resolves a message_id to its request_id,
// falling back to the store when the in-memory map has been lost to
// a restart.
func (d *Dialogue) requestIDForMessage(messageID int64) (string, bool) {
	d.mu.RLock()
	requestID, ok := d.messages[messageID]
	d.mu.RUnlock()
	if ok {
		return requestID, true
	}

	if d.store == nil {
		return "", false
	}
	pending, err := d.store.GetPendingByTelegramMessage(messageID)
	if err != nil {
		return "", false
	}
	d.mu.Lock()
	d.messages[messageID] = pending.RequestID
	d.mu.Unlock()
	return pending.RequestID, true
}
