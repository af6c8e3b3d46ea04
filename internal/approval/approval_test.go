package approval

import (
	"context"
	"testing"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data     string
		decision Decision
		reqID    string
		ok       bool
	}{
		{"dl_yes_abc123", DecisionApproved, "abc123", true},
		{"dl_no_abc123", DecisionDeclined, "abc123", true},
		{"dl_yes_", "", "", false},
		{"garbage", "", "", false},
	}

	for _, tt := range tests {
		decision, reqID, ok := parseCallback(tt.data)
		if ok != tt.ok {
			t.Fatalf("parseCallback(%q) ok = %v, want %v", tt.data, ok, tt.ok)
		}
		if !ok {
			continue
		}
		if decision != tt.decision || reqID != tt.reqID {
			t.Errorf("parseCallback(%q) = (%v, %v), want (%v, %v)", tt.data, decision, reqID, tt.decision, tt.reqID)
		}
	}
}

type fakeCoordinator struct {
	status string
	reason string
	err    error
}

func (f *fakeCoordinator) HandleApproval(requestID string, decision Decision) (string, string, error) {
	return f.status, f.reason, f.err
}

type fakeNotifier struct {
	sentApprovals []string
	editedTexts   []string
	acked         bool
}

func (f *fakeNotifier) SendApproval(ctx context.Context, text, requestID string) (int64, error) {
	f.sentApprovals = append(f.sentApprovals, requestID)
	return 1, nil
}

func (f *fakeNotifier) EditToTerminal(ctx context.Context, messageID int64, text string) error {
	f.editedTexts = append(f.editedTexts, text)
	return nil
}

func (f *fakeNotifier) AnswerCallback(ctx context.Context, callbackQueryID string) error {
	f.acked = true
	return nil
}

func (f *fakeNotifier) Notify(ctx context.Context, text string) error { return nil }

func TestDialogue_HandleCallback_Approved(t *testing.T) {
	notifier := &fakeNotifier{}
	coord := &fakeCoordinator{status: "downloading"}
	d := New(notifier, coord, nil, nil)

	if err := d.HandleCallback(context.Background(), "cb1", 55, "dl_yes_req1"); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if len(notifier.editedTexts) != 1 || notifier.editedTexts[0] != "Download Started" {
		t.Errorf("editedTexts = %v", notifier.editedTexts)
	}
	if !notifier.acked {
		t.Error("expected callback to be acknowledged")
	}
}

func TestDialogue_HandleCallback_Declined(t *testing.T) {
	notifier := &fakeNotifier{}
	coord := &fakeCoordinator{status: "declined"}
	d := New(notifier, coord, nil, nil)

	if err := d.HandleCallback(context.Background(), "cb1", 55, "dl_no_req1"); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if len(notifier.editedTexts) != 1 || notifier.editedTexts[0] != "Skipped" {
		t.Errorf("editedTexts = %v", notifier.editedTexts)
	}
}

func TestDialogue_HandleCallback_UnrecognizedData(t *testing.T) {
	notifier := &fakeNotifier{}
	coord := &fakeCoordinator{}
	d := New(notifier, coord, nil, nil)

	if err := d.HandleCallback(context.Background(), "cb1", 55, "not-a-tag"); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if !notifier.acked {
		t.Error("unrecognized callback must still be acknowledged")
	}
	if len(notifier.editedTexts) != 0 {
		t.Error("unrecognized callback must not edit any message")
	}
}
