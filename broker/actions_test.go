package broker

import (
	"errors"
	"testing"
)

func TestContact(t *testing.T) {
	o := DemoOverview()
	cases := map[string]Message{
		ContactCall:  {Title: "📞 Calling Robert Turner...", Description: "Phone: +1 (555) 123-4567 • Initiating VoIP call"},
		ContactEmail: {Title: "📧 Opening email to Robert Turner...", Description: "Email: robert.turner@broker.com • Opening email client"},
		ContactChat:  {Title: "💬 Starting chat with Robert Turner...", Description: "Opening integrated messaging platform"},
	}
	for method, want := range cases {
		got, err := Contact(o, method)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", method, err)
		}
		if got != want {
			t.Fatalf("%s: got %+v want %+v", method, got, want)
		}
	}

	if _, err := Contact(o, "fax"); !errors.Is(err, ErrUnknownContactMethod) {
		t.Fatalf("expected ErrUnknownContactMethod, got %v", err)
	}
}

func TestToggleAssistant(t *testing.T) {
	if got := ToggleAssistant(true); got.Title != "🤖 AI Assistant activated!" {
		t.Fatalf("unexpected enable message %+v", got)
	}
	if got := ToggleAssistant(false); got.Description != "Manual processing mode enabled" {
		t.Fatalf("unexpected disable message %+v", got)
	}
}

func TestDemoWorkflowSteps(t *testing.T) {
	steps := DemoWorkflowSteps()
	if len(steps) != 7 || steps[0] != "Deal Intake" || steps[6] != "Funder Syndication" {
		t.Fatalf("unexpected workflow %v", steps)
	}
}
