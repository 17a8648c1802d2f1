package webhook

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"sentryrelay/internal"
)

func fullAlert() internal.Alert {
	return internal.Alert{
		ID:          "42",
		Project:     "api",
		Title:       "NullPointer in handler",
		Environment: "production",
		Level:       "error",
		Culprit:     "handlers.login",
		URL:         "https://sentry.io/issues/42",
		Platform:    "go",
	}
}

// TestBuildChatMessageContent tests that every present alert field appears in
// the text body.
func TestBuildChatMessageContent(t *testing.T) {
	msg := BuildChatMessage(fullAlert())

	for _, want := range []string{
		"*api: NullPointer in handler*",
		"*Environment*: production",
		"*Level*: error",
		"*Culprit*: handlers.login",
		"*ID*: 42",
		"*Platform*: go",
		"https://sentry.io/issues/42",
	} {
		if !strings.Contains(msg.Text, want) {
			t.Fatalf("expected text to contain %q, got:\n%s", want, msg.Text)
		}
	}

	if len(msg.CardsV2) != 1 {
		t.Fatalf("expected one card, got %d", len(msg.CardsV2))
	}
	card := msg.CardsV2[0]
	if card.CardID != "sentry-alert-42" {
		t.Fatalf("unexpected card id %q", card.CardID)
	}
	if card.Card.Header.Title != "api" || card.Card.Header.Subtitle != "NullPointer in handler" {
		t.Fatalf("unexpected card header %+v", card.Card.Header)
	}
}

// TestBuildChatMessageOmitsAbsentFields tests that fields missing from the
// alert never appear in the message.
func TestBuildChatMessageOmitsAbsentFields(t *testing.T) {
	alert := internal.Alert{
		Project:     "api",
		Title:       "boom",
		Environment: "production",
	}

	msg := BuildChatMessage(alert)

	for _, label := range []string{"*Level*", "*Culprit*", "*ID*", "*Platform*", "View in Sentry"} {
		if strings.Contains(msg.Text, label) {
			t.Fatalf("expected text to omit %q, got:\n%s", label, msg.Text)
		}
	}
	if msg.CardsV2[0].CardID != "sentry-alert" {
		t.Fatalf("expected fallback card id, got %q", msg.CardsV2[0].CardID)
	}
}

// TestBuildChatMessageIdempotent tests that the same alert marshals to
// byte-identical messages.
func TestBuildChatMessageIdempotent(t *testing.T) {
	first, err := json.Marshal(BuildChatMessage(fullAlert()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(BuildChatMessage(fullAlert()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("expected byte-identical messages")
	}
}
