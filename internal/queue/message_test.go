package queue

import (
	"testing"
)

func TestDecodeMessage(t *testing.T) {
	msg := Message{
		RecipientIDs: []string{"owner-1", "owner-2"},
		Title:        "New application awaiting interview",
		Body:         "Application #12 has all required documents.",
		EnqueuedAt:   "2026-01-30T22:00:00Z",
		Version:      MessageVersion,
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}

	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if len(got.RecipientIDs) != 2 || got.Title != msg.Title {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestDecodeMessageRejectsUnknownVersion(t *testing.T) {
	if _, err := DecodeMessage([]byte(`{"recipientIds":["a"],"version":7}`)); err == nil {
		t.Fatalf("expected version error")
	}
	if _, err := DecodeMessage([]byte(`{"recipientIds":[],"version":1}`)); err == nil {
		t.Fatalf("expected recipients error")
	}
}
