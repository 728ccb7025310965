package amqp

import "testing"

func TestBetSyncMessageRoundTrip(t *testing.T) {
	msg := NewBetSyncMessage(KindInsert, "abc-123", "alice")
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := BetSyncMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Kind != KindInsert || got.BetID != "abc-123" || got.Owner != "alice" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Fatalf("timestamp not carried")
	}
}

func TestBetSyncMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := BetSyncMessageFromJSON([]byte("not json")); err == nil {
		t.Fatalf("expected error")
	}
}
