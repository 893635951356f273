package channel

import (
	"encoding/json"
	"testing"
)

func TestWebParse(t *testing.T) {
	a := NewWebAdapter()

	msgs, err := a.Parse([]byte(`{"user_id": "visitor-7", "text": "Hola"}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if in := msgs[0]; in.Channel != Web || in.UserID != "visitor-7" || in.Text != "Hola" {
		t.Errorf("inbound = %+v", in)
	}

	if _, err := a.Parse([]byte(`{"text": "sin usuario"}`)); err == nil {
		t.Error("missing user_id must error")
	}
	msgs, err = a.Parse([]byte(`{"user_id": "visitor-7", "text": "  "}`))
	if err != nil || len(msgs) != 0 {
		t.Errorf("blank text should be dropped, got %v %v", msgs, err)
	}
}

func TestWebRoundTrip(t *testing.T) {
	a := NewWebAdapter()

	msgs, err := a.Parse([]byte(`{"user_id": "visitor-7", "text": "¿precio?"}`))
	if err != nil {
		t.Fatal(err)
	}
	in := msgs[0]
	payload, err := a.Format(Outbound{Channel: in.Channel, UserID: in.UserID, Text: in.Text})
	if err != nil {
		t.Fatal(err)
	}
	var resp map[string]string
	if err := json.Unmarshal(payload, &resp); err != nil {
		t.Fatal(err)
	}
	if resp["reply"] != in.Text {
		t.Errorf("reply = %q, want %q", resp["reply"], in.Text)
	}
}
