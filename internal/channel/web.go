package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// WebAdapter serves the site chat widget. Replies travel back in the HTTP
// response, so Send has nothing to do.
type WebAdapter struct{}

func NewWebAdapter() *WebAdapter { return &WebAdapter{} }

func (WebAdapter) Channel() string { return Web }

type webMessage struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// Parse reads the widget's {"user_id", "text"} body.
func (WebAdapter) Parse(raw []byte) ([]Inbound, error) {
	var msg webMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("channel: web message: %w", err)
	}
	if strings.TrimSpace(msg.UserID) == "" {
		return nil, fmt.Errorf("channel: web message missing user_id")
	}
	if strings.TrimSpace(msg.Text) == "" {
		return nil, nil
	}
	return []Inbound{{Channel: Web, UserID: msg.UserID, Text: msg.Text}}, nil
}

// Format renders the widget response body.
func (WebAdapter) Format(out Outbound) ([]byte, error) {
	return json.Marshal(map[string]string{"reply": out.Text})
}

// Send is a no-op: the web reply is written synchronously by the HTTP handler.
func (WebAdapter) Send(context.Context, Outbound) error { return nil }
