// Package channel normalizes provider payloads into one internal message
// shape and formats replies back into each provider's send format.
package channel

import (
	"context"

	"github.com/aerocl/aerobot/internal/funnel"
)

// Channel identifiers as stored on sessions, leads and orders.
const (
	Telegram  = "telegram"
	WhatsApp  = "whatsapp"
	Instagram = "instagram"
	Web       = "web"
)

// Inbound is a normalized incoming user message. MessageID is the provider's
// delivery identifier, used to drop duplicate webhook deliveries; it may be
// empty for channels without one.
type Inbound struct {
	Channel   string
	UserID    string
	MessageID string
	Text      string
}

// Outbound is a reply ready for delivery. State drives presentation concerns
// (the Telegram reply keyboard); the text itself is channel-agnostic.
type Outbound struct {
	Channel string
	UserID  string
	Text    string
	State   funnel.State
}

// Adapter translates between one provider surface and the internal shapes.
type Adapter interface {
	// Channel names the surface this adapter serves.
	Channel() string
	// Parse extracts user messages from a raw webhook payload. Payloads that
	// carry no user text (delivery receipts, status events) yield an empty
	// slice and no error.
	Parse(raw []byte) ([]Inbound, error)
	// Format renders the provider send payload for a reply.
	Format(out Outbound) ([]byte, error)
	// Send delivers the reply through the provider API.
	Send(ctx context.Context, out Outbound) error
}
