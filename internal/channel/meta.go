package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aerocl/aerobot/internal/config"
	"github.com/aerocl/aerobot/internal/dispatch"
	"github.com/aerocl/aerobot/internal/logger"
)

// MetaAdapter serves the shared Meta webhook: WhatsApp Cloud API events and
// Instagram messaging events arrive on the same route, are normalized to
// their own channel names, and replies go out through the Graph API.
type MetaAdapter struct {
	cfg    config.MetaConfig
	client *http.Client
	// graphBase is overridable in tests.
	graphBase string
}

func NewMetaAdapter(cfg config.MetaConfig, client *http.Client) *MetaAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &MetaAdapter{cfg: cfg, client: client, graphBase: "https://graph.facebook.com"}
}

func (a *MetaAdapter) Channel() string { return "meta" }

type metaEnvelope struct {
	Entry []struct {
		Changes []struct {
			Field string    `json:"field"`
			Value metaValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type metaValue struct {
	MessagingProduct string `json:"messaging_product"`
	Messages         []struct {
		ID   string `json:"id"`
		From string `json:"from"`
		Text struct {
			Body string `json:"body"`
		} `json:"text"`
	} `json:"messages"`
	Messaging []struct {
		Sender struct {
			ID string `json:"id"`
		} `json:"sender"`
		Message struct {
			MID  string `json:"mid"`
			Text string `json:"text"`
		} `json:"message"`
	} `json:"messaging"`
}

// Parse walks the entry/changes envelope and collects user text messages.
// Delivery receipts and status updates carry no messages and yield nothing.
func (a *MetaAdapter) Parse(raw []byte) ([]Inbound, error) {
	var env metaEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("channel: meta envelope: %w", err)
	}
	var out []Inbound
	for _, entry := range env.Entry {
		for _, change := range entry.Changes {
			v := change.Value
			if v.MessagingProduct == "whatsapp" {
				for _, m := range v.Messages {
					if m.From == "" || m.Text.Body == "" {
						continue
					}
					out = append(out, Inbound{
						Channel:   WhatsApp,
						UserID:    m.From,
						MessageID: m.ID,
						Text:      m.Text.Body,
					})
				}
				continue
			}
			for _, m := range v.Messaging {
				if m.Sender.ID == "" || m.Message.Text == "" {
					continue
				}
				out = append(out, Inbound{
					Channel:   Instagram,
					UserID:    m.Sender.ID,
					MessageID: m.Message.MID,
					Text:      m.Message.Text,
				})
			}
		}
	}
	return out, nil
}

// Format renders the Graph API send payload for the reply's channel.
func (a *MetaAdapter) Format(out Outbound) ([]byte, error) {
	switch out.Channel {
	case WhatsApp:
		return json.Marshal(map[string]any{
			"messaging_product": "whatsapp",
			"to":                out.UserID,
			"type":              "text",
			"text":              map[string]string{"body": out.Text},
		})
	case Instagram:
		return json.Marshal(map[string]any{
			"recipient": map[string]string{"id": out.UserID},
			"message":   map[string]string{"text": out.Text},
		})
	}
	return nil, fmt.Errorf("channel: meta cannot format %q", out.Channel)
}

// Send posts the reply to the Graph API. A missing access token downgrades to
// a logged no-op so local development works without Meta credentials.
func (a *MetaAdapter) Send(ctx context.Context, out Outbound) error {
	if a.cfg.AccessToken == "" {
		logger.Warn(ctx, "meta", "send.skipped",
			slog.String("status", "no_token"),
			slog.String("channel", out.Channel),
		)
		return nil
	}

	var url string
	switch out.Channel {
	case WhatsApp:
		if a.cfg.WAPhoneID == "" {
			return fmt.Errorf("channel: whatsapp phone id not configured")
		}
		url = fmt.Sprintf("%s/%s/%s/messages", a.graphBase, a.cfg.GraphVersion, a.cfg.WAPhoneID)
	case Instagram:
		url = fmt.Sprintf("%s/%s/me/messages", a.graphBase, a.cfg.GraphVersion)
	default:
		return fmt.Errorf("channel: meta cannot send to %q", out.Channel)
	}

	payload, err := a.Format(out)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("channel: meta request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("channel: meta send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &dispatch.StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return nil
}
