package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// TelegramAdapter parses Telegram update envelopes and delivers replies
// through the bot API, attaching the state-specific reply keyboard.
type TelegramAdapter struct {
	bot *tele.Bot
}

func NewTelegramAdapter(bot *tele.Bot) *TelegramAdapter {
	return &TelegramAdapter{bot: bot}
}

func (a *TelegramAdapter) Channel() string { return Telegram }

// Parse extracts the user message from an update envelope. Updates without a
// text message (callbacks, service events) are dropped.
func (a *TelegramAdapter) Parse(raw []byte) ([]Inbound, error) {
	var u tele.Update
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("channel: telegram update: %w", err)
	}
	msg := u.Message
	if msg == nil {
		msg = u.EditedMessage
	}
	if msg == nil || msg.Text == "" || msg.Chat == nil {
		return nil, nil
	}
	return []Inbound{{
		Channel:   Telegram,
		UserID:    strconv.FormatInt(msg.Chat.ID, 10),
		MessageID: strconv.Itoa(u.ID),
		Text:      msg.Text,
	}}, nil
}

type telegramSendPayload struct {
	ChatID      string            `json:"chat_id"`
	Text        string            `json:"text"`
	ReplyMarkup *tele.ReplyMarkup `json:"reply_markup,omitempty"`
}

// Format renders the sendMessage payload for the reply.
func (a *TelegramAdapter) Format(out Outbound) ([]byte, error) {
	return json.Marshal(telegramSendPayload{
		ChatID:      out.UserID,
		Text:        out.Text,
		ReplyMarkup: StateKeyboard(out.State),
	})
}

// Send delivers the reply via the bot API.
func (a *TelegramAdapter) Send(ctx context.Context, out Outbound) error {
	if a.bot == nil {
		return errors.New("channel: telegram bot not configured")
	}
	chatID, err := strconv.ParseInt(out.UserID, 10, 64)
	if err != nil {
		return fmt.Errorf("channel: telegram chat id %q: %w", out.UserID, err)
	}
	opts := &tele.SendOptions{ReplyMarkup: StateKeyboard(out.State)}
	if _, err := a.bot.Send(tele.ChatID(chatID), out.Text, opts); err != nil {
		return fmt.Errorf("channel: telegram send: %w", err)
	}
	return nil
}
