package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aerocl/aerobot/internal/bot"
	"github.com/aerocl/aerobot/internal/channel"
	"github.com/aerocl/aerobot/internal/dispatch"
	"github.com/aerocl/aerobot/internal/logger"
	"github.com/aerocl/aerobot/internal/store"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Chatbot Aerocámaras (CLP) activo",
	})
}

// handleWebChat answers the site widget synchronously: the reply travels back
// in the response body.
func (s *Server) handleWebChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	msgs, err := s.web.Parse(body)
	if err != nil {
		http.Error(w, "invalid message", http.StatusBadRequest)
		return
	}
	if len(msgs) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"reply": ""})
		return
	}

	out, err := s.engine.Handle(r.Context(), msgs[0])
	if err != nil {
		if errors.Is(err, bot.ErrDuplicate) {
			writeJSON(w, http.StatusOK, map[string]string{"reply": ""})
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	payload, err := s.web.Format(out)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// handleMetaVerify answers Meta's GET subscription handshake.
func (s *Server) handleMetaVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == s.cfg.Meta.VerifyToken {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	http.Error(w, "verification failed", http.StatusForbidden)
}

// handleMetaWebhook acknowledges immediately and processes events in the
// background: WhatsApp and Instagram both retry aggressively on slow answers.
func (s *Server) handleMetaWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	msgs, err := s.meta.Parse(body)
	if err != nil {
		logger.Warn(r.Context(), "http", "meta.payload.invalid",
			slog.String("status", "dropped"),
			slog.String("err", err.Error()),
		)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	for _, in := range msgs {
		go s.process(in, s.meta)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTelegramWebhook checks the shared-secret header before anything else:
// a bad secret is rejected with no session mutation and no external calls.
func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	if expected := s.cfg.Telegram.SecretToken; expected != "" {
		if r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != expected {
			writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": "invalid secret token"})
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}
	msgs, err := s.tg.Parse(body)
	if err != nil {
		logger.Warn(r.Context(), "http", "telegram.payload.invalid",
			slog.String("status", "dropped"),
			slog.String("err", err.Error()),
		)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}
	for _, in := range msgs {
		go s.process(in, s.tg)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// process runs the engine for one inbound message and queues the reply for
// asynchronous delivery. Used by the webhook channels; webchat replies inline.
func (s *Server) process(in channel.Inbound, adapter channel.Adapter) {
	ctx := logger.Background()
	out, err := s.engine.Handle(ctx, in)
	if err != nil {
		if !errors.Is(err, bot.ErrDuplicate) {
			logger.Error(ctx, "http", "message.process",
				slog.String("status", "error"),
				slog.String("channel", in.Channel),
				slog.String("err", err.Error()),
			)
		}
		return
	}

	ctx = logger.WithMessageMeta(ctx, out.Channel, out.UserID)
	send := func() error { return adapter.Send(ctx, out) }
	if err := s.disp.Enqueue(ctx, out.Channel, "send.text", send); err != nil {
		if errors.Is(err, dispatch.ErrQueueFull) || errors.Is(err, dispatch.ErrQueueClosed) {
			logger.Warn(ctx, "http", "queue.fallback",
				slog.String("channel", out.Channel),
				slog.String("err", err.Error()),
			)
			if err := send(); err != nil {
				logger.Error(ctx, "http", "send.fail",
					slog.String("channel", out.Channel),
					slog.String("err", dispatch.SanitizeErrorMessage(err)),
				)
			}
		}
	}
}

func (s *Server) handleAdminOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order, err := s.orders.GetOrder(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleAdminLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.leads.ListLeads(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if leads == nil {
		leads = []store.Lead{}
	}
	writeJSON(w, http.StatusOK, leads)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
