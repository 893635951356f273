// Package server is the webhook front door: it authenticates inbound
// requests, hands payloads to the right channel adapter, and returns the
// acknowledgment each provider expects.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aerocl/aerobot/internal/bot"
	"github.com/aerocl/aerobot/internal/channel"
	"github.com/aerocl/aerobot/internal/config"
	"github.com/aerocl/aerobot/internal/dispatch"
	"github.com/aerocl/aerobot/internal/store"
)

// Server wires the HTTP surface to the engine and the channel adapters.
type Server struct {
	cfg    *config.Config
	engine *bot.Engine
	disp   *dispatch.Dispatcher
	tg     *channel.TelegramAdapter
	meta   *channel.MetaAdapter
	web    *channel.WebAdapter
	orders store.OrderStore
	leads  store.LeadStore
}

func New(
	cfg *config.Config,
	engine *bot.Engine,
	disp *dispatch.Dispatcher,
	tg *channel.TelegramAdapter,
	meta *channel.MetaAdapter,
	web *channel.WebAdapter,
	orders store.OrderStore,
	leads store.LeadStore,
) *Server {
	return &Server{
		cfg:    cfg,
		engine: engine,
		disp:   disp,
		tg:     tg,
		meta:   meta,
		web:    web,
		orders: orders,
		leads:  leads,
	}
}

// Router builds the chi router with the full route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.recoverMiddleware)
	r.Use(s.logMiddleware)

	r.Get("/", s.handleHealth)
	r.Post("/webchat/send", s.handleWebChat)
	r.Get("/meta/webhook", s.handleMetaVerify)
	r.Post("/meta/webhook", s.handleMetaWebhook)
	r.Post("/telegram/webhook", s.handleTelegramWebhook)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.adminAuth)
		r.Get("/orders/{id}", s.handleAdminOrder)
		r.Get("/leads", s.handleAdminLeads)
	})

	return r
}

// HTTPServer returns the configured http.Server for the router.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.App.Listen, s.cfg.App.Port),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
