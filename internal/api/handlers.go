/*
Package api
File: handlers.go
Description:
    Contains the HTTP handlers for the bakery REST API and the dispatcher
    for inbound WebSocket messages.

    Key Responsibilities:
    - Render contract: current snapshot on demand, and pushed to the Hub on every sale
    - Input contract: one tap records one sale
    - Sharing side-channel: format the summary and hand it to the Hub
*/

package api

import (
	"context"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/everforgeworks/dessert-clicker/internal/game"
)

// Server wires one Engine to one Hub.
type Server struct {
	engine    *game.Engine
	hub       *Hub
	shareText string
}

// NewServer subscribes the hub to the engine and registers itself as the
// hub's dispatcher. The returned cancel func detaches the engine subscription.
func NewServer(engine *game.Engine, hub *Hub, shareText string) (*Server, func()) {
	s := &Server{engine: engine, hub: hub, shareText: shareText}
	hub.SetDispatcher(s)

	cancel := engine.Subscribe(func(snap game.Snapshot) {
		if err := hub.Publish(Message{Type: MsgSalesUpdate, Payload: snap}); err != nil {
			log.WithError(err).Debug("Snapshot not pushed")
		}
	})
	return s, cancel
}

// Routes builds the HTTP handler tree.
func (s *Server) Routes(allowedOrigin string) http.Handler {
	mux := http.NewServeMux()

	// Information Endpoints
	mux.HandleFunc("GET /healthz", s.HandleHealthz)
	mux.HandleFunc("GET /api/catalog", s.HandleGetCatalog)
	mux.HandleFunc("GET /api/state", s.HandleGetState)

	// Action Endpoints
	mux.HandleFunc("POST /api/sale", s.HandleRecordSale)
	mux.HandleFunc("POST /api/share", s.HandleShare)

	// Real-Time WebSocket Endpoint
	mux.HandleFunc("GET /ws", s.hub.ServeWs)

	return loggingMiddleware(corsMiddleware(allowedOrigin, mux))
}

// HandleHealthz reports liveness.
func (s *Server) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// HandleGetCatalog returns the static list of desserts.
func (s *Server) HandleGetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Catalog().Items())
}

// HandleGetState returns the current sales snapshot.
func (s *Server) HandleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

// HandleRecordSale is the "user tapped the dessert" callback.
func (s *Server) HandleRecordSale(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.RecordSale())
}

// HandleShare formats the sales summary and offers it to connected renderers.
// A missing share handler still answers 200, with a notice for the user.
func (s *Server) HandleShare(w http.ResponseWriter, r *http.Request) {
	res, err := game.Share(r.Context(), s.hub, s.shareText, s.engine.Snapshot())
	if err != nil {
		log.WithError(err).Error("Share failed")
		http.Error(w, "Share failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Connected greets a new renderer with the current snapshot.
func (s *Server) Connected(c *Client) {
	var err error
	s.engine.Republish(func(snap game.Snapshot) {
		err = s.hub.SendTo(c, Message{Type: MsgSalesUpdate, Payload: snap})
	})
	if err != nil {
		log.WithError(err).WithField("client", c.ID).Debug("Greeting not sent")
	}
}

// Received handles one inbound WebSocket message.
func (s *Server) Received(c *Client, msg Message) {
	switch msg.Type {
	case MsgTap:
		s.engine.RecordSale()

	case MsgShare:
		res, err := game.Share(context.Background(), s.hub.Sharer(c), s.shareText, s.engine.Snapshot())
		if err != nil {
			log.WithError(err).WithField("client", c.ID).Error("Share failed")
			res.Notice = game.ShareUnavailableNotice
		}
		if err := s.hub.SendTo(c, Message{Type: MsgShareResult, Payload: res}); err != nil {
			log.WithError(err).WithField("client", c.ID).Debug("Share result not sent")
		}

	default:
		log.WithFields(log.Fields{"client": c.ID, "type": msg.Type}).Warn("WS: Unknown message type")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Response encode failed")
	}
}
