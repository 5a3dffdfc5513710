package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	ws "github.com/gorilla/websocket"

	"github.com/rocketscienceinc/arcade/internal/apperror"
	"github.com/rocketscienceinc/arcade/internal/entity"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
)

type tableUseCase interface {
	GetTable(ctx context.Context, id string) (*entity.TableState, error)
	SubmitMove(ctx context.Context, id string, move int) (*entity.TableState, error)
	RequestReset(ctx context.Context, id string) (*entity.TableState, error)
	RequestScoreReset(ctx context.Context, id string) (*entity.TableState, error)
}

type Server struct {
	logger   *slog.Logger
	hub      *Hub
	tables   tableUseCase
	upgrader ws.Upgrader

	handlers map[string]func(ctx context.Context, c *client, message *Message) error
}

func New(logger *slog.Logger, hub *Hub, tables tableUseCase, allowedOrigins []string) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		hub:    hub,
		tables: tables,
		upgrader: ws.Upgrader{
			HandshakeTimeout: writeWait,
			CheckOrigin:      checkOrigin(allowedOrigins),
		},

		handlers: make(map[string]func(context.Context, *client, *Message) error),
	}

	server.handlers[actionTableState] = server.handleTableState
	server.handlers[actionGameTurn] = server.handleGameTurn
	server.handlers[actionGameReset] = server.handleGameReset
	server.handlers[actionScoresReset] = server.handleScoresReset

	return server
}

// ServeTable upgrades the request and streams the table named in the path until the
// client goes away.
func (that *Server) ServeTable(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")
	log := that.logger.With("method", "ServeTable", "tableID", tableID)

	if _, err := that.tables.GetTable(r.Context(), tableID); err != nil {
		if errors.Is(err, apperror.ErrTableNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		log.Error("failed to get table", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(tableID)
	that.hub.subscribe(c)

	go that.writePump(conn, c)

	log.Info("WebSocket connection established")

	// Read after subscribing so no published snapshot is newer than the first one sent.
	if err = that.handleTableState(r.Context(), c, &Message{Action: actionTableState}); err != nil {
		log.Error("failed to send table", "error", err)
	}

	that.readPump(r.Context(), conn, c)

	that.hub.unsubscribe(c)

	log.Info("WebSocket connection closed")
}

func (that *Server) readPump(ctx context.Context, conn *ws.Conn, c *client) {
	log := that.logger.With("method", "readPump", "tableID", c.tableID)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.replyError(c, message.Action, "unknown action")
			continue
		}

		if err = handler(ctx, c, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// writePump is the only writer of conn. It exits once the hub closes the client's queue.
func (that *Server) writePump(conn *ws.Conn, c *client) {
	log := that.logger.With("method", "writePump", "tableID", c.tableID)

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(ws.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(ws.TextMessage, data); err != nil {
				log.Debug("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(ws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (that *Server) reply(c *client, action string, payload Payload) error {
	data, err := encodeMessage(action, payload)
	if err != nil {
		return err
	}

	if !that.hub.send(c, data) {
		that.logger.Debug("client gone before reply", "tableID", c.tableID, "action", action)
	}

	return nil
}

func (that *Server) replyError(c *client, action, message string) {
	if err := that.reply(c, action, Payload{Error: message}); err != nil {
		that.logger.Error("failed to send error response", "error", err)
	}
}

func checkOrigin(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, "*") {
			return true
		}

		return slices.Contains(allowedOrigins, origin)
	}
}
