package websocket

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/arcade/internal/entity"
)

const sendBufferSize = 16

type client struct {
	tableID string
	send    chan []byte
}

func newClient(tableID string) *client {
	return &client{
		tableID: tableID,
		send:    make(chan []byte, sendBufferSize),
	}
}

// Hub fans table snapshots out to the connections watching each table.
type Hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]map[*client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "hub"),
		clients: make(map[string]map[*client]struct{}),
	}
}

// Publish pushes table to every subscriber of its table. It never blocks: a client whose
// buffer is full is dropped and its connection closed by the writer.
func (that *Hub) Publish(table *entity.TableState) {
	log := that.logger.With("method", "Publish", "tableID", table.ID)

	data, err := encodeMessage(actionTableState, Payload{Table: table})
	if err != nil {
		log.Error("failed to encode table", "error", err)
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	for c := range that.clients[table.ID] {
		if !that.enqueueLocked(c, data) {
			log.Warn("slow client dropped")
		}
	}
}

// Close disconnects every client.
func (that *Hub) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, set := range that.clients {
		for c := range set {
			that.removeLocked(c)
		}
	}
}

func (that *Hub) subscribe(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	set, ok := that.clients[c.tableID]
	if !ok {
		set = make(map[*client]struct{})
		that.clients[c.tableID] = set
	}

	set[c] = struct{}{}
}

func (that *Hub) unsubscribe(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.removeLocked(c)
}

// send queues data for one client. It reports false when the client is gone.
func (that *Hub) send(c *client, data []byte) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.clients[c.tableID][c]; !ok {
		return false
	}

	return that.enqueueLocked(c, data)
}

func (that *Hub) subscribers(tableID string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.clients[tableID])
}

func (that *Hub) enqueueLocked(c *client, data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		that.removeLocked(c)
		return false
	}
}

func (that *Hub) removeLocked(c *client) {
	set, ok := that.clients[c.tableID]
	if !ok {
		return
	}

	if _, ok = set[c]; !ok {
		return
	}

	delete(set, c)
	close(c.send)

	if len(set) == 0 {
		delete(that.clients, c.tableID)
	}
}
