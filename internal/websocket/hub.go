package monitorws

import (
	"encoding/json"
	"log"

	websocket "github.com/gofiber/contrib/websocket"

	"github.com/gfreitas-a/ClinicRoomBack/internal/models"
)

// Hub fans live room snapshots out to connected dashboards. A client may
// subscribe to a single room; everyone else receives the full picture.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *models.Snapshot
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	roomID string
	send   chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *models.Snapshot, 8),
	}
}

// NewClient wires a connection into the hub. roomID narrows the feed to one
// room; empty means every room.
func NewClient(hub *Hub, conn *websocket.Conn, roomID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		roomID: roomID,
		send:   make(chan []byte, 8),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case snapshot := <-h.broadcast:
			h.deliver(snapshot)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastSnapshot hands a finished refresh cycle to the hub loop.
func (h *Hub) BroadcastSnapshot(snapshot *models.Snapshot) {
	h.broadcast <- snapshot
}

func (h *Hub) deliver(snapshot *models.Snapshot) {
	full, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("monitor hub encode snapshot: %v", err)
		return
	}

	filtered := make(map[string][]byte)
	for client := range h.clients {
		payload := full
		if client.roomID != "" {
			cached, ok := filtered[client.roomID]
			if !ok {
				cached, err = json.Marshal(filterSnapshot(snapshot, client.roomID))
				if err != nil {
					log.Printf("monitor hub encode snapshot: %v", err)
					continue
				}
				filtered[client.roomID] = cached
			}
			payload = cached
		}

		select {
		case client.send <- payload:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func filterSnapshot(snapshot *models.Snapshot, roomID string) *models.Snapshot {
	out := &models.Snapshot{
		GeneratedAt: snapshot.GeneratedAt,
		Rooms:       make([]models.RoomState, 0, 1),
		Alerts:      make([]models.OverdueAlert, 0),
	}
	for _, room := range snapshot.Rooms {
		if room.RoomID.String() == roomID {
			out.Rooms = append(out.Rooms, room)
		}
	}
	for _, alert := range snapshot.Alerts {
		if alert.RoomID.String() == roomID {
			out.Alerts = append(out.Alerts, alert)
		}
	}
	return out
}

// ReadPump drains the connection until it closes. Dashboards only listen;
// inbound frames are ignored apart from keeping the connection alive.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
