// Package comms pushes crawler status to websocket clients and accepts
// commands from them.
package comms

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/CodedInternet/gocrawler/internal/log"
	"github.com/gorilla/websocket"
)

const (
	STATUS_INTERVAL = 250 * time.Millisecond
	SEND_BUFFER     = 8
	WRITE_TIMEOUT   = time.Second
)

// Controller executes commands on behalf of the conductor.
type Controller interface {
	Dispatch(cmd Cmd) (code int, err error)
	StatusPayload() StatusPayload
}

type Client struct {
	conn *websocket.Conn
	send chan []byte
}

type Conductor struct {
	Device   Controller
	Interval time.Duration

	lock    sync.Mutex
	clients map[*Client]struct{}

	log *slog.Logger
}

func NewConductor(device Controller) *Conductor {
	return &Conductor{
		Device:   device,
		Interval: STATUS_INTERVAL,
		clients:  make(map[*Client]struct{}),
		log:      log.With("component", "conductor"),
	}
}

// ProcessCommand decodes one text frame and runs it on the device.
func (c *Conductor) ProcessCommand(msg []byte) Reply {
	var cmd Cmd
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return Reply{Error: "Invalid JSON body", Code: http.StatusBadRequest}
	}

	code, err := c.Device.Dispatch(cmd)
	if err != nil {
		return Reply{Error: err.Error(), Code: code}
	}
	return Reply{OK: true, Code: code}
}

// Serve owns conn until the client goes away. Every text frame is answered
// with a Reply; status pushes are interleaved by UpdateClients.
func (c *Conductor) Serve(conn *websocket.Conn) {
	client := &Client{conn: conn, send: make(chan []byte, SEND_BUFFER)}
	c.register(client)
	defer c.unregister(client)

	go client.writePump()

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("read failed", "err", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		reply, _ := json.Marshal(c.ProcessCommand(msg))
		if !c.deliver(client, reply) {
			return
		}
	}
}

// UpdateClients pushes the status payload to every client each Interval
// until ctx is cancelled.
func (c *Conductor) UpdateClients(ctx context.Context) {
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if c.Clients() == 0 {
			continue
		}

		msg, err := json.Marshal(c.Device.StatusPayload())
		if err != nil {
			c.log.Error("unable to encode status", "err", err)
			continue
		}
		c.Broadcast(msg)
	}
}

func (c *Conductor) Broadcast(msg []byte) {
	c.lock.Lock()
	clients := make([]*Client, 0, len(c.clients))
	for client := range c.clients {
		clients = append(clients, client)
	}
	c.lock.Unlock()

	for _, client := range clients {
		c.deliver(client, msg)
	}
}

func (c *Conductor) Clients() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.clients)
}

// deliver queues msg for client, dropping the client if it cannot keep up.
func (c *Conductor) deliver(client *Client, msg []byte) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if _, ok := c.clients[client]; !ok {
		return false
	}

	select {
	case client.send <- msg:
		return true
	default:
		c.log.Warn("dropping slow client", "remote", client.conn.RemoteAddr())
		c.remove(client)
		return false
	}
}

func (c *Conductor) register(client *Client) {
	c.lock.Lock()
	c.clients[client] = struct{}{}
	c.lock.Unlock()
	c.log.Info("client connected", "remote", client.conn.RemoteAddr())
}

func (c *Conductor) unregister(client *Client) {
	c.lock.Lock()
	c.remove(client)
	c.lock.Unlock()
}

// remove must be called with lock held.
func (c *Conductor) remove(client *Client) {
	if _, ok := c.clients[client]; !ok {
		return
	}
	delete(c.clients, client)
	close(client.send)
}

func (client *Client) writePump() {
	for msg := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
		if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			// closing the socket ends the read loop, which unregisters us
			client.conn.Close()
			for range client.send {
			}
			return
		}
	}
	client.conn.Close()
}
