package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"

	"github.com/tmalloy/chatrelay/internal/auth"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 256
)

// Client is one live session: a websocket connection authenticated to
// exactly one user. It is owned by the hub from Register to
// Deregister; the read pump dispatches inbound events and the write
// pump drains the send buffer.
type Client struct {
	sid       string
	conn      *websocket.Conn
	hub       *Hub
	log       *log.Logger
	user      auth.Identity
	send      chan *ServerEvent
	rooms     map[string]struct{}
	roomsLock sync.RWMutex
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewClient(user auth.Identity, conn *websocket.Conn, hub *Hub, l *log.Logger) (*Client, error) {
	sid, err := shortid.Generate()
	if err != nil {
		return nil, err
	}

	return &Client{
		sid:   sid,
		conn:  conn,
		hub:   hub,
		log:   l,
		user:  user,
		send:  make(chan *ServerEvent, sendBufferSize),
		rooms: make(map[string]struct{}),
		stop:  make(chan struct{}),
	}, nil
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(ev)
			if err != nil {
				c.log.Println("failed to serialize event:", err)
				continue
			}

			if !c.writeFrame(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.writeFrame(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var ev ClientEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Println("error parsing event:", err)
			c.queueEvent(newErrorEvent("invalid event format"))
			continue
		}

		c.dispatch(context.Background(), &ev)
	}
}

// queueEvent enqueues ev for the write pump without blocking. A full
// buffer drops the frame for this session only.
func (c *Client) queueEvent(ev *ServerEvent) bool {
	select {
	case c.send <- ev:
	default:
		c.log.Printf("send buffer full for session %s, dropping %s", c.sid, ev.Kind)
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Client) cleanup() {
	c.hub.Deregister(context.Background(), c)
	c.stopClient()
}

func (c *Client) addRoom(roomId string) {
	c.roomsLock.Lock()
	defer c.roomsLock.Unlock()

	c.rooms[roomId] = struct{}{}
}

func (c *Client) delRoom(roomId string) {
	c.roomsLock.Lock()
	defer c.roomsLock.Unlock()

	delete(c.rooms, roomId)
}

func (c *Client) inRoom(roomId string) bool {
	c.roomsLock.RLock()
	defer c.roomsLock.RUnlock()

	_, ok := c.rooms[roomId]
	return ok
}

func (c *Client) writeFrame(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write frame: %s", err)
		}
		return false
	}

	return true
}
