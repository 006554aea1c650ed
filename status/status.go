package status

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	INFO = iota
	ERROR
	PROGRESS
)

const (
	writeWait  = 40 * time.Second
	pingPeriod = 30 * time.Second
)

type status struct {
	Message  string
	Time     time.Time
	Type     int
	Progress float32
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		unregisterClient(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[status] ws write msg error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[status] ws write ping error: %v", err)
				return
			}
		}
	}
}

// readPump drains control frames and notices a closed peer.
func (c *client) readPump() {
	defer unregisterClient(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// NewClient starts streaming status messages to conn, beginning with the
// latest one if any.
func NewClient(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, 32)}

	globalLock.Lock()
	broadcastList[c] = true
	if lastMessage != nil {
		c.send <- lastMessage
	}
	globalLock.Unlock()

	go c.writePump()
	go c.readPump()
	return c
}

var (
	statusBroadcast = make(chan *status, 16)
	broadcastList   = make(map[*client]bool)
	globalLock      sync.Mutex
	lastMessage     []byte
)

func unregisterClient(c *client) {
	globalLock.Lock()
	defer globalLock.Unlock()
	if broadcastList[c] {
		delete(broadcastList, c)
		close(c.send)
	}
}

func broadcast(data []byte) {
	globalLock.Lock()
	defer globalLock.Unlock()
	lastMessage = data
	for c := range broadcastList {
		select {
		case c.send <- data:
		default:
			// slow client, it will catch up with a later message
		}
	}
}

func init() {
	go func() {
		for s := range statusBroadcast {
			data, err := json.Marshal(s)
			if err != nil {
				log.Printf("[status] marshal error: %v", err)
				continue
			}
			broadcast(data)
		}
	}()
}

func Status(msg string, _type int, progress float32) {
	if math.IsNaN(float64(progress)) || math.IsInf(float64(progress), 0) {
		progress = 0
	}
	statusBroadcast <- &status{
		Message:  msg,
		Time:     time.Now(),
		Type:     _type,
		Progress: progress}
}

func Info(format string, a ...interface{}) {
	Status(fmt.Sprintf(format, a...), INFO, 0.0)
}

func Error(format string, a ...interface{}) {
	Status(fmt.Sprintf(format, a...), ERROR, 0.0)
}

func Progress(progress float32, format string, a ...interface{}) {
	Status(fmt.Sprintf(format, a...), PROGRESS, progress)
}
