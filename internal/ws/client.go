package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/lib/logger/sl"
	"golang.org/x/time/rate"
)

// Conn is the part of *websocket.Conn the client needs.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

type Options struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	SendBuffer     int
	RatePerSecond  float64
	Burst          int
}

func DefaultOptions() Options {
	return Options{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     64,
		RatePerSecond:  5,
		Burst:          10,
	}
}

// Client pumps one websocket connection. It implements Channel.
type Client struct {
	conn      Conn
	opts      Options
	log       *slog.Logger
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	limiter   *rate.Limiter
}

func NewClient(conn Conn, opts Options, log *slog.Logger) *Client {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultOptions().SendBuffer
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	return &Client{
		conn:    conn,
		opts:    opts,
		log:     log,
		send:    make(chan []byte, opts.SendBuffer),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(limit, max(opts.Burst, 1)),
	}
}

// Send queues msg without blocking.
func (c *Client) Send(msg []byte) error {
	select {
	case <-c.done:
		return domain.ErrChannelClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return domain.ErrChannelClosed
	default:
		return domain.ErrSendBufferFull
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ReadLoop delivers inbound frames to handle until the connection fails.
// Frames over the rate limit go to limited instead.
func (c *Client) ReadLoop(handle func(raw []byte), limited func()) {
	defer c.Close()

	if c.opts.MaxMessageSize > 0 {
		c.conn.SetReadLimit(c.opts.MaxMessageSize)
	}
	if c.opts.PongWait > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		})
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket read failed", sl.Err(err))
			}
			return
		}
		if !c.limiter.Allow() {
			if limited != nil {
				limited()
			}
			continue
		}
		handle(raw)
	}
}

// WritePump drains the send queue and keeps the connection alive with pings.
func (c *Client) WritePump() {
	period := c.opts.PingPeriod
	if period <= 0 {
		period = DefaultOptions().PingPeriod
	}
	ticker := time.NewTicker(period)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) write(kind int, data []byte) error {
	if c.opts.WriteWait > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
	}
	return c.conn.WriteMessage(kind, data)
}
