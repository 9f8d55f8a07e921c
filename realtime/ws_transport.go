package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// HeaderFunc dipanggil ulang setiap dial, jadi token yang sudah expired tidak ikut dipakai saat reconnect.
type HeaderFunc func() (http.Header, error)

// WSTransport terhubung ke Hub.ServeWS milik proses lain.
type WSTransport struct {
	URL    string
	Header HeaderFunc
	Dialer *websocket.Dialer
}

func NewWSTransport(rawURL string, header HeaderFunc) *WSTransport {
	return &WSTransport{
		URL:    rawURL,
		Header: header,
		Dialer: websocket.DefaultDialer,
	}
}

func (t *WSTransport) Connect(ctx context.Context, channel string) (Conn, error) {
	u, err := url.Parse(t.URL)
	if err != nil {
		return nil, fmt.Errorf("parse relay url: %w", err)
	}
	q := u.Query()
	q.Set("channel", channel)
	u.RawQuery = q.Encode()

	var header http.Header
	if t.Header != nil {
		header, err = t.Header()
		if err != nil {
			return nil, fmt.Errorf("relay header: %w", err)
		}
	}

	ws, _, err := t.Dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}

	c := &wsConn{
		ws:     ws,
		frames: make(chan []byte, peerBufferSize),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

type wsConn struct {
	ws     *websocket.Conn
	frames chan []byte
	done   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (c *wsConn) readLoop() {
	defer close(c.frames)

	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPingHandler(func(data string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return c.ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			c.Close()
			return
		}
		select {
		case c.frames <- frame:
		case <-c.done:
			return
		}
	}
}

func (c *wsConn) Send(ctx context.Context, frame []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.ws.SetWriteDeadline(deadline)
	return c.ws.WriteMessage(websocket.BinaryMessage, frame)
}

func (c *wsConn) Frames() <-chan []byte {
	return c.frames
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}
