package realtime

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 4096
	peerBufferSize = 16
)

var ErrHubClosed = errors.New("realtime: hub closed")

// peer satu peserta channel (fabric lokal atau koneksi websocket relay)
type peer struct {
	id      string
	channel string
	send    chan []byte
	done    chan struct{}
}

// Hub menampung semua peserta per channel dan menyiarkan frame ke semuanya,
// termasuk pengirim frame itu sendiri.
type Hub struct {
	channels map[string]map[*peer]struct{}
	closed   bool
	mutex    sync.Mutex
	log      *logrus.Logger

	upgrader websocket.Upgrader
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[*peer]struct{}),
		log:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // relay dilindungi token, bukan origin
			},
		},
	}
}

// register -> menambahkan peer ke channel
func (h *Hub) register(channel string) (*peer, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	p := &peer{
		id:      uuid.NewString(),
		channel: channel,
		send:    make(chan []byte, peerBufferSize),
		done:    make(chan struct{}),
	}
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*peer]struct{})
	}
	h.channels[channel][p] = struct{}{}

	h.log.WithFields(logrus.Fields{"channel": channel, "peer": p.id}).Debug("Peer joined")
	return p, nil
}

// unregister -> melepaskan peer; aman dipanggil berkali-kali
func (h *Hub) unregister(p *peer) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(p)
}

func (h *Hub) removeLocked(p *peer) {
	peers, ok := h.channels[p.channel]
	if !ok {
		return
	}
	if _, ok := peers[p]; !ok {
		return
	}
	delete(peers, p)
	if len(peers) == 0 {
		delete(h.channels, p.channel)
	}
	// send hanya ditulis di bawah mutex, jadi aman ditutup di sini
	close(p.send)
	close(p.done)

	h.log.WithFields(logrus.Fields{"channel": p.channel, "peer": p.id}).Debug("Peer left")
}

// Broadcast mengirim frame ke semua peer di channel. Antrian peer yang penuh
// sudah berisi sinyal yang belum diproses, jadi frame tambahan cukup dilewati.
func (h *Hub) Broadcast(channel string, frame []byte) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	delivered := 0
	for p := range h.channels[channel] {
		select {
		case p.send <- frame:
			delivered++
		default:
			h.log.WithFields(logrus.Fields{"channel": channel, "peer": p.id}).Debug("Peer queue full, coalescing frame")
		}
	}
	return delivered
}

func (h *Hub) PeerCount(channel string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.channels[channel])
}

// Close memutus semua peer dan menolak peer baru.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.closed = true
	for _, peers := range h.channels {
		for p := range peers {
			h.removeLocked(p)
		}
	}
}

// LocalTransport menghubungkan fabric di proses yang sama langsung ke hub.
func (h *Hub) LocalTransport() Transport {
	return localTransport{hub: h}
}

type localTransport struct {
	hub *Hub
}

func (t localTransport) Connect(ctx context.Context, channel string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := t.hub.register(channel)
	if err != nil {
		return nil, err
	}
	return &localConn{hub: t.hub, peer: p}, nil
}

type localConn struct {
	hub  *Hub
	peer *peer
}

func (c *localConn) Send(ctx context.Context, frame []byte) error {
	select {
	case <-c.peer.done:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	c.hub.Broadcast(c.peer.channel, frame)
	return nil
}

func (c *localConn) Frames() <-chan []byte {
	return c.peer.send
}

func (c *localConn) Close() error {
	c.hub.unregister(c.peer)
	return nil
}

// ServeWS -> endpoint relay websocket untuk replika lain (?channel=...)
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		channel = DefaultChannel
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	p, err := h.register(channel)
	if err != nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub closed"), time.Now().Add(writeWait))
		ws.Close()
		return
	}

	go h.writePump(ws, p)
	h.readPump(ws, p)
}

// readPump: setiap frame dari client disiarkan ke seluruh channel
func (h *Hub) readPump(ws *websocket.Conn, p *peer) {
	defer func() {
		h.unregister(p)
		ws.Close()
	}()

	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).WithField("peer", p.id).Warn("Relay peer read error")
			}
			return
		}
		h.Broadcast(p.channel, frame)
	}
}

func (h *Hub) writePump(ws *websocket.Conn, p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case frame, ok := <-p.send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				h.log.WithError(err).WithField("peer", p.id).Warn("Relay peer write error")
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
