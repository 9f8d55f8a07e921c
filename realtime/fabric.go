package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/kasir-app/apperrors"
)

type Option func(*Fabric)

func WithCodec(codec Codec) Option {
	return func(f *Fabric) { f.codec = codec }
}

func WithChannel(channel string) Option {
	return func(f *Fabric) {
		if channel != "" {
			f.channel = channel
		}
	}
}

func WithConnectTimeout(d time.Duration) Option {
	return func(f *Fabric) {
		if d > 0 {
			f.connectTimeout = d
		}
	}
}

// WithBackoff mengatur jeda reconnect (dobel tiap gagal, dibatasi max).
func WithBackoff(initial, limit time.Duration) Option {
	return func(f *Fabric) {
		if initial > 0 {
			f.minBackoff = initial
		}
		if limit >= f.minBackoff {
			f.maxBackoff = limit
		}
	}
}

// Fabric satu koneksi notifikasi per proses. Dibuat sekali saat startup dan
// di-inject ke service dan view model.
type Fabric struct {
	transport Transport
	codec     Codec
	channel   string
	source    string
	log       *logrus.Logger

	connectTimeout time.Duration
	minBackoff     time.Duration
	maxBackoff     time.Duration

	mu        sync.Mutex
	state     State
	conn      Conn
	connected chan struct{}
	listeners map[uint64]Listener
	nextID    uint64

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewFabric langsung mulai connect di background.
func NewFabric(transport Transport, logger *logrus.Logger, opts ...Option) *Fabric {
	f := &Fabric{
		transport:      transport,
		codec:          JSONCodec{},
		channel:        DefaultChannel,
		source:         uuid.NewString(),
		log:            logger,
		connectTimeout: 10 * time.Second,
		minBackoff:     500 * time.Millisecond,
		maxBackoff:     30 * time.Second,
		state:          StateConnecting,
		connected:      make(chan struct{}),
		listeners:      make(map[uint64]Listener),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.ctx, f.cancel = context.WithCancel(context.Background())

	go f.run()
	return f
}

func (f *Fabric) Source() string {
	return f.source
}

func (f *Fabric) Channel() string {
	return f.channel
}

func (f *Fabric) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// WaitConnected menunggu sampai state Connected atau ctx habis.
func (f *Fabric) WaitConnected(ctx context.Context) error {
	for {
		f.mu.Lock()
		if f.state == StateConnected {
			f.mu.Unlock()
			return nil
		}
		ready := f.connected
		f.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return apperrors.ErrNotificationUnavailable
		}
	}
}

// Subscribe mendaftarkan listener. Kalau channel sudah terhubung, listener
// langsung dipanggil sekali agar pemanggil bisa sinkron awal.
func (f *Fabric) Subscribe(listener Listener) (unsubscribe func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = listener
	connected := f.state == StateConnected
	f.mu.Unlock()

	if connected {
		f.invoke(listener)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	}
}

// Publish mengirim satu sinyal ke semua subscriber channel, termasuk proses ini.
// Saat belum terhubung tidak mengirim apa pun dan mengembalikan
// apperrors.ErrNotificationUnavailable; pemanggil boleh mengabaikannya.
func (f *Fabric) Publish(ctx context.Context, n Notification) error {
	f.mu.Lock()
	conn, state := f.conn, f.state
	f.mu.Unlock()

	fields := logrus.Fields{"channel": f.channel, "order_id": n.OrderID, "action": n.Action}
	if state != StateConnected || conn == nil {
		f.log.WithFields(fields).WithField("state", state.String()).
			Warn("Notification channel not connected, skipping publish")
		return apperrors.ErrNotificationUnavailable
	}

	if n.Event == "" {
		n.Event = EventOrdersUpdated
	}
	n.SentAt = time.Now().UTC()
	n.Source = f.source

	frame, err := f.codec.Encode(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	if err := conn.Send(ctx, frame); err != nil {
		f.log.WithError(err).WithFields(fields).Warn("Publish failed, dropping notification connection")
		_ = conn.Close()
		return fmt.Errorf("%w: %v", apperrors.ErrNotificationUnavailable, err)
	}

	f.log.WithFields(fields).Debug("Notification published")
	return nil
}

// Close menghentikan reconnect dan menutup koneksi aktif.
func (f *Fabric) Close() error {
	f.closeOnce.Do(func() {
		f.cancel()
		<-f.done
	})
	return nil
}

func (f *Fabric) run() {
	defer close(f.done)

	backoff := f.minBackoff
	for {
		f.setState(StateConnecting)

		conn, err := f.connect()
		if err != nil {
			f.setState(StateDisconnected)
			if f.ctx.Err() != nil {
				return
			}
			f.log.WithError(err).WithFields(logrus.Fields{
				"channel": f.channel,
				"retry":   backoff.String(),
			}).Warn("Notification channel connect failed")

			if !f.sleep(backoff) {
				return
			}
			backoff *= 2
			if backoff > f.maxBackoff {
				backoff = f.maxBackoff
			}
			continue
		}

		backoff = f.minBackoff
		f.onConnected(conn)
		f.consume(conn)
		f.onDisconnected(conn)

		if f.ctx.Err() != nil {
			return
		}
		f.log.WithField("channel", f.channel).Warn("Notification channel lost, reconnecting")
		if !f.sleep(backoff) {
			return
		}
	}
}

func (f *Fabric) connect() (Conn, error) {
	ctx, cancel := context.WithTimeout(f.ctx, f.connectTimeout)
	defer cancel()
	return f.transport.Connect(ctx, f.channel)
}

func (f *Fabric) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-f.ctx.Done():
		return false
	}
}

func (f *Fabric) setState(s State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setStateLocked(s)
}

func (f *Fabric) setStateLocked(s State) {
	if f.state == StateConnected && s != StateConnected {
		f.connected = make(chan struct{})
	}
	f.state = s
}

func (f *Fabric) onConnected(conn Conn) {
	f.mu.Lock()
	f.conn = conn
	f.state = StateConnected
	close(f.connected)
	listeners := f.snapshotLocked()
	f.mu.Unlock()

	f.log.WithFields(logrus.Fields{"channel": f.channel, "listeners": len(listeners)}).Info("Notification channel connected")
	f.dispatch(listeners)
}

func (f *Fabric) onDisconnected(conn Conn) {
	f.mu.Lock()
	if f.conn == conn {
		f.conn = nil
	}
	f.setStateLocked(StateDisconnected)
	f.mu.Unlock()

	_ = conn.Close()
}

func (f *Fabric) consume(conn Conn) {
	frames := conn.Frames()
	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return
			}
			f.handleFrame(frame)
		case <-f.ctx.Done():
			return
		}
	}
}

func (f *Fabric) handleFrame(frame []byte) {
	n, err := f.codec.Decode(frame)
	if err != nil {
		f.log.WithError(err).WithField("codec", f.codec.Name()).Warn("Dropping undecodable notification frame")
		return
	}
	if n.Event != EventOrdersUpdated {
		f.log.WithField("event", n.Event).Debug("Ignoring unknown notification event")
		return
	}

	f.log.WithFields(logrus.Fields{
		"source":   n.Source,
		"order_id": n.OrderID,
		"action":   n.Action,
		"meta":     n.Meta,
		"self":     n.Source == f.source,
	}).Debug("Notification received")

	f.mu.Lock()
	listeners := f.snapshotLocked()
	f.mu.Unlock()
	f.dispatch(listeners)
}

func (f *Fabric) snapshotLocked() []Listener {
	listeners := make([]Listener, 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	return listeners
}

func (f *Fabric) dispatch(listeners []Listener) {
	for _, l := range listeners {
		f.invoke(l)
	}
}

func (f *Fabric) invoke(l Listener) {
	defer func() {
		if r := recover(); r != nil {
			f.log.WithField("panic", r).Error("Notification listener panicked")
		}
	}()
	l()
}
