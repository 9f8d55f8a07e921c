package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/kasir-app/models"
	"gorm.io/gorm"
)

// StoreTransport memakai tabel order_events sebagai channel bersama antar replika
// yang hanya berbagi database. Publish = insert, terima = polling id > cursor.
type StoreTransport struct {
	DB        *gorm.DB
	Interval  time.Duration
	Retention time.Duration
	log       *logrus.Logger
}

func NewStoreTransport(db *gorm.DB, logger *logrus.Logger, interval, retention time.Duration) *StoreTransport {
	if interval <= 0 {
		interval = time.Second
	}
	if retention <= 0 {
		retention = 10 * time.Minute
	}
	return &StoreTransport{DB: db, Interval: interval, Retention: retention, log: logger}
}

func (t *StoreTransport) Connect(ctx context.Context, channel string) (Conn, error) {
	var cursor uint
	err := t.DB.WithContext(ctx).Model(&models.OrderEvent{}).
		Where("channel = ?", channel).
		Select("COALESCE(MAX(id), 0)").
		Row().Scan(&cursor)
	if err != nil {
		return nil, fmt.Errorf("read event cursor: %w", err)
	}

	c := &storeConn{
		transport: t,
		channel:   channel,
		cursor:    cursor,
		frames:    make(chan []byte, peerBufferSize),
		done:      make(chan struct{}),
	}
	go c.poll()
	return c, nil
}

type storeConn struct {
	transport *StoreTransport
	channel   string
	cursor    uint
	frames    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *storeConn) poll() {
	defer close(c.frames)

	ticker := time.NewTicker(c.transport.Interval)
	defer ticker.Stop()

	pruneEvery := int(c.transport.Retention / c.transport.Interval)
	if pruneEvery < 1 {
		pruneEvery = 1
	}
	ticks := 0

	for {
		select {
		case <-ticker.C:
			if err := c.checkEvents(); err != nil {
				c.transport.log.WithError(err).WithField("channel", c.channel).Warn("Event polling failed")
				return
			}
			ticks++
			if ticks%pruneEvery == 0 {
				c.prune()
			}
		case <-c.done:
			return
		}
	}
}

// checkEvents. Id bisa terlihat tidak berurutan antar transaksi; event yang
// terlewat tetap aman karena event sesudahnya memicu baca ulang yang sama.
func (c *storeConn) checkEvents() error {
	var events []models.OrderEvent
	err := c.transport.DB.
		Where("channel = ? AND id > ?", c.channel, c.cursor).
		Order("id ASC").
		Limit(100).
		Find(&events).Error
	if err != nil {
		return err
	}

	for _, event := range events {
		select {
		case c.frames <- event.Payload:
		case <-c.done:
			return nil
		}
		c.cursor = event.ID
	}
	return nil
}

func (c *storeConn) prune() {
	cutoff := time.Now().Add(-c.transport.Retention)
	res := c.transport.DB.Where("channel = ? AND created_at < ?", c.channel, cutoff).Delete(&models.OrderEvent{})
	if res.Error != nil {
		c.transport.log.WithError(res.Error).Warn("Failed to prune order events")
		return
	}
	if res.RowsAffected > 0 {
		c.transport.log.WithField("deleted", res.RowsAffected).Debug("Pruned order events")
	}
}

func (c *storeConn) Send(ctx context.Context, frame []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	event := models.OrderEvent{Channel: c.channel, Payload: frame}
	return c.transport.DB.WithContext(ctx).Create(&event).Error
}

func (c *storeConn) Frames() <-chan []byte {
	return c.frames
}

func (c *storeConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}
