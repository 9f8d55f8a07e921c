package models

import "time"

// OrderEvent adalah baris outbox untuk transport notifikasi berbasis database.
// Isinya hanya sinyal, bukan state order.
type OrderEvent struct {
	ID        uint      `gorm:"primaryKey"`
	Channel   string    `gorm:"type:varchar(50);not null;index:idx_channel_id"`
	Payload   []byte    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}
