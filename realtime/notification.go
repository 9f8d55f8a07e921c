// Package realtime menyebarkan sinyal "antrian order berubah" ke semua terminal.
//
// Notifikasi tidak membawa state. Penerima selalu membaca ulang data dari database.
package realtime

import "time"

const (
	EventOrdersUpdated = "orders_updated"
	DefaultChannel     = "orders-updated"
)

type Notification struct {
	Event   string    `json:"event" cbor:"event"`
	SentAt  time.Time `json:"sent_at" cbor:"sent_at"`
	Source  string    `json:"source,omitempty" cbor:"source,omitempty"`
	OrderID uint      `json:"order_id,omitempty" cbor:"order_id,omitempty"`
	Action  string    `json:"action,omitempty" cbor:"action,omitempty"`

	// Meta info tambahan untuk log/debug (status, version, total). Penerima tidak boleh bergantung padanya.
	Meta map[string]string `json:"meta,omitempty" cbor:"meta,omitempty"`
}

// Listener dipanggil setiap ada notifikasi dan sekali saat channel terhubung.
type Listener func()

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}
