package realtime

import (
	"context"
	"errors"
)

var ErrConnClosed = errors.New("realtime: connection closed")

// Transport membuka koneksi ke satu channel. ctx hanya membatasi proses connect.
type Transport interface {
	Connect(ctx context.Context, channel string) (Conn, error)
}

// Conn satu koneksi aktif ke channel. Frame yang dikirim lewat Send diterima
// kembali oleh semua koneksi di channel yang sama, termasuk pengirimnya.
// Frames ditutup ketika koneksi putus atau Close dipanggil.
type Conn interface {
	Send(ctx context.Context, frame []byte) error
	Frames() <-chan []byte
	Close() error
}
