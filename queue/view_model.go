// Package queue menjaga daftar order pending yang ditampilkan di semua terminal.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/kasir-app/models"
	"github.com/yeremiapane/kasir-app/realtime"
)

type PendingReader interface {
	ListPending(ctx context.Context) ([]models.Order, error)
}

type Notifier interface {
	Subscribe(listener realtime.Listener) (unsubscribe func())
}

type Snapshot struct {
	Orders      []models.Order `json:"orders"`
	RefreshedAt time.Time      `json:"refreshed_at"`
}

type Renderer func(Snapshot)

// ViewModel membaca ulang seluruh antrian setiap ada notifikasi dan mengganti
// daftar lama secara utuh. Notifikasi yang datang beruntun boleh digabung menjadi
// satu refresh, tapi notifikasi yang datang saat refresh berjalan selalu memicu
// refresh berikutnya.
type ViewModel struct {
	source  PendingReader
	log     *logrus.Logger
	timeout time.Duration

	dirty chan struct{}

	mu        sync.RWMutex
	current   Snapshot
	loaded    bool
	renderers map[uint64]Renderer
	nextID    uint64
}

func NewViewModel(source PendingReader, logger *logrus.Logger, refreshTimeout time.Duration) *ViewModel {
	if refreshTimeout <= 0 {
		refreshTimeout = 5 * time.Second
	}
	return &ViewModel{
		source:    source,
		log:       logger,
		timeout:   refreshTimeout,
		dirty:     make(chan struct{}, 1),
		renderers: make(map[uint64]Renderer),
	}
}

// Notify menandai antrian perlu dibaca ulang. Tidak pernah blocking.
func (vm *ViewModel) Notify() {
	select {
	case vm.dirty <- struct{}{}:
	default:
	}
}

// Run berlangganan ke notifier dan menjalankan loop refresh sampai ctx selesai.
func (vm *ViewModel) Run(ctx context.Context, notifier Notifier) {
	unsubscribe := notifier.Subscribe(vm.Notify)
	defer unsubscribe()

	vm.log.Info("Order queue view model started")
	for {
		select {
		case <-ctx.Done():
			vm.log.Info("Order queue view model stopped")
			return
		case <-vm.dirty:
			_ = vm.Refresh(ctx)
		}
	}
}

// Refresh membaca order pending (paling lama dulu) dan mengganti snapshot.
// Kalau gagal, snapshot sebelumnya dipertahankan.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(ctx, vm.timeout)
	defer cancel()

	orders, err := vm.source.ListPending(rctx)
	if err != nil {
		vm.log.WithError(err).Warn("Failed to refresh order queue, keeping previous list")
		return err
	}
	if orders == nil {
		orders = []models.Order{}
	}

	snapshot := Snapshot{Orders: orders, RefreshedAt: time.Now()}

	vm.mu.Lock()
	vm.current = snapshot
	vm.loaded = true
	renderers := make([]Renderer, 0, len(vm.renderers))
	for _, r := range vm.renderers {
		renderers = append(renderers, r)
	}
	vm.mu.Unlock()

	vm.log.WithField("pending", len(orders)).Debug("Order queue refreshed")
	for _, r := range renderers {
		r(snapshot)
	}
	return nil
}

func (vm *ViewModel) Current() (Snapshot, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.current, vm.loaded
}

// Subscribe mendaftarkan renderer. Renderer dipanggil dari goroutine refresh
// dan tidak boleh blocking.
func (vm *ViewModel) Subscribe(r Renderer) (unsubscribe func()) {
	vm.mu.Lock()
	id := vm.nextID
	vm.nextID++
	vm.renderers[id] = r
	snapshot, loaded := vm.current, vm.loaded
	vm.mu.Unlock()

	if loaded {
		r(snapshot)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			vm.mu.Lock()
			delete(vm.renderers, id)
			vm.mu.Unlock()
		})
	}
}
