package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/kasir-app/models"
	"github.com/yeremiapane/kasir-app/queue"
	"github.com/yeremiapane/kasir-app/utils"
)

const (
	queueWriteWait  = 10 * time.Second
	queuePongWait   = 60 * time.Second
	queuePingPeriod = (queuePongWait * 9) / 10
)

// QueueController menyajikan snapshot antrian order pending ke terminal browser.
type QueueController struct {
	vm       *queue.ViewModel
	pending  queue.PendingReader
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewQueueController(vm *queue.ViewModel, pending queue.PendingReader, logger *logrus.Logger) *QueueController {
	return &QueueController{
		vm:      vm,
		pending: pending,
		log:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // dilindungi token di query
			},
		},
	}
}

// GetQueue -> snapshot terakhir. Sebelum view model pernah refresh, antrian dibaca
// langsung dari database; snapshot view model hanya ditulis oleh loop Run.
func (qc *QueueController) GetQueue(c *gin.Context) {
	snapshot, loaded := qc.vm.Current()
	if !loaded {
		orders, err := qc.pending.ListPending(c.Request.Context())
		if err != nil {
			respondAppError(c, qc.log, err)
			return
		}
		if orders == nil {
			orders = []models.Order{}
		}
		snapshot = queue.Snapshot{Orders: orders, RefreshedAt: time.Now()}
		qc.vm.Notify()
	}
	utils.RespondJSON(c, http.StatusOK, "Order queue", snapshot)
}

// StreamQueue -> websocket; setiap refresh mengirim daftar lengkap pengganti
func (qc *QueueController) StreamQueue(c *gin.Context) {
	ws, err := qc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		qc.log.WithError(err).Warn("Queue websocket upgrade failed")
		return
	}

	// hanya snapshot terbaru yang penting, jadi antrian cukup satu slot
	updates := make(chan queue.Snapshot, 1)
	unsubscribe := qc.vm.Subscribe(func(s queue.Snapshot) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})

	if _, loaded := qc.vm.Current(); !loaded {
		qc.vm.Notify()
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	go func() {
		defer cancel()
		ws.SetReadLimit(512)
		_ = ws.SetReadDeadline(time.Now().Add(queuePongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(queuePongWait))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	qc.log.WithField("staff_ref", c.GetString("staff_ref")).Debug("Queue terminal connected")
	qc.writeLoop(ctx, ws, updates)

	unsubscribe()
	cancel()
	ws.Close()
	qc.log.WithField("staff_ref", c.GetString("staff_ref")).Debug("Queue terminal disconnected")
}

func (qc *QueueController) writeLoop(ctx context.Context, ws *websocket.Conn, updates <-chan queue.Snapshot) {
	ticker := time.NewTicker(queuePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(queueWriteWait))
			return
		case snapshot := <-updates:
			_ = ws.SetWriteDeadline(time.Now().Add(queueWriteWait))
			if err := ws.WriteJSON(gin.H{"type": "queue", "data": snapshot}); err != nil {
				qc.log.WithError(err).Warn("Queue websocket write failed")
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(queueWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
