package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/kasir-app/realtime"
)

// RelayHandler -> endpoint websocket relay notifikasi untuk replika lain
func RelayHandler(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request)
	}
}
