package realtime

import (
	"net/http"
	"strings"

	"kiosk-service/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// NewUpgrader returns a websocket upgrader that accepts the given origins.
// "*" or an empty list accepts any origin.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowAll {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[strings.TrimSuffix(origin, "/")]
			return ok
		},
	}
}

// Handler upgrades GET /ws?device_id=&device_type= and registers the connection.
func (h *Hub) Handler(upgrader websocket.Upgrader) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		deviceID := strings.TrimSpace(ctx.Query("device_id"))
		deviceType := models.DeviceType(ctx.Query("device_type"))
		if deviceID == "" || !deviceType.Valid() {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "device_id and device_type (kiosk, admin or kitchen) are required",
			})
			return
		}

		conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			h.logger.Warn("Websocket upgrade failed", zap.String("device_id", deviceID), zap.Error(err))
			return
		}

		c := newClient(h, conn, deviceID, deviceType)
		h.connect(c)
		go c.writePump()
		go c.readPump()
	}
}
