package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"backend/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type RealtimeController struct {
	RT       *services.RealtimeHub
	Sessions *services.SessionManager
}

func NewRealtimeController(rt *services.RealtimeHub, sessions *services.SessionManager) *RealtimeController {
	return &RealtimeController{RT: rt, Sessions: sessions}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // tighten behind ALB/CloudFront if needed
}

// EventsWS streams totals updates, subscription changes and alerts to the
// signed-in user's open clients.
func (rc *RealtimeController) EventsWS(c *gin.Context) {
	uid := c.GetUint("userID")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	cl := &services.WSClient{UserID: uid, Conn: conn}
	rc.RT.Register(cl)

	// seed a fresh connection with the current day's state so the client
	// has something to render before the next change event
	sess := rc.Sessions.Ensure(c.Request.Context(), uid)
	date, _, totals := sess.Tracker.Snapshot()
	if seed, err := json.Marshal(map[string]any{
		"kind": "totals.updated",
		"data": map[string]any{"date": date, "totals": totals},
	}); err == nil {
		_ = conn.WriteMessage(websocket.TextMessage, seed)
	}

	// ping to keep connections alive through some proxies
	go func() {
		t := time.NewTicker(25 * time.Second)
		defer t.Stop()
		for range t.C {
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				rc.RT.Unregister(cl)
				return
			}
		}
	}()

	// read loop ends on client close/error -> unregister
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			rc.RT.Unregister(cl)
			return
		}
	}
}
