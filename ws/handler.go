package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vnkhanh/e-flashcard-backend/middleware"
)

// Handler upgrades authenticated requests to the generation event feed.
type Handler struct {
	hub      *Hub
	verifier middleware.TokenVerifier
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, verifier middleware.TokenVerifier, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// HandleGenerations serves GET /ws/generations. Browsers pass the access token as ?token=.
func (h *Handler) HandleGenerations(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = middleware.TokenFromRequest(c)
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing token", "code": "UNAUTHORIZED"})
		return
	}
	user, err := h.verifier.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "code": "UNAUTHORIZED"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := h.hub.Register(user.ID, conn)
	defer h.hub.Unregister(user.ID, conn)
	h.hub.log.Debug("generation feed connected", "user_id", user.ID.String())

	hello, _ := json.Marshal(gin.H{"type": "connected"})
	client.Send <- hello

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.hub.log.Debug("generation feed disconnected", "user_id", user.ID.String())
}
