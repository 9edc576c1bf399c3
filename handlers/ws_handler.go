package handlers

import (
	config "github.com/ViableSystemsGlobal/lms-backend/configs"
	ws "github.com/ViableSystemsGlobal/lms-backend/websocket"
	"github.com/gofiber/contrib/websocket"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// ServeWs upgrades an authenticated connection and parks it in the hub until
// the client disconnects. Browsers cannot set headers on websocket upgrades,
// so the JWT arrives as a query parameter.
func ServeWs(conn *websocket.Conn) {
	tokenString := conn.Query("token")

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		conn.Close()
		return
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		conn.Close()
		return
	}
	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		conn.Close()
		return
	}

	client := &ws.Client{UserID: userID, Conn: conn}
	ws.Register <- client
	defer func() {
		ws.Unregister <- client
		conn.Close()
	}()

	// Drain until the peer goes away; events flow the other direction.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
