package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	configs "github.com/brianodhis/lessonlink/configs"
	"github.com/brianodhis/lessonlink/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// ServeWs upgrades a client onto the notification hub. The first frame
// must authenticate; after that the client sends subscribe frames to join
// bookings/availability rooms. Its personal room is joined automatically.
func ServeWs(c *websocketcontrib.Conn) {
	type AuthMessage struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	var authMsg AuthMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		log.Printf("WebSocket auth failed: invalid or missing auth message, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	claims, err := parseToken(authMsg.Token)
	if err != nil {
		log.Printf("WebSocket auth failed: invalid token, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}

	sub, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		log.Printf("WebSocket auth failed: invalid user_id: %v", claims["user_id"])
		_ = c.WriteJSON(fiber.Map{"error": "Invalid user ID"})
		c.Close()
		return
	}

	client := &websocket.Client{UserID: userID, Conn: c}
	websocket.Register <- client
	defer func() {
		websocket.Unregister <- client
		c.Close()
	}()

	for {
		type Command struct {
			Type string `json:"type"`
			Room string `json:"room"`
		}
		var cmd Command
		if err := c.ReadJSON(&cmd); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseAbnormalClosure) {
				log.Printf("WebSocket closed for client %s: %v", userID, err)
			} else {
				log.Printf("WebSocket read error for client %s: %v", userID, err)
			}
			break
		}

		if cmd.Type != "subscribe" {
			_ = c.WriteJSON(fiber.Map{"error": "Unknown command type"})
			continue
		}
		if !allowedRoom(cmd.Room, userID) {
			_ = c.WriteJSON(fiber.Map{"error": "Cannot subscribe to this room"})
			continue
		}
		websocket.Subscribe <- websocket.Subscription{Client: client, Room: cmd.Room}
	}
}

// allowedRoom permits the bookings and availability rooms of any subject
// (a student watching a teacher's schedule is the point of the
// availability room) but only the client's own personal room.
func allowedRoom(room string, userID uuid.UUID) bool {
	switch {
	case strings.HasPrefix(room, "bookings:"), strings.HasPrefix(room, "availability:"):
		return true
	case room == websocket.UserRoom(userID):
		return true
	default:
		return false
	}
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(configs.Config("JWT_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
