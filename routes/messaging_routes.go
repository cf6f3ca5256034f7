package routes

import (
	"github.com/brianodhis/lessonlink/handlers"
	"github.com/brianodhis/lessonlink/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func MessagingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	conversations := api.Group("/conversations", middleware.Protected())
	conversations.Post("", handlers.CreateOrGetConversation)
	conversations.Post("/:conversationId/messages", handlers.SendMessage)
	conversations.Get("/:conversationId/messages", handlers.GetConversationMessages)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(handlers.ServeWs))
}
