package handlers

import (
	"strconv"

	"github.com/brianodhis/lessonlink/database"
	"github.com/brianodhis/lessonlink/middleware"
	"github.com/brianodhis/lessonlink/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// The messaging surface here is deliberately minimal: enough for a student
// to contact a teacher, which is the precondition booking creation checks.

func CreateOrGetConversation(c *fiber.Ctx) error {
	userID1, _ := middleware.Subject(c)

	type Request struct {
		RecipientID string `json:"recipient_id" validate:"required,uuid"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	userID2, _ := uuid.Parse(req.RecipientID)

	var conversation models.Conversation
	err := database.DB.
		Joins("JOIN conversation_participants cp1 ON cp1.conversation_id = conversations.id AND cp1.user_id = ?", userID1).
		Joins("JOIN conversation_participants cp2 ON cp2.conversation_id = conversations.id AND cp2.user_id = ?", userID2).
		First(&conversation).Error
	if err == nil {
		return c.JSON(conversation)
	}

	var user1, user2 models.User
	if err := database.DB.First(&user1, "id = ?", userID1).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if err := database.DB.First(&user2, "id = ?", userID2).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Recipient not found"})
	}
	newConversation := models.Conversation{Participants: []*models.User{&user1, &user2}}
	if err := database.DB.Create(&newConversation).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create conversation"})
	}

	return c.Status(fiber.StatusCreated).JSON(newConversation)
}

func SendMessage(c *fiber.Ctx) error {
	senderID, _ := middleware.Subject(c)

	conversationID, err := uuid.Parse(c.Params("conversationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	type Request struct {
		Content string `json:"content" validate:"required"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var membership int64
	err = database.DB.Table("conversation_participants").
		Where("conversation_id = ? AND user_id = ?", conversationID, senderID).
		Count(&membership).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if membership == 0 {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not part of this conversation"})
	}

	message := models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        req.Content,
	}
	if err := database.DB.Create(&message).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save message"})
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}

func GetConversationMessages(c *fiber.Ctx) error {
	conversationID := c.Params("conversationId")
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "50"))
	offset := (page - 1) * pageSize

	var messages []models.Message
	if err := database.DB.
		Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Limit(pageSize).
		Offset(offset).
		Find(&messages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch messages"})
	}

	return c.JSON(messages)
}
