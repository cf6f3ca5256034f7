package services

import (
	"github.com/brianodhis/lessonlink/database"
	"github.com/brianodhis/lessonlink/models"
	"github.com/google/uuid"
)

// HasMessageHistory reports whether any message exists in a conversation
// shared by the two users, in either direction. Booking creation uses it
// as a gate so students cannot blind-book teachers they never contacted.
func HasMessageHistory(studentID, teacherID uuid.UUID) (bool, error) {
	var count int64
	err := database.DB.Model(&models.Message{}).
		Joins("JOIN conversation_participants cp1 ON cp1.conversation_id = messages.conversation_id AND cp1.user_id = ?", studentID).
		Joins("JOIN conversation_participants cp2 ON cp2.conversation_id = messages.conversation_id AND cp2.user_id = ?", teacherID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
