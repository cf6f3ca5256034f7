package models

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ConversationID uuid.UUID  `gorm:"not null;index" json:"conversation_id"`
	SenderID       uuid.UUID  `gorm:"not null" json:"sender_id"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	ReadAt         *time.Time `json:"read_at,omitempty"`

	Sender       User         `gorm:"foreignkey:SenderID" json:"-"`
	Conversation Conversation `gorm:"foreignkey:ConversationID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
