package store

import (
	"crypto/rand"
	"time"

	"gorm.io/gorm"
)

// Conversation is one assistant chat thread for a signed-in user.
type Conversation struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"index" json:"user_id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:ConversationID"`
}

// Message is a single chat turn. Role is user or assistant.
type Message struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	ConversationID string    `gorm:"index:idx_conv_created" json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `gorm:"index:idx_conv_created" json:"created_at"`
}

// BeforeCreate hook for Conversation
func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateID("conv")
	}
	if c.Title == "" {
		c.Title = "New Conversation"
	}
	return nil
}

// BeforeCreate hook for Message
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateID("msg")
	}
	return nil
}

// generateID creates a unique ID with nanosecond precision
func generateID(prefix string) string {
	return prefix + "_" + time.Now().Format("20060102150405") + "_" + randomString(8)
}

// randomString generates a cryptographically secure random string
func randomString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	rand.Read(b)
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return string(b)
}
