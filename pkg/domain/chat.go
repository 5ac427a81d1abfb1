package domain

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is immutable once created and belongs to exactly one conversation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now()}
}

type Conversation struct {
	ID            string    `bun:"id,pk" json:"id"`
	Messages      []Message `bun:"messages,type:jsonb" json:"messages"`
	Specialist    string    `bun:"specialist" json:"specialist"`
	CreatedAt     time.Time `bun:"created_at" json:"created_at"`
	LastUpdatedAt time.Time `bun:"last_updated_at" json:"last_updated_at"`
	// MessageCount is the number of completed exchanges since creation or the last clear.
	MessageCount int `bun:"message_count" json:"message_count"`
}

func NewConversation(id string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:            id,
		Specialist:    SpecialistDefault,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}

// Metadata returns the conversation without its messages.
func (c *Conversation) Metadata() ConversationMetadata {
	return ConversationMetadata{
		ID:            c.ID,
		Specialist:    c.Specialist,
		CreatedAt:     c.CreatedAt,
		LastUpdatedAt: c.LastUpdatedAt,
		MessageCount:  c.MessageCount,
	}
}

type ConversationMetadata struct {
	ID            string    `json:"id"`
	Specialist    string    `json:"specialist"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	MessageCount  int       `json:"message_count"`
}

// Exchange is one user message and the assistant reply to it, answered by Specialist.
type Exchange struct {
	Specialist string
	Messages   []Message
}

// ChatPreferences are the per Telegram chat settings.
type ChatPreferences struct {
	ChatID       int64     `bun:"chat_id,pk"`
	TopicID      int       `bun:"topic_id,pk"`
	Specialist   string    `bun:"specialist"`
	VoiceReplies bool      `bun:"voice_replies"`
	SystemPrompt string    `bun:"system_prompt"`
	LastUpdate   time.Time `bun:"last_update"`
}

func NewChatPreferences(chatID int64, topicID int) *ChatPreferences {
	return &ChatPreferences{ChatID: chatID, TopicID: topicID, Specialist: SpecialistSmart}
}

func TelegramConversationID(chatID int64, topicID int) string {
	return fmt.Sprintf("tg:%d:%d", chatID, topicID)
}

const (
	SetSpecialistCallbackPrefix = "set_specialist_"
	SetVoiceCallbackPrefix      = "set_voice_"
)
