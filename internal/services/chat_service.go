package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/leadchat-io/leadchat/internal/llm"
	"github.com/leadchat-io/leadchat/internal/models"
	"github.com/leadchat-io/leadchat/internal/utils"
	"gorm.io/gorm"
)

// ErrNotFound is returned by entity lookups when no row matches.
var ErrNotFound = errors.New("not found")

// GetChat retrieves a chat by id
func GetChat(db *gorm.DB, id string) (*models.Chat, error) {
	var chat models.Chat
	if err := db.First(&chat, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &chat, nil
}

// ListChats retrieves chats with offset/limit paging
func ListChats(db *gorm.DB, offset, limit int) ([]models.Chat, error) {
	var chats []models.Chat
	if err := db.Offset(offset).Limit(limit).Find(&chats).Error; err != nil {
		return nil, err
	}
	return chats, nil
}

// CreateChat creates a chat with the given initial transcript, assigning
// its identifier and creation timestamp.
func CreateChat(db *gorm.DB, messages []llm.ChatMessage) (*models.Chat, error) {
	if messages == nil {
		messages = []llm.ChatMessage{}
	}
	chat := models.Chat{
		ID:        utils.NewToken(),
		CreatedAt: time.Now().UTC(),
		Messages:  models.NewJSON(messages),
	}
	if err := db.Create(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// UpdateChatMessages replaces the chat's stored transcript with the given
// message sequence. The transcript is always replaced wholesale, never
// partially patched.
func UpdateChatMessages(db *gorm.DB, chat *models.Chat, messages []llm.ChatMessage) (*models.Chat, error) {
	if messages == nil {
		messages = []llm.ChatMessage{}
	}
	err := db.Model(&models.Chat{}).
		Where("id = ?", chat.ID).
		Update("messages", models.NewJSON(messages)).Error
	if err != nil {
		return nil, err
	}
	return GetChat(db, chat.ID)
}

// ChatTranscript decodes the chat's stored messages column.
func ChatTranscript(chat *models.Chat) ([]llm.ChatMessage, error) {
	raw := chat.Messages.JSON
	if len(raw) == 0 {
		return nil, nil
	}
	var messages []llm.ChatMessage
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
