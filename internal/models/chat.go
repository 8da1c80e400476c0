package models

import (
	"time"
)

// Form status values. A null status means the submission has not been triaged.
const (
	FormStatusTodo       = 1
	FormStatusInProgress = 2
	FormStatusCompleted  = 3
)

// ValidFormStatus reports whether a non-null status value is allowed.
func ValidFormStatus(status int) bool {
	return status == FormStatusTodo || status == FormStatusInProgress || status == FormStatusCompleted
}

// Chat represents a conversation and its full message transcript.
// The transcript is stored as a single JSON document and replaced wholesale
// at the end of each chat turn.
type Chat struct {
	ID              string           `gorm:"primaryKey;size:32" json:"id"`
	CreatedAt       time.Time        `gorm:"index" json:"created_at"`
	Messages        JSON             `gorm:"type:json" json:"messages"`
	FormSubmissions []FormSubmission `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"-"`
}

// FormSubmission represents a single interest form collected through a chat.
// Field pointers allow legacy rows with null values to round-trip on read;
// creation requires name, email and phone_number to be present.
type FormSubmission struct {
	ID          string    `gorm:"primaryKey;size:32" json:"id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	ChatID      string    `gorm:"size:32;index;not null" json:"chat_id"`
	Name        *string   `gorm:"size:255;index" json:"name"`
	Email       *string   `gorm:"size:255;index" json:"email"`
	PhoneNumber *string   `gorm:"size:255;index" json:"phone_number"`
	Status      *int      `gorm:"index" json:"status"`
}

// TableName overrides the table name for Chat
func (Chat) TableName() string {
	return "chats"
}

// TableName overrides the table name for FormSubmission
func (FormSubmission) TableName() string {
	return "form_submissions"
}
