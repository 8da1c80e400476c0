// data.go
//
// Conversational interest-form capture service with an audited change ledger
// Copyright (c) 2026 Leadchat Authors
//
// This file is part of leadchat.
// leadchat is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// leadchat is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with leadchat.
// If not, see <https://www.gnu.org/licenses/>.

package helpers

import (
	"testing"
	"time"

	"github.com/leadchat-io/leadchat/internal/llm"
	"github.com/leadchat-io/leadchat/internal/models"
	"github.com/leadchat-io/leadchat/internal/utils"
	"gorm.io/gorm"
)

// CreateTestChat creates a chat with the given transcript
func CreateTestChat(t *testing.T, db *gorm.DB, messages []llm.ChatMessage) *models.Chat {
	t.Helper()
	chat := models.Chat{
		ID:        utils.NewToken(),
		CreatedAt: time.Now().UTC(),
		Messages:  models.NewJSON(messages),
	}
	if err := db.Create(&chat).Error; err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}
	return &chat
}

// CreateTestForm creates a form submission attached to a chat
func CreateTestForm(t *testing.T, db *gorm.DB, chatID string, name, email, phone string, status *int) *models.FormSubmission {
	t.Helper()
	form := models.FormSubmission{
		ID:          utils.NewToken(),
		CreatedAt:   time.Now().UTC(),
		ChatID:      chatID,
		Name:        &name,
		Email:       &email,
		PhoneNumber: &phone,
		Status:      status,
	}
	if err := db.Create(&form).Error; err != nil {
		t.Fatalf("Failed to create form submission: %v", err)
	}
	return &form
}

// IntPtr returns a pointer to the given int
func IntPtr(v int) *int {
	return &v
}
