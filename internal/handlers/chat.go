// chat.go
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

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/leadchat-io/leadchat/internal/llm"
	"github.com/leadchat-io/leadchat/internal/models"
	"github.com/leadchat-io/leadchat/internal/services"
	"github.com/leadchat-io/leadchat/internal/types"
	"github.com/leadchat-io/leadchat/internal/utils"
	"gorm.io/gorm"
)

// ChatHandler handles chat routes
type ChatHandler struct {
	DB        *gorm.DB
	Completer llm.Completer
}

// ChatCreateRequest is the POST /chat body.
type ChatCreateRequest struct {
	Messages types.FlexList[llm.ChatMessage] `json:"messages"`
}

// ChatUpdateRequest is the PUT /chat/:chatId body: the prior transcript
// plus the new user turn.
type ChatUpdateRequest struct {
	Messages types.FlexList[llm.ChatMessage] `json:"messages"`
}

// GetChats handles GET /api/chat
// @Summary List chats
// @Description List recent chats with their transcripts
// @Tags Chat
// @Accept json
// @Produce json
// @Success 200 {array} models.Chat
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /chat [get]
func (h *ChatHandler) GetChats(c *fiber.Ctx) error {
	chats, err := services.ListChats(h.DB, 0, 10)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "getChats")
	}
	return utils.SuccessResponse(c, chats, fiber.StatusOK)
}

// CreateChat handles POST /api/chat
// @Summary Create a chat
// @Description Create a chat with an optional initial message transcript
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body ChatCreateRequest true "Initial messages"
// @Success 200 {object} models.Chat
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /chat [post]
func (h *ChatHandler) CreateChat(c *fiber.Ctx) error {
	var req ChatCreateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.ErrorResponse(c, "Invalid JSON body", fiber.StatusBadRequest, "createChat")
		}
	}

	chat, err := services.CreateChat(h.DB, req.Messages.Slice())
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "createChat")
	}
	return utils.SuccessResponse(c, chat, fiber.StatusOK)
}

// GetChat handles GET /api/chat/:chatId
// @Summary Get a chat
// @Description Get a chat and its full transcript by id
// @Tags Chat
// @Accept json
// @Produce json
// @Param chatId path string true "Chat ID"
// @Success 200 {object} models.Chat
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /chat/{chatId} [get]
func (h *ChatHandler) GetChat(c *fiber.Ctx) error {
	chatID := c.Params("chatId")

	chat, err := services.GetChat(h.DB, chatID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFoundResponse(c, "Chat not found")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "getChat")
	}
	return utils.SuccessResponse(c, chat, fiber.StatusOK)
}

// UpdateChat handles PUT /api/chat/:chatId
// @Summary Run a chat turn
// @Description Update the chat with new messages, dispatching any tool calls the model requests
// @Tags Chat
// @Accept json
// @Produce json
// @Param chatId path string true "Chat ID"
// @Param body body ChatUpdateRequest true "Full transcript including the new user turn"
// @Success 200 {object} models.Chat
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Router /chat/{chatId} [put]
func (h *ChatHandler) UpdateChat(c *fiber.Ctx) error {
	chatID := c.Params("chatId")

	chat, err := services.GetChat(h.DB, chatID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFoundResponse(c, "Chat not found")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "updateChat")
	}

	var req ChatUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Invalid JSON body", fiber.StatusBadRequest, "updateChat")
	}

	updated, err := services.RunChatTurn(c.UserContext(), h.DB, h.Completer, chat, req.Messages.Slice(), requestID(c))
	if err != nil {
		// The turn failed before persistence; the stored transcript is
		// unchanged.
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadGateway, "chat.completion")
	}
	return utils.SuccessResponse(c, updated, fiber.StatusOK)
}

// GetChatForms handles GET /api/chat/:chatId/forms
// @Summary List a chat's form submissions
// @Description List form submissions for a chat, optionally filtered by status (1=TO DO, 2=IN PROGRESS, 3=COMPLETED)
// @Tags Chat
// @Accept json
// @Produce json
// @Param chatId path string true "Chat ID"
// @Param status query int false "Status filter (1, 2, or 3)"
// @Success 200 {array} models.FormSubmission
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /chat/{chatId}/forms [get]
func (h *ChatHandler) GetChatForms(c *fiber.Ctx) error {
	chatID := c.Params("chatId")

	status, ok := parseStatusFilter(c)
	if !ok {
		return utils.ErrorResponse(c, "Status must be 1, 2, or 3", fiber.StatusBadRequest, "getChatForms")
	}

	forms, err := services.ListForms(h.DB, services.FormFilter{ChatID: chatID, Status: status}, 0, 100)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "getChatForms")
	}
	if forms == nil {
		forms = []models.FormSubmission{}
	}
	return utils.SuccessResponse(c, forms, fiber.StatusOK)
}
