package services

import (
	"context"
	"fmt"

	"github.com/leadchat-io/leadchat/internal/llm"
	"github.com/leadchat-io/leadchat/internal/models"
	"gorm.io/gorm"
)

// systemPrompt is prefixed to every completion call. It is never stored in
// the chat transcript.
const systemPrompt = "You are a friendly assistant collecting interest form submissions. " +
	"Gather the visitor's name, email address, and phone number, then submit the form with the " +
	"submit_interest_form tool. Use update_interest_form and delete_interest_form when the " +
	"visitor asks to change or withdraw a submission. Relay tool results conversationally."

// RunChatTurn drives one turn of the conversation loop: a first completion
// pass, sequential dispatch of any requested tool calls, a second pass to
// summarize tool results, and a single full-transcript persist at the end.
// A completion failure on either pass propagates and leaves the stored
// transcript untouched.
func RunChatTurn(ctx context.Context, db *gorm.DB, completer llm.Completer, chat *models.Chat, messages []llm.ChatMessage, requestID string) (*models.Chat, error) {
	tools := InterestFormTools()

	resp, err := completer.Complete(ctx, withSystemPrompt(messages), tools)
	if err != nil {
		return nil, fmt.Errorf("completion pass 1 failed: %w", err)
	}
	messages = append(messages, resp)

	if len(resp.ToolCalls) > 0 {
		// Dispatch strictly in received order: a later call in the same
		// turn must observe the effects of earlier ones.
		for _, call := range resp.ToolCalls {
			messages = append(messages, DispatchToolCall(db, chat.ID, requestID, call))
		}

		summary, err := completer.Complete(ctx, withSystemPrompt(messages), tools)
		if err != nil {
			return nil, fmt.Errorf("completion pass 2 failed: %w", err)
		}
		// Tool calls on the second pass are not dispatched; at most two
		// completion calls happen per turn.
		messages = append(messages, summary)
	}

	return UpdateChatMessages(db, chat, messages)
}

func withSystemPrompt(messages []llm.ChatMessage) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(messages)+1)
	out = append(out, llm.ChatMessage{Role: llm.RoleSystem, Content: systemPrompt})
	return append(out, messages...)
}
