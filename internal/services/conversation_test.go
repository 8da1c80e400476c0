package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/leadchat-io/leadchat/internal/llm"
)

// scriptedCompleter returns queued responses in order and records every
// message list it was called with.
type scriptedCompleter struct {
	responses []llm.ChatMessage
	err       error
	calls     [][]llm.ChatMessage
}

func (s *scriptedCompleter) Complete(_ context.Context, messages []llm.ChatMessage, _ []llm.Tool) (llm.ChatMessage, error) {
	s.calls = append(s.calls, messages)
	if s.err != nil {
		return llm.ChatMessage{}, s.err
	}
	if len(s.calls) > len(s.responses) {
		return llm.ChatMessage{}, fmt.Errorf("no scripted response for call %d", len(s.calls))
	}
	return s.responses[len(s.calls)-1], nil
}

func TestRunChatTurnPlainResponse(t *testing.T) {
	db := setupTestDB(t)
	chat, err := CreateChat(db, nil)
	if err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}

	completer := &scriptedCompleter{responses: []llm.ChatMessage{
		{Role: llm.RoleAssistant, Content: "Hello! May I have your name?"},
	}}

	messages := []llm.ChatMessage{{Role: llm.RoleUser, Content: "Hi"}}
	updated, err := RunChatTurn(context.Background(), db, completer, chat, messages, "req-1")
	if err != nil {
		t.Fatalf("RunChatTurn failed: %v", err)
	}

	if len(completer.calls) != 1 {
		t.Fatalf("Expected a single completion call, got %d", len(completer.calls))
	}
	// The system prompt is prefixed on the wire but never persisted
	if completer.calls[0][0].Role != llm.RoleSystem {
		t.Errorf("Expected system prompt first, got role %q", completer.calls[0][0].Role)
	}

	transcript, err := ChatTranscript(updated)
	if err != nil {
		t.Fatalf("ChatTranscript failed: %v", err)
	}
	if len(transcript) != 2 {
		t.Fatalf("Expected 2 persisted messages, got %d", len(transcript))
	}
	if transcript[0].Role != llm.RoleUser || transcript[1].Role != llm.RoleAssistant {
		t.Errorf("Unexpected transcript roles: %q, %q", transcript[0].Role, transcript[1].Role)
	}
}

func TestRunChatTurnWithToolCall(t *testing.T) {
	db := setupTestDB(t)
	chat, err := CreateChat(db, nil)
	if err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}

	completer := &scriptedCompleter{responses: []llm.ChatMessage{
		{
			Role: llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{{
				ID:   "call_1",
				Type: "function",
				Function: llm.FunctionCall{
					Name:      ToolSubmitInterestForm,
					Arguments: `{"name":"Ada Lovelace","email":"ada@example.com","phone_number":"555-0100"}`,
				},
			}},
		},
		{Role: llm.RoleAssistant, Content: "Your form has been submitted!"},
	}}

	messages := []llm.ChatMessage{{Role: llm.RoleUser, Content: "Sign me up: Ada Lovelace, ada@example.com, 555-0100"}}
	updated, err := RunChatTurn(context.Background(), db, completer, chat, messages, "req-1")
	if err != nil {
		t.Fatalf("RunChatTurn failed: %v", err)
	}

	if len(completer.calls) != 2 {
		t.Fatalf("Expected two completion calls, got %d", len(completer.calls))
	}
	// The second pass sees the tool result
	secondPass := completer.calls[1]
	last := secondPass[len(secondPass)-1]
	if last.Role != llm.RoleTool || !strings.HasPrefix(last.Content, "Success! Form submitted with ID: ") {
		t.Errorf("Expected tool result in second pass, got role %q content %q", last.Role, last.Content)
	}

	transcript, err := ChatTranscript(updated)
	if err != nil {
		t.Fatalf("ChatTranscript failed: %v", err)
	}
	// user, assistant tool-call, tool result, assistant summary
	if len(transcript) != 4 {
		t.Fatalf("Expected 4 persisted messages, got %d", len(transcript))
	}
	if transcript[1].Role != llm.RoleAssistant || len(transcript[1].ToolCalls) != 1 {
		t.Errorf("Expected persisted assistant tool-call message, got %+v", transcript[1])
	}
	if transcript[2].Role != llm.RoleTool || transcript[2].ToolCallID != "call_1" {
		t.Errorf("Expected persisted tool result for call_1, got %+v", transcript[2])
	}
	if transcript[3].Content != "Your form has been submitted!" {
		t.Errorf("Expected summary message, got %q", transcript[3].Content)
	}

	forms, err := ListForms(db, FormFilter{ChatID: chat.ID}, 0, 100)
	if err != nil {
		t.Fatalf("ListForms failed: %v", err)
	}
	if len(forms) != 1 {
		t.Errorf("Expected 1 submitted form, got %d", len(forms))
	}
}

func TestRunChatTurnSequentialToolCalls(t *testing.T) {
	db := setupTestDB(t)
	chat, err := CreateChat(db, nil)
	if err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}
	form, err := CreateForm(db, FormCreate{
		ChatID: chat.ID, Name: "Ada", Email: "ada@example.com", PhoneNumber: "555-0100",
	})
	if err != nil {
		t.Fatalf("CreateForm failed: %v", err)
	}

	// Update then delete the same form in one turn; the delete must
	// observe the update already applied.
	completer := &scriptedCompleter{responses: []llm.ChatMessage{
		{
			Role: llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{
				{
					ID:   "call_1",
					Type: "function",
					Function: llm.FunctionCall{
						Name:      ToolUpdateInterestForm,
						Arguments: fmt.Sprintf(`{"form_id":"%s","status":2}`, form.ID),
					},
				},
				{
					ID:   "call_2",
					Type: "function",
					Function: llm.FunctionCall{
						Name:      ToolDeleteInterestForm,
						Arguments: fmt.Sprintf(`{"form_id":"%s"}`, form.ID),
					},
				},
			},
		},
		{Role: llm.RoleAssistant, Content: "Done."},
	}}

	messages := []llm.ChatMessage{{Role: llm.RoleUser, Content: "Mark it in progress, then remove it"}}
	updated, err := RunChatTurn(context.Background(), db, completer, chat, messages, "")
	if err != nil {
		t.Fatalf("RunChatTurn failed: %v", err)
	}

	transcript, err := ChatTranscript(updated)
	if err != nil {
		t.Fatalf("ChatTranscript failed: %v", err)
	}
	// user, assistant, two tool results, summary
	if len(transcript) != 5 {
		t.Fatalf("Expected 5 persisted messages, got %d", len(transcript))
	}
	if transcript[2].ToolCallID != "call_1" || transcript[3].ToolCallID != "call_2" {
		t.Errorf("Expected tool results in dispatch order, got %q then %q",
			transcript[2].ToolCallID, transcript[3].ToolCallID)
	}
	if !strings.HasPrefix(transcript[3].Content, "Success!") {
		t.Errorf("Expected delete to succeed after update, got %q", transcript[3].Content)
	}

	if _, err := GetForm(db, form.ID); err != ErrNotFound {
		t.Errorf("Expected form deleted, got err=%v", err)
	}
}

func TestRunChatTurnToolFailureStillPersists(t *testing.T) {
	db := setupTestDB(t)
	chat, err := CreateChat(db, nil)
	if err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}

	completer := &scriptedCompleter{responses: []llm.ChatMessage{
		{
			Role: llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{{
				ID:   "call_1",
				Type: "function",
				Function: llm.FunctionCall{
					Name:      ToolUpdateInterestForm,
					Arguments: `{"form_id":"missing","name":"Ada"}`,
				},
			}},
		},
		{Role: llm.RoleAssistant, Content: "I couldn't find that form."},
	}}

	updated, err := RunChatTurn(context.Background(), db, completer, chat,
		[]llm.ChatMessage{{Role: llm.RoleUser, Content: "Update my form"}}, "")
	if err != nil {
		t.Fatalf("RunChatTurn failed: %v", err)
	}

	transcript, _ := ChatTranscript(updated)
	if len(transcript) != 4 {
		t.Fatalf("Expected 4 persisted messages, got %d", len(transcript))
	}
	if transcript[2].Content != "Error: Form with ID missing not found" {
		t.Errorf("Expected not-found tool result, got %q", transcript[2].Content)
	}
}

func TestRunChatTurnCompletionFailureLeavesTranscript(t *testing.T) {
	db := setupTestDB(t)
	initial := []llm.ChatMessage{{Role: llm.RoleUser, Content: "Hi"}}
	chat, err := CreateChat(db, initial)
	if err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}

	completer := &scriptedCompleter{err: errors.New("upstream unavailable")}

	_, err = RunChatTurn(context.Background(), db, completer, chat,
		append(initial, llm.ChatMessage{Role: llm.RoleUser, Content: "Anyone there?"}), "")
	if err == nil {
		t.Fatal("Expected completion failure to propagate")
	}
	if !strings.Contains(err.Error(), "completion pass 1 failed") {
		t.Errorf("Unexpected error: %v", err)
	}

	stored, err := GetChat(db, chat.ID)
	if err != nil {
		t.Fatalf("GetChat failed: %v", err)
	}
	transcript, _ := ChatTranscript(stored)
	if len(transcript) != 1 {
		t.Errorf("Expected stored transcript untouched (1 message), got %d", len(transcript))
	}
}
