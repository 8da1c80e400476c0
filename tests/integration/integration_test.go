package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/leadchat-io/leadchat/internal/config"
	"github.com/leadchat-io/leadchat/internal/database"
	"github.com/leadchat-io/leadchat/internal/handlers"
	"github.com/leadchat-io/leadchat/internal/llm"
	"github.com/leadchat-io/leadchat/internal/models"
	"github.com/leadchat-io/leadchat/tests/helpers"
	"gorm.io/gorm"
)

// scriptedCompleter returns queued responses in order.
type scriptedCompleter struct {
	responses []llm.ChatMessage
	callCount int
}

func (s *scriptedCompleter) Complete(_ context.Context, _ []llm.ChatMessage, _ []llm.Tool) (llm.ChatMessage, error) {
	s.callCount++
	if s.callCount > len(s.responses) {
		return llm.ChatMessage{}, fmt.Errorf("no scripted response for call %d", s.callCount)
	}
	return s.responses[s.callCount-1], nil
}

// TestWithMariaDB runs the full REST surface against a real MariaDB container
func TestWithMariaDB(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tc, err := helpers.CreateDBTestContainer(t)
	if err != nil {
		t.Fatalf("Failed to start test containers: %v", err)
	}
	defer tc.Terminate(t)

	cfg := &config.Config{
		DBType:            "mysql",
		DBHost:            tc.DBHost,
		DBPort:            tc.DBPort,
		DBDatabase:        tc.DBDatabase,
		DBUser:            tc.DBUser,
		DBPassword:        tc.DBPassword,
		DBConnectionLimit: 5,
	}

	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Run("ChatTurnSubmitsForm", func(t *testing.T) {
		testChatTurnSubmitsForm(t, db)
	})

	t.Run("FormLifecycleWithLedger", func(t *testing.T) {
		testFormLifecycleWithLedger(t, db)
	})
}

func newApp(db *gorm.DB, completer llm.Completer) *fiber.App {
	app := fiber.New()

	chatHandler := &handlers.ChatHandler{DB: db, Completer: completer}
	formHandler := &handlers.FormHandler{DB: db}

	api := app.Group("/api")
	api.Get("/chat", chatHandler.GetChats)
	api.Post("/chat", chatHandler.CreateChat)
	api.Get("/chat/:chatId", chatHandler.GetChat)
	api.Put("/chat/:chatId", chatHandler.UpdateChat)
	api.Get("/chat/:chatId/forms", chatHandler.GetChatForms)
	api.Put("/forms/:formId", formHandler.UpdateForm)
	api.Delete("/forms/:formId", formHandler.DeleteForm)
	api.Get("/forms/:formId/history", formHandler.GetFormHistory)

	return app
}

func testChatTurnSubmitsForm(t *testing.T, db *gorm.DB) {
	completer := &scriptedCompleter{responses: []llm.ChatMessage{
		{
			Role: llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{{
				ID:   "call_1",
				Type: "function",
				Function: llm.FunctionCall{
					Name:      "submit_interest_form",
					Arguments: `{"name":"Ada Lovelace","email":"ada@example.com","phone_number":"555-0100"}`,
				},
			}},
		},
		{Role: llm.RoleAssistant, Content: "All set, Ada!"},
	}}
	app := newApp(db, completer)

	// Create a chat
	req := httptest.NewRequest("POST", "/api/chat", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)
	var chat models.Chat
	helpers.ParseJSON(t, resp, &chat)

	// Run a turn that submits a form
	body := bytes.NewBufferString(`{"messages": [{"role": "user", "content": "Ada Lovelace, ada@example.com, 555-0100"}]}`)
	req = httptest.NewRequest("PUT", "/api/chat/"+chat.ID, body)
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)

	var updated models.Chat
	helpers.ParseJSON(t, resp, &updated)
	var transcript []llm.ChatMessage
	if err := json.Unmarshal(updated.Messages.JSON, &transcript); err != nil {
		t.Fatalf("Failed to decode transcript: %v", err)
	}
	if len(transcript) != 4 {
		t.Fatalf("Expected 4 messages, got %d", len(transcript))
	}

	// The form and its create revision are visible over REST
	req = httptest.NewRequest("GET", "/api/chat/"+chat.ID+"/forms", nil)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)
	var forms []models.FormSubmission
	helpers.ParseJSON(t, resp, &forms)
	if len(forms) != 1 {
		t.Fatalf("Expected 1 form, got %d", len(forms))
	}

	req = httptest.NewRequest("GET", "/api/forms/"+forms[0].ID+"/history", nil)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)
	var revisions []models.AuditRevision
	helpers.ParseJSON(t, resp, &revisions)
	if len(revisions) != 1 || revisions[0].EventType != models.AuditEventCreate {
		t.Fatalf("Expected one create revision, got %+v", revisions)
	}
	if len(revisions[0].Changes) != 5 {
		t.Errorf("Expected 5 create changes, got %d", len(revisions[0].Changes))
	}
}

func testFormLifecycleWithLedger(t *testing.T, db *gorm.DB) {
	app := newApp(db, &scriptedCompleter{})

	chat := helpers.CreateTestChat(t, db, []llm.ChatMessage{{Role: llm.RoleUser, Content: "Hi"}})
	form := helpers.CreateTestForm(t, db, chat.ID, "Grace Hopper", "grace@example.com", "555-0101", helpers.IntPtr(1))

	// Triage over REST
	req := httptest.NewRequest("PUT", "/api/forms/"+form.ID, bytes.NewBufferString(`{"status": 2}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)

	// Invalid status rejected
	req = httptest.NewRequest("PUT", "/api/forms/"+form.ID, bytes.NewBufferString(`{"status": 4}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusBadRequest)
	helpers.AssertErrorMessage(t, resp, "Status must be null, 1 (TO DO), 2 (IN PROGRESS), or 3 (COMPLETED)")

	// Delete, then verify the ledger survives
	req = httptest.NewRequest("DELETE", "/api/forms/"+form.ID, nil)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)

	req = httptest.NewRequest("GET", "/api/forms/"+form.ID+"/history", nil)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	helpers.AssertStatus(t, resp, fiber.StatusOK)
	var revisions []models.AuditRevision
	helpers.ParseJSON(t, resp, &revisions)
	if len(revisions) != 2 {
		t.Fatalf("Expected update and delete revisions, got %d", len(revisions))
	}
	if revisions[0].EventType != models.AuditEventDelete || revisions[1].EventType != models.AuditEventUpdate {
		t.Errorf("Expected newest-first delete/update, got %s/%s", revisions[0].EventType, revisions[1].EventType)
	}
}
