package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/leadchat-io/leadchat/internal/llm"
	"github.com/leadchat-io/leadchat/internal/models"
	"github.com/leadchat-io/leadchat/internal/types"
	"gorm.io/gorm"
)

// Tool names exposed to the completion service.
const (
	ToolSubmitInterestForm = "submit_interest_form"
	ToolUpdateInterestForm = "update_interest_form"
	ToolDeleteInterestForm = "delete_interest_form"
)

// InterestFormTools returns the tool schema declared on every completion call.
func InterestFormTools() []llm.Tool {
	return []llm.Tool{
		{
			Type: "function",
			Function: llm.Function{
				Name:        ToolSubmitInterestForm,
				Description: "Submit an interest form for the user with the given properties",
				Parameters: llm.Parameters{
					Type: "object",
					Properties: map[string]llm.Property{
						"name":         {Type: "string", Description: "the user's name"},
						"email":        {Type: "string", Description: "the user's email address"},
						"phone_number": {Type: "string", Description: "the user's phone number"},
					},
					Required: []string{"name", "email", "phone_number"},
				},
			},
		},
		{
			Type: "function",
			Function: llm.Function{
				Name: ToolUpdateInterestForm,
				Description: "Update an existing interest form submission. You can update the " +
					"name, email, phone number, or status (1=TO DO, 2=IN PROGRESS, 3=COMPLETED).",
				Parameters: llm.Parameters{
					Type: "object",
					Properties: map[string]llm.Property{
						"form_id":      {Type: "string", Description: "the ID of the form to update"},
						"name":         {Type: "string", Description: "the user's updated name"},
						"email":        {Type: "string", Description: "the user's updated email address"},
						"phone_number": {Type: "string", Description: "the user's updated phone number"},
						"status":       {Type: "integer", Description: "status: 1=TO DO, 2=IN PROGRESS, 3=COMPLETED"},
					},
					Required: []string{"form_id"},
				},
			},
		},
		{
			Type: "function",
			Function: llm.Function{
				Name:        ToolDeleteInterestForm,
				Description: "Delete an interest form submission",
				Parameters: llm.Parameters{
					Type: "object",
					Properties: map[string]llm.Property{
						"form_id": {Type: "string", Description: "the ID of the form to delete"},
					},
					Required: []string{"form_id"},
				},
			},
		},
	}
}

type submitFormArgs struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type updateFormArgs struct {
	FormID      string         `json:"form_id"`
	Name        *string        `json:"name"`
	Email       *string        `json:"email"`
	PhoneNumber *string        `json:"phone_number"`
	Status      *types.FlexInt `json:"status"`
}

type deleteFormArgs struct {
	FormID string `json:"form_id"`
}

// DispatchToolCall executes one tool invocation against the store and the
// audit ledger and returns its tool-result message, tagged with the
// originating tool-call id. Failures of any kind (bad arguments, unknown
// form, internal errors) surface as result text so the chat turn always
// completes; no audit entry is written on a failure path.
func DispatchToolCall(db *gorm.DB, chatID, requestID string, call llm.ToolCall) llm.ChatMessage {
	var content string

	switch call.Function.Name {
	case ToolSubmitInterestForm:
		content = submitInterestForm(db, chatID, requestID, call.Function.Arguments)
	case ToolUpdateInterestForm:
		content = updateInterestForm(db, requestID, call.Function.Arguments)
	case ToolDeleteInterestForm:
		content = deleteInterestForm(db, requestID, call.Function.Arguments)
	default:
		content = fmt.Sprintf("Error: Unknown tool %q", call.Function.Name)
	}

	return llm.ChatMessage{
		Role:       llm.RoleTool,
		Content:    content,
		Name:       call.Function.Name,
		ToolCallID: call.ID,
	}
}

func submitInterestForm(db *gorm.DB, chatID, requestID, rawArgs string) string {
	var args submitFormArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return "Error: Invalid JSON arguments"
	}

	if args.Name == "" || args.Email == "" || args.PhoneNumber == "" {
		return "Error: name, email, and phone_number are required"
	}

	form, err := CreateForm(db, FormCreate{
		ChatID:      chatID,
		Name:        args.Name,
		Email:       args.Email,
		PhoneNumber: args.PhoneNumber,
	})
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	if err := RecordRevision(db, RevisionRecord{
		EntityType: models.AuditEntityFormSubmission,
		EntityID:   form.ID,
		EventType:  models.AuditEventCreate,
		Source:     models.AuditSourceChatTool,
		RequestID:  requestID,
		Changes:    CreateChanges(FormSnapshot(form), formFields),
	}); err != nil {
		log.Printf("Audit write failed for form %s create: %v", form.ID, err)
	}

	return fmt.Sprintf("Success! Form submitted with ID: %s", form.ID)
}

func updateInterestForm(db *gorm.DB, requestID, rawArgs string) string {
	var args updateFormArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return "Error: Invalid JSON arguments"
	}

	if args.FormID == "" {
		return "Error: form_id is required"
	}

	form, err := GetForm(db, args.FormID)
	if errors.Is(err, ErrNotFound) {
		return fmt.Sprintf("Error: Form with ID %s not found", args.FormID)
	}
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	if args.Status != nil && !models.ValidFormStatus(args.Status.Int()) {
		return "Error: status must be 1 (TO DO), 2 (IN PROGRESS), or 3 (COMPLETED)"
	}

	// Only argument keys that are present and non-null are applied; a null
	// never clears a field through this path.
	updates := map[string]interface{}{}
	var requested []string
	if args.Name != nil {
		updates["name"] = *args.Name
		requested = append(requested, "name")
	}
	if args.Email != nil {
		updates["email"] = *args.Email
		requested = append(requested, "email")
	}
	if args.PhoneNumber != nil {
		updates["phone_number"] = *args.PhoneNumber
		requested = append(requested, "phone_number")
	}
	if args.Status != nil {
		updates["status"] = args.Status.Int()
		requested = append(requested, "status")
	}

	before := FormSnapshot(form)
	updated, err := UpdateForm(db, form, updates)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	changes := DiffFields(before, FormSnapshot(updated), requested)
	if len(changes) > 0 {
		if err := RecordRevision(db, RevisionRecord{
			EntityType: models.AuditEntityFormSubmission,
			EntityID:   args.FormID,
			EventType:  models.AuditEventUpdate,
			Source:     models.AuditSourceChatTool,
			RequestID:  requestID,
			Changes:    changes,
		}); err != nil {
			log.Printf("Audit write failed for form %s update: %v", args.FormID, err)
		}
	}

	return fmt.Sprintf("Success! Form %s updated", args.FormID)
}

func deleteInterestForm(db *gorm.DB, requestID, rawArgs string) string {
	var args deleteFormArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return "Error: Invalid JSON arguments"
	}

	if args.FormID == "" {
		return "Error: form_id is required"
	}

	form, err := GetForm(db, args.FormID)
	if errors.Is(err, ErrNotFound) {
		return fmt.Sprintf("Error: Form with ID %s not found", args.FormID)
	}
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	before := FormSnapshot(form)
	if _, err := RemoveForm(db, args.FormID); err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	if err := RecordRevision(db, RevisionRecord{
		EntityType: models.AuditEntityFormSubmission,
		EntityID:   args.FormID,
		EventType:  models.AuditEventDelete,
		Source:     models.AuditSourceChatTool,
		RequestID:  requestID,
		Changes:    DeleteChanges(before, formFields),
	}); err != nil {
		log.Printf("Audit write failed for form %s delete: %v", args.FormID, err)
	}

	return fmt.Sprintf("Success! Form %s deleted", args.FormID)
}
