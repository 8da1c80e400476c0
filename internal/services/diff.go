package services

import (
	"reflect"

	"github.com/leadchat-io/leadchat/internal/models"
)

// FieldChange is one before/after delta for a single field.
type FieldChange struct {
	Field string
	Old   interface{}
	New   interface{}
}

// formFields is the canonical candidate order for full-form snapshots
// (create and delete revisions).
var formFields = []string{"name", "email", "phone_number", "status", "chat_id"}

// FormFields returns the canonical candidate field order for full-form
// revisions.
func FormFields() []string {
	return formFields
}

// FormSnapshot captures a field-name to value view of a form, normalized to
// JSON-compatible values (nil for null columns). Snapshots are taken
// explicitly before a mutation, never inferred afterwards.
func FormSnapshot(form *models.FormSubmission) map[string]interface{} {
	return map[string]interface{}{
		"name":         strOrNil(form.Name),
		"email":        strOrNil(form.Email),
		"phone_number": strOrNil(form.PhoneNumber),
		"status":       intOrNil(form.Status),
		"chat_id":      form.ChatID,
	}
}

// DiffFields compares before/after snapshots restricted to the given
// candidate fields, in order, emitting one change per field whose value
// actually differs. The chat-tool and REST mutation paths both diff
// through here so the ledger cannot drift between entry points.
func DiffFields(before, after map[string]interface{}, fields []string) []FieldChange {
	var changes []FieldChange
	for _, field := range fields {
		if !reflect.DeepEqual(before[field], after[field]) {
			changes = append(changes, FieldChange{Field: field, Old: before[field], New: after[field]})
		}
	}
	return changes
}

// CreateChanges emits one change per candidate field with a null old value.
// Null fields are emitted too: a create revision records the entire initial
// state, including an untriaged status.
func CreateChanges(after map[string]interface{}, fields []string) []FieldChange {
	changes := make([]FieldChange, 0, len(fields))
	for _, field := range fields {
		changes = append(changes, FieldChange{Field: field, Old: nil, New: after[field]})
	}
	return changes
}

// DeleteChanges emits one change per candidate field with a null new value.
func DeleteChanges(before map[string]interface{}, fields []string) []FieldChange {
	changes := make([]FieldChange, 0, len(fields))
	for _, field := range fields {
		changes = append(changes, FieldChange{Field: field, Old: before[field], New: nil})
	}
	return changes
}

func strOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func intOrNil(n *int) interface{} {
	if n == nil {
		return nil
	}
	return *n
}
