package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/leadchat-io/leadchat/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Chat{},
		&models.FormSubmission{},
		&models.AuditRevision{},
		&models.AuditChange{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func TestRecordRevisionWritesRevisionAndChanges(t *testing.T) {
	db := setupTestDB(t)

	err := RecordRevision(db, RevisionRecord{
		EntityType: models.AuditEntityFormSubmission,
		EntityID:   "form1",
		EventType:  models.AuditEventUpdate,
		Source:     models.AuditSourceAPI,
		RequestID:  "req-1",
		Changes: []FieldChange{
			{Field: "name", Old: "Ada", New: "Ada Lovelace"},
			{Field: "status", Old: nil, New: 2},
		},
	})
	if err != nil {
		t.Fatalf("RecordRevision failed: %v", err)
	}

	revisions, err := GetEntityHistory(db, models.AuditEntityFormSubmission, "form1")
	if err != nil {
		t.Fatalf("GetEntityHistory failed: %v", err)
	}
	if len(revisions) != 1 {
		t.Fatalf("Expected 1 revision, got %d", len(revisions))
	}

	rev := revisions[0]
	if rev.EventType != models.AuditEventUpdate {
		t.Errorf("Expected event type %q, got %q", models.AuditEventUpdate, rev.EventType)
	}
	if rev.Source == nil || *rev.Source != models.AuditSourceAPI {
		t.Errorf("Expected source %q, got %v", models.AuditSourceAPI, rev.Source)
	}
	if rev.RequestID == nil || *rev.RequestID != "req-1" {
		t.Errorf("Expected request id 'req-1', got %v", rev.RequestID)
	}
	// Empty optional strings store as NULL
	if rev.ActorType != nil || rev.ActorID != nil || rev.Reason != nil {
		t.Errorf("Expected nil actor/reason fields, got %v %v %v", rev.ActorType, rev.ActorID, rev.Reason)
	}

	if len(rev.Changes) != 2 {
		t.Fatalf("Expected 2 changes, got %d", len(rev.Changes))
	}
	if rev.Changes[0].Field != "name" {
		t.Errorf("Expected first change 'name', got %q", rev.Changes[0].Field)
	}
	var oldName string
	if err := json.Unmarshal(rev.Changes[0].OldValue.JSON, &oldName); err != nil || oldName != "Ada" {
		t.Errorf("Expected old value \"Ada\", got %s", string(rev.Changes[0].OldValue.JSON))
	}
	if len(rev.Changes[1].OldValue.JSON) != 0 && string(rev.Changes[1].OldValue.JSON) != "null" {
		t.Errorf("Expected null old value for status, got %s", string(rev.Changes[1].OldValue.JSON))
	}
	var newStatus int
	if err := json.Unmarshal(rev.Changes[1].NewValue.JSON, &newStatus); err != nil || newStatus != 2 {
		t.Errorf("Expected new status 2, got %s", string(rev.Changes[1].NewValue.JSON))
	}
}

func TestGetEntityHistoryNewestFirst(t *testing.T) {
	db := setupTestDB(t)

	events := []string{models.AuditEventCreate, models.AuditEventUpdate, models.AuditEventDelete}
	for _, ev := range events {
		if err := RecordRevision(db, RevisionRecord{
			EntityType: models.AuditEntityFormSubmission,
			EntityID:   "form1",
			EventType:  ev,
			Source:     models.AuditSourceChatTool,
		}); err != nil {
			t.Fatalf("RecordRevision(%s) failed: %v", ev, err)
		}
		// Distinct created_at values so ordering is deterministic
		time.Sleep(5 * time.Millisecond)
	}

	revisions, err := GetEntityHistory(db, models.AuditEntityFormSubmission, "form1")
	if err != nil {
		t.Fatalf("GetEntityHistory failed: %v", err)
	}
	if len(revisions) != 3 {
		t.Fatalf("Expected 3 revisions, got %d", len(revisions))
	}
	if revisions[0].EventType != models.AuditEventDelete ||
		revisions[1].EventType != models.AuditEventUpdate ||
		revisions[2].EventType != models.AuditEventCreate {
		t.Errorf("Expected newest-first ordering delete/update/create, got %s/%s/%s",
			revisions[0].EventType, revisions[1].EventType, revisions[2].EventType)
	}
}

func TestGetEntityHistoryScopedToEntity(t *testing.T) {
	db := setupTestDB(t)

	if err := RecordRevision(db, RevisionRecord{
		EntityType: models.AuditEntityFormSubmission,
		EntityID:   "form1",
		EventType:  models.AuditEventCreate,
	}); err != nil {
		t.Fatalf("RecordRevision failed: %v", err)
	}

	revisions, err := GetEntityHistory(db, models.AuditEntityFormSubmission, "other")
	if err != nil {
		t.Fatalf("GetEntityHistory failed: %v", err)
	}
	if len(revisions) != 0 {
		t.Errorf("Expected no revisions for unrelated entity, got %d", len(revisions))
	}
}
