package models

import (
	"time"
)

// Audit event types
const (
	AuditEventCreate = "create"
	AuditEventUpdate = "update"
	AuditEventDelete = "delete"
)

// Audit sources
const (
	AuditSourceAPI      = "api"
	AuditSourceUI       = "ui"
	AuditSourceChatTool = "chat_tool"
)

// Audit entity types
const (
	AuditEntityFormSubmission = "form_submission"
)

// AuditRevision is one append-only ledger entry for a single logical
// mutation. EntityID is deliberately not a foreign key: the mutated entity
// may be deleted later while its history remains.
type AuditRevision struct {
	ID         string        `gorm:"primaryKey;size:32" json:"id"`
	CreatedAt  time.Time     `gorm:"index" json:"created_at"`
	EntityType string        `gorm:"size:64;index:idx_revision_entity;not null" json:"entity_type"`
	EntityID   string        `gorm:"size:32;index:idx_revision_entity;not null" json:"entity_id"`
	EventType  string        `gorm:"size:16;index;not null" json:"event_type"`
	ActorType  *string       `gorm:"size:64" json:"actor_type"`
	ActorID    *string       `gorm:"size:64" json:"actor_id"`
	Source     *string       `gorm:"size:32" json:"source"`
	Reason     *string       `gorm:"size:255" json:"reason"`
	RequestID  *string       `gorm:"size:64" json:"request_id"`
	Changes    []AuditChange `gorm:"foreignKey:RevisionID;constraint:OnDelete:CASCADE" json:"changes"`
}

// AuditChange is a single field-level before/after delta belonging to
// exactly one revision. Old and new values are stored as JSON so any
// field type (string, int, null) round-trips unchanged.
type AuditChange struct {
	ID         string    `gorm:"primaryKey;size:32" json:"id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	RevisionID string    `gorm:"size:32;index;not null" json:"-"`
	Field      string    `gorm:"size:64;index;not null" json:"field"`
	OldValue   JSON      `gorm:"type:json" json:"old_value"`
	NewValue   JSON      `gorm:"type:json" json:"new_value"`
}

// TableName overrides the table name for AuditRevision
func (AuditRevision) TableName() string {
	return "audit_revisions"
}

// TableName overrides the table name for AuditChange
func (AuditChange) TableName() string {
	return "audit_changes"
}
