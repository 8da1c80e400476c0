package services

import (
	"time"

	"github.com/leadchat-io/leadchat/internal/models"
	"github.com/leadchat-io/leadchat/internal/utils"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// RevisionRecord describes one logical mutation event for the audit ledger.
// Empty optional strings are stored as NULL.
type RevisionRecord struct {
	EntityType string
	EntityID   string
	EventType  string
	Source     string
	ActorType  string
	ActorID    string
	Reason     string
	RequestID  string
	Changes    []FieldChange
}

// RecordRevision appends one revision plus one change row per entry to the
// audit ledger. It commits in its own transaction, independent of the
// domain mutation it describes: a failure here leaves an audit gap, never
// a rolled-back mutation. Callers invoke it only after the mutation has
// committed.
func RecordRevision(db *gorm.DB, rec RevisionRecord) error {
	now := time.Now().UTC()

	revision := models.AuditRevision{
		ID:         utils.NewToken(),
		CreatedAt:  now,
		EntityType: rec.EntityType,
		EntityID:   rec.EntityID,
		EventType:  rec.EventType,
		ActorType:  nullableString(rec.ActorType),
		ActorID:    nullableString(rec.ActorID),
		Source:     nullableString(rec.Source),
		Reason:     nullableString(rec.Reason),
		RequestID:  nullableString(rec.RequestID),
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&revision).Error; err != nil {
			return err
		}
		for _, ch := range rec.Changes {
			change := models.AuditChange{
				ID:         utils.NewToken(),
				CreatedAt:  now,
				RevisionID: revision.ID,
				Field:      ch.Field,
				OldValue:   models.NewJSON(ch.Old),
				NewValue:   models.NewJSON(ch.New),
			}
			if err := tx.Create(&change).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetEntityHistory returns the revisions recorded for an entity, newest
// first, each embedding its changes in insertion order.
func GetEntityHistory(db *gorm.DB, entityType, entityID string) ([]models.AuditRevision, error) {
	var revisions []models.AuditRevision
	err := db.Clauses(hints.CommentBefore("select", "audit_history")).
		Preload("Changes").
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&revisions).Error
	if err != nil {
		return nil, err
	}
	return revisions, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
