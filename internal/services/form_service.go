package services

import (
	"errors"
	"time"

	"github.com/leadchat-io/leadchat/internal/models"
	"github.com/leadchat-io/leadchat/internal/utils"
	"gorm.io/gorm"
)

// FormCreate carries the validated fields for a new form submission.
type FormCreate struct {
	ChatID      string
	Name        string
	Email       string
	PhoneNumber string
	Status      *int
}

// FormFilter narrows ListForms results.
type FormFilter struct {
	ChatID string
	Status *int
}

// GetForm retrieves a form submission by id
func GetForm(db *gorm.DB, id string) (*models.FormSubmission, error) {
	var form models.FormSubmission
	if err := db.First(&form, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &form, nil
}

// ListForms retrieves form submissions matching the filter
func ListForms(db *gorm.DB, filter FormFilter, offset, limit int) ([]models.FormSubmission, error) {
	query := db.Offset(offset).Limit(limit)
	if filter.ChatID != "" {
		query = query.Where("chat_id = ?", filter.ChatID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var forms []models.FormSubmission
	if err := query.Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

// CreateForm creates a form submission scoped to a chat, assigning its
// identifier and creation timestamp.
func CreateForm(db *gorm.DB, in FormCreate) (*models.FormSubmission, error) {
	form := models.FormSubmission{
		ID:          utils.NewToken(),
		CreatedAt:   time.Now().UTC(),
		ChatID:      in.ChatID,
		Name:        &in.Name,
		Email:       &in.Email,
		PhoneNumber: &in.PhoneNumber,
		Status:      in.Status,
	}
	if err := db.Create(&form).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

// UpdateForm applies a partial update to a form submission and returns the
// refreshed row. Only the fields present in the map are touched; a nil map
// value sets the column to NULL. The keys are column names.
func UpdateForm(db *gorm.DB, form *models.FormSubmission, fields map[string]interface{}) (*models.FormSubmission, error) {
	if len(fields) == 0 {
		return form, nil
	}
	err := db.Model(&models.FormSubmission{}).
		Where("id = ?", form.ID).
		Updates(fields).Error
	if err != nil {
		return nil, err
	}
	return GetForm(db, form.ID)
}

// RemoveForm deletes a form submission by id and returns its final state.
func RemoveForm(db *gorm.DB, id string) (*models.FormSubmission, error) {
	form, err := GetForm(db, id)
	if err != nil {
		return nil, err
	}
	if err := db.Delete(&models.FormSubmission{}, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return form, nil
}
