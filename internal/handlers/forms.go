// forms.go
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
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/leadchat-io/leadchat/internal/models"
	"github.com/leadchat-io/leadchat/internal/services"
	"github.com/leadchat-io/leadchat/internal/utils"
	"gorm.io/gorm"
)

// FormHandler handles form submission routes
type FormHandler struct {
	DB *gorm.DB
}

// formUpdatableKeys is the order in which update payload keys are applied
// and diffed.
var formUpdatableKeys = []string{"name", "email", "phone_number", "status"}

// UpdateForm handles PUT /api/forms/:formId
// @Summary Update a form submission
// @Description Partially update a form submission. Status must be null, 1 (TO DO), 2 (IN PROGRESS), or 3 (COMPLETED); name, email, and phone_number cannot be set to null.
// @Tags Forms
// @Accept json
// @Produce json
// @Param formId path string true "Form ID"
// @Param body body object true "Fields to update"
// @Success 200 {object} models.FormSubmission
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /forms/{formId} [put]
func (h *FormHandler) UpdateForm(c *fiber.Ctx) error {
	formID := c.Params("formId")

	form, err := services.GetForm(h.DB, formID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFoundResponse(c, "Form not found")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "updateForm")
	}

	// Raw keys are needed to tell an explicit null from an absent field.
	var body map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return utils.ErrorResponse(c, "Invalid JSON body", fiber.StatusBadRequest, "updateForm")
	}

	updates := map[string]interface{}{}
	var requested []string
	for _, key := range formUpdatableKeys {
		raw, present := body[key]
		if !present {
			continue
		}

		if key == "status" {
			if string(raw) == "null" {
				// An explicit null clears the status (back to untriaged).
				updates[key] = nil
			} else {
				var value int
				if err := json.Unmarshal(raw, &value); err != nil || !models.ValidFormStatus(value) {
					return utils.ErrorResponse(c,
						"Status must be null, 1 (TO DO), 2 (IN PROGRESS), or 3 (COMPLETED)",
						fiber.StatusBadRequest, "updateForm")
				}
				updates[key] = value
			}
			requested = append(requested, key)
			continue
		}

		if string(raw) == "null" {
			return utils.ErrorResponse(c, fmt.Sprintf("%s cannot be null", key), fiber.StatusBadRequest, "updateForm")
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return utils.ErrorResponse(c, fmt.Sprintf("%s must be a string", key), fiber.StatusBadRequest, "updateForm")
		}
		updates[key] = value
		requested = append(requested, key)
	}

	before := services.FormSnapshot(form)
	updated, err := services.UpdateForm(h.DB, form, updates)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "updateForm")
	}

	changes := services.DiffFields(before, services.FormSnapshot(updated), requested)
	if len(changes) > 0 {
		if err := services.RecordRevision(h.DB, services.RevisionRecord{
			EntityType: models.AuditEntityFormSubmission,
			EntityID:   formID,
			EventType:  models.AuditEventUpdate,
			Source:     models.AuditSourceAPI,
			RequestID:  requestID(c),
			Changes:    changes,
		}); err != nil {
			// Best-effort: the mutation has already committed.
			log.Printf("Audit write failed for form %s update: %v", formID, err)
		}
	}

	return utils.SuccessResponse(c, updated, fiber.StatusOK)
}

// DeleteForm handles DELETE /api/forms/:formId
// @Summary Delete a form submission
// @Description Delete a form submission by id
// @Tags Forms
// @Accept json
// @Produce json
// @Param formId path string true "Form ID"
// @Success 200 {object} utils.DeleteResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /forms/{formId} [delete]
func (h *FormHandler) DeleteForm(c *fiber.Ctx) error {
	formID := c.Params("formId")

	form, err := services.GetForm(h.DB, formID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFoundResponse(c, "Form not found")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "deleteForm")
	}

	before := services.FormSnapshot(form)
	if _, err := services.RemoveForm(h.DB, formID); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "deleteForm")
	}

	if err := services.RecordRevision(h.DB, services.RevisionRecord{
		EntityType: models.AuditEntityFormSubmission,
		EntityID:   formID,
		EventType:  models.AuditEventDelete,
		Source:     models.AuditSourceAPI,
		RequestID:  requestID(c),
		Changes:    services.DeleteChanges(before, services.FormFields()),
	}); err != nil {
		log.Printf("Audit write failed for form %s delete: %v", formID, err)
	}

	return utils.DeleteSuccessResponse(c, "Form deleted successfully", formID)
}

// GetFormHistory handles GET /api/forms/:formId/history
// @Summary Get a form's audit history
// @Description List the audit revisions recorded for a form, newest first, each embedding its field-level changes
// @Tags Forms
// @Accept json
// @Produce json
// @Param formId path string true "Form ID"
// @Success 200 {array} models.AuditRevision
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /forms/{formId}/history [get]
func (h *FormHandler) GetFormHistory(c *fiber.Ctx) error {
	formID := c.Params("formId")

	revisions, err := services.GetEntityHistory(h.DB, models.AuditEntityFormSubmission, formID)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "getFormHistory")
	}

	for i := range revisions {
		if revisions[i].Changes == nil {
			revisions[i].Changes = []models.AuditChange{}
		}
	}
	if revisions == nil {
		revisions = []models.AuditRevision{}
	}
	return utils.SuccessResponse(c, revisions, fiber.StatusOK)
}
