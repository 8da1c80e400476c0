// common.go
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
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/leadchat-io/leadchat/internal/models"
)

// requestID extracts the correlation token set by the requestid middleware.
// It is threaded into every audit revision written while handling the
// request.
func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

// parseStatusFilter reads the optional ?status= query parameter. It returns
// nil when the parameter is absent and ok=false when the value is not a
// valid status.
func parseStatusFilter(c *fiber.Ctx) (status *int, ok bool) {
	raw := c.Query("status")
	if raw == "" {
		return nil, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || !models.ValidFormStatus(value) {
		return nil, false
	}
	return &value, true
}
