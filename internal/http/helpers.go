package http

import (
	"strings"

	"fintrack/internal/core"
)

// sanitizeInput removes control characters other than tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

func sanitizeTransaction(t *core.Transaction) {
	t.Description = sanitizeInput(t.Description)
	t.Notes = sanitizeInput(t.Notes)
	if t.CategoryID != nil {
		id := sanitizeInput(*t.CategoryID)
		if id == "" {
			t.CategoryID = nil
		} else {
			t.CategoryID = &id
		}
	}
}

func sanitizeCategory(c *core.Category) {
	c.Name = sanitizeInput(c.Name)
	c.Color = sanitizeInput(c.Color)
	c.Icon = sanitizeInput(c.Icon)
}
