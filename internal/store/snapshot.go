package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// Snapshot is the JSON seed format shared by the memory backend and the seed command.
type Snapshot struct {
	Categories []core.Category `json:"categories"`
	Income     []core.Income   `json:"income"`
	Expenses   []core.Expense  `json:"expenses"`
	Settings   []core.Settings `json:"settings"`
}

// LoadSnapshot reads a seed file.
func LoadSnapshot(path string) (Snapshot, error) {
	var snap Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, fmt.Errorf("read seed file: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return snap, nil
}

// ForOwner returns a copy of the snapshot with every record assigned to
// ownerID under a fresh ID, so one snapshot can seed several owners. Category
// references are rewritten to the new category IDs; references to categories
// missing from the snapshot are kept as they are.
func (s Snapshot) ForOwner(ownerID string) Snapshot {
	out := Snapshot{
		Categories: append([]core.Category(nil), s.Categories...),
		Income:     append([]core.Income(nil), s.Income...),
		Expenses:   append([]core.Expense(nil), s.Expenses...),
		Settings:   append([]core.Settings(nil), s.Settings...),
	}

	ids := make(map[string]string, len(out.Categories))
	for i := range out.Categories {
		c := &out.Categories[i]
		newID := uuid.NewString()
		if c.ID != "" {
			ids[c.ID] = newID
		}
		c.ID, c.OwnerID = newID, ownerID
	}
	rebind := func(t *core.Transaction) {
		t.ID, t.OwnerID = uuid.NewString(), ownerID
		if t.CategoryID == nil {
			return
		}
		if id, ok := ids[*t.CategoryID]; ok {
			t.CategoryID = &id
		}
	}
	for i := range out.Income {
		rebind(&out.Income[i].Transaction)
	}
	for i := range out.Expenses {
		rebind(&out.Expenses[i].Transaction)
	}
	for i := range out.Settings {
		out.Settings[i].ID, out.Settings[i].OwnerID = "", ownerID
	}
	return out
}

// ImportStats counts the records written by Import.
type ImportStats struct {
	Categories int
	Income     int
	Expenses   int
	Settings   int
}

// Import validates and saves every record of snap into st. It stops at the
// first failure.
func Import(ctx context.Context, st Store, snap Snapshot) (ImportStats, error) {
	var stats ImportStats
	for _, c := range snap.Categories {
		if err := c.Validate(); err != nil {
			return stats, fmt.Errorf("category %q: %w", c.Name, err)
		}
		if _, err := st.SaveCategory(ctx, c); err != nil {
			return stats, fmt.Errorf("save category %q: %w", c.Name, err)
		}
		stats.Categories++
	}
	for _, in := range snap.Income {
		if err := in.Validate(); err != nil {
			return stats, fmt.Errorf("income %q: %w", in.Description, err)
		}
		if _, err := st.SaveIncome(ctx, in); err != nil {
			return stats, fmt.Errorf("save income %q: %w", in.Description, err)
		}
		stats.Income++
	}
	for _, e := range snap.Expenses {
		if err := e.Validate(); err != nil {
			return stats, fmt.Errorf("expense %q: %w", e.Description, err)
		}
		if _, err := st.SaveExpense(ctx, e); err != nil {
			return stats, fmt.Errorf("save expense %q: %w", e.Description, err)
		}
		stats.Expenses++
	}
	for _, s := range snap.Settings {
		if err := s.Validate(); err != nil {
			return stats, fmt.Errorf("settings for %s: %w", s.OwnerID, err)
		}
		if _, err := st.SaveSettings(ctx, s); err != nil {
			return stats, fmt.Errorf("save settings for %s: %w", s.OwnerID, err)
		}
		stats.Settings++
	}
	return stats, nil
}
