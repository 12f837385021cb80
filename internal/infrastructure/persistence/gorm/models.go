// Package gorm provides the GORM-backed case repository. Each retained case
// is one row carrying the full snapshot as JSON plus a few indexed columns
// for ad-hoc inspection of the base.
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/convivio/convivio/internal/domain/menu"
	"github.com/google/uuid"
)

// SnapshotField stores a full case snapshot as a JSON column.
type SnapshotField menu.Snapshot

// Value implements driver.Valuer.
func (s SnapshotField) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *SnapshotField) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into SnapshotField", value)
	}
	return json.Unmarshal(data, s)
}

// CaseModel is the GORM model for retained cases.
type CaseModel struct {
	ID      uuid.UUID `gorm:"type:char(36);primaryKey"`
	Ordinal int       `gorm:"uniqueIndex;not null"`

	// Indexed problem columns for inspection queries.
	Event        string  `gorm:"type:varchar(100);index"`
	Style        string  `gorm:"type:varchar(100);index"`
	Season       string  `gorm:"type:varchar(20)"`
	Guests       int     `gorm:"default:0"`
	PricePerHead float64 `gorm:"default:0"`
	Score        int     `gorm:"default:0"`
	Utility      float64 `gorm:"default:0"`

	Snapshot  SnapshotField `gorm:"type:json"`
	CreatedAt time.Time
}

// TableName overrides the default pluralization.
func (CaseModel) TableName() string {
	return "menu_cases"
}

// ModelFromCase flattens a case into its row form.
func ModelFromCase(c *menu.MenuCase) *CaseModel {
	snap := c.Snapshot()
	model := &CaseModel{
		ID:           snap.ID,
		Ordinal:      snap.Ordinal,
		Event:        snap.Problem.Event,
		Style:        snap.Problem.Style,
		Season:       string(snap.Problem.Season),
		Guests:       snap.Problem.Guests,
		PricePerHead: c.Price(),
		Snapshot:     SnapshotField(snap),
		CreatedAt:    snap.CreatedAt,
	}
	if snap.Evaluation != nil {
		model.Score = snap.Evaluation.Score
		model.Utility = snap.Evaluation.Utility
	}
	return model
}

// CaseFromModel rebuilds the domain case from a row.
func CaseFromModel(m *CaseModel) (*menu.MenuCase, error) {
	return menu.FromSnapshot(menu.Snapshot(m.Snapshot))
}
