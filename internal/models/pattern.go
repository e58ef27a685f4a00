package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Pattern struct {
	ID            uuid.UUID
	DesignerID    uuid.UUID
	Title         string
	Price         int64
	Active        bool
	Files         PatternFileList
	PreviewImages StringList
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PatternFile describes one downloadable file belonging to a pattern. The
// same design is often uploaded in several machine formats (DST, PES, ...),
// so a pattern carries a list of these.
type PatternFile struct {
	Path         string `json:"path"`
	OriginalName string `json:"original_name"`
	Format       string `json:"format"`
	Size         int64  `json:"size"`
	Primary      bool   `json:"primary"`
}

// PatternFileList is stored as a JSONB column.
type PatternFileList []PatternFile

func (l *PatternFileList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	data, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into PatternFileList", value)
	}
	return json.Unmarshal(data, l)
}

func (l PatternFileList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// StringList is stored as a JSONB column.
type StringList []string

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	data, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	return json.Unmarshal(data, l)
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}
