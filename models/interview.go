package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Interview types match the values offered in the setup form
const (
	InterviewTypeTechnical  = "Technical"
	InterviewTypeBehavioral = "Behavioral"
	InterviewTypeMixed      = "Mixed"
)

// Interview represents one interview definition, created either eagerly by a
// generation request with AI-produced questions or lazily at the end of a
// freeform dynamic call
type Interview struct {
	ID         string                      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID     string                      `gorm:"type:uuid;not null;index" json:"user_id"`
	Role       string                      `gorm:"not null" json:"role"`
	Type       string                      `gorm:"not null;check:type IN ('Technical', 'Behavioral', 'Mixed')" json:"type"`
	Level      string                      `gorm:"size:50" json:"level,omitempty"` // Entry Level, Middle, Senior
	TechStack  TechStack                   `gorm:"type:jsonb" json:"techstack"`
	Questions  datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"questions"`
	Finalized  bool                        `gorm:"default:false;index" json:"finalized"` // Required for listing visibility
	Completed  bool                        `gorm:"default:false" json:"completed"`
	Company    string                      `gorm:"size:255" json:"company,omitempty"`
	CoverImage string                      `gorm:"size:500" json:"cover_image,omitempty"`
	CreatedAt  time.Time                   `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
	DeletedAt  gorm.DeletedAt              `gorm:"index" json:"-"`

	// Relationships
	User     User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Feedback []Feedback `gorm:"foreignKey:InterviewID" json:"feedback,omitempty"`
}

// TechStack is an ordered list of technology names. Stored as a jsonb array,
// but legacy rows hold a comma-joined string instead - both forms are accepted
// on read.
type TechStack []string

func (t TechStack) Value() (driver.Value, error) {
	if t == nil {
		t = TechStack{}
	}
	data, err := json.Marshal([]string(t))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal techstack: %w", err)
	}
	return string(data), nil
}

func (t *TechStack) Scan(value interface{}) error {
	if value == nil {
		*t = TechStack{}
		return nil
	}

	var raw string
	switch v := value.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("unsupported techstack column type %T", value)
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		*t = list
		return nil
	}

	// Legacy rows store the stack as a single comma-joined string, either as a
	// JSON string value or as a bare text column
	var joined string
	if err := json.Unmarshal([]byte(raw), &joined); err != nil {
		joined = raw
	}

	*t = SplitTechStack(joined)
	return nil
}

// SplitTechStack parses a comma-joined technology string into an ordered list,
// trimming whitespace and discarding empty entries
func SplitTechStack(joined string) []string {
	parts := strings.Split(joined, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}
