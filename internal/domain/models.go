package domain

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User type enum
type UserType string

const (
	UserTypeAttendee UserType = "attendee"
	UserTypeBrand    UserType = "brand"
)

func (t UserType) Valid() bool {
	return t == UserTypeAttendee || t == UserTypeBrand
}

// StringList is stored as jsonb. Older rows carried photo_url in several
// shapes (bare string, JSON array, JSON-encoded string of an array); Scan
// normalizes all of them to a plain []string so nothing downstream has to
// branch on shape.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		*l = nil
		return nil
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}

	var urls []string
	if err := json.Unmarshal(raw, &urls); err == nil {
		*l = urls
		return nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			*l = nil
			return nil
		}
		// Could be an array that was JSON-encoded twice.
		if err := json.Unmarshal([]byte(single), &urls); err == nil {
			*l = urls
			return nil
		}
		*l = StringList{single}
		return nil
	}

	// Not JSON at all: treat as a single raw URL.
	*l = StringList{string(raw)}
	return nil
}

// Feedback is one submitted entry. Rows are immutable once created; the
// only write after Create is Delete.
type Feedback struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UserType    UserType   `gorm:"type:varchar(16);not null" json:"user_type"`
	Name        string     `gorm:"type:varchar(120);not null" json:"name"`
	IsAnonymous bool       `gorm:"not null;default:false" json:"is_anonymous"`
	Email       string     `gorm:"type:varchar(255);not null;index" json:"email"`
	Rating      *int       `gorm:"type:smallint" json:"rating,omitempty"`
	Feedback    string     `gorm:"type:text;not null" json:"feedback"`
	PhotoURLs   StringList `gorm:"type:jsonb;column:photo_url" json:"photo_url,omitempty"`
	Consent     bool       `gorm:"not null;default:false" json:"consent"`
}

func (Feedback) TableName() string { return "feedback" }

func (m *Feedback) BeforeCreate(tx *gorm.DB) error {
	setUUIDIfEmpty(&m.ID)
	return nil
}

func setUUIDIfEmpty(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
