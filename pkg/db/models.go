// pkg/db/models.go
package db

import (
	"time"

	"gorm.io/gorm"
)

// MaxQuoteLength is the display limit of the notification channels; longer
// quotes get truncated by carriers, so they are rejected at the door.
const MaxQuoteLength = 178

type Quote struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Text       string     `gorm:"not null" json:"text"`
	Author     string     `json:"author,omitempty"`
	AddedAt    time.Time  `json:"added_at"`
	TimesSent  int        `gorm:"not null;default:0" json:"times_sent"`
	LastSentAt *time.Time `json:"last_sent_at,omitempty"`
}

func (q *Quote) BeforeCreate(tx *gorm.DB) error {
	if q.AddedAt.IsZero() {
		q.AddedAt = time.Now().UTC()
	}
	return nil
}

// RotationEntry binds a quote to its slot in the current cycle. The full set
// is replaced on rebuild; at most one entry exists per quote at any time.
type RotationEntry struct {
	ID       uint `gorm:"primaryKey"`
	QuoteID  uint `gorm:"not null;index"`
	Position int  `gorm:"not null;index"`
	Sent     bool `gorm:"not null;default:false"`
}

type PushToken struct {
	ID      uint   `gorm:"primaryKey"`
	Token   string `gorm:"uniqueIndex;not null"`
	AddedAt time.Time
}

func (t *PushToken) BeforeCreate(tx *gorm.DB) error {
	if t.AddedAt.IsZero() {
		t.AddedAt = time.Now().UTC()
	}
	return nil
}

type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"not null"`
}

// DayClaim reserves a calendar day for the external once-daily caller,
// independently of the scheduler's own last_sent_date setting.
type DayClaim struct {
	Day       string `gorm:"primaryKey"` // 2006-01-02
	QuoteID   uint
	CreatedAt time.Time
}
