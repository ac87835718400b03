package domain

import (
	"time"

	"github.com/google/uuid"
)

// Link maps a short code to a destination URL. Both the code and the
// destination are unique: one code per destination, one destination per code.
type Link struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Destination string    `gorm:"column:destination;size:2048;not null;uniqueIndex" json:"destination"`
	Code        string    `gorm:"column:short_code;size:8;not null;uniqueIndex" json:"short_code"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM
func (Link) TableName() string {
	return "links"
}

// NewLink builds an unsaved link with a fresh id. Timestamps are assigned by
// the store on insert.
func NewLink(destination, code string) *Link {
	return &Link{
		ID:          uuid.New(),
		Destination: destination,
		Code:        code,
	}
}
