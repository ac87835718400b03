package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessCounter holds the running access count for a link. There is one row
// per link and the analytics pipeline's worker is its only writer, so the
// count is monotonically non-decreasing.
type AccessCounter struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	LinkID      uuid.UUID      `gorm:"column:link_id;type:uuid;not null;uniqueIndex" json:"link_id"`
	AccessCount int64          `gorm:"column:access_count;not null;default:0" json:"access_count"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

// TableName returns the table name for GORM
func (AccessCounter) TableName() string {
	return "access_counters"
}

// AccessLogEntry is one recorded access to a link. Rows are append-only and
// reference the owning counter.
type AccessLogEntry struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CounterID  uuid.UUID `gorm:"column:counter_id;type:uuid;not null;index" json:"counter_id"`
	IPAddress  string    `gorm:"column:ip_address;size:45" json:"ip_address"`
	UserAgent  string    `gorm:"column:user_agent;type:text" json:"user_agent"`
	DeviceType string    `gorm:"column:device_type;size:10" json:"device_type"`
	AccessedAt time.Time `gorm:"column:accessed_at;index" json:"accessed_at"`
}

// TableName returns the table name for GORM
func (AccessLogEntry) TableName() string {
	return "access_logs"
}

// StatsReport is the read model returned to the stats endpoint: the counter
// value plus the most recent log entries for one link.
type StatsReport struct {
	LinkID      uuid.UUID        `json:"link_id"`
	AccessCount int64            `json:"access_count"`
	Recent      []AccessLogEntry `json:"recent_accesses"`
}
