package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSONB for PostgreSQL JSON support
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, &j)
}

// AuditLog records admin actions and reversal events for the audit trail.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorID    *uint     `gorm:"index" json:"actor_id,omitempty"`
	Actor      *User     `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Action     string    `gorm:"size:100;not null" json:"action"`
	TargetType string    `gorm:"size:50" json:"target_type"`
	TargetID   *uint     `json:"target_id,omitempty"`
	Details    JSONB     `gorm:"type:jsonb" json:"details"`
	IPAddress  string    `gorm:"size:45" json:"ip_address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
