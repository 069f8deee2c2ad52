package models

import (
	"encoding/json"
	"time"
)

// AuditEntry is a write-once record of an administrative action.
type AuditEntry struct {
	ID         string          `json:"id" db:"id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   string          `json:"entity_id" db:"entity_id"`
	BeforeData json.RawMessage `json:"before_data,omitempty" db:"before_data"`
	AfterData  json.RawMessage `json:"after_data,omitempty" db:"after_data"`
	AdminLabel string          `json:"admin_label" db:"admin_label"`
	IP         string          `json:"ip" db:"ip"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
